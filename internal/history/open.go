package history

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a store adapter.
type Options struct {
	Driver string
	// Dir holds memory-store snapshots. Empty keeps the memory store volatile.
	Dir         string
	SQLitePath  string
	DatabaseURL string
}

// Open builds the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		if opts.Dir == "" {
			return NewMemoryStore(), nil
		}
		return OpenMemoryStore(opts.Dir)
	case DriverSQLite:
		return OpenSQLiteStore(ctx, opts.SQLitePath)
	case DriverPostgres:
		return OpenPostgresStore(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
