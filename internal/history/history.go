// Package history stores per-owner observation sequences.
//
// Every adapter returns observations ordered by RecordedAt and then by the
// store-assigned insertion sequence, and every operation is scoped to the
// owner it is given.
package history

import (
	"context"
	"errors"
	"sort"
	"time"

	"oddsledger/internal/multiplier"
)

// Source tells how an observation entered the history.
type Source string

const (
	// SourceScreenshot marks values recognized from an uploaded capture.
	SourceScreenshot Source = "screenshot"
	// SourceManual marks values typed in by the owner.
	SourceManual Source = "manual"
)

// ErrNoOwner is returned when an operation is attempted without an owner.
var ErrNoOwner = errors.New("history: owner is required")

// Observation is one canonical multiplier recorded for an owner.
type Observation struct {
	ID         string           `json:"id"`
	Owner      string           `json:"owner"`
	Value      multiplier.Value `json:"value"`
	RecordedAt time.Time        `json:"recordedAt"`
	Source     Source           `json:"source"`
	// Seq is assigned by the store and breaks RecordedAt ties.
	Seq int64 `json:"seq"`
}

// Store is the persistence contract used by the engine.
type Store interface {
	// Append adds batch to the end of owner's history. Either every
	// observation is stored or none is.
	Append(ctx context.Context, owner string, batch []Observation) error
	// Replace atomically discards owner's history and stores batch in its
	// place. Concurrent readers see the old or the new sequence, never a mix
	// and never an empty intermediate state.
	Replace(ctx context.Context, owner string, batch []Observation) error
	// List returns owner's history in chronological order.
	List(ctx context.Context, owner string) ([]Observation, error)
	Close() error
}

// SortChronological orders observations by RecordedAt, then Seq.
func SortChronological(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		if !obs[i].RecordedAt.Equal(obs[j].RecordedAt) {
			return obs[i].RecordedAt.Before(obs[j].RecordedAt)
		}
		return obs[i].Seq < obs[j].Seq
	})
}

// Values returns the canonical values of obs, preserving order.
func Values(obs []Observation) []multiplier.Value {
	out := make([]multiplier.Value, len(obs))
	for i, o := range obs {
		out[i] = o.Value
	}
	return out
}
