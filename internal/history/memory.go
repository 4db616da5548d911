package history

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

const snapshotExt = ".jsonl"

// MemoryStore keeps histories in memory, partitioned by owner. When it is
// opened with a directory every owner's history is also snapshotted to a
// JSONL file after each write.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]Observation
	seq  int64
	dir  string
}

// NewMemoryStore creates an empty, non-persistent store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]Observation),
	}
}

// OpenMemoryStore creates a store backed by snapshot files in dir and loads
// any snapshots already there.
func OpenMemoryStore(dir string) (*MemoryStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	s := NewMemoryStore()
	s.dir = dir

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		if err := s.load(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) Append(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.logs[owner]
	next := make([]Observation, len(current), len(current)+len(batch))
	copy(next, current)
	next = append(next, s.stamp(owner, batch)...)
	SortChronological(next)

	return s.commit(owner, next)
}

func (s *MemoryStore) Replace(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.stamp(owner, batch)
	SortChronological(next)

	return s.commit(owner, next)
}

func (s *MemoryStore) List(ctx context.Context, owner string) ([]Observation, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	logData := s.logs[owner]
	out := make([]Observation, len(logData))
	copy(out, logData)
	return out, nil
}

// Count returns the number of observations held for owner.
func (s *MemoryStore) Count(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[owner])
}

func (s *MemoryStore) Close() error {
	return nil
}

// stamp copies batch, binding it to owner and assigning sequence numbers.
// Callers must hold the write lock.
func (s *MemoryStore) stamp(owner string, batch []Observation) []Observation {
	out := make([]Observation, len(batch))
	for i, o := range batch {
		s.seq++
		o.Owner = owner
		o.Seq = s.seq
		out[i] = o
	}
	return out
}

// commit persists next (when file-backed) and only then swaps it in, so a
// failed write leaves the previous history visible.
func (s *MemoryStore) commit(owner string, next []Observation) error {
	if s.dir != "" {
		if err := s.save(owner, next); err != nil {
			return err
		}
	}
	if len(next) == 0 {
		delete(s.logs, owner)
		return nil
	}
	s.logs[owner] = next
	return nil
}

func (s *MemoryStore) snapshotPath(owner string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(owner))
	return filepath.Join(s.dir, name+snapshotExt)
}

// load reads one owner snapshot. Invalid lines are skipped.
func (s *MemoryStore) load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var owner string
	var obs []Observation
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var o Observation
		if err := json.Unmarshal(scanner.Bytes(), &o); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping invalid JSON line in snapshot")
			continue
		}
		if o.Owner == "" {
			continue
		}
		owner = o.Owner
		s.seq = max(s.seq, o.Seq)
		obs = append(obs, o)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading snapshot: %w", err)
	}
	if owner == "" {
		return nil
	}

	SortChronological(obs)
	s.logs[owner] = obs
	log.Debug().Str("owner", owner).Int("count", len(obs)).Msg("Loaded history snapshot")
	return nil
}

// save writes an owner snapshot through a temp file and an atomic rename.
func (s *MemoryStore) save(owner string, obs []Observation) error {
	path := s.snapshotPath(owner)
	if len(obs) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove snapshot: %w", err)
		}
		return nil
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, o := range obs {
		if err := encoder.Encode(o); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode observation: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}
