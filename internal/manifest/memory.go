package manifest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	runs    []Run
	entries map[string]map[string]Entry // run id -> root/path -> entry
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]map[string]Entry{}}
}

func (s *MemoryStore) BeginRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[run.ID]; ok {
		return fmt.Errorf("recording run %s: already exists", run.ID)
	}
	run.Status = StatusRunning
	s.runs = append(s.runs, run)
	s.entries[run.ID] = map[string]Entry{}
	return nil
}

func (s *MemoryStore) RecordEntries(_ context.Context, runID string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entries[runID]
	if !ok {
		return fmt.Errorf("recording entries: unknown run %s", runID)
	}
	for _, e := range entries {
		e.RunID = runID
		m[string(e.Root)+"/"+e.Path] = e
	}
	return nil
}

func (s *MemoryStore) FinishRun(_ context.Context, runID string, status Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == runID {
			s.runs[i].Status = status
			s.runs[i].FinishedAt = at
			return nil
		}
	}
	return fmt.Errorf("finishing run: unknown run %s", runID)
}

func (s *MemoryStore) LatestRun(_ context.Context) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Run
	for i := range s.runs {
		r := s.runs[i]
		if r.Status != StatusSucceeded {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, ErrNoRuns
	}
	return latest, nil
}

func (s *MemoryStore) Entries(_ context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries[runID] {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := strings.Compare(string(a.Root), string(b.Root)); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
