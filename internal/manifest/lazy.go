package manifest

import (
	"context"
	"sync"
	"time"
)

// Lazy opens the SQLite store at Path on first use, so nothing is created
// on disk for runs that fail before their first write.
type Lazy struct {
	Path string

	mu    sync.Mutex
	store *SQLiteStore
}

// NewLazy returns a Lazy for path.
func NewLazy(path string) *Lazy { return &Lazy{Path: path} }

func (l *Lazy) open(ctx context.Context) (*SQLiteStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	s, err := Open(ctx, l.Path)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

func (l *Lazy) BeginRun(ctx context.Context, run Run) error {
	s, err := l.open(ctx)
	if err != nil {
		return err
	}
	return s.BeginRun(ctx, run)
}

func (l *Lazy) RecordEntries(ctx context.Context, runID string, entries []Entry) error {
	s, err := l.open(ctx)
	if err != nil {
		return err
	}
	return s.RecordEntries(ctx, runID, entries)
}

func (l *Lazy) FinishRun(ctx context.Context, runID string, status Status, at time.Time) error {
	s, err := l.open(ctx)
	if err != nil {
		return err
	}
	return s.FinishRun(ctx, runID, status, at)
}

func (l *Lazy) LatestRun(ctx context.Context) (*Run, error) {
	s, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	return s.LatestRun(ctx)
}

func (l *Lazy) Entries(ctx context.Context, runID string) ([]Entry, error) {
	s, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	return s.Entries(ctx, runID)
}

// Close closes the store if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
