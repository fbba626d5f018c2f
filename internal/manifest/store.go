// Package manifest records what each generation run wrote, so later runs
// and the drift command can tell generated files from hand edits.
package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/crudgen/internal/emit"
)

// ErrNoRuns is returned when the manifest holds no finished run.
var ErrNoRuns = errors.New("manifest: no completed runs")

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one generation run.
type Run struct {
	ID           string    `json:"id"`
	SchemaPath   string    `json:"schemaPath"`
	SchemaSHA256 string    `json:"schemaSha256"`
	Targets      string    `json:"targets"`
	Status       Status    `json:"status"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt,omitzero"`
}

// Entry is one file written by a run.
type Entry struct {
	RunID  string    `json:"runId"`
	Root   emit.Root `json:"root"`
	Path   string    `json:"path"`
	SHA256 string    `json:"sha256"`
	Size   int64     `json:"size"`
}

// Store is the interface for reading and writing run records.
type Store interface {
	// BeginRun records a run in the running state.
	BeginRun(ctx context.Context, run Run) error

	// RecordEntries adds written files to a run. Recording a path twice
	// within one run keeps the later entry.
	RecordEntries(ctx context.Context, runID string, entries []Entry) error

	// FinishRun sets the final status of a run.
	FinishRun(ctx context.Context, runID string, status Status, at time.Time) error

	// LatestRun returns the most recent succeeded run, or ErrNoRuns.
	LatestRun(ctx context.Context) (*Run, error)

	// Entries returns the files of a run ordered by root and path.
	Entries(ctx context.Context, runID string) ([]Entry, error)

	Close() error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.New().String() }

// Hash returns the hex SHA-256 of b.
func Hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// EntryFor describes an artifact as written by run.
func EntryFor(runID string, a emit.Artifact) Entry {
	return Entry{
		RunID:  runID,
		Root:   a.Root,
		Path:   a.Path,
		SHA256: Hash(a.Content),
		Size:   int64(len(a.Content)),
	}
}
