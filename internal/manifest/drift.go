package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matthewbaird/crudgen/internal/emit"
)

// DriftKind says how a file differs from what the run wrote.
type DriftKind string

const (
	DriftModified DriftKind = "modified"
	DriftMissing  DriftKind = "missing"
)

// Drift is one generated file that no longer matches the manifest.
type Drift struct {
	Root emit.Root `json:"root"`
	Path string    `json:"path"`
	Kind DriftKind `json:"kind"`
}

// Report is the result of a drift check against the latest run.
type Report struct {
	Run     *Run    `json:"run"`
	Checked int     `json:"checked"`
	Drift   []Drift `json:"drift"`
}

// Clean reports whether no file drifted.
func (r *Report) Clean() bool { return len(r.Drift) == 0 }

// Check compares every file of the latest run against the directories in
// roots. Entries whose root has no directory are skipped.
func Check(ctx context.Context, s Store, roots map[emit.Root]string) (*Report, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Entries(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	rep := &Report{Run: run}
	for _, e := range entries {
		dir, ok := roots[e.Root]
		if !ok {
			continue
		}
		rep.Checked++
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(e.Path)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			rep.Drift = append(rep.Drift, Drift{Root: e.Root, Path: e.Path, Kind: DriftMissing})
		case err != nil:
			return nil, fmt.Errorf("checking %s/%s: %w", e.Root, e.Path, err)
		case Hash(b) != e.SHA256:
			rep.Drift = append(rep.Drift, Drift{Root: e.Root, Path: e.Path, Kind: DriftModified})
		}
	}
	return rep, nil
}
