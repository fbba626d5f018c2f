package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/crudgen/internal/emit"
)

const (
	runsTable    = "runs"
	entriesTable = "entries"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	schema_path   TEXT NOT NULL,
	schema_sha256 TEXT NOT NULL,
	targets       TEXT NOT NULL,
	status        TEXT NOT NULL,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER
);
CREATE TABLE IF NOT EXISTS entries (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	root   TEXT NOT NULL,
	path   TEXT NOT NULL,
	sha256 TEXT NOT NULL,
	size   INTEGER NOT NULL,
	PRIMARY KEY (run_id, root, path)
);
CREATE INDEX IF NOT EXISTS idx_runs_status_started ON runs (status, started_at DESC);
`

// SQLiteStore implements Store on a SQLite file. Queries are built with the
// ent SQL builder.
type SQLiteStore struct {
	drv *entsql.Driver
}

// Open opens or creates the manifest database at path.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating manifest: %w", err)
	}
	return &SQLiteStore{drv: entsql.OpenDB(dialect.SQLite, db)}, nil
}

func (s *SQLiteStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLiteStore) exec(ctx context.Context, q entsql.Querier) error {
	query, args := q.Query()
	_, err := s.drv.DB().ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) BeginRun(ctx context.Context, run Run) error {
	q := s.builder().Insert(runsTable).
		Columns("id", "schema_path", "schema_sha256", "targets", "status", "started_at").
		Values(run.ID, run.SchemaPath, run.SchemaSHA256, run.Targets, string(StatusRunning), run.StartedAt.UnixNano())
	if err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RecordEntries(ctx context.Context, runID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	q := s.builder().Insert(entriesTable).
		Columns("run_id", "root", "path", "sha256", "size")
	for _, e := range entries {
		q.Values(runID, string(e.Root), e.Path, e.SHA256, e.Size)
	}
	q.OnConflict(
		entsql.ConflictColumns("run_id", "root", "path"),
		entsql.ResolveWithNewValues(),
	)
	if err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("recording %d entries for run %s: %w", len(entries), runID, err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status Status, at time.Time) error {
	q := s.builder().Update(runsTable).
		Set("status", string(status)).
		Set("finished_at", at.UnixNano()).
		Where(entsql.EQ("id", runID))
	if err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	return nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	t := entsql.Table(runsTable)
	query, args := s.builder().
		Select(t.C("id"), t.C("schema_path"), t.C("schema_sha256"), t.C("targets"), t.C("status"), t.C("started_at"), t.C("finished_at")).
		From(t).
		Where(entsql.EQ(t.C("status"), string(StatusSucceeded))).
		OrderBy(entsql.Desc(t.C("started_at"))).
		Limit(1).
		Query()

	var (
		run      Run
		status   string
		started  int64
		finished sql.NullInt64
	)
	err := s.drv.DB().QueryRowContext(ctx, query, args...).
		Scan(&run.ID, &run.SchemaPath, &run.SchemaSHA256, &run.Targets, &status, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("reading latest run: %w", err)
	}
	run.Status = Status(status)
	run.StartedAt = time.Unix(0, started)
	if finished.Valid {
		run.FinishedAt = time.Unix(0, finished.Int64)
	}
	return &run, nil
}

func (s *SQLiteStore) Entries(ctx context.Context, runID string) ([]Entry, error) {
	t := entsql.Table(entriesTable)
	query, args := s.builder().
		Select(t.C("root"), t.C("path"), t.C("sha256"), t.C("size")).
		From(t).
		Where(entsql.EQ(t.C("run_id"), runID)).
		OrderBy(t.C("root"), t.C("path")).
		Query()

	rows, err := s.drv.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading entries of run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{RunID: runID}
		var root string
		if err := rows.Scan(&root, &e.Path, &e.SHA256, &e.Size); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Root = emit.Root(root)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.drv.Close()
}
