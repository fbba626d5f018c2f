package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/manifest"
	"github.com/matthewbaird/crudgen/internal/output"
	"github.com/matthewbaird/crudgen/internal/progress"
	"github.com/matthewbaird/crudgen/internal/schema"
)

const source = `
model Post {
  id        Int       @id @default(autoincrement())
  title     String
  published Boolean
  authorId  Int
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}
`

type fakeScaffolder struct {
	mu      sync.Mutex
	calls   []string
	failOn  string
	started chan struct{}
	release chan struct{}

	fs              *output.Memory
	schemaAtInstall bool

	// reformat, when set, stands in for the formatter rewriting files.
	reformat func(dir string) error
}

func (f *fakeScaffolder) record(ctx context.Context, step string, root emit.Root) error {
	call := step + " " + string(root)
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.started != nil && step == "create" {
		close(f.started)
		f.started = nil
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if call == "install backend" && f.fs != nil {
		_, f.schemaAtInstall = f.fs.Read("out/app-backend/" + SchemaCopyPath)
	}
	if call == f.failOn {
		return errors.New("npm exited with status 1")
	}
	return nil
}

func (f *fakeScaffolder) CreateProject(ctx context.Context, root emit.Root, _ string) error {
	return f.record(ctx, "create", root)
}

func (f *fakeScaffolder) Install(ctx context.Context, root emit.Root, _ string) error {
	return f.record(ctx, "install", root)
}

func (f *fakeScaffolder) Format(ctx context.Context, root emit.Root, dir string) error {
	if err := f.record(ctx, "format", root); err != nil {
		return err
	}
	if f.reformat != nil {
		return f.reformat(dir)
	}
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recorder) Publish(_ context.Context, evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == progress.ArtifactWritten {
			continue
		}
		out = append(out, fmt.Sprintf("%s %s", e.Kind, e.Phase))
	}
	return out
}

type harness struct {
	runner   *Runner
	sc       *fakeScaffolder
	fs       *output.Memory
	store    *manifest.MemoryStore
	progress *recorder
	opts     Options
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.prisma")
	require.NoError(t, os.WriteFile(schemaPath, []byte(src), 0o644))

	h := &harness{
		sc:       &fakeScaffolder{},
		fs:       output.NewMemory(),
		store:    manifest.NewMemoryStore(),
		progress: &recorder{},
	}
	h.sc.fs = h.fs
	h.runner = NewRunner(Config{Scaffolder: h.sc, FS: h.fs, Manifest: h.store, Progress: h.progress})
	h.opts = Options{
		SchemaPath:  schemaPath,
		Target:      TargetBoth,
		BackendDir:  "out/app-backend",
		FrontendDir: "out/app-frontend",
		SharedDir:   "out/shared",
	}
	return h
}

func (h *harness) written(p string) bool {
	_, ok := h.fs.Read(p)
	return ok
}

func TestRun_Both(t *testing.T) {
	h := newHarness(t, source)
	res, err := h.runner.Run(context.Background(), h.opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"create backend", "install backend", "format backend",
		"create frontend", "install frontend", "format frontend",
	}, h.sc.calls)

	assert.Equal(t, []string{
		"run_started ",
		"phase_started extract", "phase_finished extract",
		"phase_started validate", "phase_finished validate",
		"phase_started contract", "phase_finished contract",
		"phase_started backend", "phase_finished backend",
		"phase_started frontend", "phase_finished frontend",
		"run_finished ",
	}, h.progress.kinds())

	assert.True(t, h.written("out/shared/zod/post.schema.ts"))
	assert.True(t, h.written("out/app-backend/src/post/post.service.ts"))
	assert.True(t, h.written("out/app-backend/src/main.ts"), "static backend file")
	assert.True(t, h.written("out/app-frontend/src/post/PostForm.tsx"))
	assert.True(t, h.written("out/app-frontend/src/utils/relations.ts"), "static frontend file")
	tsconfig, ok := h.fs.Read("out/app-backend/tsconfig.json")
	require.True(t, ok)
	assert.Contains(t, string(tsconfig), `"../shared/zod/*"`)

	assert.True(t, h.sc.schemaAtInstall, "schema is copied before install")
	schemaCopy, ok := h.fs.Read("out/app-backend/prisma/schema.prisma")
	require.True(t, ok)
	assert.Equal(t, source, string(schemaCopy))

	assert.Equal(t, len(h.fs.Paths()), res.Written)
	assert.Equal(t, "Post", res.Model.Entities[0].Name)

	latest, err := h.store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, latest.ID)
	assert.Equal(t, manifest.Hash([]byte(source)), latest.SchemaSHA256)
	entries, err := h.store.Entries(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, entries, res.Written)
}

func TestRun_ManifestMatchesFormattedFiles(t *testing.T) {
	h := newHarness(t, source)
	out := t.TempDir()
	h.opts.BackendDir = filepath.Join(out, "app-backend")
	h.opts.FrontendDir = filepath.Join(out, "app-frontend")
	h.opts.SharedDir = filepath.Join(out, "shared")
	h.sc.reformat = func(dir string) error {
		return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(p) != ".ts" {
				return err
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			return os.WriteFile(p, append(b, '\n'), 0o644)
		})
	}
	h.runner = NewRunner(Config{Scaffolder: h.sc, FS: output.Disk{}, Manifest: h.store})

	_, err := h.runner.Run(context.Background(), h.opts)
	require.NoError(t, err)

	rep, err := manifest.Check(context.Background(), h.store, map[emit.Root]string{
		emit.RootBackend:  h.opts.BackendDir,
		emit.RootFrontend: h.opts.FrontendDir,
		emit.RootShared:   h.opts.SharedDir,
	})
	require.NoError(t, err)
	assert.NotZero(t, rep.Checked)
	assert.Empty(t, rep.Drift)

	service, err := os.ReadFile(filepath.Join(h.opts.BackendDir, "src", "post", "post.service.ts"))
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(service, []byte("\n\n")), "formatter ran")
}

func TestRun_Targets(t *testing.T) {
	tests := []struct {
		target   Target
		calls    []string
		backend  bool
		frontend bool
	}{
		{TargetFront, []string{"create frontend"}, false, true},
		{TargetBack, []string{"create backend"}, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			h := newHarness(t, source)
			h.opts.Target = tt.target
			h.opts.SkipInstall = true
			h.opts.SkipFormat = true
			_, err := h.runner.Run(context.Background(), h.opts)
			require.NoError(t, err)

			assert.Equal(t, tt.calls, h.sc.calls)
			assert.True(t, h.written("out/shared/zod/post.schema.ts"), "contract is always generated")
			assert.Equal(t, tt.backend, h.written("out/app-backend/src/app.module.ts"))
			assert.Equal(t, tt.frontend, h.written("out/app-frontend/src/App.tsx"))
		})
	}
}

func TestRun_FailureLoggedAtDebug(t *testing.T) {
	h := newHarness(t, "model Post {\n  id Int @id\n}\n")
	core, logs := observer.New(zap.InfoLevel)
	h.runner = NewRunner(Config{Scaffolder: h.sc, FS: h.fs, Log: zap.New(core)})

	_, err := h.runner.Run(context.Background(), h.opts)
	require.Error(t, err)
	assert.Zero(t, logs.FilterMessage("run failed").Len())

	core, logs = observer.New(zap.DebugLevel)
	h.runner = NewRunner(Config{Scaffolder: h.sc, FS: h.fs, Log: zap.New(core)})
	_, err = h.runner.Run(context.Background(), h.opts)
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("run failed").Len())
}

func TestRun_InputErrorsWriteNothing(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		phase Phase
		check func(*testing.T, error)
	}{
		{"syntax", "model Post {\n  id Int @id\n", PhaseExtract, func(t *testing.T, err error) {
			var pe *schema.SchemaParseError
			assert.ErrorAs(t, err, &pe)
		}},
		{"audit fields", "model Post {\n  id Int @id\n}\n", PhaseValidate, func(t *testing.T, err error) {
			var ae *schema.MissingAuditFieldsError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "Post", ae.Missing[0].Entity)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.src)
			_, err := h.runner.Run(context.Background(), h.opts)
			var pe *PhaseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.phase, pe.Phase)
			tt.check(t, err)

			assert.Empty(t, h.fs.Paths())
			assert.Empty(t, h.sc.calls)
			_, err = h.store.LatestRun(context.Background())
			assert.ErrorIs(t, err, manifest.ErrNoRuns)
			kinds := h.progress.kinds()
			assert.Equal(t, "run_failed "+string(tt.phase), kinds[len(kinds)-1])
		})
	}
}

func TestRun_MissingSchema(t *testing.T) {
	h := newHarness(t, source)
	h.opts.SchemaPath = filepath.Join(t.TempDir(), "missing.prisma")
	_, err := h.runner.Run(context.Background(), h.opts)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_ScaffoldFailureKeepsEarlierFiles(t *testing.T) {
	h := newHarness(t, source)
	h.sc.failOn = "install frontend"
	_, err := h.runner.Run(context.Background(), h.opts)

	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseFrontend, pe.Phase)
	assert.Contains(t, err.Error(), "installing dependencies")
	assert.Equal(t, []string{
		"create backend", "install backend", "format backend",
		"create frontend", "install frontend",
	}, h.sc.calls)

	assert.True(t, h.written("out/shared/zod/post.schema.ts"))
	assert.True(t, h.written("out/app-backend/src/app.module.ts"))
	assert.False(t, h.written("out/app-frontend/src/App.tsx"), "install precedes emit")

	_, err = h.store.LatestRun(context.Background())
	assert.ErrorIs(t, err, manifest.ErrNoRuns, "failed runs are not the latest run")
}

func TestRun_DryRun(t *testing.T) {
	h := newHarness(t, source)
	h.opts.DryRun = true
	res, err := h.runner.Run(context.Background(), h.opts)
	require.NoError(t, err)

	assert.Empty(t, h.sc.calls)
	assert.True(t, h.written("out/app-backend/src/post/post.controller.ts"))
	assert.Len(t, res.Rendered.All(), len(res.Rendered.Contract)+len(res.Rendered.Backend)+len(res.Rendered.Frontend))
	_, err = h.store.LatestRun(context.Background())
	assert.ErrorIs(t, err, manifest.ErrNoRuns)
}

func TestRun_OneAtATime(t *testing.T) {
	h := newHarness(t, source)
	h.sc.started = make(chan struct{})
	h.sc.release = make(chan struct{})
	started := h.sc.started

	done := make(chan error, 1)
	go func() {
		_, err := h.runner.Run(context.Background(), h.opts)
		done <- err
	}()
	<-started

	_, err := h.runner.Run(context.Background(), h.opts)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(h.sc.release)
	require.NoError(t, <-done)

	_, err = h.runner.Run(context.Background(), h.opts)
	assert.NoError(t, err)
}

func TestRun_RequiresRoots(t *testing.T) {
	h := newHarness(t, source)
	h.opts.FrontendDir = ""
	_, err := h.runner.Run(context.Background(), h.opts)
	assert.ErrorContains(t, err, "no output directory for frontend")

	h.opts.Target = TargetBack
	_, err = h.runner.Run(context.Background(), h.opts)
	assert.NoError(t, err)
}

func TestParseTarget(t *testing.T) {
	for _, in := range []string{"front", "Frontend", " front "} {
		got, err := ParseTarget(in)
		require.NoError(t, err)
		assert.Equal(t, TargetFront, got)
	}
	for _, in := range []string{"back", "backend"} {
		got, err := ParseTarget(in)
		require.NoError(t, err)
		assert.Equal(t, TargetBack, got)
	}
	for _, in := range append([]string{"both", ""}, Choices[2]) {
		got, err := ParseTarget(in)
		require.NoError(t, err)
		assert.Equal(t, TargetBoth, got)
	}
	_, err := ParseTarget("sideways")
	assert.Error(t, err)
}

func TestRender_ContractOnly(t *testing.T) {
	m, err := schema.Parse([]byte(source))
	require.NoError(t, err)
	r, err := Render(m, Options{Target: TargetFront})
	require.NoError(t, err)
	assert.NotEmpty(t, r.Contract)
	assert.Empty(t, r.Backend)
	assert.NotEmpty(t, r.Frontend)
}

func TestRender_SharedAlias(t *testing.T) {
	m, err := schema.Parse([]byte(source))
	require.NoError(t, err)

	tests := []struct {
		name     string
		opts     Options
		backend  string
		frontend string
		vite     string
	}{
		{
			name:    "sibling layout",
			opts:    Options{Target: TargetBoth},
			backend:  `"@zod/*": [ "../shared/zod/*" ]`,
			frontend: `"@zod/*": [ "../shared/zod/*" ]`,
			vite:     `const shared = resolve(__dirname, "../shared");`,
		},
		{
			name: "custom shared dir",
			opts: Options{
				Target:      TargetBoth,
				BackendDir:  "out/app-backend",
				FrontendDir: "out/web/app",
				SharedDir:   "out/contracts",
			},
			backend:  `"@zod/*": [ "../contracts/zod/*" ]`,
			frontend: `"@zod/*": [ "../../contracts/zod/*" ]`,
			vite:     `const shared = resolve(__dirname, "../../contracts");`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Render(m, tt.opts)
			require.NoError(t, err)
			files := map[string]string{}
			for _, a := range r.All() {
				files[a.Key()] = string(a.Content)
			}
			assert.Contains(t, files["backend/tsconfig.json"], tt.backend)
			assert.Contains(t, files["frontend/vite.config.ts"], tt.vite)
			assert.Contains(t, files["frontend/tsconfig.app.json"], tt.frontend)
		})
	}
}
