// Package pipeline orchestrates a generation run: extract and validate the
// schema, then write the shared contract, the backend project and the
// frontend project. External effects go through the Scaffolder and
// FileSystem collaborators; output roots are explicit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/logging"
	"github.com/matthewbaird/crudgen/internal/manifest"
	"github.com/matthewbaird/crudgen/internal/progress"
	"github.com/matthewbaird/crudgen/internal/schema"
	"github.com/matthewbaird/crudgen/internal/static"
)

// SchemaCopyPath is where the schema is copied inside the backend project.
const SchemaCopyPath = "prisma/schema.prisma"

// Scaffolder creates, installs and formats a generated project.
type Scaffolder interface {
	CreateProject(ctx context.Context, root emit.Root, dir string) error
	Install(ctx context.Context, root emit.Root, dir string) error
	Format(ctx context.Context, root emit.Root, dir string) error
}

// FileSystem receives every generated and copied file. ReadFile serves
// the manifest, which hashes files as they are after formatting.
type FileSystem interface {
	WriteFile(path string, content []byte) error
	ReadFile(path string) ([]byte, error)
	CopyTree(src fs.FS, dst string) error
}

// Options describe one run.
type Options struct {
	SchemaPath  string
	Target      Target
	BackendDir  string
	FrontendDir string
	SharedDir   string
	SkipInstall bool
	SkipFormat  bool

	// DryRun renders and writes through FS but skips the Scaffolder and
	// the manifest.
	DryRun bool

	Labels map[string]map[string]string
}

func (o Options) roots() (map[emit.Root]string, error) {
	roots := map[emit.Root]string{emit.RootShared: o.SharedDir}
	if o.Target.Backend() {
		roots[emit.RootBackend] = o.BackendDir
	}
	if o.Target.Frontend() {
		roots[emit.RootFrontend] = o.FrontendDir
	}
	for root, dir := range roots {
		if dir == "" {
			return nil, fmt.Errorf("no output directory for %s", root)
		}
	}
	return roots, nil
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Model    *schema.Model
	Rendered *Rendered
	Roots    map[emit.Root]string
	Written  int
}

// Config holds the collaborators of a Runner. Manifest, Progress and Log
// are optional.
type Config struct {
	Scaffolder Scaffolder
	FS         FileSystem
	Manifest   manifest.Store
	Progress   progress.Publisher
	Log        *zap.Logger
	Now        func() time.Time
}

// Runner executes runs one at a time.
type Runner struct {
	mu  sync.Mutex
	cfg Config
	log *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Progress == nil {
		cfg.Progress = progress.Discard
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg, log: logging.Component(cfg.Log, "pipeline")}
}

// Run executes a run. It returns ErrRunInProgress when another Run is
// active and a *PhaseError when a phase fails.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	x := &run{Runner: r, opts: opts, id: manifest.NewRunID()}
	res, err := x.execute(ctx)
	if err != nil {
		phase := Phase("setup")
		var pe *PhaseError
		if errors.As(err, &pe) {
			phase = pe.Phase
		}
		x.abort(ctx, string(phase), err)
		return nil, err
	}
	return res, nil
}

type run struct {
	*Runner
	opts    Options
	id      string
	roots   map[emit.Root]string
	entries []manifest.Entry
	begun   bool
}

func (x *run) publish(ctx context.Context, evt progress.Event) {
	x.cfg.Progress.Publish(ctx, evt)
}

func (x *run) execute(ctx context.Context) (*Result, error) {
	roots, err := x.opts.roots()
	if err != nil {
		return nil, err
	}
	x.roots = roots
	x.publish(ctx, progress.NewRunStarted(x.id, x.opts.SchemaPath))
	x.log.Info("run started", zap.String("run", x.id), zap.String("schema", x.opts.SchemaPath), zap.String("target", string(x.opts.Target)))

	x.publish(ctx, progress.NewPhaseStarted(x.id, string(PhaseExtract)))
	m, err := schema.Load(x.opts.SchemaPath)
	if err != nil {
		return nil, fail(PhaseExtract, err)
	}
	src, err := os.ReadFile(x.opts.SchemaPath)
	if err != nil {
		return nil, fail(PhaseExtract, err)
	}
	x.publish(ctx, progress.NewPhaseFinished(x.id, string(PhaseExtract), 0))

	x.publish(ctx, progress.NewPhaseStarted(x.id, string(PhaseValidate)))
	if err := schema.Validate(m); err != nil {
		return nil, fail(PhaseValidate, err)
	}
	x.publish(ctx, progress.NewPhaseFinished(x.id, string(PhaseValidate), 0))

	rendered, err := Render(m, x.opts)
	if err != nil {
		return nil, err
	}

	if err := x.begin(ctx, src); err != nil {
		return nil, fail(PhaseManifest, err)
	}

	x.publish(ctx, progress.NewPhaseStarted(x.id, string(PhaseContract)))
	n, err := x.write(ctx, PhaseContract, rendered.Contract)
	if err != nil {
		return nil, fail(PhaseContract, err)
	}
	x.publish(ctx, progress.NewPhaseFinished(x.id, string(PhaseContract), n))

	if x.opts.Target.Backend() {
		schemaCopy := []emit.Artifact{{Root: emit.RootBackend, Path: SchemaCopyPath, Content: src}}
		if err := x.project(ctx, PhaseBackend, emit.RootBackend, schemaCopy, rendered.Backend); err != nil {
			return nil, err
		}
	}
	if x.opts.Target.Frontend() {
		if err := x.project(ctx, PhaseFrontend, emit.RootFrontend, nil, rendered.Frontend); err != nil {
			return nil, err
		}
	}

	if err := x.finish(ctx); err != nil {
		return nil, fail(PhaseManifest, err)
	}

	dirs := make([]string, 0, len(x.roots))
	for _, root := range []emit.Root{emit.RootShared, emit.RootBackend, emit.RootFrontend} {
		if dir, ok := x.roots[root]; ok {
			dirs = append(dirs, dir)
		}
	}
	x.publish(ctx, progress.NewRunFinished(x.id, len(x.entries), dirs))
	x.log.Info("run finished", zap.String("run", x.id), zap.Int("files", len(x.entries)))

	return &Result{
		RunID:    x.id,
		Model:    m,
		Rendered: rendered,
		Roots:    x.roots,
		Written:  len(x.entries),
	}, nil
}

// project scaffolds a project, installs its dependencies, then writes its
// generated files and static tree and formats the result. pre is written
// between scaffolding and install so post-install steps such as prisma
// generate find their inputs.
func (x *run) project(ctx context.Context, phase Phase, root emit.Root, pre, files []emit.Artifact) error {
	x.publish(ctx, progress.NewPhaseStarted(x.id, string(phase)))
	dir := x.roots[root]
	sc := x.cfg.Scaffolder
	scaffold := !x.opts.DryRun && sc != nil
	from := len(x.entries)

	if scaffold {
		if err := sc.CreateProject(ctx, root, dir); err != nil {
			return fail(phase, fmt.Errorf("creating project: %w", err))
		}
	}
	n, err := x.write(ctx, phase, pre)
	if err != nil {
		return fail(phase, err)
	}
	if scaffold && !x.opts.SkipInstall {
		if err := sc.Install(ctx, root, dir); err != nil {
			return fail(phase, fmt.Errorf("installing dependencies: %w", err))
		}
	}
	m, err := x.write(ctx, phase, files)
	if err != nil {
		return fail(phase, err)
	}
	copied, err := x.copyStatic(root, dir)
	if err != nil {
		return fail(phase, err)
	}
	if scaffold && !x.opts.SkipFormat {
		if err := sc.Format(ctx, root, dir); err != nil {
			return fail(phase, fmt.Errorf("formatting: %w", err))
		}
		if err := x.rehash(from); err != nil {
			return fail(phase, err)
		}
	}
	x.publish(ctx, progress.NewPhaseFinished(x.id, string(phase), n+m+copied))
	return nil
}

func (x *run) write(ctx context.Context, phase Phase, files []emit.Artifact) (int, error) {
	for _, a := range files {
		dir, ok := x.roots[a.Root]
		if !ok {
			return 0, fmt.Errorf("no output directory for %s", a.Key())
		}
		p := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := x.cfg.FS.WriteFile(p, a.Content); err != nil {
			return 0, err
		}
		x.entries = append(x.entries, manifest.EntryFor(x.id, a))
		x.publish(ctx, progress.NewArtifactWritten(x.id, string(phase), p))
	}
	return len(files), nil
}

func (x *run) copyStatic(root emit.Root, dir string) (int, error) {
	tree, err := static.Tree(root)
	if err != nil {
		return 0, err
	}
	if err := x.cfg.FS.CopyTree(tree, dir); err != nil {
		return 0, fmt.Errorf("copying static files: %w", err)
	}
	paths, err := static.Paths(root)
	if err != nil {
		return 0, err
	}
	for _, p := range paths {
		b, err := fs.ReadFile(tree, p)
		if err != nil {
			return 0, err
		}
		x.entries = append(x.entries, manifest.EntryFor(x.id, emit.Artifact{Root: root, Path: p, Content: b}))
	}
	return len(paths), nil
}

// rehash re-reads entries[from:] from the file system so the manifest
// holds the formatter's output rather than the rendered bytes.
func (x *run) rehash(from int) error {
	for i := from; i < len(x.entries); i++ {
		e := x.entries[i]
		b, err := x.cfg.FS.ReadFile(filepath.Join(x.roots[e.Root], filepath.FromSlash(e.Path)))
		if err != nil {
			return fmt.Errorf("hashing formatted files: %w", err)
		}
		x.entries[i] = manifest.EntryFor(x.id, emit.Artifact{Root: e.Root, Path: e.Path, Content: b})
	}
	return nil
}

func (x *run) begin(ctx context.Context, src []byte) error {
	if x.opts.DryRun || x.cfg.Manifest == nil {
		return nil
	}
	err := x.cfg.Manifest.BeginRun(ctx, manifest.Run{
		ID:           x.id,
		SchemaPath:   x.opts.SchemaPath,
		SchemaSHA256: manifest.Hash(src),
		Targets:      string(x.opts.Target),
		StartedAt:    x.cfg.Now(),
	})
	x.begun = err == nil
	return err
}

func (x *run) finish(ctx context.Context) error {
	if !x.begun {
		return nil
	}
	if err := x.cfg.Manifest.RecordEntries(ctx, x.id, x.entries); err != nil {
		return err
	}
	return x.cfg.Manifest.FinishRun(ctx, x.id, manifest.StatusSucceeded, x.cfg.Now())
}

func (x *run) abort(ctx context.Context, phase string, err error) {
	x.publish(ctx, progress.NewRunFailed(x.id, phase, err))
	// Callers report err to the user.
	x.log.Debug("run failed", zap.String("run", x.id), zap.String("phase", phase), zap.Error(err))
	if !x.begun {
		return
	}
	// Record what was written before the failure, even on cancellation.
	ctx = context.WithoutCancel(ctx)
	if rerr := x.cfg.Manifest.RecordEntries(ctx, x.id, x.entries); rerr != nil {
		x.log.Warn("recording partial entries", zap.Error(rerr))
	}
	if ferr := x.cfg.Manifest.FinishRun(ctx, x.id, manifest.StatusFailed, x.cfg.Now()); ferr != nil {
		x.log.Warn("finishing failed run", zap.Error(ferr))
	}
}
