// Package toolchain drives the Node tooling of generated projects: the
// scaffold commands, package installs and the formatter. Every command runs
// with its working directory set explicitly; the process directory is never
// changed.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/config"
	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/logging"
)

// ExecFunc runs argv in dir.
type ExecFunc func(ctx context.Context, dir string, argv []string) error

// Toolchain implements the pipeline's Scaffolder with external commands.
type Toolchain struct {
	PackageManager string
	Projects       map[emit.Root]config.Project
	Stdout         io.Writer
	Stderr         io.Writer
	Exec           ExecFunc

	log *zap.Logger
}

// New returns a Toolchain for cfg. Command output is discarded unless
// Stdout/Stderr are set.
func New(cfg *config.Config, log *zap.Logger) *Toolchain {
	return &Toolchain{
		PackageManager: cfg.PackageManager,
		Projects: map[emit.Root]config.Project{
			emit.RootBackend:  cfg.Backend,
			emit.RootFrontend: cfg.Frontend,
		},
		log: logging.Component(log, "toolchain"),
	}
}

func (t *Toolchain) project(root emit.Root) (config.Project, error) {
	p, ok := t.Projects[root]
	if !ok {
		return config.Project{}, fmt.Errorf("no toolchain settings for %s", root)
	}
	return p, nil
}

// CreateProject runs the scaffold command in the parent of dir. A directory
// that already holds a package.json is left alone.
func (t *Toolchain) CreateProject(ctx context.Context, root emit.Root, dir string) error {
	p, err := t.project(root)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		t.log.Info("project exists, skipping scaffold", zap.String("dir", dir))
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if len(p.Create) == 0 {
		return os.MkdirAll(dir, 0o755)
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}
	return t.run(ctx, parent, Expand(p.Create, filepath.Base(dir), t.PackageManager))
}

// Install adds the dependency sets, then runs the post-install commands.
func (t *Toolchain) Install(ctx context.Context, root emit.Root, dir string) error {
	p, err := t.project(root)
	if err != nil {
		return err
	}
	if len(p.Dependencies) > 0 {
		if err := t.run(ctx, dir, AddCommand(t.PackageManager, p.Dependencies, false)); err != nil {
			return err
		}
	}
	if len(p.DevDependencies) > 0 {
		if err := t.run(ctx, dir, AddCommand(t.PackageManager, p.DevDependencies, true)); err != nil {
			return err
		}
	}
	for _, argv := range p.PostInstall {
		if err := t.run(ctx, dir, Expand(argv, filepath.Base(dir), t.PackageManager)); err != nil {
			return err
		}
	}
	return nil
}

// Format runs the configured formatter over dir.
func (t *Toolchain) Format(ctx context.Context, root emit.Root, dir string) error {
	p, err := t.project(root)
	if err != nil {
		return err
	}
	if len(p.Format) == 0 {
		return nil
	}
	return t.run(ctx, dir, Expand(p.Format, filepath.Base(dir), t.PackageManager))
}

func (t *Toolchain) run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return nil
	}
	t.log.Debug("exec", zap.String("dir", dir), zap.Strings("argv", argv))
	if t.Exec != nil {
		return t.Exec(ctx, dir, argv)
	}
	return run(ctx, dir, argv, t.Stdout, t.Stderr)
}

// CommandError reports a failed external command with the tail of its
// error output.
type CommandError struct {
	Argv   []string
	Dir    string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s (in %s): %v", strings.Join(e.Argv, " "), e.Dir, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

const outputTail = 2048

func run(ctx context.Context, dir string, argv []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var captured bytes.Buffer
	cmd.Stdout = orDiscard(stdout)
	cmd.Stderr = io.MultiWriter(orDiscard(stderr), &captured)
	if err := cmd.Run(); err != nil {
		out := captured.String()
		if len(out) > outputTail {
			out = out[len(out)-outputTail:]
		}
		return &CommandError{Argv: argv, Dir: dir, Output: strings.TrimSpace(out), Err: err}
	}
	return nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// Expand substitutes {dir} and {pm} in argv.
func Expand(argv []string, dir, pm string) []string {
	r := strings.NewReplacer("{dir}", dir, "{pm}", pm)
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}

// AddCommand returns the package manager command adding pkgs.
func AddCommand(pm string, pkgs []string, dev bool) []string {
	var argv []string
	switch pm {
	case "pnpm", "yarn":
		argv = []string{pm, "add"}
		if dev {
			argv = append(argv, "-D")
		}
	case "bun":
		argv = []string{"bun", "add"}
		if dev {
			argv = append(argv, "-d")
		}
	default:
		argv = []string{"npm", "install"}
		if dev {
			argv = append(argv, "--save-dev")
		}
	}
	return append(argv, pkgs...)
}
