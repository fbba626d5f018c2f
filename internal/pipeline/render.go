package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/emit/backend"
	"github.com/matthewbaird/crudgen/internal/emit/contract"
	"github.com/matthewbaird/crudgen/internal/emit/frontend"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/schema"
)

// Rendered groups a model's generated files by the phase that writes them.
type Rendered struct {
	Contract []emit.Artifact
	Backend  []emit.Artifact
	Frontend []emit.Artifact
}

// All returns every artifact in phase order.
func (r *Rendered) All() []emit.Artifact {
	out := make([]emit.Artifact, 0, len(r.Contract)+len(r.Backend)+len(r.Frontend))
	out = append(out, r.Contract...)
	out = append(out, r.Backend...)
	return append(out, r.Frontend...)
}

// Render generates the artifacts of opts.Target from a validated model
// without touching the file system. opts.Labels overrides form labels per
// entity and field; the output directories decide where the project
// configs point the @zod alias.
func Render(m *schema.Model, opts Options) (*Rendered, error) {
	var (
		r   Rendered
		err error
	)
	if r.Contract, err = contract.All(m); err != nil {
		return nil, fail(PhaseContract, err)
	}
	if opts.Target.Backend() {
		if r.Backend, err = backend.All(m); err != nil {
			return nil, fail(PhaseBackend, err)
		}
		shared, err := opts.sharedFrom(opts.BackendDir)
		if err != nil {
			return nil, fail(PhaseBackend, err)
		}
		cfg, err := backend.TSConfig(shared)
		if err != nil {
			return nil, fail(PhaseBackend, err)
		}
		r.Backend = append(r.Backend, cfg)
	}
	if opts.Target.Frontend() {
		p := formschema.Projector{Enums: m.Enums, Labels: opts.Labels}
		if r.Frontend, err = frontend.All(m, p); err != nil {
			return nil, fail(PhaseFrontend, err)
		}
		shared, err := opts.sharedFrom(opts.FrontendDir)
		if err != nil {
			return nil, fail(PhaseFrontend, err)
		}
		for _, fn := range []func(string) (emit.Artifact, error){frontend.TSConfig, frontend.ViteConfig} {
			a, err := fn(shared)
			if err != nil {
				return nil, fail(PhaseFrontend, err)
			}
			r.Frontend = append(r.Frontend, a)
		}
	}
	return &r, nil
}

// DefaultShared is the shared root as seen from a project when the output
// directories are unset: the sibling layout.
const DefaultShared = "../shared"

// sharedFrom returns the shared root relative to the project at dir,
// slash-separated.
func (o Options) sharedFrom(dir string) (string, error) {
	if dir == "" || o.SharedDir == "" {
		return DefaultShared, nil
	}
	rel, err := filepath.Rel(dir, o.SharedDir)
	if err != nil {
		return "", fmt.Errorf("locating shared dir %s from %s: %w", o.SharedDir, dir, err)
	}
	return filepath.ToSlash(rel), nil
}
