package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/emit/backend"
	"github.com/matthewbaird/crudgen/internal/emit/contract"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/relation"
	"github.com/matthewbaird/crudgen/internal/schema"
	"github.com/matthewbaird/crudgen/internal/softdelete"
)

// model loads and validates the configured schema, writing the error
// response itself when that fails.
func (s *Server) model(w http.ResponseWriter) (*schema.Model, bool) {
	m, err := schema.Load(s.cfg.Options.SchemaPath)
	if err == nil {
		err = schema.Validate(m)
	}
	if err != nil {
		s.schemaErrorToHTTP(w, err)
		return nil, false
	}
	return m, true
}

// entity resolves the {entity} path parameter by model name or lower-case
// name.
func (s *Server) entity(w http.ResponseWriter, r *http.Request) (*schema.Model, *schema.Entity, bool) {
	m, ok := s.model(w)
	if !ok {
		return nil, nil, false
	}
	name := chi.URLParam(r, "entity")
	e := m.Entity(name)
	if e == nil {
		e = m.EntityByLower(name)
	}
	if e == nil {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown entity: "+name)
		return nil, nil, false
	}
	return m, e, true
}

func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

type entitySummary struct {
	naming.Names
	Fields int `json:"fields"`
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	m, ok := s.model(w)
	if !ok {
		return
	}
	out := make([]entitySummary, 0, len(m.Entities))
	for _, e := range m.Entities {
		p := formschema.Project(m, e)
		out = append(out, entitySummary{Names: naming.For(e.Name), Fields: len(p.Fields)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	m, e, ok := s.entity(w, r)
	if !ok {
		return
	}
	p := formschema.Projector{Enums: m.Enums, Labels: s.cfg.Options.Labels}
	s.writeJSON(w, http.StatusOK, p.Project(e))
}

func (s *Server) getFields(w http.ResponseWriter, r *http.Request) {
	m, e, ok := s.entity(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, contract.FieldSet(m, e))
}

// render renders the artifacts of the ?target= query parameter, defaulting
// to the configured target.
func (s *Server) render(w http.ResponseWriter, r *http.Request) (*pipeline.Rendered, bool) {
	target := s.cfg.Options.Target
	if q := r.URL.Query().Get("target"); q != "" {
		t, err := pipeline.ParseTarget(q)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_TARGET", err.Error())
			return nil, false
		}
		target = t
	}
	m, ok := s.model(w)
	if !ok {
		return nil, false
	}
	opts := s.cfg.Options
	opts.Target = target
	rendered, err := pipeline.Render(m, opts)
	if err != nil {
		s.schemaErrorToHTTP(w, err)
		return nil, false
	}
	return rendered, true
}

type artifactSummary struct {
	Root emit.Root `json:"root"`
	Path string    `json:"path"`
	Size int       `json:"size"`
}

func (s *Server) listArtifacts(w http.ResponseWriter, r *http.Request) {
	rendered, ok := s.render(w, r)
	if !ok {
		return
	}
	all := rendered.All()
	emit.Sort(all)
	out := make([]artifactSummary, len(all))
	for i, a := range all {
		out[i] = artifactSummary{Root: a.Root, Path: a.Path, Size: len(a.Content)}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getArtifact(w http.ResponseWriter, r *http.Request) {
	rendered, ok := s.render(w, r)
	if !ok {
		return
	}
	root := emit.Root(chi.URLParam(r, "root"))
	p := chi.URLParam(r, "*")
	for _, a := range emit.Filter(rendered.All(), root) {
		if a.Path == p {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if _, err := w.Write(a.Content); err != nil {
				s.log.Warn("writing artifact", zap.String("artifact", a.Key()), zap.Error(err))
			}
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "NOT_FOUND", "no artifact "+string(root)+"/"+p)
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, softdelete.Rules)
}

func (s *Server) previewSoftDelete(w http.ResponseWriter, r *http.Request) {
	var q softdelete.Query
	if err := decodeJSON(r, &q); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid query: "+err.Error())
		return
	}
	if q.Action == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "action is required")
		return
	}
	s.writeJSON(w, http.StatusOK, softdelete.Apply(q, s.cfg.Now()))
}

// previewPayload shows what a submitted form record becomes on its way to
// Prisma: list relations connect by id, and xxxId carriers connect their
// relation.
func (s *Server) previewPayload(w http.ResponseWriter, r *http.Request) {
	m, e, ok := s.entity(w, r)
	if !ok {
		return
	}
	var record map[string]any
	if err := decodeJSON(r, &record); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid record: "+err.Error())
		return
	}
	form := formschema.Project(m, e)
	data := relation.ConnectByID(record, form.ListRelations())
	data = relation.ConnectForeignKeys(data, backend.Carriers(e))
	s.writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

type generateRequest struct {
	Target string `json:"target"`
	DryRun bool   `json:"dryRun"`
}

// generate starts a run in the background. Progress is observed on
// /api/events. The run is canceled when the server shuts down.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Generator == nil {
		s.writeError(w, http.StatusNotImplemented, "DISABLED", "generation is not enabled")
		return
	}
	var req generateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request: "+err.Error())
			return
		}
	}
	opts := s.cfg.Options
	if req.Target != "" {
		t, err := pipeline.ParseTarget(req.Target)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_TARGET", err.Error())
			return
		}
		opts.Target = t
	}
	opts.DryRun = opts.DryRun || req.DryRun

	if !s.running.CompareAndSwap(false, true) {
		s.writeError(w, http.StatusConflict, "RUN_IN_PROGRESS", pipeline.ErrRunInProgress.Error())
		return
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.running.Store(false)
		res, err := s.cfg.Generator.Run(s.base, opts)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			s.log.Warn("generation skipped", zap.Error(err))
		case err != nil:
			s.log.Error("generation failed", zap.Error(err))
		default:
			s.log.Info("generation finished", zap.String("run", res.RunID), zap.Int("files", res.Written))
		}
	}()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "target": string(opts.Target)})
}
