// Package server assembles the preview HTTP handlers and starts the server.
// Every request re-reads the schema, so edits show up without a restart.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/logging"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/progress"
)

// Generator runs a generation. *pipeline.Runner implements it.
type Generator interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// Subscriber fans progress events out to handlers. *progress.Bus
// implements it.
type Subscriber interface {
	Subscribe(name string, h progress.Handler) (unsubscribe func())
}

// Config holds server configuration.
type Config struct {
	Addr string

	// Options is the base of every run and of every preview. Target and
	// DryRun may be overridden per request.
	Options pipeline.Options

	Generator Generator
	Events    Subscriber
	Log       *zap.Logger
	Now       func() time.Time
}

// Server serves schema previews and triggers generations.
type Server struct {
	cfg     Config
	log     *zap.Logger
	router  chi.Router
	running atomic.Bool

	// base is the parent of background runs; Serve replaces it with its
	// own context and waits on runs before returning.
	base context.Context
	runs sync.WaitGroup
}

// New creates a Server with all routes registered.
func New(cfg Config) *Server {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Server{cfg: cfg, log: logging.Component(cfg.Log, "server"), base: context.Background()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/model", s.getModel)
		r.Get("/entities", s.listEntities)
		r.Get("/entities/{entity}/form", s.getForm)
		r.Get("/entities/{entity}/fields", s.getFields)
		r.Post("/entities/{entity}/payload", s.previewPayload)
		r.Get("/artifacts", s.listArtifacts)
		r.Get("/artifacts/{root}/*", s.getArtifact)
		r.Get("/softdelete/rules", s.listRules)
		r.Post("/softdelete/preview", s.previewSoftDelete)
		r.Post("/generate", s.generate)
		r.Get("/events", s.streamEvents)
	})

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on cfg.Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. Generations started
// through the API run under ctx; Serve returns once they have stopped.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.base = ctx
	defer s.runs.Wait()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown", zap.Error(err))
		}
	}()

	s.log.Info("starting server", zap.String("addr", ln.Addr().String()), zap.String("schema", s.cfg.Options.SchemaPath))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
