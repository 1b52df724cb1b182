// internal/httpapi/server.go
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/tendant/simple-transform/internal/auth"
	"github.com/tendant/simple-transform/internal/blob"
	"github.com/tendant/simple-transform/internal/cache"
	"github.com/tendant/simple-transform/internal/engine"
	"github.com/tendant/simple-transform/internal/metrics"
	"github.com/tendant/simple-transform/internal/queue"
	"github.com/tendant/simple-transform/internal/store"
	"github.com/tendant/simple-transform/pkg/schema"
)

// Server is the synchronous front door. Queue is optional: when set, job
// creation also enqueues a work message; when nil, jobs are only run via
// the inline process endpoint.
type Server struct {
	store      store.Store
	blobs      blob.Store
	cache      *cache.Cache
	queue      queue.Queue
	controller *engine.Controller
	authn      auth.Authenticator
	metrics    *metrics.Metrics
	logger     *slog.Logger

	presignTTL   time.Duration
	cacheTTL     time.Duration
	defaultLimit int
	maxLimit     int
}

type Options struct {
	Store      store.Store
	Blobs      blob.Store
	Cache      *cache.Cache
	Queue      queue.Queue
	Controller *engine.Controller
	Auth       auth.Authenticator
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	PresignTTL   time.Duration
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
}

func NewServer(opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 5 * time.Minute
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Server{
		store:        opts.Store,
		blobs:        opts.Blobs,
		cache:        opts.Cache,
		queue:        opts.Queue,
		controller:   opts.Controller,
		authn:        opts.Auth,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		presignTTL:   opts.PresignTTL,
		cacheTTL:     opts.CacheTTL,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(s.authn))
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
			r.Post("/{id}/process", s.handleProcessJob)
			r.Get("/{id}/logs", s.handleJobLogs)
			r.Get("/{id}/result", s.handleJobResult)
		})
	})

	return r
}

func writeErr(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, schema.ErrorResponse{Code: code, Message: message})
}
