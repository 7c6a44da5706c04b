package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/matzehuels/schemagraph/pkg/errors"
	"github.com/matzehuels/schemagraph/pkg/integrations/salesforce"
	"github.com/matzehuels/schemagraph/pkg/pipeline"
	"github.com/matzehuels/schemagraph/pkg/schema"
)

const shutdownTimeout = 10 * time.Second

// Metadata lists what an org offers. *salesforce.Client implements it.
type Metadata interface {
	APIVersions(ctx context.Context, refresh bool) ([]schema.APIVersion, error)
	ListSObjects(ctx context.Context, version string, refresh bool) ([]schema.EntitySummary, error)
}

// Config configures a Server.
type Config struct {
	Runner   *pipeline.Runner
	Metadata Metadata

	// Defaults are the options applied before query parameters.
	// Zero value means pipeline.DefaultOptions.
	Defaults pipeline.Options
	// APIVersion is used when a request names no version.
	APIVersion string

	Logger *log.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// RequestsPerSecond limits API requests across all clients. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server serves the HTTP API.
type Server struct {
	runner     *pipeline.Runner
	metadata   Metadata
	defaults   pipeline.Options
	apiVersion string
	logger     *log.Logger
	gatherer   prometheus.Gatherer
	limiter    *rate.Limiter
}

// New creates a server. A runner is required.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "runner is required")
	}
	s := &Server{
		runner:     cfg.Runner,
		metadata:   cfg.Metadata,
		defaults:   cfg.Defaults,
		apiVersion: cfg.APIVersion,
		logger:     cfg.Logger,
		gatherer:   cfg.Gatherer,
	}
	if s.defaults == (pipeline.Options{}) {
		s.defaults = pipeline.DefaultOptions()
	}
	if err := s.defaults.WithDefaults().Validate(); err != nil {
		return nil, err
	}
	if s.apiVersion == "" {
		s.apiVersion = salesforce.DefaultAPIVersion
	}
	if err := errors.ValidateAPIVersion(s.apiVersion); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), max(cfg.Burst, 1))
	}
	return s, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/versions", s.handleVersions)
		r.Get("/sobjects", s.handleSObjects)
		r.Get("/describe/{object}", s.handleDescribe)
		r.Get("/diagram/{object}", s.handleDiagram)
		r.Get("/diagram/{object}/{format}", s.handleExport)
		r.Delete("/cache/{version}", s.handleInvalidate)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Zero timeouts leave the http.Server defaults.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, readTimeout, writeTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
