// Package http serves the expense page, its HTMX partials and a small JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expenses/internal/chart"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	expenses    *services.ExpenseService
	ledger      *ledger.Ledger
	chart       *chart.Renderer
	limiter     *ratelimit.Limiter
	ready       func(context.Context) error
	logger      *applog.Logger
	recentLimit int

	shutdownOnce sync.Once
}

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	Addr string
	// RecentLimit shrinks the recent list; values above ledger.RecentLimit are clamped.
	RecentLimit        int
	RateLimitPerMinute int
	Chart              *chart.Renderer
	// Ready reports whether dependencies are usable; nil means always ready.
	Ready  func(context.Context) error
	Logger *applog.Logger
}

// NewServer parses the embedded templates and wires the routes.
func NewServer(svc *services.ExpenseService, opts Options) (*Server, error) {
	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	renderer := opts.Chart
	if renderer == nil {
		renderer = chart.NewRenderer()
	}
	recentLimit := opts.RecentLimit
	if recentLimit <= 0 || recentLimit > ledger.RecentLimit {
		recentLimit = ledger.RecentLimit
	}
	rateCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rateCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		templates:   t,
		expenses:    svc,
		ledger:      svc.Ledger(),
		chart:       renderer,
		limiter:     ratelimit.NewLimiter(rateCfg),
		ready:       opts.Ready,
		logger:      logger.WithComponent(applog.ComponentHTTP),
		recentLimit: recentLimit,
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.Middleware(s.logger))
	r.Use(applog.RequestIDMiddleware(middleware.GetReqID))
	r.Use(trace.NewMiddleware(s.logger).Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.NewDetector(s.logger).Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	limited := s.limiter.Middleware(clientKey, s.onRateLimited)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.With(limited).Post("/expenses", s.handleCreateExpense)

	r.Route("/ui", func(r chi.Router) {
		r.Get("/app", s.handleAppPartial)
		r.Get("/recent", s.handleRecentPartial)
		r.Get("/chart", s.handleChartPartial)
		r.Get("/total", s.handleTotalPartial)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/expenses", s.handleAPIListExpenses)
		r.With(limited).Post("/expenses", s.handleAPICreateExpense)
		r.Get("/summary", s.handleAPISummary)
	})

	return r
}

// Start begins background cleanup tied to ctx.
func (s *Server) Start(ctx context.Context) {
	s.limiter.Start(ctx)
}

// ListenAndServe treats a graceful shutdown as success.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
