// Package server exposes the catalog over HTTP: a JSON API and the rendered
// publications page.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matsen/pubcat/internal/catalog"
	"github.com/matsen/pubcat/internal/format"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/query"
)

// ReloadFunc fetches and parses a fresh record set.
type ReloadFunc func(ctx context.Context) ([]publication.Record, error)

// Options configures a Server.
type Options struct {
	Holder        *catalog.Holder
	Reload        ReloadFunc // nil disables POST /api/reload
	Order         []string   // defaults to query.DefaultOrder
	SectionLabels format.Labels
	FilterLabels  format.Labels
	Title         string
	Logger        *slog.Logger
}

// Server serves one catalog.Holder.
type Server struct {
	holder        *catalog.Holder
	reload        ReloadFunc
	order         []string
	sectionLabels format.Labels
	filterLabels  format.Labels
	title         string
	logger        *slog.Logger
	engine        *gin.Engine
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	s := &Server{
		holder:        opts.Holder,
		reload:        opts.Reload,
		order:         opts.Order,
		sectionLabels: opts.SectionLabels,
		filterLabels:  opts.FilterLabels,
		title:         opts.Title,
		logger:        opts.Logger,
	}
	if s.holder == nil {
		s.holder = catalog.NewHolder()
	}
	if len(s.order) == 0 {
		s.order = query.DefaultOrder
	}
	if s.sectionLabels == nil {
		s.sectionLabels = format.SectionLabels
	}
	if s.filterLabels == nil {
		s.filterLabels = format.FilterLabels
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	s.registerRoutes(router)
	s.engine = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/", s.page)

	api := r.Group("/api")
	api.GET("/publications", s.publications)
	api.GET("/filters", s.filters)
	api.POST("/reload", s.reloadCatalog)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Refresh reloads the catalog every interval until ctx is cancelled.
// Failed reloads are logged and the current catalog stays live.
func (s *Server) Refresh(ctx context.Context, interval time.Duration) {
	if s.reload == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.replace(ctx); err != nil {
				s.logger.Warn("periodic refresh failed", "error", err)
			}
		}
	}
}

// replace runs the reload function and swaps the catalog on success.
func (s *Server) replace(ctx context.Context) (*catalog.Catalog, error) {
	records, err := s.reload(ctx)
	if err != nil {
		return nil, err
	}
	c := s.holder.Replace(records)
	s.logger.Info("catalog replaced", "publications", c.Len())
	return c, nil
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
