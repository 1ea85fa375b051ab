// Package server hosts the angle grid in a browser: it builds the grid on a
// background goroutine, streams the cells to an embedded page and answers
// slider movements with the cell to scroll to.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"anglegrid/pkg/dataset"
	"anglegrid/pkg/grid"
	"anglegrid/pkg/visualization"
)

//go:embed static
var staticFS embed.FS

var pageTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

// SliderOptions configures the two angle inputs of the page.
type SliderOptions struct {
	Min          float64
	Max          float64
	Step         float64
	InitialAlpha float64
	InitialBeta  float64
}

// Options configures a Server.
type Options struct {
	Logger  *slog.Logger
	Sliders SliderOptions
}

// Server serves one dataset.
type Server struct {
	logger   *slog.Logger
	ds       dataset.Dataset
	summary  dataset.Summary
	sliders  SliderOptions
	sheet    *visualization.Sheet
	index    *grid.Index
	renderer *grid.Renderer
	router   chi.Router

	stateMu  sync.RWMutex
	started  bool
	done     bool
	buildErr error
}

// New creates a server for ds. The grid is empty until Build runs.
func New(ds dataset.Dataset, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sheet := visualization.NewSheet(1, 0)
	index := grid.NewIndex()

	s := &Server{
		logger:  logger,
		ds:      ds,
		summary: dataset.Summarize(ds.Alphas(), ds.Betas()),
		sliders: opts.Sliders,
		sheet:   sheet,
		index:   index,
		renderer: &grid.Renderer{
			Targets:   visualization.CanvasFactory{},
			Container: sheet,
			Index:     index,
			Logger:    logger,
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the viewer.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Build renders the grid. It runs at most once; later calls return the
// result of the first.
func (s *Server) Build(ctx context.Context) error {
	s.stateMu.Lock()
	if s.started {
		s.stateMu.Unlock()
		return s.Err()
	}
	s.started = true
	s.stateMu.Unlock()

	err := s.renderer.Build(ctx, s.ds, s.ds.Alphas(), s.ds.Betas())

	s.stateMu.Lock()
	s.done = true
	s.buildErr = err
	s.stateMu.Unlock()
	return err
}

// Err returns the build error, if any.
func (s *Server) Err() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.buildErr
}

// Run builds the grid in the background and serves HTTP on addr until ctx
// is cancelled. A failed build leaves the already rendered cells served.
func (s *Server) Run(ctx context.Context, addr string, readHeaderTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := s.Build(ctx); err != nil {
			s.logger.Error("grid build failed, serving partial grid", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("viewer listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down viewer")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/summary", s.handleSummary)
		r.Get("/cells", s.handleCells)
		r.Get("/cells/{index}", s.handleCellImage)
		r.Post("/navigate", s.handleNavigate)
	})
	return r
}

// requestLogger logs every request at debug level through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
