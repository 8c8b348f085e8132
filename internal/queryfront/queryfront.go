// Package queryfront implements the query front-end: a single-endpoint
// HTTP server that renders the home, results, and 404 pages, ported
// from the original Flask app's three routes.
package queryfront

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-mizu/mizu"

	"github.com/quillsearch/quill/internal/duration"
	"github.com/quillsearch/quill/internal/index"
	"github.com/quillsearch/quill/internal/watch"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Server serves search queries against a segmented index, swapping in a
// freshly-opened read-only Index whenever the crawler rewrites the
// sidecar files on disk.
type Server struct {
	dir    string
	logger *slog.Logger

	mu  sync.RWMutex
	idx *index.Index
}

// Open opens the index at dir and returns a Server ready to handle
// requests. Callers must call Close when done.
func Open(dir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := index.Open(dir, index.Options{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return &Server{dir: dir, logger: logger, idx: idx}, nil
}

// Close releases the underlying index handle.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Close()
}

// WatchAndReload starts a SidecarWatcher on the index's config.json and
// websites.json and re-opens the index whenever either changes, until ctx
// is canceled. It blocks; callers should run it in its own goroutine.
func (s *Server) WatchAndReload(ctx context.Context) error {
	paths := []string{
		filepath.Join(s.dir, "config.json"),
		filepath.Join(s.dir, "websites.json"),
	}
	w, err := watch.New(paths, s.logger)
	if err != nil {
		return err
	}
	w.Run(ctx, s.reload)
	return nil
}

func (s *Server) reload() {
	idx, err := index.Open(s.dir, index.Options{ReadOnly: true})
	if err != nil {
		s.logger.Warn("reload index failed, keeping previous handle", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	old := s.idx
	s.idx = idx
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("closing stale index handle", slog.Any("error", err))
	}
	s.logger.Info("reloaded index")
}

// RegisterRoutes attaches the home page and the catch-all 404 page to r,
// following the same wildcard-route style the pack's githome blueprint
// uses for its static file handler.
func (s *Server) RegisterRoutes(r *mizu.Router) {
	r.Get("/", s.handleHome)
	r.Get("/{path...}", s.handleNotFound)
}

type resultsPage struct {
	Query    string
	Duration string
	Websites []index.Website
}

func (s *Server) handleHome(c *mizu.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return s.render(c, "home.html", nil)
	}

	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()

	start := time.Now()
	websites, err := idx.Find(c.Context(), query)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Error("query failed", slog.String("query", query), slog.Any("error", err))
		return c.Text(http.StatusInternalServerError, "search failed")
	}

	return s.render(c, "results.html", resultsPage{
		Query:    query,
		Duration: duration.Format(elapsed),
		Websites: websites,
	})
}

func (s *Server) handleNotFound(c *mizu.Ctx) error {
	c.Writer().WriteHeader(http.StatusNotFound)
	if err := templates.ExecuteTemplate(c.Writer(), "404.html", nil); err != nil {
		s.logger.Error("render 404 failed", slog.Any("error", err))
	}
	return nil
}

func (s *Server) render(c *mizu.Ctx, name string, data any) error {
	if err := templates.ExecuteTemplate(c.Writer(), name, data); err != nil {
		s.logger.Error("render failed", slog.String("template", name), slog.Any("error", err))
		return c.Text(http.StatusInternalServerError, "internal error")
	}
	return nil
}
