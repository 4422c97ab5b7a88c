// Package server renders a blog's index pages on request.
package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"impractical.co/postindex"
	"impractical.co/postindex/internal/build"
)

// Server serves every page a Builder plans for a fixed set of posts, at the
// same paths a build would write them to.
type Server struct {
	builder *build.Builder
	pages   map[string]build.Page
	logger  *slog.Logger
	router  chi.Router
}

// New plans the index pages for posts and returns a Server for them. When
// gatherer is not nil its metrics are exposed at /metrics. Requests log to
// the logger carried by ctx.
func New(ctx context.Context, builder *build.Builder, posts []postindex.Post, gatherer prometheus.Gatherer) (*Server, error) {
	logger := postindex.Logger(ctx)
	planned, err := builder.Plan(ctx, posts)
	if err != nil {
		return nil, err
	}
	s := &Server{
		builder: builder,
		pages:   make(map[string]build.Page, len(planned)),
		logger:  logger,
	}
	for _, page := range planned {
		s.pages[page.Path] = page
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogger)
	r.Use(middleware.Recoverer)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/*", s.servePage)
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// withLogger makes a request-scoped logger available through
// postindex.Logger.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(postindex.LoggingContext(r.Context(), logger)))
	})
}

// pagePath maps a request path to the output path of a planned page:
// directories resolve to their index file.
func (s *Server) pagePath(urlPath string) string {
	p := strings.TrimPrefix(urlPath, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += s.builder.Blog.IndexFile
	}
	return p
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, ok := s.pages[s.pagePath(r.URL.Path)]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	start := time.Now()
	err := postindex.Execute(ctx, &buf, s.builder.Blog, page.Page)
	s.builder.Metrics.ObserveRender(page.Kind, start, err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		postindex.Logger(ctx).ErrorContext(ctx, "error rendering index page", "error", err, "page", page.Path)
		w.WriteHeader(http.StatusInternalServerError)
		postindex.Render(ctx, w, s.builder.Blog, s.builder.Blog.ServerErrorPage(ctx))
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		postindex.Logger(ctx).WarnContext(ctx, "error writing response", "error", err)
	}
}
