// Package web serves the document form and its JSON API.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/a3tai/bizdocs/internal/document"
	"github.com/a3tai/bizdocs/internal/generator"
)

//go:embed assets
var assets embed.FS

type mount struct {
	pattern string
	handler http.Handler
}

// Server is the document web application
type Server struct {
	svc    *generator.Service
	logger *zap.Logger
	now    func() time.Time
	mounts []mount
	router chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for export stamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMount serves h below pattern, for example the MCP endpoint
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mounts = append(s.mounts, mount{pattern: pattern, handler: h})
	}
}

// NewServer creates the web application for svc
func NewServer(svc *generator.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	static, err := fs.Sub(assets, "assets/static")
	if err != nil {
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.page("assets/index.html"))
	r.Get("/offline.html", s.page("assets/offline.html"))
	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(document.MaxInputSize))
		r.Post("/generate", s.handleGenerate)
		r.Post("/preview", s.handlePreview)
		r.Post("/totals", s.handleTotals)
		r.Get("/get-settings", s.handleGetSettings)
		r.Get("/export-settings", s.handleExportSettings)
	})

	for _, m := range s.mounts {
		r.Mount(m.pattern, m.handler)
	}
	return r
}

// requestLogger logs every request with zap
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
