// Package api exposes the processing pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/cheercheung/chatrecap-sub001/internal/chat"
	"github.com/cheercheung/chatrecap-sub001/internal/insight"
	"github.com/cheercheung/chatrecap-sub001/internal/job"
	"github.com/cheercheung/chatrecap-sub001/internal/processor"
)

// Service is the slice of the processor the HTTP layer drives.
type Service interface {
	Upload(ctx context.Context, userID string, platform chat.Platform, raw []byte) (*job.FileJob, error)
	Clean(ctx context.Context, fileID string, platform chat.Platform) (*job.ProcessingStatus, error)
	AnalyzeWithAI(ctx context.Context, fileID, locale string) (*job.ProcessingStatus, error)
	Retry(ctx context.Context, fileID string) (*job.ProcessingStatus, error)
	GetJob(ctx context.Context, fileID string) (*job.FileJob, error)
	GetStatus(ctx context.Context, fileID string) (*job.ProcessingStatus, error)
	GetBasicResult(ctx context.Context, fileID string) (*processor.BasicResult, error)
	GetInsights(ctx context.Context, fileID string) (*insight.AIInsights, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

type Options struct {
	Port           int
	APIToken       string
	CORSOrigins    []string
	MaxUploadBytes int64
	Health         map[string]HealthCheck
}

type Server struct {
	router *chi.Mux
	srv    *http.Server
	svc    Service
	opts   Options
	log    zerolog.Logger
}

func NewServer(svc Service, opts Options, log zerolog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(accessLog(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", headerUserID},
		MaxAge:         300,
	}))

	s := &Server{
		router: router,
		svc:    svc,
		opts:   opts,
		log:    log,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/files", func(r chi.Router) {
		r.Use(bearerAuth(opts.APIToken))
		r.Post("/", s.upload)
		r.Route("/{fileID}", func(r chi.Router) {
			r.Get("/", s.getJob)
			r.Get("/status", s.status)
			r.Post("/clean", s.clean)
			r.Get("/result", s.basicResult)
			r.Post("/insights", s.analyze)
			r.Get("/insights", s.insights)
			r.Post("/retry", s.retry)
		})
	})

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("API server starting")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.opts.Health))
	status, code := "ok", http.StatusOK
	for name, check := range s.opts.Health {
		if check(r.Context()) {
			checks[name] = "ok"
			continue
		}
		checks[name] = "down"
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}
