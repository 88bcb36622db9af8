package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/kirill-jjj/teamtalk-reg-system/internal/config"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/db"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/directory"
	"github.com/kirill-jjj/teamtalk-reg-system/internal/registration"
)

type Server struct {
	router *chi.Mux
	config *config.Config
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	dir directory.Directory,
	committer *registration.Committer,
	registeredIPs *db.RegisteredIPRepository,
	artifacts ArtifactSource,
) (*Server, error) {
	resolver, err := NewClientIPResolver(cfg.Web.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("configuring client IP resolver: %w", err)
	}

	registrationHandler := NewRegistrationHandler(cfg, dir, committer, registeredIPs, resolver)
	downloadHandler := NewDownloadHandler(artifacts)
	healthHandler := NewHealthHandler(database)

	registerLimiter := httprate.Limit(
		cfg.Web.RegisterPerIP,
		cfg.Web.RegisterWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return resolver.Resolve(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Too many requests, please try again later")
		}),
	)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)

	r.Group(func(r chi.Router) {
		r.Use(maxBodySizeMiddleware(64 << 10)) // 64 KB
		r.Get("/register", registrationHandler.ShowForm)
		r.With(registerLimiter).Post("/register", registrationHandler.Register)
	})

	r.Route("/download", func(r chi.Router) {
		r.Get("/config/{token}", downloadHandler.ConfigFile)
		r.Get("/client/{token}", downloadHandler.ClientBundle)
	})

	return &Server{
		router: r,
		config: cfg,
	}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
