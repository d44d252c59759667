package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

// NewRouter wires middleware and every public route.
func NewRouter(subs *SubscriptionHandlers, health *HealthChecker, corsCfg config.CORSConfig, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	if len(corsCfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsCfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health_check", health.HandleHealthCheck)
	r.Get("/health/ready", health.HandleReadiness)

	r.Post("/subscriptions", subs.HandleSubscribe)
	r.Get("/subscriptions/confirm", subs.HandleConfirm)

	return r
}
