// Package api is the HTTP surface: the COLA JSON endpoints, admin
// operations, health and metrics.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/EmpoweredVote/cola-explorer/internal/colas"
	"github.com/EmpoweredVote/cola-explorer/internal/config"
	"github.com/EmpoweredVote/cola-explorer/internal/logging"
	"github.com/EmpoweredVote/cola-explorer/internal/metrics"
	"github.com/EmpoweredVote/cola-explorer/internal/middleware"
)

// NewRouter wires the middleware stack and every route.
func NewRouter(cfg config.Config, store *colas.Store, logger *zap.Logger) http.Handler {
	h := &Handlers{
		Store:        store,
		DisplayLimit: cfg.DisplayLimit,
		Logger:       logging.Module(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logging.Module(logger, "http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/", RootHandler)
	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Mount("/colas", SetupRoutes(h))
	})
	r.Mount("/admin", SetupAdminRoutes(h, cfg.AdminTokenHash))

	return r
}

func SetupRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/search", h.Search)
	r.Get("/options", h.Options)
	r.Get("/stats", h.Stats)
	r.Get("/{cola_id}", h.GetCola)

	return r
}

func SetupAdminRoutes(h *Handlers, tokenHash string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.AdminToken(tokenHash))

	r.Post("/views/refresh", h.RefreshViews)
	r.Post("/cache/purge", h.PurgeCache)

	return r
}
