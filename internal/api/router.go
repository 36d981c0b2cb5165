package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
	"github.com/MikeSquared-Agency/Stackelberg/internal/hermes"
	"github.com/MikeSquared-Agency/Stackelberg/internal/solve"
)

func NewRouter(svc *solve.Service, h hermes.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware)

	games := NewGameHandler(svc, h, cfg, logger)
	dashboard := NewDashboardHandler(cfg)

	r.Get("/", dashboard.Index)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", games.Config)

		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(cfg.Server.RateLimitPerMinute))
			r.Get("/equilibrium", games.Equilibrium)
			r.Get("/best-response", games.BestResponse)
			r.Get("/figure", games.Figure)
			r.Get("/figure.png", games.FigurePNG)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
