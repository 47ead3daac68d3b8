package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"shopgen/internal/http/handlers"
	"shopgen/internal/infra"
	"shopgen/internal/metrics"
	"shopgen/internal/middleware"
)

// NewRouter mounts the public API. m may be nil, in which case /metrics is not served.
func NewRouter(app *handlers.App, cfg *infra.Config, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	var observe middleware.RequestObserver
	if m != nil {
		observe = m.RecordRequest
	}
	r.Use(
		middleware.RequestID(app.Logger),
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger, observe),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	if cfg.StoragePath != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StoragePath))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.ShopContext)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/generate", app.GenerateProduct)
			r.Post("/publish", app.PublishProduct)
		})
		r.Get("/v1/settings", app.GetSettings)
		r.Put("/v1/settings", app.PutSettings)
		r.Route("/v1/generations", func(r chi.Router) {
			r.Get("/", app.ListGenerations)
			r.Get("/stats", app.GenerationStats)
		})
	})

	return r
}
