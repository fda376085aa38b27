package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds and returns the Chi router with all routes configured.
// Rate limiting is applied per IP to the dashboard routes only;
// health and metrics stay reachable for health checks and scrapers. RealIP lets a
// fronting proxy report the client address used for geolocation.
func NewRouter(handlers *Handlers, prefs Pinger, backend string, requestsPerMinute int, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))

	r.Get("/api/v1/health", HealthHandlerFunc(prefs, backend, log))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if requestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))
		}

		r.Get("/api/v1/state", handlers.GetState)
		r.Get("/api/v1/view", handlers.GetView)
		r.Post("/api/v1/search", handlers.Search)
		r.Post("/api/v1/geolocate", handlers.Geolocate)
		r.Put("/api/v1/unit", handlers.ChangeUnit)
		r.Post("/api/v1/refresh", handlers.Refresh)
		r.Post("/api/v1/favorites/{city}", handlers.AddFavorite)
		r.Delete("/api/v1/favorites/{city}", handlers.RemoveFavorite)
		r.Delete("/api/v1/error", handlers.ClearError)
		r.Post("/api/v1/theme/toggle", handlers.ToggleTheme)
		r.Get("/api/v1/cities", handlers.SearchCities)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
