package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/rk-weather/internal/geolocation"
	"github.com/neexbeast/rk-weather/internal/store"
	"github.com/neexbeast/rk-weather/internal/weather"
)

const (
	defaultCityLimit = 5
	maxCityLimit     = 10
	maxBodyBytes     = 4 << 10
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	dashboard Dashboard
	cities    CitySearcher
	log       *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(dashboard Dashboard, cities CitySearcher, log *slog.Logger) *Handlers {
	return &Handlers{
		dashboard: dashboard,
		cities:    cities,
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a small JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeState responds with the current dashboard snapshot.
func (h *Handlers) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

// GetState handles GET /api/v1/state.
func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w)
}

// viewResponse decorates a snapshot with the display hints the front end
// renders next to the raw values.
type viewResponse struct {
	State     store.State             `json:"state"`
	Condition *weather.ConditionGroup `json:"condition"`
	Labels    weather.UnitLabels      `json:"labels"`
}

// GetView handles GET /api/v1/view.
func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	snap := h.dashboard.Snapshot()
	resp := viewResponse{State: snap, Labels: weather.LabelsFor(snap.Unit)}
	if snap.WeatherData != nil {
		group := weather.GroupFor(snap.WeatherData.ConditionID)
		resp.Condition = &group
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles POST /api/v1/search with body {"city": "..."}.
// The fetch cycle runs to completion before the snapshot is returned; upstream
// failures are reported in the snapshot's error field, not as HTTP errors.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.City) == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}

	h.dashboard.SearchCity(r.Context(), body.City)
	h.writeState(w)
}

// Geolocate handles POST /api/v1/geolocate. The caller's address is passed
// on so the position is resolved for the client, not for this server.
func (h *Handlers) Geolocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if ip := clientIP(r); ip != "" {
		ctx = geolocation.WithClientIP(ctx, ip)
	}
	h.dashboard.UseGeolocation(ctx)
	h.writeState(w)
}

// clientIP returns the caller's public address. Loopback and private
// addresses yield "" since a lookup service cannot place them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return ""
	}
	return addr.String()
}

// ChangeUnit handles PUT /api/v1/unit with body {"unit": "metric"|"imperial"}.
func (h *Handlers) ChangeUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Unit weather.Unit `json:"unit"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if !body.Unit.Valid() {
		writeError(w, http.StatusBadRequest, "unit must be metric or imperial")
		return
	}

	h.dashboard.ChangeUnit(r.Context(), body.Unit)
	h.writeState(w)
}

// Refresh handles POST /api/v1/refresh.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.dashboard.RefreshData(r.Context())
	h.writeState(w)
}

// AddFavorite handles POST /api/v1/favorites/{city}.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if strings.TrimSpace(city) == "" {
		writeError(w, http.StatusBadRequest, "city is required")
		return
	}

	h.dashboard.AddFavorite(city)
	h.writeState(w)
}

// RemoveFavorite handles DELETE /api/v1/favorites/{city}.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.dashboard.RemoveFavorite(chi.URLParam(r, "city"))
	h.writeState(w)
}

// ClearError handles DELETE /api/v1/error.
func (h *Handlers) ClearError(w http.ResponseWriter, r *http.Request) {
	h.dashboard.ClearError()
	h.writeState(w)
}

// ToggleTheme handles POST /api/v1/theme/toggle.
// A persistence failure is logged; the toggled state is still returned.
func (h *Handlers) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.ToggleDarkMode(r.Context()); err != nil {
		h.log.Warn("theme not persisted", "err", err)
	}
	h.writeState(w)
}

// SearchCities handles GET /api/v1/cities?q=...&limit=...
func (h *Handlers) SearchCities(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := defaultCityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCityLimit)
	}

	res := h.cities.SearchCities(r.Context(), query, limit)
	if !res.Success {
		h.log.Warn("city search failed", "query", query, "err", res.Error)
		writeJSON(w, http.StatusBadGateway, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// HealthHandlerFunc returns an http.HandlerFunc that checks the preferences backend.
// Returns 200 if it answers a ping, 503 otherwise.
func HealthHandlerFunc(prefs Pinger, backend string, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		prefsStatus := "ok"

		if err := prefs.Ping(ctx); err != nil {
			log.Error("health check: preferences ping failed", "backend", backend, "err", err)
			prefsStatus = "error"
			status = http.StatusServiceUnavailable
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		writeJSON(w, status, map[string]string{
			"status":      overall,
			"preferences": prefsStatus,
			"backend":     backend,
		})
	}
}
