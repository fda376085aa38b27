package api

import (
	"context"

	"github.com/neexbeast/rk-weather/internal/store"
	"github.com/neexbeast/rk-weather/internal/weather"
)

// Dashboard defines the store operations exposed over HTTP.
// *store.Store satisfies this interface.
type Dashboard interface {
	Snapshot() store.State
	SearchCity(ctx context.Context, name string)
	UseGeolocation(ctx context.Context)
	ChangeUnit(ctx context.Context, unit weather.Unit)
	RefreshData(ctx context.Context)
	AddFavorite(city string)
	RemoveFavorite(city string)
	ClearError()
	ToggleDarkMode(ctx context.Context) error
}

// CitySearcher defines the geocoding lookup behind the search box suggestions.
type CitySearcher interface {
	SearchCities(ctx context.Context, query string, limit int) weather.CitiesResult
}

// Pinger is implemented by every preferences backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
