package store

import (
	"slices"

	"github.com/neexbeast/rk-weather/internal/weather"
)

// State is the dashboard's single source of truth.
type State struct {
	WeatherData    *weather.CurrentConditions    `json:"weatherData"`
	ForecastData   []weather.DailyForecastEntry  `json:"forecastData"`
	HourlyForecast []weather.HourlyForecastEntry `json:"hourlyForecast"`
	Loading        bool                          `json:"loading"`
	Error          string                        `json:"error"`
	Unit           weather.Unit                  `json:"unit"`
	City           string                        `json:"city"`
	Favorites      []string                      `json:"favorites"`
	IsDarkMode     bool                          `json:"isDarkMode"`
}

// clone returns a copy that shares no slices or pointers with s.
func (s State) clone() State {
	out := s
	if s.WeatherData != nil {
		data := *s.WeatherData
		out.WeatherData = &data
	}
	out.ForecastData = slices.Clone(s.ForecastData)
	out.HourlyForecast = slices.Clone(s.HourlyForecast)
	out.Favorites = slices.Clone(s.Favorites)
	return out
}

// Action is a named state transition understood by Reduce.
type Action interface {
	Type() string
}

type (
	// SetLoading toggles the loading flag. Starting to load clears any error.
	SetLoading struct{ Loading bool }
	// SetError records a failure and stops loading.
	SetError struct{ Message string }
	// SetWeatherData replaces current conditions, adopts their city, and
	// clears loading and error.
	SetWeatherData struct{ Data *weather.CurrentConditions }
	// SetForecastData replaces both forecast views and stops loading.
	SetForecastData struct {
		Daily  []weather.DailyForecastEntry
		Hourly []weather.HourlyForecastEntry
	}
	SetUnit        struct{ Unit weather.Unit }
	AddFavorite    struct{ City string }
	RemoveFavorite struct{ City string }
	ClearError     struct{}
	SetDarkMode    struct{ Enabled bool }
)

func (SetLoading) Type() string      { return "SET_LOADING" }
func (SetError) Type() string        { return "SET_ERROR" }
func (SetWeatherData) Type() string  { return "SET_WEATHER_DATA" }
func (SetForecastData) Type() string { return "SET_FORECAST_DATA" }
func (SetUnit) Type() string         { return "SET_UNIT" }
func (AddFavorite) Type() string     { return "ADD_FAVORITE" }
func (RemoveFavorite) Type() string  { return "REMOVE_FAVORITE" }
func (ClearError) Type() string      { return "CLEAR_ERROR" }
func (SetDarkMode) Type() string     { return "SET_DARK_MODE" }

// Reduce applies a to s and returns the next state. s is never mutated and
// the result never has both Loading set and a non-empty Error.
// Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading
		if a.Loading {
			s.Error = ""
		}

	case SetError:
		s.Error = a.Message
		s.Loading = false

	case SetWeatherData:
		s.WeatherData = a.Data
		if a.Data != nil && a.Data.City != "" {
			s.City = a.Data.City
		}
		s.Loading = false
		s.Error = ""

	case SetForecastData:
		s.ForecastData = a.Daily
		if s.ForecastData == nil {
			s.ForecastData = []weather.DailyForecastEntry{}
		}
		s.HourlyForecast = a.Hourly
		if s.HourlyForecast == nil {
			s.HourlyForecast = []weather.HourlyForecastEntry{}
		}
		s.Loading = false

	case SetUnit:
		s.Unit = a.Unit

	case AddFavorite:
		if slices.Contains(s.Favorites, a.City) {
			return s
		}
		favorites := make([]string, 0, len(s.Favorites)+1)
		s.Favorites = append(append(favorites, s.Favorites...), a.City)

	case RemoveFavorite:
		s.Favorites = slices.DeleteFunc(slices.Clone(s.Favorites), func(c string) bool {
			return c == a.City
		})

	case ClearError:
		s.Error = ""

	case SetDarkMode:
		s.IsDarkMode = a.Enabled
	}

	return s
}
