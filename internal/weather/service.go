package weather

import (
	"context"
	"log/slog"
)

// DefaultSearchLimit is the number of geocoding hits SearchCities asks for
// when the caller passes no limit.
const DefaultSearchLimit = 5

// Service fetches upstream data and shapes it into view models. Every
// operation returns a result envelope; failures are never returned as errors.
type Service struct {
	client    *Client
	formatter Formatter
	log       *slog.Logger
}

// NewService constructs a Service using DefaultFormatter.
func NewService(client *Client, log *slog.Logger) *Service {
	return NewServiceWithFormatter(client, DefaultFormatter, log)
}

// NewServiceWithFormatter constructs a Service with a custom Formatter (for tests).
func NewServiceWithFormatter(client *Client, f Formatter, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{client: client, formatter: f, log: log}
}

// GetCurrentWeather looks up current conditions by city name.
func (s *Service) GetCurrentWeather(ctx context.Context, city string, unit Unit) CurrentResult {
	raw, err := s.client.Current(ctx, city, unit)
	if err != nil {
		s.log.Warn("current weather lookup failed", "city", city, "err", err)
		return CurrentResult{Success: false, Error: ErrorMessage(err)}
	}

	return CurrentResult{
		Success: true,
		Data:    s.formatter.Current(raw, unit),
		Raw:     raw,
	}
}

// GetWeatherByCoords looks up current conditions by coordinates.
func (s *Service) GetWeatherByCoords(ctx context.Context, lat, lon float64, unit Unit) CurrentResult {
	raw, err := s.client.CurrentByCoords(ctx, lat, lon, unit)
	if err != nil {
		s.log.Warn("coordinate weather lookup failed", "lat", lat, "lon", lon, "err", err)
		return CurrentResult{Success: false, Error: ErrorMessage(err)}
	}

	return CurrentResult{
		Success: true,
		Data:    s.formatter.Current(raw, unit),
		Raw:     raw,
	}
}

// GetForecast fetches the 5-day forecast and returns its daily and hourly views.
func (s *Service) GetForecast(ctx context.Context, city string, unit Unit) ForecastResult {
	raw, err := s.client.Forecast(ctx, city, unit)
	if err != nil {
		s.log.Warn("forecast lookup failed", "city", city, "err", err)
		return ForecastResult{Success: false, Error: ErrorMessage(err)}
	}

	return ForecastResult{
		Success: true,
		Daily:   s.formatter.Daily(raw, unit),
		Hourly:  s.formatter.Hourly(raw),
		Raw:     raw,
	}
}

// SearchCities geocodes query. A non-positive limit means DefaultSearchLimit.
func (s *Service) SearchCities(ctx context.Context, query string, limit int) CitiesResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	entries, err := s.client.Geocode(ctx, query, limit)
	if err != nil {
		s.log.Warn("city search failed", "query", query, "err", err)
		return CitiesResult{Success: false, Error: ErrorMessage(err), Data: []CityMatch{}}
	}

	matches := make([]CityMatch, 0, len(entries))
	for _, e := range entries {
		matches = append(matches, CityMatch{
			Name:    e.Name,
			Country: e.Country,
			State:   e.State,
			Lat:     e.Lat,
			Lon:     e.Lon,
			Label:   cityLabel(e),
		})
	}

	return CitiesResult{Success: true, Data: matches}
}

// ConvertUnits delegates to Convert.
func (s *Service) ConvertUnits(data *CurrentConditions, toUnit Unit) *CurrentConditions {
	return Convert(data, toUnit)
}

// cityLabel renders "Name, CC" or "Name, CC, State".
func cityLabel(e geoEntry) string {
	label := e.Name + ", " + e.Country
	if e.State != "" {
		label += ", " + e.State
	}
	return label
}
