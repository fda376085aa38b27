package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultGeoURL  = "https://api.openweathermap.org/geo/1.0/direct"
	defaultLang    = "fr"

	// forecastSamples is five days of 3-hour samples.
	forecastSamples = 40
)

// Config configures a Client. Zero fields take production defaults.
type Config struct {
	APIKey  string
	BaseURL string
	GeoURL  string
	Lang    string
	// RPS caps upstream requests per second; 0 disables the limiter.
	RPS   float64
	Burst int
	// Timeout bounds each request; 0 leaves requests unbounded apart from ctx.
	Timeout time.Duration
}

// Client talks to an OpenWeatherMap-compatible API.
type Client struct {
	apiKey  string
	baseURL string
	geoURL  string
	lang    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.GeoURL == "" {
		cfg.GeoURL = defaultGeoURL
	}
	if cfg.Lang == "" {
		cfg.Lang = defaultLang
	}

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		geoURL:  cfg.GeoURL,
		lang:    cfg.Lang,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

// NewClientWithURLs constructs an unthrottled Client pointing at custom URLs (for tests).
func NewClientWithURLs(baseURL, geoURL, apiKey string) *Client {
	return NewClient(Config{APIKey: apiKey, BaseURL: baseURL, GeoURL: geoURL})
}

// Current fetches current conditions by free-text city name.
func (c *Client) Current(ctx context.Context, city string, unit Unit) (*CurrentPayload, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("units", string(unit))

	var raw CurrentPayload
	if err := c.get(ctx, "weather", c.baseURL+"/weather", params, &raw); err != nil {
		return nil, fmt.Errorf("current weather for %s: %w", city, err)
	}
	return &raw, nil
}

// CurrentByCoords fetches current conditions for a coordinate pair.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64, unit Unit) (*CurrentPayload, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("units", string(unit))

	var raw CurrentPayload
	if err := c.get(ctx, "weather", c.baseURL+"/weather", params, &raw); err != nil {
		return nil, fmt.Errorf("current weather at %f,%f: %w", lat, lon, err)
	}
	return &raw, nil
}

// Forecast fetches up to 40 three-hour samples for city.
func (c *Client) Forecast(ctx context.Context, city string, unit Unit) (*ForecastPayload, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("units", string(unit))
	params.Set("cnt", strconv.Itoa(forecastSamples))

	var raw ForecastPayload
	if err := c.get(ctx, "forecast", c.baseURL+"/forecast", params, &raw); err != nil {
		return nil, fmt.Errorf("forecast for %s: %w", city, err)
	}
	return &raw, nil
}

// Geocode looks up cities matching query.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]geoEntry, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var raw []geoEntry
	if err := c.get(ctx, "geocode", c.geoURL, params, &raw); err != nil {
		return nil, fmt.Errorf("geocoding %s: %w", query, err)
	}
	return raw, nil
}

// get performs a throttled GET with the shared appid/lang parameters and
// decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, endpoint, rawURL string, params url.Values, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	params.Set("appid", c.apiKey)
	if endpoint != "geocode" {
		params.Set("lang", c.lang)
	}
	fullURL := rawURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", rawURL, err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	upstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequests.WithLabelValues(endpoint, "network").Inc()
		return &NetworkError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		upstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return &StatusError{URL: rawURL, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		upstreamRequests.WithLabelValues(endpoint, "decode").Inc()
		return fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}

	upstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
