package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/neexbeast/rk-weather/internal/geolocation"
	"github.com/neexbeast/rk-weather/internal/weather"
)

const msgUnknownError = "Erreur inconnue"

// WeatherService is the subset of weather.Service the store drives.
type WeatherService interface {
	GetCurrentWeather(ctx context.Context, city string, unit weather.Unit) weather.CurrentResult
	GetWeatherByCoords(ctx context.Context, lat, lon float64, unit weather.Unit) weather.CurrentResult
	GetForecast(ctx context.Context, city string, unit weather.Unit) weather.ForecastResult
	ConvertUnits(data *weather.CurrentConditions, toUnit weather.Unit) *weather.CurrentConditions
}

// Options seed the initial state.
type Options struct {
	DefaultCity string
	DefaultUnit weather.Unit
	Favorites   []string
	// PrefersDark is the theme used when no flag has been persisted yet.
	PrefersDark bool
	// Geolocation tunes position requests; zero means geolocation.DefaultOptions.
	Geolocation geolocation.Options
}

// DefaultOptions mirror the dashboard's historical defaults.
func DefaultOptions() Options {
	return Options{
		DefaultCity: "Goma",
		DefaultUnit: weather.Metric,
		Favorites:   []string{"Goma", "Kinshasa", "Kigali", "Paris", "Lyon"},
		Geolocation: geolocation.DefaultOptions(),
	}
}

// Store owns State and is its only writer. All mutations go through Reduce
// under a single lock; readers get deep copies from Snapshot.
//
// Fetch cycles are last-request-wins: starting a cycle cancels the previous
// one and any result it still produces is dropped.
type Store struct {
	svc     WeatherService
	locator geolocation.Locator
	prefs   Preferences
	opts    Options
	log     *slog.Logger

	mu          sync.Mutex
	state       State
	cycle       uint64
	cancelCycle context.CancelFunc
	closed      bool
}

// New constructs a Store. A nil locator means geolocation is unsupported;
// nil prefs disables theme persistence.
func New(svc WeatherService, locator geolocation.Locator, prefs Preferences, opts Options, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	if !opts.DefaultUnit.Valid() {
		opts.DefaultUnit = weather.Metric
	}
	if opts.Geolocation == (geolocation.Options{}) {
		opts.Geolocation = geolocation.DefaultOptions()
	}

	initial := State{
		ForecastData:   []weather.DailyForecastEntry{},
		HourlyForecast: []weather.HourlyForecastEntry{},
		Loading:        true,
		Unit:           opts.DefaultUnit,
		City:           canonicalCity(opts.DefaultCity),
		Favorites:      []string{},
	}
	for _, city := range opts.Favorites {
		if c := canonicalCity(city); c != "" {
			initial = Reduce(initial, AddFavorite{City: c})
		}
	}

	return &Store{
		svc:     svc,
		locator: locator,
		prefs:   prefs,
		opts:    opts,
		log:     log,
		state:   initial,
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies actions in order as one atomic transition.
func (s *Store) Dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reduceLocked(actions...)
}

func (s *Store) reduceLocked(actions ...Action) {
	for _, a := range actions {
		s.state = Reduce(s.state, a)
		s.log.Debug("state transition", "action", a.Type(), "loading", s.state.Loading, "error", s.state.Error)
	}
}

// Init restores the theme flag and loads the default city.
func (s *Store) Init(ctx context.Context) {
	s.LoadTheme(ctx)
	s.RefreshData(ctx)
}

// Close cancels the in-flight fetch cycle and clears loading; results
// arriving afterwards are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.supersedeLocked()
	s.reduceLocked(SetLoading{Loading: false})
}

// ---- fetch cycles ----

// fetchCycle identifies one run of fetchWeatherData or UseGeolocation. City
// and unit are read under the same lock that makes the cycle current, so a
// cycle never outlives a unit change it did not see.
type fetchCycle struct {
	id   uint64
	tag  string
	city string
	unit weather.Unit
}

// SearchCity loads current conditions and forecast for name. Blank names are ignored.
func (s *Store) SearchCity(ctx context.Context, name string) {
	city := canonicalCity(name)
	if city == "" {
		return
	}
	s.fetchWeatherData(ctx, city)
}

// RefreshData re-runs the fetch cycle for the current city and unit.
func (s *Store) RefreshData(ctx context.Context) {
	s.fetchWeatherData(ctx, "")
}

// UseGeolocation resolves the device position and loads its weather.
func (s *Store) UseGeolocation(ctx context.Context) {
	if s.locator == nil {
		s.Dispatch(SetError{Message: geolocation.MsgUnsupported})
		return
	}

	ctx, c, cancel := s.beginCycle(ctx, "")
	defer cancel()
	log := s.log.With("cycle", c.tag, "source", "geolocation", "unit", c.unit)

	posCtx, posCancel := ctx, context.CancelFunc(func() {})
	if s.opts.Geolocation.Timeout > 0 {
		posCtx, posCancel = context.WithTimeout(ctx, s.opts.Geolocation.Timeout)
	}
	pos, err := s.locator.CurrentPosition(posCtx, s.opts.Geolocation)
	posCancel()
	if err != nil {
		log.Warn("position request failed", "err", err)
		if ctx.Err() != nil {
			s.abandonCycle(c)
			return
		}
		s.dispatchCycle(c, SetError{Message: geolocation.MessageFor(err)})
		return
	}

	current := s.svc.GetWeatherByCoords(ctx, pos.Latitude, pos.Longitude, c.unit)
	if !s.applyCurrent(ctx, c, log, current) {
		return
	}
	c.city = current.Data.City
	s.applyForecast(ctx, c, log)
}

// ChangeUnit switches units. Existing conditions are converted at once, then
// everything is re-fetched in the new unit. It is a no-op for an invalid or
// unchanged unit, or before any conditions are loaded.
func (s *Store) ChangeUnit(ctx context.Context, unit weather.Unit) {
	s.mu.Lock()
	if !unit.Valid() || unit == s.state.Unit || s.state.WeatherData == nil {
		s.mu.Unlock()
		return
	}
	// Results of a cycle started under the old unit must not land after this.
	s.supersedeLocked()
	converted := s.svc.ConvertUnits(s.state.WeatherData, unit)
	s.reduceLocked(SetUnit{Unit: unit})
	if converted != nil {
		s.reduceLocked(SetWeatherData{Data: converted})
	}
	s.mu.Unlock()

	s.fetchWeatherData(ctx, "")
}

// fetchWeatherData runs one cycle for city, or for the current city when
// city is empty: current conditions, then forecast. The forecast is only
// requested once current conditions succeeded, and its failure leaves the
// state untouched.
func (s *Store) fetchWeatherData(ctx context.Context, city string) {
	ctx, c, cancel := s.beginCycle(ctx, city)
	defer cancel()
	log := s.log.With("cycle", c.tag, "city", c.city, "unit", c.unit)
	log.Debug("fetch cycle started")

	current := s.svc.GetCurrentWeather(ctx, c.city, c.unit)
	if !s.applyCurrent(ctx, c, log, current) {
		return
	}
	s.applyForecast(ctx, c, log)
}

func (s *Store) applyCurrent(ctx context.Context, c fetchCycle, log *slog.Logger, res weather.CurrentResult) bool {
	if ctx.Err() != nil {
		s.abandonCycle(c)
		return false
	}

	if !res.Success || res.Data == nil {
		msg := res.Error
		if msg == "" {
			msg = msgUnknownError
		}
		log.Info("current conditions unavailable", "err", msg)
		s.dispatchCycle(c, SetError{Message: msg})
		return false
	}

	return s.dispatchCycle(c, SetWeatherData{Data: res.Data})
}

func (s *Store) applyForecast(ctx context.Context, c fetchCycle, log *slog.Logger) {
	res := s.svc.GetForecast(ctx, c.city, c.unit)
	if ctx.Err() != nil {
		s.abandonCycle(c)
		return
	}
	if !res.Success {
		log.Warn("forecast unavailable, keeping previous forecast", "err", res.Error)
		return
	}
	s.dispatchCycle(c, SetForecastData{Daily: res.Daily, Hourly: res.Hourly})
}

// beginCycle supersedes any running cycle and marks the store as loading. An
// empty city selects the current one.
func (s *Store) beginCycle(parent context.Context, city string) (context.Context, fetchCycle, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.supersedeLocked()
	if city == "" {
		city = s.state.City
	}
	c := fetchCycle{id: s.cycle, tag: uuid.NewString(), city: city, unit: s.state.Unit}
	if s.closed {
		cancel()
		return ctx, c, cancel
	}
	s.cancelCycle = cancel
	s.reduceLocked(SetLoading{Loading: true})
	return ctx, c, cancel
}

func (s *Store) supersedeLocked() {
	if s.cancelCycle != nil {
		s.cancelCycle()
		s.cancelCycle = nil
	}
	s.cycle++
}

// dispatchCycle applies actions only if c is still the current cycle.
func (s *Store) dispatchCycle(c fetchCycle, actions ...Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || c.id != s.cycle {
		s.log.Debug("dropping result of superseded cycle", "cycle", c.tag)
		return false
	}
	s.reduceLocked(actions...)
	return true
}

// abandonCycle clears loading for a cycle whose context was cancelled by its
// caller rather than by a newer cycle.
func (s *Store) abandonCycle(c fetchCycle) {
	s.dispatchCycle(c, SetLoading{Loading: false})
}

// ---- synchronous actions ----

// AddFavorite adds city to favorites unless already present.
func (s *Store) AddFavorite(city string) {
	if c := canonicalCity(city); c != "" {
		s.Dispatch(AddFavorite{City: c})
	}
}

// RemoveFavorite removes city from favorites.
func (s *Store) RemoveFavorite(city string) {
	s.Dispatch(RemoveFavorite{City: canonicalCity(city)})
}

// ClearError dismisses the current error.
func (s *Store) ClearError() {
	s.Dispatch(ClearError{})
}

// LoadTheme restores the persisted theme flag, falling back to PrefersDark.
func (s *Store) LoadTheme(ctx context.Context) {
	dark := s.opts.PrefersDark
	if s.prefs != nil {
		value, found, err := s.prefs.Get(ctx, ThemeKey)
		switch {
		case err != nil:
			s.log.Warn("reading theme preference failed", "err", err)
		case found:
			dark = value == themeDark
		}
	}
	s.Dispatch(SetDarkMode{Enabled: dark})
}

// ToggleDarkMode flips the theme and persists the new flag. The in-memory
// state changes even if persisting fails.
func (s *Store) ToggleDarkMode(ctx context.Context) error {
	s.mu.Lock()
	dark := !s.state.IsDarkMode
	s.reduceLocked(SetDarkMode{Enabled: dark})
	s.mu.Unlock()

	if s.prefs == nil {
		return nil
	}

	value := themeLight
	if dark {
		value = themeDark
	}
	if err := s.prefs.Set(ctx, ThemeKey, value); err != nil {
		s.log.Warn("persisting theme preference failed", "err", err)
		return err
	}
	return nil
}

// canonicalCity trims and NFC-normalises a city name so that the same name
// typed with composed or decomposed accents compares equal.
func canonicalCity(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
