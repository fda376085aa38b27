package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/rk-weather/internal/api"
	"github.com/neexbeast/rk-weather/internal/cache"
	"github.com/neexbeast/rk-weather/internal/geolocation"
	"github.com/neexbeast/rk-weather/internal/storage"
	"github.com/neexbeast/rk-weather/internal/store"
	"github.com/neexbeast/rk-weather/internal/weather"
)

const defaultFavorites = "Goma,Kinshasa,Kigali,Paris,Lyon"

func main() {
	// A missing .env is fine; the real environment still applies.
	_ = godotenv.Load()

	log := newLogger(getEnvAsBool("DEV_MODE", false))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func newLogger(dev bool) *slog.Logger {
	if dev {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func run(log *slog.Logger) error {
	port := getEnv("PORT", "8080")
	backend := getEnv("PREFS_BACKEND", "memory")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prefs, closePrefs, err := openPreferences(ctx, backend, log)
	if err != nil {
		return fmt.Errorf("opening %s preferences: %w", backend, err)
	}
	defer closePrefs()

	locator, err := newLocator(getEnv("GEOLOCATION", "ip"))
	if err != nil {
		return fmt.Errorf("configuring geolocation: %w", err)
	}

	// Wire dependencies.
	weatherTimeout := getEnvAsDuration("WEATHER_TIMEOUT", 10*time.Second)
	client := weather.NewClient(weather.Config{
		APIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		BaseURL: os.Getenv("WEATHER_API_URL"),
		GeoURL:  os.Getenv("GEO_API_URL"),
		Lang:    getEnv("WEATHER_LANG", "fr"),
		RPS:     getEnvAsFloat("WEATHER_RPS", 1),
		Burst:   getEnvAsInt("WEATHER_BURST", 5),
		Timeout: weatherTimeout,
	})
	svc := weather.NewService(client, log)

	opts := store.DefaultOptions()
	opts.DefaultCity = getEnv("DEFAULT_CITY", opts.DefaultCity)
	opts.DefaultUnit = weather.Unit(getEnv("DEFAULT_UNIT", string(opts.DefaultUnit)))
	opts.Favorites = strings.Split(getEnv("DEFAULT_FAVORITES", defaultFavorites), ",")
	opts.PrefersDark = getEnvAsBool("PREFERS_DARK", false)
	if !opts.DefaultUnit.Valid() {
		log.Warn("ignoring invalid DEFAULT_UNIT", "unit", opts.DefaultUnit)
		opts.DefaultUnit = weather.Metric
	}

	dashboard := store.New(svc, locator, prefs, opts, log)
	defer dashboard.Close()

	handlers := api.NewHandlers(dashboard, svc, log)
	router := api.NewRouter(handlers, prefs, backend, getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60), log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(opts.Geolocation.Timeout, weatherTimeout),
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dashboard.Init(gctx)
		snap := dashboard.Snapshot()
		log.Info("dashboard initialised", "city", snap.City, "unit", snap.Unit, "error", snap.Error)
		return nil
	})

	g.Go(func() error {
		log.Info("server starting", "port", port, "preferences", backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	// Graceful shutdown on SIGINT / SIGTERM, or when the listener fails.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server shut down cleanly")
	return nil
}

// preferencesBackend is a store.Preferences the health check can ping.
type preferencesBackend interface {
	store.Preferences
	api.Pinger
}

// openPreferences connects the selected backend and returns a func releasing it.
func openPreferences(ctx context.Context, backend string, log *slog.Logger) (preferencesBackend, func(), error) {
	switch backend {
	case "memory":
		return store.NewMemoryPreferences(), func() {}, nil

	case "redis":
		client, err := cache.Connect(ctx, mustEnv("REDIS_URL"))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return cache.NewPreferences(client), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := storage.Connect(ctx, mustEnv("DATABASE_URL"), int32(getEnvAsInt("DB_MAX_CONNS", 4)))
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := storage.RunMigrations(ctx, pool, storage.Migrations()); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")
		return storage.NewRepository(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown PREFS_BACKEND %q", backend)
	}
}

// writeSlack covers rate limiter waits and encoding the response.
const writeSlack = 15 * time.Second

// writeTimeout bounds a response by the slowest handler: a position lookup
// followed by the current and forecast requests. An unbounded position or
// upstream timeout disables the write deadline.
func writeTimeout(positionTimeout, weatherTimeout time.Duration) time.Duration {
	if positionTimeout <= 0 || weatherTimeout <= 0 {
		return 0
	}
	return positionTimeout + 2*weatherTimeout + writeSlack
}

// newLocator returns nil when geolocation is disabled.
func newLocator(mode string) (geolocation.Locator, error) {
	switch mode {
	case "ip":
		if url := os.Getenv("GEOLOCATION_URL"); url != "" {
			return geolocation.NewIPLocatorWithURL(url), nil
		}
		return geolocation.NewIPLocator(), nil

	case "fixed":
		lat, err := strconv.ParseFloat(mustEnv("LOCATION_LAT"), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing LOCATION_LAT: %w", err)
		}
		lon, err := strconv.ParseFloat(mustEnv("LOCATION_LON"), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing LOCATION_LON: %w", err)
		}
		return geolocation.Fixed{Latitude: lat, Longitude: lon}, nil

	case "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown GEOLOCATION %q", mode)
	}
}

// ---- environment helpers ----

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
