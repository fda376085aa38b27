package geolocation_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/rk-weather/internal/geolocation"
)

func TestMessage(t *testing.T) {
	assert.Equal(t, "Permission de géolocalisation refusée", geolocation.Message(geolocation.PermissionDenied))
	assert.Equal(t, "Position indisponible", geolocation.Message(geolocation.PositionUnavailable))
	assert.Equal(t, "Délai dépassé", geolocation.Message(geolocation.Timeout))
	assert.Equal(t, "Erreur de géolocalisation", geolocation.Message(geolocation.Unknown))
	assert.Equal(t, "Erreur de géolocalisation", geolocation.Message(42))
}

func TestMessageFor(t *testing.T) {
	denied := fmt.Errorf("locating: %w", &geolocation.Error{Code: geolocation.PermissionDenied})
	assert.Equal(t, geolocation.Message(geolocation.PermissionDenied), geolocation.MessageFor(denied))
	assert.Equal(t, geolocation.Message(geolocation.Timeout), geolocation.MessageFor(context.DeadlineExceeded))
	assert.Equal(t, geolocation.Message(geolocation.Unknown), geolocation.MessageFor(errors.New("boom")))
}

func TestDefaultOptions(t *testing.T) {
	opts := geolocation.DefaultOptions()
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.Zero(t, opts.MaximumAge)
}

func TestFixed(t *testing.T) {
	pos, err := geolocation.Fixed{Latitude: -1.68, Longitude: 29.22}.CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, -1.68, pos.Latitude)
	assert.Equal(t, 29.22, pos.Longitude)
	assert.False(t, pos.Timestamp.IsZero())
}

// ---- IPLocator ----

func lookupServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "lat": 48.8566, "lon": 2.3522})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIPLocator_Success(t *testing.T) {
	var hits atomic.Int32
	loc := geolocation.NewIPLocatorWithURL(lookupServer(t, &hits).URL)

	pos, err := loc.CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 48.8566, pos.Latitude)
	assert.Equal(t, 2.3522, pos.Longitude)
}

func TestIPLocator_NoCachingWithZeroMaximumAge(t *testing.T) {
	var hits atomic.Int32
	loc := geolocation.NewIPLocatorWithURL(lookupServer(t, &hits).URL)

	for i := 0; i < 3; i++ {
		_, err := loc.CurrentPosition(context.Background(), geolocation.DefaultOptions())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestIPLocator_ReusesFixWithinMaximumAge(t *testing.T) {
	var hits atomic.Int32
	loc := geolocation.NewIPLocatorWithURL(lookupServer(t, &hits).URL)
	opts := geolocation.Options{Timeout: time.Second, MaximumAge: time.Minute}

	for i := 0; i < 3; i++ {
		_, err := loc.CurrentPosition(context.Background(), opts)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

// pathRecorder answers every lookup and records the requested paths.
func pathRecorder(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "lat": -1.68, "lon": 29.22})
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), paths...)
	}
}

func TestIPLocator_LooksUpClientIP(t *testing.T) {
	srv, paths := pathRecorder(t)
	loc := geolocation.NewIPLocatorWithURL(srv.URL + "/json/")

	ctx := geolocation.WithClientIP(context.Background(), "203.0.113.9")
	_, err := loc.CurrentPosition(ctx, geolocation.DefaultOptions())
	require.NoError(t, err)
	_, err = loc.CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"/json/203.0.113.9", "/json/"}, paths())
}

func TestIPLocator_CachesPerClientIP(t *testing.T) {
	srv, paths := pathRecorder(t)
	loc := geolocation.NewIPLocatorWithURL(srv.URL + "/json/")
	opts := geolocation.Options{Timeout: time.Second, MaximumAge: time.Minute}

	for _, ip := range []string{"203.0.113.9", "198.51.100.7", "203.0.113.9"} {
		_, err := loc.CurrentPosition(geolocation.WithClientIP(context.Background(), ip), opts)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"/json/203.0.113.9", "/json/198.51.100.7"}, paths())
}

func TestClientIP(t *testing.T) {
	assert.Empty(t, geolocation.ClientIP(context.Background()))
	assert.Equal(t, "2001:db8::1", geolocation.ClientIP(geolocation.WithClientIP(context.Background(), "2001:db8::1")))
}

func TestIPLocator_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := geolocation.NewIPLocatorWithURL(srv.URL).CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, geolocation.PermissionDenied, geolocation.CodeOf(err))
}

func TestIPLocator_LookupFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "private range"})
	}))
	defer srv.Close()

	_, err := geolocation.NewIPLocatorWithURL(srv.URL).CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, geolocation.PositionUnavailable, geolocation.CodeOf(err))
}

func TestIPLocator_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	opts := geolocation.Options{Timeout: 50 * time.Millisecond}
	_, err := geolocation.NewIPLocatorWithURL(srv.URL).CurrentPosition(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, geolocation.Timeout, geolocation.CodeOf(err))
	assert.Equal(t, "Délai dépassé", geolocation.MessageFor(err))
}

func TestIPLocator_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := geolocation.NewIPLocatorWithURL(url).CurrentPosition(context.Background(), geolocation.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, geolocation.PositionUnavailable, geolocation.CodeOf(err))
}
