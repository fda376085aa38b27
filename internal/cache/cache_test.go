package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/rk-weather/internal/cache"
	"github.com/neexbeast/rk-weather/internal/store"
)

var _ store.Preferences = (*cache.Preferences)(nil)

func newTestPreferences(t *testing.T) (*cache.Preferences, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewPreferences(client), mr
}

func TestPreferences_SetAndGet(t *testing.T) {
	p, mr := newTestPreferences(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, store.ThemeKey, "dark"))

	got, found, err := p.Get(ctx, store.ThemeKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dark", got)

	raw, err := mr.Get("prefs:rk-weather-theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", raw)
}

func TestPreferences_Get_Miss(t *testing.T) {
	p, _ := newTestPreferences(t)

	got, found, err := p.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found, "a missing key is not an error")
	assert.Empty(t, got)
}

func TestPreferences_KeyIsLowercased(t *testing.T) {
	p, _ := newTestPreferences(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, "RK-Weather-Theme", "light"))

	got, found, err := p.Get(ctx, "rk-weather-theme")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", got)
}

func TestPreferences_Overwrite(t *testing.T) {
	p, _ := newTestPreferences(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, store.ThemeKey, "dark"))
	require.NoError(t, p.Set(ctx, store.ThemeKey, "light"))

	got, _, err := p.Get(ctx, store.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "light", got)
}

func TestPreferences_NoExpiry(t *testing.T) {
	p, mr := newTestPreferences(t)
	ctx := context.Background()

	require.NoError(t, p.Set(ctx, store.ThemeKey, "dark"))
	mr.FastForward(365 * 24 * time.Hour)

	_, found, err := p.Get(ctx, store.ThemeKey)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPreferences_ServerDown(t *testing.T) {
	p, mr := newTestPreferences(t)
	mr.Close()

	_, _, err := p.Get(context.Background(), store.ThemeKey)
	require.Error(t, err)
	assert.Error(t, p.Set(context.Background(), store.ThemeKey, "dark"))
	assert.Error(t, p.Ping(context.Background()))
}

func TestPreferences_DrivesStoreTheme(t *testing.T) {
	p, _ := newTestPreferences(t)
	ctx := context.Background()
	require.NoError(t, p.Set(ctx, store.ThemeKey, "dark"))

	s := store.New(nil, nil, p, store.DefaultOptions(), nil)
	s.LoadTheme(ctx)
	assert.True(t, s.Snapshot().IsDarkMode)

	require.NoError(t, s.ToggleDarkMode(ctx))
	got, _, err := p.Get(ctx, store.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "light", got)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer client.Close()
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}
