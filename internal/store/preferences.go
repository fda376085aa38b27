package store

import (
	"context"
	"sync"
)

// ThemeKey is the preference key holding the theme flag.
const ThemeKey = "rk-weather-theme"

const (
	themeDark  = "dark"
	themeLight = "light"
)

// Preferences is a small persistent key/value store.
// Get reports found=false for a missing key; that is not an error.
type Preferences interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemoryPreferences keeps preferences for the lifetime of the process.
type MemoryPreferences struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPreferences constructs an empty MemoryPreferences.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

func (m *MemoryPreferences) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryPreferences) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Ping always succeeds.
func (m *MemoryPreferences) Ping(context.Context) error { return nil }
