package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "prefs:"

// Preferences stores dashboard preferences as plain Redis strings.
// Entries never expire; a preference lives until it is overwritten.
type Preferences struct {
	client *redis.Client
}

// NewPreferences constructs a Preferences backed by client.
func NewPreferences(client *redis.Client) *Preferences {
	return &Preferences{client: client}
}

// key returns the Redis key for the given preference name.
func key(name string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(name))
}

// Get retrieves a preference. A missing key reports found=false with a nil error.
func (p *Preferences) Get(ctx context.Context, name string) (string, bool, error) {
	val, err := p.client.Get(ctx, key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get for preference %s: %w", name, err)
	}
	return val, true, nil
}

// Set stores a preference without expiry.
func (p *Preferences) Set(ctx context.Context, name, value string) error {
	if err := p.client.Set(ctx, key(name), value, 0).Err(); err != nil {
		return fmt.Errorf("cache set for preference %s: %w", name, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (p *Preferences) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
