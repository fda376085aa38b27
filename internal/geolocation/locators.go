package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultIPLookupURL = "http://ip-api.com/json/"

// Fixed always reports the same configured position.
type Fixed struct {
	Latitude  float64
	Longitude float64
}

// CurrentPosition returns the configured coordinates stamped with the current time.
func (f Fixed) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, &Error{Code: Timeout, Err: err}
	}
	return Position{Latitude: f.Latitude, Longitude: f.Longitude, Timestamp: time.Now()}, nil
}

type clientIPKey struct{}

// WithClientIP returns a copy of ctx carrying the address of the client whose
// position is requested.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// IPLocator approximates the position from a public IP address: the client
// address carried by the context, or the server's own address when none is
// set. Fixes are cached per address.
type IPLocator struct {
	url    string
	client *http.Client

	mu    sync.Mutex
	fixes map[string]Position
}

// NewIPLocator constructs an IPLocator against the default lookup service.
func NewIPLocator() *IPLocator {
	return NewIPLocatorWithURL(defaultIPLookupURL)
}

// NewIPLocatorWithURL constructs an IPLocator pointing at a custom lookup URL (for tests).
func NewIPLocatorWithURL(lookupURL string) *IPLocator {
	return &IPLocator{url: lookupURL, client: &http.Client{}, fixes: make(map[string]Position)}
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// CurrentPosition looks up the position of ClientIP(ctx), reusing the last
// fix for that address when it is younger than opts.MaximumAge.
func (l *IPLocator) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	ip := ClientIP(ctx)
	if cached, ok := l.cached(ip, opts.MaximumAge); ok {
		return cached, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url+url.PathEscape(ip), nil)
	if err != nil {
		return Position{}, &Error{Code: Unknown, Err: fmt.Errorf("creating lookup request: %w", err)}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, &Error{Code: Timeout, Err: err}
		}
		return Position{}, &Error{Code: PositionUnavailable, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Position{}, &Error{Code: PermissionDenied, Err: fmt.Errorf("lookup returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return Position{}, &Error{Code: PositionUnavailable, Err: fmt.Errorf("lookup returned status %d", resp.StatusCode)}
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Position{}, &Error{Code: PositionUnavailable, Err: fmt.Errorf("decoding lookup response: %w", err)}
	}
	if body.Status != "success" {
		return Position{}, &Error{Code: PositionUnavailable, Err: fmt.Errorf("lookup failed: %s", body.Message)}
	}

	pos := Position{Latitude: body.Lat, Longitude: body.Lon, Timestamp: time.Now()}
	l.remember(ip, pos, opts.MaximumAge)

	return pos, nil
}

func (l *IPLocator) cached(ip string, maxAge time.Duration) (Position, bool) {
	if maxAge <= 0 {
		return Position{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.fixes[ip]
	if !ok || time.Since(pos.Timestamp) > maxAge {
		return Position{}, false
	}
	return pos, true
}

// remember stores pos for ip and evicts fixes too old to be reused.
func (l *IPLocator) remember(ip string, pos Position, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, fix := range l.fixes {
		if time.Since(fix.Timestamp) > maxAge {
			delete(l.fixes, k)
		}
	}
	l.fixes[ip] = pos
}
