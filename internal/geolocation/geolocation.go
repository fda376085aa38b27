// Package geolocation resolves the device position and classifies the ways
// that can fail.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Code classifies a positioning failure. Values match the browser
// GeolocationPositionError codes.
type Code int

const (
	Unknown             Code = 0
	PermissionDenied    Code = 1
	PositionUnavailable Code = 2
	Timeout             Code = 3
)

// DefaultTimeout bounds a single position request.
const DefaultTimeout = 10 * time.Second

// MsgUnsupported is shown when no locator is configured.
const MsgUnsupported = "Géolocalisation non supportée"

// Position is a resolved coordinate pair.
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Options tune a position request. A zero MaximumAge forbids reusing a
// previously resolved position.
type Options struct {
	Timeout    time.Duration
	MaximumAge time.Duration
}

// DefaultOptions asks for a fresh fix within DefaultTimeout.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, MaximumAge: 0}
}

// Locator resolves the current position.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// Error is a classified positioning failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geolocation error %d", e.Code)
	}
	return fmt.Sprintf("geolocation error %d: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message maps a failure code to the message shown to the user.
func Message(code Code) string {
	switch code {
	case PermissionDenied:
		return "Permission de géolocalisation refusée"
	case PositionUnavailable:
		return "Position indisponible"
	case Timeout:
		return "Délai dépassé"
	default:
		return "Erreur de géolocalisation"
	}
}

// MessageFor maps any error returned by a Locator to a user-facing message.
// Unclassified deadline errors count as Timeout.
func MessageFor(err error) string {
	return Message(CodeOf(err))
}

// CodeOf extracts the failure code from err.
func CodeOf(err error) Code {
	var geoErr *Error
	if errors.As(err, &geoErr) {
		return geoErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return Unknown
}
