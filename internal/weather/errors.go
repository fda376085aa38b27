package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages for failed upstream calls.
const (
	MsgInvalidKey     = "Clé API invalide. Veuillez vérifier votre configuration."
	MsgCityNotFound   = "Ville non trouvée. Vérifiez le nom de la ville."
	MsgRateLimited    = "Trop de requêtes. Veuillez patienter quelques instants."
	MsgUnavailable    = "Service temporairement indisponible. Veuillez réessayer plus tard."
	MsgUnreachable    = "Impossible de joindre le serveur. Vérifiez votre connexion internet."
	MsgUnexpected     = "Une erreur inattendue est survenue."
	msgServerErrorFmt = "Erreur serveur: %d"
)

// StatusError means the upstream answered with a non-200 status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.Status)
}

// NetworkError means no response was received at all.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrorMessage maps a failure to the message shown to the user. It depends
// only on the failure class, never on which operation failed.
func ErrorMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return StatusMessage(statusErr.Status)
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return MsgUnreachable
	}

	return MsgUnexpected
}

// StatusMessage maps an HTTP status code to a user-facing message.
func StatusMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return MsgInvalidKey
	case http.StatusNotFound:
		return MsgCityNotFound
	case http.StatusTooManyRequests:
		return MsgRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return MsgUnavailable
	default:
		return fmt.Sprintf(msgServerErrorFmt, status)
	}
}
