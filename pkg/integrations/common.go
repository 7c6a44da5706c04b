package integrations

import (
	"errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single HTTP request to the metadata API.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when an entity or resource doesn't exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is returned when credentials are missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
