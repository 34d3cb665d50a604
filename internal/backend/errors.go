package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// APIError is a non-2xx answer from the commerce backend. Message is the
// server-provided message and may be empty.
type APIError struct {
	Status  int
	Message string
	Errors  map[string][]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// IsServerFault reports whether the error should count against the backend's health.
func (e *APIError) IsServerFault() bool {
	return e.Status >= http.StatusInternalServerError
}

// MessageOr returns the server-provided message of err when it carries one, else fallback.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
