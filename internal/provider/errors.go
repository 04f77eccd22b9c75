package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication marks a completion call rejected for bad or missing credentials.
	ErrAuthentication = errors.New("completion authentication failed")
	// ErrRateLimited marks a completion call rejected by the backend's rate limiter.
	ErrRateLimited = errors.New("completion rate limited")
)

// APIError is a non-2xx answer from a completion backend.
// errors.Is matches ErrAuthentication for 401/403 and ErrRateLimited for 429.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

const maxErrorBody = 512

func truncateBody(b string) string {
	if len(b) <= maxErrorBody {
		return b
	}
	return b[:maxErrorBody] + "..."
}
