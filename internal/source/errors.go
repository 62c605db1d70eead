package source

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by sources.
var (
	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("bibliography not found")

	// ErrEmptyBody indicates the document was retrieved but is blank.
	ErrEmptyBody = errors.New("bibliography file is empty")

	// ErrHTTPStatus indicates a non-success HTTP status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")

	// ErrNetwork indicates a connectivity problem.
	ErrNetwork = errors.New("network error fetching bibliography")

	// ErrTooLarge indicates the document exceeds MaxDocumentSize.
	ErrTooLarge = errors.New("bibliography exceeds size limit")

	// ErrUnsupported indicates a source URI this package cannot open.
	ErrUnsupported = errors.New("unsupported source")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load bibliography (%s) from %s", e.Status, e.URL)
}

// Unwrap lets errors.Is match ErrNotFound for 404 and ErrHTTPStatus otherwise.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrHTTPStatus
}

// IsNotFound returns true if the error indicates a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true for network failures, rate limiting and server errors.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrNetwork) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return false
}
