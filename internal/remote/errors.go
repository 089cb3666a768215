package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure response from the remote data source. Message prefers
// the server-provided error text; Status carries the HTTP status so callers
// can branch on the failure class without string matching.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote request failed with status %d", e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0 for transport-level
// failures that never produced a response.
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the remote source.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// IsConflict reports whether err is a 409, e.g. stock exhausted during
// checkout. The caller must re-attempt the whole operation, not just the
// request.
func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}
