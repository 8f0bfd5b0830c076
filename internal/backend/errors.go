package backend

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the backend rejects our session
// (401/403). The caller must clear the stored session and drop back to
// the sign-in screen.
var ErrUnauthorized = errors.New("backend: session rejected")

// APIError is a non-auth error response from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: API error (%d): %s", e.Status, e.Body)
}
