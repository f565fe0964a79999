package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy for the moderation platform. Scanners branch on these with
// errors.Is: NotFound skips the item, PermissionDenied is surfaced once per
// scanner startup, Transient retries the whole pass.
var (
	ErrNotFound         = errors.New("platform: not found")
	ErrPermissionDenied = errors.New("platform: permission denied")
	ErrTransient        = errors.New("platform: transient error")
)

// StatusError wraps an unexpected HTTP response, classified under one of the
// sentinel errors above.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("platform: %s returned status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusForbidden || e.StatusCode == http.StatusUnauthorized:
		return ErrPermissionDenied
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500:
		return ErrTransient
	}
	return nil
}
