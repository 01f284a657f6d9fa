package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// APIError is a non-2xx answer from the session service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("session service: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("session service: %d %s", e.StatusCode, e.Message)
}

// RefreshError is returned in place of a 401 when the session could not be
// renewed. The local session has already been discarded by then, except when
// there was no refresh token to begin with.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string { return "refresh session: " + e.Err.Error() }
func (e *RefreshError) Unwrap() error { return e.Err }

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	var refreshErr *RefreshError
	return errors.As(err, &refreshErr)
}

func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}
