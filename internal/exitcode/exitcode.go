// Package exitcode defines exit codes for the CLI.
package exitcode

import "net/http"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, rejected input).
	UserError = 1

	// AuthError indicates the user is not logged in or the session expired.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromStatus maps an HTTP status returned by the backend to an exit code.
// Statuses below 400 and unknown failures map to BackendError.
func FromStatus(status int) int {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return AuthError
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return UserError
	}
	return BackendError
}
