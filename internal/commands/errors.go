package commands

import (
	"errors"
	"fmt"
	"io"

	"todo/internal/apiclient"
	"todo/internal/exitcode"
	"todo/internal/session"
	"todo/internal/todostore"
)

// report prints "error: <msg>" and returns the exit code for err.
// An empty msg falls back to the readable form of err.
func report(errOut io.Writer, msg string, err error) int {
	if msg == "" {
		msg = apiclient.Message(err)
	}
	fmt.Fprintf(errOut, "error: %s\n", msg)
	return codeFor(err)
}

func codeFor(err error) int {
	switch {
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, todostore.ErrTitleRequired),
		errors.Is(err, todostore.ErrInvalidPriority):
		return exitcode.UserError
	case errors.Is(err, apiclient.ErrSessionExpired),
		errors.Is(err, apiclient.ErrNoRefreshToken):
		return exitcode.AuthError
	}
	if status := apiclient.StatusCode(err); status != 0 {
		return exitcode.FromStatus(status)
	}
	return exitcode.BackendError
}
