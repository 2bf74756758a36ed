package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// StatusCode returns the HTTP status carried by err, or 0 if err did not
// come from a server reply.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 reply.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// Message turns err into a single human-readable line.
func Message(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrSessionExpired) {
		return "session expired, please log in again"
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if msg := bodyMessage(gerr.Body); msg != "" {
			return msg
		}
		if gerr.Message != "" {
			return gerr.Message
		}
		if text := http.StatusText(gerr.Code); text != "" {
			return fmt.Sprintf("request failed: %d %s", gerr.Code, strings.ToLower(text))
		}
		return fmt.Sprintf("request failed with status code %d", gerr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network error: could not reach server"
	}

	return err.Error()
}

// bodyMessage extracts the error text of a JSON error body. It understands
// {"detail": "..."}, {"detail": [{"msg": "..."}]} and {"message": "..."}.
func bodyMessage(body string) string {
	var reply struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return ""
	}

	if len(reply.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(reply.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(reply.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	return reply.Message
}
