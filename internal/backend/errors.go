package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/transferpeer/peerconnect/pkg/circuitbreaker"
	pkgerrors "github.com/transferpeer/peerconnect/pkg/errors"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded
var ErrMalformedResponse = errors.New("malformed backend response")

// APIError is a non-2xx backend response
type APIError struct {
	Operation  string
	StatusCode int
	Status     string // e.g. "400 Bad Request"
	Detail     string
}

// Error returns the backend detail when present, else the status line
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Status
}

// newAPIError builds an APIError from a response status and body
func newAPIError(operation string, resp *http.Response, body []byte) *APIError {
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &APIError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     strings.TrimSpace(status),
		Detail:     parseDetail(body),
	}
}

// parseDetail extracts the "detail" field of an error body.
// FastAPI sends either a string or a list of {loc, msg, type} objects.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if len(body) == 0 || json.Unmarshal(body, &envelope) != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}

// Reason renders err as the short text shown in a notification
func Reason(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, pkgerrors.ErrUnavailable), circuitbreaker.IsOpen(err):
		return "backend temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, ErrMalformedResponse):
		return "unexpected response from server"
	default:
		return "could not reach the server"
	}
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
