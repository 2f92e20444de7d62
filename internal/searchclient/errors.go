package searchclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

// TransportError is a failed exchange with the search service. It is never
// retried; the console reports it and resolves to an empty result set.
type TransportError struct {
	Type       types.ErrorType `json:"type"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Endpoint   string          `json:"endpoint"`
	Timestamp  time.Time       `json:"timestamp"`
	Err        error           `json:"-"`
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newTransportError(errType types.ErrorType, endpoint, message string, err error) *TransportError {
	return &TransportError{
		Type:      errType,
		Message:   message,
		Endpoint:  endpoint,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// ClassifyHTTPStatus builds the error for a non-2xx response.
func ClassifyHTTPStatus(endpoint string, statusCode int, body string) *TransportError {
	var message string
	switch {
	case statusCode == http.StatusTooManyRequests:
		message = "search service rate limit reached"
	case statusCode == http.StatusNotFound:
		message = "search endpoint not found"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		message = "search service refused the request"
	case statusCode >= 500:
		message = "search service error"
	default:
		message = "unexpected HTTP status"
	}

	if detail := strings.TrimSpace(body); detail != "" {
		detail = truncate(detail, maxDetailLength)
		message = fmt.Sprintf("%s: %s", message, detail)
	}

	e := newTransportError(types.ErrorTypeHTTPStatus, endpoint, message, nil)
	e.StatusCode = statusCode
	return e
}

// ClassifyRequestError maps an error from the HTTP round trip.
func ClassifyRequestError(endpoint string, err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	var malformed *results.MalformedBodyError
	if errors.As(err, &malformed) {
		return newTransportError(types.ErrorTypeMalformedPayload, endpoint, malformed.Error(), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newTransportError(types.ErrorTypeTimeout, endpoint, "request timed out", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTransportError(types.ErrorTypeTimeout, endpoint, "request timed out", err)
	}

	if errors.Is(err, context.Canceled) {
		return newTransportError(types.ErrorTypeNetwork, endpoint, "request cancelled", err)
	}

	return newTransportError(types.ErrorTypeNetwork, endpoint, fmt.Sprintf("failed to reach search service: %v", err), err)
}

const maxDetailLength = 200

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
