package sefaria

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Sefaria/sefaria-mcp/internal/api"
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 256

// UpstreamError is returned when a request to the Sefaria API fails, either
// because the server answered with a non-2xx status or because it could not
// be reached at all.
type UpstreamError struct {
	Method     string
	URL        string
	StatusCode int    // zero when no response was received
	Body       string // leading part of the response body, if any
	Err        error  // transport error when StatusCode is zero
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the failure for metrics.
func (e *UpstreamError) ErrorKind() api.ErrorKind {
	if e.StatusCode != 0 {
		return api.ErrorKindUpstreamStatus
	}
	if errors.Is(e.Err, context.Canceled) {
		return api.ErrorKindCanceled
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return api.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return api.ErrorKindTimeout
	}
	return api.ErrorKindUpstreamUnreachable
}

// IsStatus reports whether err is an UpstreamError with the given status.
func IsStatus(err error, status int) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == status
}

// DecodeError is returned when an upstream response is not the JSON it
// should be.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the failure for metrics.
func (e *DecodeError) ErrorKind() api.ErrorKind {
	return api.ErrorKindDecode
}
