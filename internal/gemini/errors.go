package gemini

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

const (
	invalidKeyMarker    = "API key not valid"
	modelNotFoundMarker = "is not found"
)

// APIError is a non-2xx reply from the service.
type APIError struct {
	StatusCode int
	// Status is the HTTP status line text, e.g. "400 Bad Request"
	Status string
	// Message is the provider's error.message, empty when the body had none
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error."
	}
	return fmt.Sprintf("API Error: %d - %s", e.StatusCode, msg)
}

// CredentialRejected reports whether the service refused the API key.
func (e *APIError) CredentialRejected() bool {
	return strings.Contains(e.Message, invalidKeyMarker)
}

// ModelNotFound reports whether the service does not know the requested model.
func (e *APIError) ModelNotFound() bool {
	return strings.Contains(e.Message, "models/") && strings.Contains(e.Message, modelNotFoundMarker)
}

// TransportError means no usable reply was received: the request failed to
// complete or the reply body could not be read or decoded.
type TransportError struct {
	Err error
	// msg is Err's text with the API key removed
	msg string
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.msg != "" {
		return e.msg
	}
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transient reports whether the failure looks like a temporary network problem.
func (e *TransportError) Transient() bool {
	return e != nil && isLikelyTransient(e.Err)
}

func isLikelyTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		return isLikelyTransient(urlErr.Err)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
