package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// UnknownErrorMessage is surfaced when the server gave no usable message
const UnknownErrorMessage = "unknown error"

// ErrStaleResponse marks a response that arrived for a superseded request.
// It is never shown to the user.
var ErrStaleResponse = errors.New("stale response")

// ValidationError is a client-side pre-flight rejection; no request was sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// TransportError wraps a network failure or an unreadable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Message is the server's {error} text verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d: %s", e.Status, UnknownErrorMessage)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Message returns the text to show the user for err: the server message
// verbatim, the validation reason, or UnknownErrorMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *ServerError
	if errors.As(err, &se) {
		if se.Message == "" {
			return UnknownErrorMessage
		}
		return se.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}

// IsRetryable reports whether a request failing with err may succeed if
// sent again unchanged: transport failures, 5xx, 408 and 429.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status >= http.StatusInternalServerError ||
			se.Status == http.StatusRequestTimeout ||
			se.Status == http.StatusTooManyRequests
	}
	return false
}

// IsValidation reports whether err is a client-side pre-flight rejection
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
