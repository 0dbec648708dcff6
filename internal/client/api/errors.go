package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrUnavailable matches every retryable *Error: network failures,
	// timeouts and 5xx responses.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized matches 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

const (
	CodeNetwork         = "NETWORK_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeCancelled       = "CANCELLED"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeAnalysisTimeout = "ANALYSIS_TIMEOUT"
)

const (
	msgNetwork         = "Network error. Please check your connection."
	msgTimeout         = "Request timed out. Please try again."
	msgCancelled       = "Request was cancelled."
	msgInvalidResponse = "Invalid response from server."
	msgAnalysisTimeout = "Analysis timed out. Please try again with a clearer image."
)

// Error is the uniform shape every API failure is normalized into.
type Error struct {
	Message   string
	Status    int
	Code      string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Code != "":
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	case e.Status > 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	case e.Code != "":
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrUnavailable:
		return e.Retryable
	}
	return false
}

// Message returns the human-readable part of err, suitable for UI state.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retryable
}

// statusError builds the error for a non-success response.
func statusError(status int, env *envelope) *Error {
	e := &Error{
		Status:    status,
		Retryable: status >= http.StatusInternalServerError,
	}
	if env != nil {
		switch {
		case env.Error != nil && env.Error.Message != "":
			e.Message = env.Error.Message
		case env.Message != "":
			e.Message = env.Message
		}
		if env.Error != nil && env.Error.Code != "" {
			e.Code = env.Error.Code
		} else {
			e.Code = env.Code
		}
	}
	if e.Message == "" {
		if status > 0 {
			e.Message = fmt.Sprintf("Request failed with status %d", status)
		} else {
			e.Message = "Request failed"
		}
	}
	return e
}

// transportError normalizes a failure where no response was received.
func transportError(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Message: msgCancelled, Code: CodeCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Message: msgTimeout, Code: CodeTimeout, Retryable: true, Err: err}
	default:
		return &Error{Message: msgNetwork, Code: CodeNetwork, Retryable: true, Err: err}
	}
}
