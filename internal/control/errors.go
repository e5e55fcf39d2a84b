package control

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of a control API failure
type ErrorType int

const (
	// ErrTypeUnavailable indicates no daemon is listening
	ErrTypeUnavailable ErrorType = iota
	// ErrTypeNetwork indicates any other transport failure
	ErrTypeNetwork
	// ErrTypeTimeout indicates the request timed out
	ErrTypeTimeout
	// ErrTypeHTTP indicates the daemon answered with a non-2xx status
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnavailable:
		return "Daemon Unavailable"
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error describes a failed control request
type Error struct {
	Type       ErrorType // Category of error
	Op         string    // Control operation, e.g. "reload"
	Message    string    // Human-readable message
	StatusCode int       // HTTP status code, if any
	Err        error     // Underlying error
	Retryable  bool      // Whether repeating the request may succeed
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Type, e.Op, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyTransportError maps an http.Client error onto an ErrorType
func classifyTransportError(op string, err error) *Error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Op: op, Message: "request timed out", Err: err, Retryable: true}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeUnavailable, Op: op, Message: "daemon is not running", Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Type: ErrTypeUnavailable, Op: op, Message: "daemon is not running", Err: err}
	}

	return &Error{Type: ErrTypeNetwork, Op: op, Message: "request failed", Err: err, Retryable: true}
}

func newHTTPError(op string, statusCode int, message string) *Error {
	return &Error{
		Type:       ErrTypeHTTP,
		Op:         op,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 && statusCode != 502,
	}
}

func newParseError(op string, err error) *Error {
	return &Error{Type: ErrTypeParse, Op: op, Message: "malformed response", Err: err}
}

// IsUnavailable reports whether err means no daemon is listening
func IsUnavailable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Type == ErrTypeUnavailable
}

// IsRetryable reports whether err is worth retrying
func IsRetryable(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Retryable
}

// StatusCode returns the HTTP status of err, or 0
func StatusCode(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}
