package connection

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a connection failure
type ErrorType int

const (
	// ErrTypeDial indicates the server could not be reached
	ErrTypeDial ErrorType = iota
	// ErrTypeProtocol indicates an unexpected message from the server
	ErrTypeProtocol
	// ErrTypeAuth indicates the server rejected the password
	ErrTypeAuth
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeDial:
		return "Dial Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeAuth:
		return "Authentication Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ConnError describes a failed connection attempt
type ConnError struct {
	Type ErrorType
	URL  string
	Err  error
}

// Error implements the error interface
func (e *ConnError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.URL)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsAuthError checks if an error is an authentication failure
func IsAuthError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce) && ce.Type == ErrTypeAuth
}

// IsDialError checks if an error is a dial failure
func IsDialError(err error) bool {
	var ce *ConnError
	return errors.As(err, &ce) && ce.Type == ErrTypeDial
}

// ErrDisconnected is returned by a Conn call whose dial was overtaken by
// Disconnect. The new connection is closed, not kept.
var ErrDisconnected = errors.New("connection attempt abandoned by disconnect")
