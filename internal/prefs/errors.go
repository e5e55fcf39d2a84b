package prefs

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a store failure
type ErrorType int

const (
	// ErrTypeIO indicates the backing file or database could not be read or written
	ErrTypeIO ErrorType = iota
	// ErrTypeEncode indicates the batch could not be serialized
	ErrTypeEncode
	// ErrTypeDecode indicates stored data could not be parsed
	ErrTypeDecode
	// ErrTypeClosed indicates the store was used after Close
	ErrTypeClosed
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeIO:
		return "I/O Error"
	case ErrTypeEncode:
		return "Encode Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeClosed:
		return "Store Closed"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// StoreError describes a failed store operation
type StoreError struct {
	Type      ErrorType // Category of error
	Op        string    // Operation that failed (e.g. "commit", "open")
	Path      string    // Backing file, if any
	Err       error     // Underlying error
	Retryable bool      // Whether repeating the operation may succeed
}

// Error implements the error interface
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Op)
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *StoreError) Unwrap() error {
	return e.Err
}

func newIOError(op, path string, err error) *StoreError {
	return &StoreError{Type: ErrTypeIO, Op: op, Path: path, Err: err, Retryable: true}
}

func newEncodeError(op, path string, err error) *StoreError {
	return &StoreError{Type: ErrTypeEncode, Op: op, Path: path, Err: err}
}

func newDecodeError(op, path string, err error) *StoreError {
	return &StoreError{Type: ErrTypeDecode, Op: op, Path: path, Err: err}
}

// ErrClosed is returned by stores used after Close.
var ErrClosed = &StoreError{Type: ErrTypeClosed, Op: "use"}

// IsRetryable reports whether err is a store failure worth retrying
func IsRetryable(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// ShortMessage returns a concise, user-facing description of a store error
func ShortMessage(err error) string {
	var se *StoreError
	if !errors.As(err, &se) {
		return err.Error()
	}

	switch se.Type {
	case ErrTypeIO:
		return "Could not write preferences - check disk space and permissions"
	case ErrTypeEncode:
		return "Could not serialize preferences"
	case ErrTypeDecode:
		return "Preferences file is corrupt - fix or remove it"
	case ErrTypeClosed:
		return "Preference store is closed"
	default:
		return se.Error()
	}
}
