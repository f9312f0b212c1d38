package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures so the ingestion driver can decide the run outcome
type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeStorage   ErrorType = "storage"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error carries the failure type, the operation that failed and the cause
type Error struct {
	Type    ErrorType
	Op      string
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s error (code %d): %s", e.Op, e.Type, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewAuthError reports rejected or missing credentials
func NewAuthError(op, message string, code int, err error) *Error {
	return &Error{Type: ErrorTypeAuth, Op: op, Message: message, Code: code, Err: err}
}

// NewTransportError reports a network or API failure while talking to the platform
func NewTransportError(op, message string, code int, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Op: op, Message: message, Code: code, Err: err}
}

// NewStorageError reports that the local store could not be opened, read or written
func NewStorageError(op string, err error) *Error {
	return &Error{Type: ErrorTypeStorage, Op: op, Message: "storage unavailable", Err: err}
}

// NewRateLimitError signals exhausted quota for one attempt. The client retries
// these and never returns them.
func NewRateLimitError(op string, code int) *Error {
	return &Error{Type: ErrorTypeRateLimit, Op: op, Message: "request quota exhausted", Code: code}
}

// NewConfigError reports invalid configuration
func NewConfigError(op string, err error) *Error {
	return &Error{Type: ErrorTypeConfig, Op: op, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsAuth reports whether err is an authentication failure
func IsAuth(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// IsTransport reports whether err is a transport failure
func IsTransport(err error) bool {
	return TypeOf(err) == ErrorTypeTransport
}

// IsStorage reports whether err means the store is unavailable
func IsStorage(err error) bool {
	return TypeOf(err) == ErrorTypeStorage
}

// IsRateLimit reports whether err is a quota signal
func IsRateLimit(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}

// IsFatal reports whether a run must abort on err. Every classified run error is fatal;
// rate limit signals are absorbed by the client and never reach the driver.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) != ErrorTypeRateLimit
}

// IsRateLimitStatus reports whether an HTTP status means the request quota is exhausted.
// 420 is the platform's legacy "enhance your calm" status.
func IsRateLimitStatus(statusCode int) bool {
	return statusCode == 429 || statusCode == 420
}
