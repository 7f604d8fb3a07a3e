package fetcher

import (
	"errors"
	"fmt"
)

// TransportError is a network-level failure: timeout, DNS, connection
// refused. Always worth retrying.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "request failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-200 HTTP response. Message carries whatever the
// server said: a structured error message when the body was JSON, otherwise
// the leading part of the raw body.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

// ParseError is a 200 response whose body could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "invalid JSON response: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// APIError is a well-formed response that reports success != true.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// FormatError is a success response whose data field is not an array of
// records. The shape will not change on retry, so it is terminal.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string { return e.Message }

// ExhaustedError reports that every attempt failed. It wraps the last
// attempt's error so its message survives into the final one.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}
func (e *ExhaustedError) Unwrap() error { return e.Err }

func retryable(err error) bool {
	var fe *FormatError
	return !errors.As(err, &fe)
}
