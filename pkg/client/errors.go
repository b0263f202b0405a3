package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during
	// a backoff wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport-level errors (connection
	// refused, DNS failure, timeout).
	ErrorClassNetwork ErrorClass = "network"
)

// StatusError reports a non-2xx terminal status. URL is the final request
// URL after any redirects were followed.
type StatusError struct {
	StatusCode int
	URL        string
	Class      ErrorClass
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("screener %s error (status %d) for %s: %s",
		e.Class, e.StatusCode, e.URL, e.Message)
}

// classifyStatus categorizes a non-2xx status for observability. The
// upstream screener retries both 4xx and 5xx; the class only affects
// logging and metrics, never the retry decision.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 400 && statusCode < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

// isRedirect reports whether the upstream asked us to follow a Location
// header. Only 301 and 307 are honored; anything else in the 3xx range is
// returned to the caller untouched.
func isRedirect(statusCode int) bool {
	return statusCode == http.StatusMovedPermanently || statusCode == http.StatusTemporaryRedirect
}
