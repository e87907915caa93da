package core

import (
	"errors"
	"fmt"
)

// ErrNoProvider is returned by the router when the requested model maps to no
// configured provider. It always propagates to the caller.
var ErrNoProvider = errors.New("no provider configured for model")

// TransportError wraps network-level failures (connection reset, timeout,
// 5xx). The primary generation call propagates it; secondary guardrail and
// rewrite calls skip and continue.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from a provider. 4xx responses are never
// retried.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Body)
}

// InBandError is an error object carried inside an HTTP 200 response body.
// Treated identically to a transport failure, never as empty success.
type InBandError struct {
	Provider string
	Code     string
	Message  string
}

func (e *InBandError) Error() string {
	return fmt.Sprintf("%s: provider error %s: %s", e.Provider, e.Code, e.Message)
}
