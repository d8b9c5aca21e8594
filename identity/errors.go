package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable wraps transport-level failures (DNS, connect, TLS, timeouts).
	ErrUnreachable = errors.New("identity service unreachable")
	// ErrMalformedResponse is returned when a 2xx response body is not a JSON object.
	ErrMalformedResponse = errors.New("malformed identity service response")
	// ErrInvalidConfig is returned by New for unusable client configuration.
	ErrInvalidConfig = errors.New("invalid identity client config")
)

// RemoteError is a non-2xx response from the identity service.
//
// Code and Message carry the body's "error" and "message" string fields when the
// body was a JSON object; both are empty otherwise.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *RemoteError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("identity service: status %d: %s", e.StatusCode, e.Code)
	case e.Message != "":
		return fmt.Sprintf("identity service: status %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("identity service: status %d", e.StatusCode)
	}
}
