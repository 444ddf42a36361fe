package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches a *ServerError for a resource the backend reports
	// as absent.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized matches a *ServerError with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// NetworkError means the request was sent but no response arrived. Context
// cancellation and deadlines surface as NetworkError wrapping the context
// error.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: no response from %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means a response arrived with an error status, or a success
// status with a body the client could not use. Message is the server-supplied
// message and may be empty.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string

	// Err is the decoding failure for an unusable success body.
	Err error

	absent bool
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: server responded %d: %s: %v", e.Op, e.StatusCode, msg, e.Err)
	}
	return fmt.Sprintf("%s: server responded %d: %s", e.Op, e.StatusCode, msg)
}

func (e *ServerError) Unwrap() error { return e.Err }

func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.absent || e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// RequestSetupError means the request never left the client.
type RequestSetupError struct {
	Op      string
	Message string
	Err     error
}

func (e *RequestSetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RequestSetupError) Unwrap() error { return e.Err }

// AuthenticationError is a ServerError raised by Login when the backend
// rejects the credentials.
type AuthenticationError struct {
	*ServerError
}

func (e *AuthenticationError) Error() string {
	if e.Message != "" {
		return "authentication failed: " + e.Message
	}
	return "authentication failed"
}

func (e *AuthenticationError) Unwrap() error { return e.ServerError }

// Outcome names the failure class of err for metrics and logs.
func Outcome(err error) string {
	var (
		netErr   *NetworkError
		srvErr   *ServerError
		setupErr *RequestSetupError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &srvErr):
		return "server"
	case errors.As(err, &setupErr):
		return "setup"
	default:
		return "unknown"
	}
}
