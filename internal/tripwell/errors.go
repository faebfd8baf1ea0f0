package tripwell

import (
	"errors"
	"fmt"
)

// Client configuration errors.
var (
	// ErrInvalidBaseURL is returned when the base URL has no http(s) scheme.
	ErrInvalidBaseURL = errors.New("invalid base URL: expected http:// or https://")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// ResponseError reports a response that completed but signalled failure,
// either through its HTTP status or through its body.
type ResponseError struct {
	// Endpoint is the endpoint name.
	Endpoint string

	// Label is the human-readable operation name.
	Label string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Detail is the status code or the service's own message.
	Detail string
}

// Error implements error. The format matches what the service's own
// front end shows, e.g. "Meta attractions failed: 500".
func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Label, e.Detail)
}
