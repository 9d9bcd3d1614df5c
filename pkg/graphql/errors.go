package graphql

import "fmt"

// TransportError reports a network failure or a non-2xx HTTP status. Status
// is zero when the request never reached the server.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("graphql transport: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("graphql transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not valid JSON. Excerpt holds
// the first part of the offending body for log lines.
type DecodeError struct {
	Err     error
	Excerpt string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("graphql decode: %v (body: %s)", e.Err, e.Excerpt)
}

func (e *DecodeError) Unwrap() error { return e.Err }
