package client

import "fmt"

// ServiceError indicates the dealing service answered with a non-2xx
// status or a payload the client could not decode. The cached state is
// never mutated when one of these is returned.
type ServiceError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("service error on %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("service error on %s: %s", e.Endpoint, e.Message)
}

// NetworkError indicates the request never completed (connection
// refused, timeout, cancellation).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
