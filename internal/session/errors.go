package session

import "fmt"

// ValidationError is invalid local input: a bad bet amount or an action
// submitted by a player who is not up. It is rejected before any
// request is made and is never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StateError is an operation attempted in a phase that does not permit
// it, or while another request is still in flight. Like validation
// errors it never reaches the service.
type StateError struct {
	Op     string
	Phase  Phase
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed in phase %s: %s", e.Op, e.Phase, e.Reason)
}
