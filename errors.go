package controme_bridge

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is returned when the gateway answered but reported no
// thermostats. Treated like a transport failure: the previous snapshot stays.
var ErrEmptyResult = errors.New("gateway returned no thermostats")

// TransportError wraps a network or HTTP failure from the gateway client.
// Non-fatal after startup; the coordinator keeps the last good snapshot.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("controme %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnknownParameterError is a dispatch-time rejection of a logical parameter
// name that has no wire mapping. No network call is attempted.
type UnknownParameterError struct {
	Name string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}

// RefreshError is the coordinator-level failure of one refresh cycle,
// carrying the underlying cause.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
