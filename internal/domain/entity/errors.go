package entity

import (
	"errors"
	"fmt"
)

// Run-terminating conditions.
var (
	ErrDecisionUnavailable = errors.New("reasoning oracle unavailable")
	ErrStuckLoop           = errors.New("stuck in a repeating action loop")
	ErrCyclesExhausted     = errors.New("maximum cycle count reached")
)

// Driver error kinds used in Outcome.ErrorKind.
const (
	DriverErrDetached     = "detached"
	DriverErrTimeout      = "timeout"
	DriverErrBlocked      = "blocked"
	DriverErrDisconnected = "disconnected"
)

// ExtractionError means a snapshot could not be taken (detached page,
// navigation in flight). Transient: the controller retries once.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError rejects a malformed or unsafe proposal. It never
// reaches the executor; it is fed back to the oracle as history.
type ValidationError struct {
	Proposal ActionProposal
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action %s: %s", e.Proposal.Describe(), e.Reason)
}

// DriverError is an action-level driver failure surfaced to the
// controller through the result's error outcome.
type DriverError struct {
	Kind string
	Err  error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error (%s): %v", e.Kind, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }
