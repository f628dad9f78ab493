package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidParams indicates malformed physical or solver parameters.
	ErrInvalidParams = errors.New("dynamo: invalid parameters")

	// ErrShape indicates a state vector or block with the wrong length.
	ErrShape = errors.New("dynamo: state shape mismatch")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates adaptive timestep underflow.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrTooManySteps indicates the solver exhausted its step budget.
	ErrTooManySteps = errors.New("dynamo: too many internal steps")

	// ErrFailed is returned by a simulator that already failed once.
	ErrFailed = errors.New("dynamo: simulator is in failed state")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Time    float64
	Target  float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("integrating t=%.6g -> %.6g: %v", e.Time, e.Target, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
