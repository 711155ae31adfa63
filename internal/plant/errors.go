package plant

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a NaN or Inf in the mechanism state.
	ErrInvalidState = errors.New("plant: invalid state (NaN or Inf detected)")

	// ErrBadConfig indicates a run configuration that cannot be simulated.
	ErrBadConfig = errors.New("plant: bad run configuration")

	ErrDimensionMismatch = errors.New("plant: initial state needs position and velocity")
)

// RunError carries the step at which a run failed.
type RunError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *RunError) Unwrap() error {
	return e.Wrapped
}
