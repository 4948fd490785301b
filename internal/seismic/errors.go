package seismic

import (
	"errors"
	"fmt"
)

// Domain errors for simulation setup and access.
var (
	// ErrBadShape indicates a domain shape without two positive dimensions.
	ErrBadShape = errors.New("seismic: shape must have two positive dimensions")

	// ErrBadSpacing indicates a non-positive grid increment.
	ErrBadSpacing = errors.New("seismic: grid spacing must be positive")

	// ErrBadPadding indicates a negative padding width.
	ErrBadPadding = errors.New("seismic: padding must be non-negative")

	// ErrBadIterations indicates a negative iteration count passed to Run.
	ErrBadIterations = errors.New("seismic: iteration count must be non-negative")

	// ErrNoTimeStep indicates no dt was given and the kernel cannot derive one.
	ErrNoTimeStep = errors.New("seismic: no time step given and kernel cannot derive one")

	// ErrFrameOutOfRange indicates a frame index outside the committed range.
	ErrFrameOutOfRange = errors.New("seismic: frame index outside committed range")

	// ErrSourceOutOfBounds indicates a source placed outside the physical domain.
	ErrSourceOutOfBounds = errors.New("seismic: source location outside domain")

	// ErrUnstable indicates the wavefield diverged (NaN or Inf samples).
	ErrUnstable = errors.New("seismic: simulation unstable (field diverged)")
)

// StepError wraps a kernel or store failure with the absolute iteration
// at which it occurred and how many steps of the run committed first.
type StepError struct {
	Iteration int
	Committed int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("seismic: iteration %d failed after %d committed steps: %v", e.Iteration, e.Committed, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
