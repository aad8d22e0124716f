package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for SRN operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrConfiguration indicates a solver or driver that was not set up correctly.
	ErrConfiguration = errors.New("dynamo: configuration error")

	// ErrMissingParameter indicates a required scalar absent from a cell store.
	ErrMissingParameter = errors.New("dynamo: missing parameter")

	// ErrDomain indicates a parameter value outside the domain of the equations.
	ErrDomain = errors.New("dynamo: parameter outside valid domain")

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

type MissingParameterError struct {
	Key string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s: %q not found in cell data", ErrMissingParameter, e.Key)
}

func (e *MissingParameterError) Is(target error) bool { return target == ErrMissingParameter }

// DomainError reports a parameter that would make the equations undefined,
// such as a zero step size or a zero relaxation time.
type DomainError struct {
	Name  string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s = %g", ErrDomain, e.Name, e.Value)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
