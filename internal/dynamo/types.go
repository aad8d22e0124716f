package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Deviates is a stream of independent standard-normal samples.
type Deviates interface {
	StdNormal() float64
}

// StochasticSystem is the right-hand side of dX/dt = f(t, X) + g(X)*eta,
// with eta one standard-normal sample per evaluation.
type StochasticSystem interface {
	StateDim() int
	Derive(t float64, x State, eta float64) (State, error)
}

// FixedStepSystem is implemented by systems whose noise scaling assumes a
// fixed solver step and therefore cannot be paired with an adaptive solver.
type FixedStepSystem interface {
	RequiresFixedStep() bool
}

type Solver interface {
	Advance(sys StochasticSystem, x State, from, to, dt float64, src Deviates) (State, float64, error)
	Adaptive() bool
	IsSetUp() bool
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
