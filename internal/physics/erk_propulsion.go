package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/erksrn/internal/dynamo"
)

const (
	IdxTheta = iota
	IdxSignal
	IdxTargetArea

	ErkStateDim = 3
)

const ErkParamDim = 8

// Params are the per-cell inputs to the ERK propulsion equations, in the
// positional order used by legacy parameter vectors.
type Params struct {
	CellArea float64
	Tau      float64
	Alpha    float64
	Beta     float64
	EtaStd   float64
	DtOde    float64
	ThetaVi  float64
	K        float64
}

// DefaultParams are placeholders that only hold until the first marshal
// from cell data.
func DefaultParams() Params {
	return Params{
		CellArea: 1.0,
		Tau:      1.0,
		Alpha:    1.0,
		Beta:     1.0,
		EtaStd:   0.1,
		DtOde:    0.01,
		ThetaVi:  0.0,
		K:        0.0,
	}
}

func (p Params) Vector() []float64 {
	return []float64{p.CellArea, p.Tau, p.Alpha, p.Beta, p.EtaStd, p.DtOde, p.ThetaVi, p.K}
}

func ParamsFromVector(v []float64) (Params, error) {
	if len(v) != ErkParamDim {
		return Params{}, fmt.Errorf("%w: want %d parameters, got %d", dynamo.ErrDimensionMismatch, ErkParamDim, len(v))
	}
	return Params{
		CellArea: v[0], Tau: v[1], Alpha: v[2], Beta: v[3],
		EtaStd: v[4], DtOde: v[5], ThetaVi: v[6], K: v[7],
	}, nil
}

// DefaultErkState is the placeholder initial condition: no heading, resting
// signal, and the target area at its fixed point for that signal.
func DefaultErkState() dynamo.State {
	x := make(dynamo.State, ErkStateDim)
	x[IdxTheta] = 0.0
	x[IdxSignal] = 0.0
	x[IdxTargetArea] = 1.0
	return x
}

// ErkPropulsion couples a persistent random walk of the self-propulsion
// angle, aligned toward the instantaneous velocity, to mechanochemical ERK
// and target-area dynamics (Boocock et al. 2023, eq. 4).
//
//	dtheta/dt = etaStd*sqrt(2/dtOde)*eta + K*sin(thetaVi - theta)
//	dE/dt     = -E - E^3 + beta*(A - 1)
//	dA0/dt    = ((1 - A0) - alpha*E) / tau
//
// The noise term is scaled by the solver step so the persistence time
// 2/etaStd^2 does not depend on dtOde, which ties the system to a fixed-step
// solver running at exactly dtOde.
type ErkPropulsion struct {
	Params Params
}

func NewErkPropulsion(p Params) *ErkPropulsion {
	return &ErkPropulsion{Params: p}
}

func (e *ErkPropulsion) StateDim() int { return ErkStateDim }

func (e *ErkPropulsion) RequiresFixedStep() bool { return true }

func (e *ErkPropulsion) Validate() error {
	if e.Params.DtOde == 0 || math.IsNaN(e.Params.DtOde) {
		return &dynamo.DomainError{Name: "dt_ode", Value: e.Params.DtOde}
	}
	if e.Params.Tau == 0 || math.IsNaN(e.Params.Tau) {
		return &dynamo.DomainError{Name: "taul", Value: e.Params.Tau}
	}
	return nil
}

func (e *ErkPropulsion) Derive(t float64, x dynamo.State, eta float64) (dynamo.State, error) {
	if len(x) != ErkStateDim {
		return nil, fmt.Errorf("%w: want %d state variables, got %d", dynamo.ErrDimensionMismatch, ErkStateDim, len(x))
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	p := e.Params
	theta := x[IdxTheta]
	erk := x[IdxSignal]
	targetArea := x[IdxTargetArea]

	dx := make(dynamo.State, ErkStateDim)
	dx[IdxTheta] = p.EtaStd*math.Sqrt(2/p.DtOde)*eta + p.K*math.Sin(p.ThetaVi-theta)
	// -E^3 bounds the signal without clamping
	dx[IdxSignal] = -erk - erk*erk*erk + p.Beta*(p.CellArea-1.0)
	dx[IdxTargetArea] = ((1.0 - targetArea) - p.Alpha*erk) / p.Tau

	return dx, nil
}

func (e *ErkPropulsion) VariableNames() []string {
	return []string{"Theta", "Erk", "Target Area"}
}

func (e *ErkPropulsion) ParameterNames() []string {
	return []string{"Cell Area", "taul", "alpha", "beta", "Eta Std", "dt_ode", "theta_vi", "K"}
}

func (e *ErkPropulsion) GetParams() map[string]float64 {
	names := e.ParameterNames()
	values := e.Params.Vector()
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = values[i]
	}
	return out
}

// SetParam sets one parameter by its reporting name.
func (e *ErkPropulsion) SetParam(name string, value float64) error {
	i := slices.Index(e.ParameterNames(), name)
	if i < 0 {
		return fmt.Errorf("unknown param: %s", name)
	}
	v := e.Params.Vector()
	v[i] = value
	p, err := ParamsFromVector(v)
	if err != nil {
		return err
	}
	e.Params = p
	return nil
}
