package integrators

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/erksrn/internal/dynamo"
)

// snapTolerance is the fraction of dt below which a remaining interval is
// folded into the previous sub-step.
const snapTolerance = 1e-9

// EulerMaruyama is the fixed-step scheme x += f(t, x, eta)*h with one fresh
// deviate eta per sub-step. Sub-steps are dt long except the last, which is
// truncated to land exactly on the target time.
type EulerMaruyama struct {
	setUp         bool
	validateState bool
}

type EulerMaruyamaOption func(*EulerMaruyama)

// WithStateValidation makes Advance fail with dynamo.ErrInvalidState as soon
// as a sub-step produces NaN or Inf.
func WithStateValidation() EulerMaruyamaOption {
	return func(e *EulerMaruyama) { e.validateState = true }
}

func NewEulerMaruyama(opts ...EulerMaruyamaOption) *EulerMaruyama {
	e := &EulerMaruyama{setUp: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *EulerMaruyama) Adaptive() bool { return false }

func (e *EulerMaruyama) IsSetUp() bool { return e != nil && e.setUp }

func (e *EulerMaruyama) Advance(sys dynamo.StochasticSystem, x dynamo.State, from, to, dt float64, src dynamo.Deviates) (dynamo.State, float64, error) {
	if !e.IsSetUp() {
		return nil, from, &dynamo.ConfigurationError{Reason: "euler-maruyama solver used before set up"}
	}
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, from, &dynamo.DomainError{Name: "dt", Value: dt}
	}
	if len(x) != sys.StateDim() {
		return nil, from, dynamo.ErrDimensionMismatch
	}
	for _, bound := range []float64{from, to} {
		if math.IsNaN(bound) || math.IsInf(bound, 0) {
			return nil, from, &dynamo.DomainError{Name: "t", Value: bound}
		}
	}

	result := x.Clone()
	if to <= from {
		return result, from, nil
	}

	t := from
	for step := 0; t < to; step++ {
		// Sub-step boundaries are from + n*dt rather than a running sum so
		// rounding never leaves a sliver step (and a spare draw) at the end.
		next := from + float64(step+1)*dt
		if next > to || to-next <= snapTolerance*dt {
			next = to
		}
		h := next - t

		eta := src.StdNormal()
		dx, err := sys.Derive(t, result, eta)
		if err != nil {
			return nil, t, err
		}
		floats.AddScaled(result, h, dx)
		t = next

		if e.validateState && !result.IsValid() {
			return nil, t, &dynamo.SimulationError{
				Step:    step,
				Time:    t,
				State:   result.Clone(),
				Wrapped: dynamo.ErrInvalidState,
			}
		}
	}

	return result, t, nil
}
