package srn

import (
	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/physics"
)

// Cell data keys read by the SRN.
const (
	KeyArea              = "volume"
	KeyTau               = "taul"
	KeyAlpha             = "alpha"
	KeyBeta              = "beta"
	KeyNoiseStd          = "Eta Std"
	KeyOdeStep           = "dt_ode"
	KeyVelocityAngle     = "theta_vi"
	KeyAlignmentStrength = "K"
)

// Cell data keys written by Driver.Export.
const (
	KeyTheta      = "theta"
	KeySignal     = "erk"
	KeyTargetArea = "target area"
)

type binding struct {
	key string
	set func(*physics.Params, float64)
}

var kinematicBindings = []binding{
	{KeyArea, func(p *physics.Params, v float64) { p.CellArea = v }},
	{KeyVelocityAngle, func(p *physics.Params, v float64) { p.ThetaVi = v }},
}

var rateBindings = []binding{
	{KeyTau, func(p *physics.Params, v float64) { p.Tau = v }},
	{KeyAlpha, func(p *physics.Params, v float64) { p.Alpha = v }},
	{KeyBeta, func(p *physics.Params, v float64) { p.Beta = v }},
	{KeyNoiseStd, func(p *physics.Params, v float64) { p.EtaStd = v }},
	{KeyOdeStep, func(p *physics.Params, v float64) { p.DtOde = v }},
	{KeyAlignmentStrength, func(p *physics.Params, v float64) { p.K = v }},
}

// Marshaller copies named scalars from a cell store into typed parameters.
// It never substitutes a default for a missing key.
type Marshaller struct{}

// RequiredKeys lists every key Pull reads, in parameter-vector order.
func RequiredKeys() []string {
	return []string{
		KeyArea, KeyTau, KeyAlpha, KeyBeta,
		KeyNoiseStd, KeyOdeStep, KeyVelocityAngle, KeyAlignmentStrength,
	}
}

func (m Marshaller) Pull(store celldata.Store, p *physics.Params) error {
	if err := m.PullKinematic(store, p); err != nil {
		return err
	}
	return m.PullRates(store, p)
}

// PullKinematic refreshes the cell area and velocity angle, the two inputs
// the mechanics change every step.
func (Marshaller) PullKinematic(store celldata.Store, p *physics.Params) error {
	return apply(store, p, kinematicBindings)
}

func (Marshaller) PullRates(store celldata.Store, p *physics.Params) error {
	return apply(store, p, rateBindings)
}

func apply(store celldata.Store, p *physics.Params, bindings []binding) error {
	for _, b := range bindings {
		v, ok := store.Item(b.key)
		if !ok {
			return &dynamo.MissingParameterError{Key: b.key}
		}
		b.set(p, v)
	}
	return nil
}
