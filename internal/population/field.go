package population

import (
	"math"

	"github.com/san-kum/erksrn/internal/config"
	"github.com/san-kum/erksrn/internal/srn"
)

// ConstantField writes the configured parameters into every cell, with an
// optional sinusoidal area oscillation in place of real mechanics.
type ConstantField struct {
	Params config.ParamsConfig
}

func (f ConstantField) Area(t float64) float64 {
	if f.Params.AreaAmp == 0 {
		return f.Params.Area
	}
	return f.Params.Area + f.Params.AreaAmp*math.Sin(2*math.Pi*f.Params.AreaFreq*t)
}

func (f ConstantField) Update(cell *Cell, t float64) {
	d := cell.Data
	d.SetItem(srn.KeyArea, f.Area(t))
	d.SetItem(srn.KeyTau, f.Params.Tau)
	d.SetItem(srn.KeyAlpha, f.Params.Alpha)
	d.SetItem(srn.KeyBeta, f.Params.Beta)
	d.SetItem(srn.KeyNoiseStd, f.Params.EtaStd)
	d.SetItem(srn.KeyOdeStep, f.Params.DtOde)
	d.SetItem(srn.KeyVelocityAngle, f.Params.ThetaVi)
	d.SetItem(srn.KeyAlignmentStrength, f.Params.K)
}
