package srn_test

import (
	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/srn"
)

func cellDataFor(p physics.Params) *celldata.Data {
	return celldata.FromMap(map[string]float64{
		srn.KeyArea:              p.CellArea,
		srn.KeyTau:               p.Tau,
		srn.KeyAlpha:             p.Alpha,
		srn.KeyBeta:              p.Beta,
		srn.KeyNoiseStd:          p.EtaStd,
		srn.KeyOdeStep:           p.DtOde,
		srn.KeyVelocityAngle:     p.ThetaVi,
		srn.KeyAlignmentStrength: p.K,
	})
}

func quietParams() physics.Params {
	return physics.Params{
		CellArea: 1, Tau: 1, Alpha: 1, Beta: 1,
		EtaStd: 0, DtOde: 0.01, ThetaVi: 0, K: 0,
	}
}

// zeroDeviates returns 0 forever and counts draws.
type zeroDeviates struct{ n int }

func (z *zeroDeviates) StdNormal() float64 {
	z.n++
	return 0
}

type adaptiveSolver struct{}

func (adaptiveSolver) Advance(sys dynamo.StochasticSystem, x dynamo.State, from, to, dt float64, src dynamo.Deviates) (dynamo.State, float64, error) {
	return x, to, nil
}

func (adaptiveSolver) Adaptive() bool { return true }
func (adaptiveSolver) IsSetUp() bool  { return true }
