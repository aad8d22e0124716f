package srn_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/integrators"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/rng"
	"github.com/san-kum/erksrn/internal/srn"
)

var _ = Describe("Driver", func() {
	var (
		data   *celldata.Data
		driver *srn.Driver
	)

	newReady := func(p physics.Params) *srn.Driver {
		d, err := srn.New(nil)
		Expect(err).NotTo(HaveOccurred())
		data = cellDataFor(p)
		Expect(d.Initialise(data, 0)).To(Succeed())
		return d
	}

	Describe("construction", func() {
		It("binds a fixed-step solver when none is supplied", func() {
			d, err := srn.New(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Status()).To(Equal(srn.Uninitialised))
			Expect(d.Solver()).To(BeAssignableToTypeOf(&integrators.EulerMaruyama{}))
			Expect(d.Solver().Adaptive()).To(BeFalse())
		})

		It("rejects a solver that was never set up", func() {
			_, err := srn.New(&integrators.EulerMaruyama{})
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects an adaptive solver", func() {
			_, err := srn.New(adaptiveSolver{})
			var cfgErr *dynamo.ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		})
	})

	Describe("Initialise", func() {
		It("marshals every parameter and becomes ready", func() {
			p := quietParams()
			p.CellArea = 1.3
			p.ThetaVi = 0.7
			driver = newReady(p)

			Expect(driver.Status()).To(Equal(srn.Ready))
			Expect(driver.Params()).To(Equal(p))
			Expect(driver.CellArea()).To(Equal(1.3))
			Expect(driver.VelocityAngle()).To(Equal(0.7))
			Expect(driver.State()).To(Equal(physics.DefaultErkState()))
		})

		It("rejects a typed nil cell store", func() {
			d, err := srn.New(nil)
			Expect(err).NotTo(HaveOccurred())
			var missing *celldata.Data
			Expect(d.Initialise(missing, 0)).To(MatchError(dynamo.ErrConfiguration))
			Expect(d.Status()).To(Equal(srn.Uninitialised))
		})

		It("fails on a missing key instead of defaulting", func() {
			d, err := srn.New(nil)
			Expect(err).NotTo(HaveOccurred())
			data = cellDataFor(quietParams())
			data.Delete(srn.KeyTau)

			err = d.Initialise(data, 0)
			var missing *dynamo.MissingParameterError
			Expect(errors.As(err, &missing)).To(BeTrue())
			Expect(missing.Key).To(Equal(srn.KeyTau))
			Expect(d.Status()).To(Equal(srn.Uninitialised))
		})
	})

	Describe("SimulateToCurrentTime", func() {
		It("requires Initialise first", func() {
			d, err := srn.New(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.SimulateToCurrentTime(1, rng.NewStream(1))).To(MatchError(dynamo.ErrConfiguration))
		})

		It("rejects a non-finite target time without drawing", func() {
			driver = newReady(quietParams())
			for _, now := range []float64{math.Inf(1), math.NaN()} {
				src := &zeroDeviates{}
				err := driver.SimulateToCurrentTime(now, src)
				var domErr *dynamo.DomainError
				Expect(errors.As(err, &domErr)).To(BeTrue())
				Expect(domErr.Name).To(Equal("t"))
				Expect(src.n).To(BeZero())
			}
			Expect(driver.Time()).To(Equal(0.0))
			Expect(driver.State()).To(Equal(physics.DefaultErkState()))
		})

		It("relaxes signal and target area toward their fixed points", func() {
			driver = newReady(quietParams())
			Expect(driver.SetInitialConditions(dynamo.State{0, 0, 0})).To(Succeed())

			Expect(driver.SimulateToCurrentTime(1.0, rng.NewStream(7))).To(Succeed())
			Expect(driver.Time()).To(Equal(1.0))
			Expect(driver.Signal()).To(BeNumerically("~", 0, 1e-2))
			// Euler on dA/dt = 1 - A from A=0: A_n = 1 - 0.99^n
			Expect(driver.TargetArea()).To(BeNumerically("~", 1-math.Pow(0.99, 100), 1e-9))

			Expect(driver.SimulateToCurrentTime(5.0, rng.NewStream(7))).To(Succeed())
			Expect(driver.TargetArea()).To(BeNumerically("~", 1, 1e-2))
		})

		It("keeps theta exactly constant without noise or alignment", func() {
			driver = newReady(quietParams())
			Expect(driver.SetInitialConditions(dynamo.State{2.5, 0.3, 0.8})).To(Succeed())

			Expect(driver.SimulateToCurrentTime(10, rng.NewStream(3))).To(Succeed())
			Expect(driver.Theta()).To(Equal(2.5))
		})

		It("draws exactly one deviate per sub-step including the truncated one", func() {
			driver = newReady(quietParams())
			src := &zeroDeviates{}

			Expect(driver.SimulateToCurrentTime(1.0, src)).To(Succeed())
			Expect(src.n).To(Equal(100))

			Expect(driver.SimulateToCurrentTime(1.025, src)).To(Succeed())
			Expect(src.n).To(Equal(103))
			Expect(driver.Time()).To(Equal(1.025))
		})

		It("is a no-op for times at or before the recorded time", func() {
			driver = newReady(physics.DefaultParams())
			src := rng.NewStream(11)
			Expect(driver.SimulateToCurrentTime(1.0, src)).To(Succeed())

			before := driver.State()
			draws := src.Draws()
			Expect(driver.SimulateToCurrentTime(1.0, src)).To(Succeed())
			Expect(driver.SimulateToCurrentTime(0.5, src)).To(Succeed())

			Expect(driver.State()).To(Equal(before))
			Expect(driver.Time()).To(Equal(1.0))
			Expect(src.Draws()).To(Equal(draws))
		})

		It("picks up new area and velocity angle every call", func() {
			driver = newReady(quietParams())
			data.SetItem(srn.KeyArea, 1.5)
			data.SetItem(srn.KeyVelocityAngle, -0.4)

			Expect(driver.SimulateToCurrentTime(0.1, rng.NewStream(1))).To(Succeed())
			Expect(driver.CellArea()).To(Equal(1.5))
			Expect(driver.VelocityAngle()).To(Equal(-0.4))
		})

		It("fails and keeps its state when a parameter disappears", func() {
			driver = newReady(quietParams())
			data.Delete(srn.KeyAlignmentStrength)
			before := driver.State()

			err := driver.SimulateToCurrentTime(1.0, rng.NewStream(1))
			Expect(err).To(MatchError(dynamo.ErrMissingParameter))
			Expect(driver.State()).To(Equal(before))
			Expect(driver.Time()).To(Equal(0.0))
		})

		DescribeTable("rejects parameters outside the domain",
			func(key string) {
				driver = newReady(quietParams())
				data.SetItem(key, 0)

				err := driver.SimulateToCurrentTime(1.0, rng.NewStream(1))
				Expect(err).To(MatchError(dynamo.ErrDomain))
				var domainErr *dynamo.DomainError
				Expect(errors.As(err, &domainErr)).To(BeTrue())
			},
			Entry("zero ode step", srn.KeyOdeStep),
			Entry("zero relaxation time", srn.KeyTau),
		)

		It("reproduces the same trajectory from the same seed", func() {
			p := physics.DefaultParams()
			p.EtaStd = 0.5
			p.K = 0.3
			p.ThetaVi = 1.2

			run := func() dynamo.State {
				d := newReady(p)
				src := rng.NewStream(2024)
				for step := 1; step <= 50; step++ {
					Expect(d.SimulateToCurrentTime(float64(step)*0.05, src)).To(Succeed())
				}
				return d.State()
			}

			Expect(run()).To(Equal(run()))
		})
	})

	Describe("alignment", func() {
		distanceAfter := func(k float64, steps int, track func(float64)) float64 {
			p := quietParams()
			p.K = k
			p.ThetaVi = 1.0
			d := newReady(p)
			for step := 1; step <= steps; step++ {
				Expect(d.SimulateToCurrentTime(float64(step)*0.1, rng.NewStream(5))).To(Succeed())
				if track != nil {
					track(dynamo.PhaseDistance(d.Theta(), p.ThetaVi))
				}
			}
			return dynamo.PhaseDistance(d.Theta(), p.ThetaVi)
		}

		It("moves theta monotonically toward the velocity angle", func() {
			last := 1.0
			distanceAfter(1.0, 30, func(dist float64) {
				Expect(dist).To(BeNumerically("<", last))
				last = dist
			})
			Expect(last).To(BeNumerically("<", 0.1))
		})

		It("converges faster for stronger alignment", func() {
			Expect(distanceAfter(4.0, 5, nil)).To(BeNumerically("<", distanceAfter(1.0, 5, nil)))
		})
	})

	Describe("stability", func() {
		It("relaxes the signal to zero when area does not feed back", func() {
			p := quietParams()
			p.Beta = 0
			p.CellArea = 1.8
			driver = newReady(p)
			Expect(driver.SetInitialConditions(dynamo.State{0, 3, 1})).To(Succeed())

			Expect(driver.SimulateToCurrentTime(10, rng.NewStream(1))).To(Succeed())
			Expect(driver.Signal()).To(BeNumerically("~", 0, 1e-3))
		})

		It("settles the target area at one without signal coupling", func() {
			p := quietParams()
			p.Alpha = 0
			p.Tau = 2
			driver = newReady(p)
			Expect(driver.SetInitialConditions(dynamo.State{0, 0.5, 0})).To(Succeed())

			Expect(driver.SimulateToCurrentTime(40, rng.NewStream(1))).To(Succeed())
			Expect(driver.TargetArea()).To(BeNumerically("~", 1, 1e-6))
		})
	})

	Describe("CopyForDivision", func() {
		It("copies the state exactly but not the parameters", func() {
			p := physics.DefaultParams()
			p.EtaStd = 0.4
			p.CellArea = 1.4
			driver = newReady(p)
			Expect(driver.SimulateToCurrentTime(2, rng.NewStream(9))).To(Succeed())

			daughterData := data.Clone()
			daughter, err := driver.CopyForDivision(daughterData)
			Expect(err).NotTo(HaveOccurred())

			Expect(daughter.Status()).To(Equal(srn.Ready))
			Expect(daughter.Theta()).To(Equal(driver.Theta()))
			Expect(daughter.Signal()).To(Equal(driver.Signal()))
			Expect(daughter.TargetArea()).To(Equal(driver.TargetArea()))
			Expect(daughter.Time()).To(Equal(driver.Time()))
			Expect(daughter.Params()).To(Equal(physics.DefaultParams()))
		})

		It("gives the daughter an independent state vector", func() {
			driver = newReady(physics.DefaultParams())
			daughter, err := driver.CopyForDivision(data.Clone())
			Expect(err).NotTo(HaveOccurred())

			Expect(daughter.SimulateToCurrentTime(1, rng.NewStream(1))).To(Succeed())
			Expect(driver.State()).To(Equal(physics.DefaultErkState()))
		})

		It("refuses to divide an uninitialised driver", func() {
			d, err := srn.New(nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = d.CopyForDivision(celldata.New())
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})

		It("refuses a typed nil daughter store", func() {
			driver = newReady(quietParams())
			var missing *celldata.Data
			_, err := driver.CopyForDivision(missing)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})
	})

	Describe("Export", func() {
		It("publishes the state variables to cell data", func() {
			driver = newReady(quietParams())
			Expect(driver.SetInitialConditions(dynamo.State{0.2, -0.1, 0.9})).To(Succeed())
			driver.Export(data)

			for key, want := range map[string]float64{
				srn.KeyTheta:      0.2,
				srn.KeySignal:     -0.1,
				srn.KeyTargetArea: 0.9,
			} {
				got, ok := data.Item(key)
				Expect(ok).To(BeTrue(), key)
				Expect(got).To(Equal(want), key)
			}
		})
	})
})
