package srn

import (
	"fmt"
	"io"
	"math"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/integrators"
	"github.com/san-kum/erksrn/internal/physics"
)

type Status int

const (
	Uninitialised Status = iota
	Ready
)

func (s Status) String() string {
	switch s {
	case Uninitialised:
		return "uninitialised"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Driver owns the ERK propulsion state of one cell and advances it to the
// simulation clock on demand.
type Driver struct {
	solver  dynamo.Solver
	system  *physics.ErkPropulsion
	marshal Marshaller
	cell    celldata.Store
	state   dynamo.State
	time    float64
	status  Status
}

// New binds solver to a fresh, uninitialised driver. A nil solver selects
// the default Euler-Maruyama scheme.
func New(solver dynamo.Solver) (*Driver, error) {
	if solver == nil {
		solver = integrators.NewEulerMaruyama()
	}
	d := &Driver{
		solver: solver,
		system: physics.NewErkPropulsion(physics.DefaultParams()),
		state:  physics.DefaultErkState(),
	}
	if err := d.checkSolver(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) checkSolver() error {
	if !d.solver.IsSetUp() {
		return &dynamo.ConfigurationError{Reason: "solver is not set up"}
	}
	if d.solver.Adaptive() && d.system.RequiresFixedStep() {
		return &dynamo.ConfigurationError{Reason: "erk propulsion noise requires a fixed-step solver"}
	}
	return nil
}

// Initialise binds the driver to a newly created cell at birthTime, loads
// the placeholder state and marshals every parameter once.
func (d *Driver) Initialise(cell celldata.Store, birthTime float64) error {
	if unbound(cell) {
		return &dynamo.ConfigurationError{Reason: "no cell data bound"}
	}
	params := physics.DefaultParams()
	if err := d.marshal.Pull(cell, &params); err != nil {
		return err
	}

	d.cell = cell
	d.system.Params = params
	d.state = physics.DefaultErkState()
	d.time = birthTime
	d.status = Ready
	return nil
}

// CopyForDivision creates the daughter's driver. The state vector and clock
// are copied exactly; parameters are not, since area and velocity angle
// belong to the daughter and are marshalled on its next simulate call.
func (d *Driver) CopyForDivision(daughter celldata.Store) (*Driver, error) {
	if d.status != Ready {
		return nil, &dynamo.ConfigurationError{Reason: "cannot divide an uninitialised srn"}
	}
	if unbound(daughter) {
		return nil, &dynamo.ConfigurationError{Reason: "no cell data bound"}
	}
	return &Driver{
		solver: d.solver,
		system: physics.NewErkPropulsion(physics.DefaultParams()),
		cell:   daughter,
		state:  d.state.Clone(),
		time:   d.time,
		status: Ready,
	}, nil
}

// SimulateToCurrentTime integrates from the last recorded time up to now.
// Calls with now at or before the recorded time do nothing, so a cell
// visited twice in one step is not integrated twice.
func (d *Driver) SimulateToCurrentTime(now float64, src dynamo.Deviates) error {
	if d.status != Ready {
		return &dynamo.ConfigurationError{Reason: "simulate called before Initialise"}
	}
	if math.IsNaN(now) || math.IsInf(now, 0) {
		return &dynamo.DomainError{Name: "t", Value: now}
	}
	if now <= d.time {
		return nil
	}
	if src == nil {
		return &dynamo.ConfigurationError{Reason: "no random deviate source"}
	}

	params := d.system.Params
	if err := d.marshal.PullKinematic(d.cell, &params); err != nil {
		return err
	}
	if err := d.marshal.PullRates(d.cell, &params); err != nil {
		return err
	}
	d.system.Params = params
	if err := d.system.Validate(); err != nil {
		return err
	}

	x, t, err := d.solver.Advance(d.system, d.state, d.time, now, params.DtOde, src)
	if err != nil {
		return fmt.Errorf("srn advance to t=%g: %w", now, err)
	}
	d.state = x
	d.time = t
	return nil
}

// Refresh re-marshals every parameter from the bound cell data without
// integrating, so a restored driver reports the values it will run with.
func (d *Driver) Refresh() error {
	if d.status != Ready {
		return &dynamo.ConfigurationError{Reason: "refresh called before Initialise"}
	}
	params := d.system.Params
	if err := d.marshal.Pull(d.cell, &params); err != nil {
		return err
	}
	d.system.Params = params
	return nil
}

// SetInitialConditions overwrites the state vector, for example to seed a
// population with a spread of headings.
func (d *Driver) SetInitialConditions(x dynamo.State) error {
	if len(x) != physics.ErkStateDim {
		return fmt.Errorf("%w: want %d state variables, got %d", dynamo.ErrDimensionMismatch, physics.ErkStateDim, len(x))
	}
	d.state = x.Clone()
	return nil
}

func (d *Driver) Status() Status { return d.status }

// Time is the last time the state was integrated to.
func (d *Driver) Time() float64 { return d.time }

func (d *Driver) State() dynamo.State { return d.state.Clone() }

func (d *Driver) Params() physics.Params { return d.system.Params }

func (d *Driver) Solver() dynamo.Solver { return d.solver }

// Model exposes the bound system's named parameters for reporting. Values
// set through it last only until the next marshal.
func (d *Driver) Model() dynamo.Configurable { return d.system }

// Theta is the unwrapped self-propulsion angle in radians.
func (d *Driver) Theta() float64 { return d.state[physics.IdxTheta] }

func (d *Driver) Signal() float64 { return d.state[physics.IdxSignal] }

func (d *Driver) TargetArea() float64 { return d.state[physics.IdxTargetArea] }

// CellArea is the area seen by the last marshal. Diagnostic only.
func (d *Driver) CellArea() float64 { return d.system.Params.CellArea }

// VelocityAngle is the velocity angle seen by the last marshal. Diagnostic only.
func (d *Driver) VelocityAngle() float64 { return d.system.Params.ThetaVi }

// Export publishes the state variables to a cell store for collaborators
// such as the neighbour-averaging step and the area-force modifier.
func (d *Driver) Export(w celldata.Writer) {
	w.SetItem(KeyTheta, d.Theta())
	w.SetItem(KeySignal, d.Signal())
	w.SetItem(KeyTargetArea, d.TargetArea())
}

// ReportParameters writes model parameters beyond those of the cell data.
// The ERK propulsion model has none.
func (d *Driver) ReportParameters(w io.Writer) error {
	return nil
}

// unbound reports a missing store, including a typed nil *celldata.Data.
func unbound(cell celldata.Store) bool {
	if cell == nil {
		return true
	}
	data, ok := cell.(*celldata.Data)
	return ok && data == nil
}
