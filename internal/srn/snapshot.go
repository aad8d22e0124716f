package srn

import (
	"fmt"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/physics"
)

const SnapshotVersion = 1

// Snapshot is the checkpointed part of a Driver. Parameters are not stored;
// they are re-marshalled from cell data on the first step after a restore.
type Snapshot struct {
	Version    int     `json:"version"`
	Theta      float64 `json:"theta"`
	Signal     float64 `json:"signal"`
	TargetArea float64 `json:"target_area"`
	Time       float64 `json:"time"`
}

func (s Snapshot) State() dynamo.State {
	x := make(dynamo.State, physics.ErkStateDim)
	x[physics.IdxTheta] = s.Theta
	x[physics.IdxSignal] = s.Signal
	x[physics.IdxTargetArea] = s.TargetArea
	return x
}

func (d *Driver) Snapshot() (Snapshot, error) {
	if d.status != Ready {
		return Snapshot{}, &dynamo.ConfigurationError{Reason: "cannot snapshot an uninitialised srn"}
	}
	if !d.state.IsValid() {
		return Snapshot{}, &dynamo.SimulationError{Time: d.time, State: d.State(), Wrapped: dynamo.ErrInvalidState}
	}
	return Snapshot{
		Version:    SnapshotVersion,
		Theta:      d.Theta(),
		Signal:     d.Signal(),
		TargetArea: d.TargetArea(),
		Time:       d.time,
	}, nil
}

// Restore rebuilds a Ready driver from snap, bound to cell and solver.
func Restore(snap Snapshot, solver dynamo.Solver, cell celldata.Store) (*Driver, error) {
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("srn: unsupported snapshot version %d", snap.Version)
	}
	if unbound(cell) {
		return nil, &dynamo.ConfigurationError{Reason: "no cell data bound"}
	}
	d, err := New(solver)
	if err != nil {
		return nil, err
	}
	d.cell = cell
	d.state = snap.State()
	d.time = snap.Time
	d.status = Ready
	return d, nil
}
