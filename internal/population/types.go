package population

import (
	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/srn"
)

type Cell struct {
	ID   uint64
	Data *celldata.Data
	SRN  *srn.Driver
}

// Collaborator stands in for the parts of the outer simulation that feed
// the SRN: mechanics (area) and neighbour averaging (velocity angle). Update
// is called once per cell per step before the cell's SRN is advanced. In
// parallel mode it is called concurrently for different cells and must only
// touch the cell it is given.
type Collaborator interface {
	Update(cell *Cell, t float64)
}

type Observer interface {
	OnStep(step uint64, t float64, cells []*Cell)
}

// Sample is one cell's SRN output at one time.
type Sample struct {
	Time       float64
	CellID     uint64
	Theta      float64
	Signal     float64
	TargetArea float64
}

// Trajectory records every cell after every step.
type Trajectory struct {
	Samples []Sample
}

func (tr *Trajectory) OnStep(step uint64, t float64, cells []*Cell) {
	for _, c := range cells {
		tr.Samples = append(tr.Samples, Sample{
			Time:       t,
			CellID:     c.ID,
			Theta:      c.SRN.Theta(),
			Signal:     c.SRN.Signal(),
			TargetArea: c.SRN.TargetArea(),
		})
	}
}
