package population

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/rng"
	"github.com/san-kum/erksrn/internal/srn"
)

const CheckpointVersion = 1

type CellCheckpoint struct {
	ID   uint64             `json:"id"`
	SRN  srn.Snapshot       `json:"srn"`
	Data map[string]float64 `json:"data"`
}

// Checkpoint is everything needed to continue a run bit-for-bit: the clock,
// every cell's SRN state and data, and the shared stream position.
type Checkpoint struct {
	Version int              `json:"version"`
	Options Options          `json:"options"`
	Step    uint64           `json:"step"`
	Time    float64          `json:"time"`
	NextID  uint64           `json:"next_id"`
	Stream  []byte           `json:"stream"`
	Cells   []CellCheckpoint `json:"cells"`
}

func (p *Population) Checkpoint() (*Checkpoint, error) {
	stream, err := p.shared.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("checkpoint stream: %w", err)
	}

	cp := &Checkpoint{
		Version: CheckpointVersion,
		Options: p.opts,
		Step:    p.step,
		Time:    p.time,
		NextID:  p.nextID,
		Stream:  stream,
		Cells:   make([]CellCheckpoint, 0, len(p.cells)),
	}
	for _, c := range p.cells {
		snap, err := c.SRN.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("checkpoint cell %d: %w", c.ID, err)
		}
		cp.Cells = append(cp.Cells, CellCheckpoint{ID: c.ID, SRN: snap, Data: c.Data.Map()})
	}
	return cp, nil
}

// Restore rebuilds a population from cp. The collaborator is supplied anew
// since it is not part of the checkpoint.
func Restore(cp *Checkpoint, collab Collaborator, logger *slog.Logger) (*Population, error) {
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d", cp.Version)
	}

	p, err := New(cp.Options, collab, logger)
	if err != nil {
		return nil, err
	}

	shared := &rng.Stream{}
	if err := shared.UnmarshalBinary(cp.Stream); err != nil {
		return nil, err
	}
	p.shared = shared
	p.step = cp.Step
	p.time = cp.Time
	p.nextID = cp.NextID

	var lastID uint64
	for i, cc := range cp.Cells {
		if i > 0 && cc.ID <= lastID {
			return nil, fmt.Errorf("checkpoint cells out of order at id %d", cc.ID)
		}
		lastID = cc.ID

		data := celldata.FromMap(cc.Data)
		driver, err := srn.Restore(cc.SRN, p.solver, data)
		if err != nil {
			return nil, fmt.Errorf("restore cell %d: %w", cc.ID, err)
		}
		p.cells = append(p.cells, &Cell{ID: cc.ID, Data: data, SRN: driver})
	}

	p.logger.Info("population restored", "step", p.step, "time", p.time, "cells", len(p.cells))
	return p, nil
}
