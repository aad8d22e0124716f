// Package population is the outer time loop that owns a set of cells and
// advances each cell's SRN once per step in a fixed order.
package population

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/config"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/integrators"
	"github.com/san-kum/erksrn/internal/logging"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/rng"
	"github.com/san-kum/erksrn/internal/srn"
)

type Options struct {
	Seed    uint64  `json:"seed"`
	Dt      float64 `json:"dt"`
	Mode    string  `json:"mode"`
	Workers int     `json:"workers"`
	Solver  string  `json:"solver"`
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Seed:    cfg.Seed,
		Dt:      cfg.Dt,
		Mode:    cfg.Mode,
		Workers: cfg.Workers,
		Solver:  cfg.Solver,
	}
}

type Population struct {
	opts      Options
	solver    dynamo.Solver
	collab    Collaborator
	logger    *slog.Logger
	cells     []*Cell
	observers []Observer
	shared    *rng.Stream
	step      uint64
	time      float64
	nextID    uint64
}

func New(opts Options, collab Collaborator, logger *slog.Logger) (*Population, error) {
	if opts.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", opts.Dt)
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeSequential
	}
	if opts.Mode != config.ModeSequential && opts.Mode != config.ModeParallel {
		return nil, fmt.Errorf("unknown mode: %s", opts.Mode)
	}
	if collab == nil {
		return nil, fmt.Errorf("population needs a collaborator")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	solver, err := integrators.NewRegistry().GetSolver(opts.Solver)
	if err != nil {
		return nil, err
	}

	return &Population{
		opts:   opts,
		solver: solver,
		collab: collab,
		logger: logger,
		shared: rng.NewStream(opts.Seed),
	}, nil
}

func (p *Population) AddObserver(o Observer) { p.observers = append(p.observers, o) }

func (p *Population) Time() float64 { return p.time }

func (p *Population) Step() uint64 { return p.step }

// Cells returns the cells in traversal order (ascending ID).
func (p *Population) Cells() []*Cell { return p.cells }

func (p *Population) Cell(id uint64) (*Cell, bool) {
	i := p.index(id)
	if i < 0 {
		return nil, false
	}
	return p.cells[i], true
}

func (p *Population) index(id uint64) int {
	i := sort.Search(len(p.cells), func(i int) bool { return p.cells[i].ID >= id })
	if i < len(p.cells) && p.cells[i].ID == id {
		return i
	}
	return -1
}

// AddCell creates a cell born at the current time. A nil initial state
// keeps the SRN's default initial condition.
func (p *Population) AddCell(initial dynamo.State) (*Cell, error) {
	cell := &Cell{ID: p.nextID, Data: celldata.New()}
	p.collab.Update(cell, p.time)

	driver, err := srn.New(p.solver)
	if err != nil {
		return nil, err
	}
	if err := driver.Initialise(cell.Data, p.time); err != nil {
		return nil, fmt.Errorf("cell %d: %w", cell.ID, err)
	}
	if initial != nil {
		if err := driver.SetInitialConditions(initial); err != nil {
			return nil, fmt.Errorf("cell %d: %w", cell.ID, err)
		}
	}
	driver.Export(cell.Data)
	cell.SRN = driver

	p.cells = append(p.cells, cell)
	p.nextID++
	p.logger.Debug("cell added", "cell", cell.ID, "time", p.time)
	return cell, nil
}

// Seed adds n cells with headings drawn around the configured mean.
func (p *Population) Seed(n int, init config.InitialConfig) error {
	for i := 0; i < n; i++ {
		heading := rng.ForCell(p.opts.Seed, p.nextID, 0)
		x := physics.DefaultErkState()
		x[physics.IdxTheta] = init.Theta + init.ThetaSpread*heading.StdNormal()
		x[physics.IdxSignal] = init.Signal
		x[physics.IdxTargetArea] = init.TargetArea
		if _, err := p.AddCell(x); err != nil {
			return err
		}
	}
	return nil
}

// Divide gives the cell a daughter that inherits its SRN state and a copy of
// its cell data.
func (p *Population) Divide(id uint64) (*Cell, error) {
	parent, ok := p.Cell(id)
	if !ok {
		return nil, fmt.Errorf("no cell with id %d", id)
	}

	daughter := &Cell{ID: p.nextID, Data: parent.Data.Clone()}
	driver, err := parent.SRN.CopyForDivision(daughter.Data)
	if err != nil {
		return nil, fmt.Errorf("divide cell %d: %w", id, err)
	}
	daughter.SRN = driver

	p.cells = append(p.cells, daughter)
	p.nextID++
	p.logger.Info("cell divided", "parent", id, "daughter", daughter.ID, "time", p.time)
	return daughter, nil
}

func (p *Population) Remove(id uint64) error {
	i := p.index(id)
	if i < 0 {
		return fmt.Errorf("no cell with id %d", id)
	}
	p.cells = append(p.cells[:i], p.cells[i+1:]...)
	p.logger.Debug("cell removed", "cell", id, "time", p.time)
	return nil
}

// Run advances the population by steps outer steps, checking ctx between
// steps. Integration of a single step always runs to completion.
func (p *Population) Run(ctx context.Context, steps int) error {
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// Advance performs one outer step.
func (p *Population) Advance() error {
	step := p.step + 1
	t := p.opts.Dt * float64(step)

	var err error
	if p.opts.Mode == config.ModeParallel {
		err = p.advanceParallel(step, t)
	} else {
		err = p.advanceSequential(t)
	}
	if err != nil {
		return &dynamo.SimulationError{Step: int(step), Time: t, Wrapped: err}
	}

	p.step = step
	p.time = t
	for _, obs := range p.observers {
		obs.OnStep(step, t, p.cells)
	}
	p.logger.Debug("step complete", "step", step, "time", t, "cells", len(p.cells))
	return nil
}

func (p *Population) advanceCell(cell *Cell, t float64, src dynamo.Deviates) error {
	p.collab.Update(cell, t)
	if err := cell.SRN.SimulateToCurrentTime(t, src); err != nil {
		return fmt.Errorf("cell %d: %w", cell.ID, err)
	}
	cell.SRN.Export(cell.Data)
	p.logger.Log(context.Background(), logging.LevelTrace, "cell advanced",
		"cell", cell.ID, "theta", cell.SRN.Theta(), "erk", cell.SRN.Signal(), "target_area", cell.SRN.TargetArea())
	return nil
}

// advanceSequential draws every cell's deviates from the one shared stream,
// so the traversal order is part of the trajectory.
func (p *Population) advanceSequential(t float64) error {
	for _, cell := range p.cells {
		if err := p.advanceCell(cell, t, p.shared); err != nil {
			return err
		}
	}
	return nil
}

// advanceParallel gives each cell its own stream derived from the seed, the
// cell ID and the step, so results do not depend on scheduling.
func (p *Population) advanceParallel(step uint64, t float64) error {
	errs := make([]error, len(p.cells))
	dynamo.ParallelFor(len(p.cells), 1, p.opts.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			cell := p.cells[i]
			errs[i] = p.advanceCell(cell, t, rng.ForCell(p.opts.Seed, cell.ID, step))
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
