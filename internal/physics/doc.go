// Package physics provides the subcellular dynamical systems integrated
// per cell.
//
// [ErkPropulsion] implements [dynamo.StochasticSystem]: a self-propulsion
// angle performing a persistent random walk biased toward the cell's
// instantaneous velocity, coupled to ERK activity and a relaxing target
// area. It also implements [dynamo.Configurable] for reporting its
// parameters by name.
//
// # Step size
//
// The angular noise is scaled by sqrt(2/dtOde), so the system must be
// integrated by a fixed-step solver stepping at dtOde:
//
//	sys := physics.NewErkPropulsion(physics.DefaultParams())
//	x, t, err := integrators.NewEulerMaruyama().Advance(sys, x0, 0, 1, sys.Params.DtOde, src)
package physics
