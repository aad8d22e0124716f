// Package dynamo provides the core primitives shared by the SRN packages.
//
// The package defines the fundamental interfaces and types for integrating
// per-cell stochastic differential equations:
//
//   - [State]: vector representing system state
//   - [StochasticSystem]: right-hand side f(t, X, eta) of an SDE
//   - [Solver]: numerical integrator advancing a state over an interval
//   - [Deviates]: explicit source of standard-normal samples
//
// # Example
//
//	sys := physics.NewErkPropulsion(physics.DefaultParams())
//	solver := integrators.NewEulerMaruyama()
//	x, t, err := solver.Advance(sys, x0, 0, 1, 0.01, rng.NewStream(42))
//
// # Errors
//
// All failures are configuration or programming errors: [ConfigurationError],
// [MissingParameterError] and [DomainError] match their sentinels through
// errors.Is and are never retried.
//
// # Thread Safety
//
// Nothing in this package holds shared mutable state. A Solver may be shared
// between cells; a Deviates stream may not.
package dynamo
