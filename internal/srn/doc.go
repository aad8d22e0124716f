// Package srn drives the per-cell ERK propulsion reaction network.
//
// A [Driver] is bound to one cell's data store. Each outer step the
// simulation calls [Driver.SimulateToCurrentTime]; the driver pulls the
// eight model parameters from the store through the [Marshaller], advances
// its state with a fixed-step stochastic solver and records the new time.
//
// Lifecycle:
//
//	d, _ := srn.New(nil)               // Uninitialised, default solver
//	_ = d.Initialise(cellData, 0)       // Ready
//	_ = d.SimulateToCurrentTime(t, src) // integrate [last, t]
//	daughter, _ := d.CopyForDivision(daughterData)
//
// Drivers hold no locks. One driver must only be advanced by one goroutine
// at a time, with a Deviates stream that nothing else draws from.
package srn
