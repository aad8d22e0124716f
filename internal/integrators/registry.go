package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/erksrn/internal/dynamo"
)

const DefaultSolver = "euler-maruyama"

// Registry resolves solver names from configuration. Only fixed-step
// stochastic schemes are registered; the SRN system's noise scaling is
// meaningless under step-size control.
type Registry struct {
	solvers map[string]func() dynamo.Solver
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]func() dynamo.Solver),
	}

	r.solvers[DefaultSolver] = func() dynamo.Solver { return NewEulerMaruyama() }
	r.solvers["euler-maruyama-checked"] = func() dynamo.Solver {
		return NewEulerMaruyama(WithStateValidation())
	}

	return r
}

func (r *Registry) GetSolver(name string) (dynamo.Solver, error) {
	if name == "" {
		name = DefaultSolver
	}
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
