package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
)

// SolverFactory builds a solver for sys starting at (t0, x0).
type SolverFactory func(sys dynamo.System, t0 float64, x0 dynamo.State, opts integrators.Options) (dynamo.Solver, error)

type Registry struct {
	solvers map[string]SolverFactory
}

func fixed(newStepper func() dynamo.Stepper) SolverFactory {
	return func(sys dynamo.System, t0 float64, x0 dynamo.State, opts integrators.Options) (dynamo.Solver, error) {
		return integrators.NewFixedStep(sys, newStepper(), t0, x0, opts.MaxStep)
	}
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]SolverFactory),
	}

	r.solvers["dopri5"] = func(sys dynamo.System, t0 float64, x0 dynamo.State, opts integrators.Options) (dynamo.Solver, error) {
		return integrators.NewDOPRI5(sys, t0, x0, opts)
	}
	r.solvers["euler"] = fixed(func() dynamo.Stepper { return integrators.NewEuler() })
	r.solvers["rk4"] = fixed(func() dynamo.Stepper { return integrators.NewRK4() })
	r.solvers["verlet"] = fixed(func() dynamo.Stepper { return integrators.NewVerlet() })
	r.solvers["leapfrog"] = fixed(func() dynamo.Stepper { return integrators.NewLeapfrog() })

	return r
}

func (r *Registry) Register(name string, f SolverFactory) { r.solvers[name] = f }

func (r *Registry) GetSolver(name string) (SolverFactory, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidParams, name)
	}
	return fn, nil
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
