package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
)

// Status is the lifecycle state of a Simulator.
type Status int

const (
	Ready Status = iota
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type sampler interface {
	Sample(times []float64, fn func(t float64, x dynamo.State)) error
}

type statsReporter interface {
	Stats() integrators.Stats
}

// Simulator is the simulation clock: it owns the current time and state and
// moves them only through Advance. Once a solver error occurs it is Failed
// for good. A Simulator is not safe for concurrent use.
type Simulator struct {
	sys    dynamo.System
	solver dynamo.Solver
	status Status
	cause  error

	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

// New builds a simulator over sys backed by a DOPRI5 solver.
func New(sys dynamo.System, t0 float64, x0 dynamo.State, opts integrators.Options) (*Simulator, error) {
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrShape, len(x0), sys.StateDim())
	}
	solver, err := integrators.NewDOPRI5(sys, t0, x0, opts)
	if err != nil {
		return nil, err
	}
	return &Simulator{sys: sys, solver: solver}, nil
}

// NewWithSolver wraps an already constructed solver for sys.
func NewWithSolver(sys dynamo.System, solver dynamo.Solver) (*Simulator, error) {
	if n := len(solver.State()); n != sys.StateDim() {
		return nil, fmt.Errorf("%w: solver state has %d entries, system expects %d", dynamo.ErrShape, n, sys.StateDim())
	}
	return &Simulator{sys: sys, solver: solver}, nil
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() dynamo.System { return s.sys }
func (s *Simulator) Status() Status        { return s.status }
func (s *Simulator) Time() float64         { return s.solver.Time() }
func (s *Simulator) State() dynamo.State   { return s.solver.State() }

// Err returns the error that moved the simulator to Failed, or nil.
func (s *Simulator) Err() error { return s.cause }

// Advance integrates to target and returns the time reached and a copy of
// the state there. Advancing to the current time returns the current state
// unchanged.
func (s *Simulator) Advance(target float64) (float64, dynamo.State, error) {
	if s.status == Failed {
		return s.solver.Time(), nil, fmt.Errorf("%w: %v", dynamo.ErrFailed, s.cause)
	}
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return s.solver.Time(), nil, fmt.Errorf("%w: target time %g", dynamo.ErrInvalidParams, target)
	}

	from := s.solver.Time()
	t, x, err := s.solver.Advance(target)
	if err != nil {
		s.status = Failed
		s.cause = &dynamo.SimulationError{Time: from, Target: target, Wrapped: err}
		return t, nil, s.cause
	}

	s.observe(t, x)
	return t, x.Clone(), nil
}

// Sample reports the state at each of times, which must be finite and
// monotone. Solvers with a continuous extension interpolate between their
// own steps instead of shortening a step to land on every sample time.
// Metrics and observers see every sample.
func (s *Simulator) Sample(times []float64, fn func(t float64, x dynamo.State)) error {
	if s.status == Failed {
		return fmt.Errorf("%w: %v", dynamo.ErrFailed, s.cause)
	}
	if len(times) == 0 {
		return nil
	}
	for _, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: sample time %g", dynamo.ErrInvalidParams, t)
		}
	}

	sp, ok := s.solver.(sampler)
	if !ok {
		for _, target := range times {
			t, x, err := s.Advance(target)
			if err != nil {
				return err
			}
			fn(t, x)
		}
		return nil
	}

	from := s.solver.Time()
	err := sp.Sample(times, func(t float64, x dynamo.State) {
		s.observe(t, x)
		fn(t, x)
	})
	if err != nil {
		if errors.Is(err, dynamo.ErrInvalidParams) {
			return err
		}
		s.status = Failed
		s.cause = &dynamo.SimulationError{Time: from, Target: times[len(times)-1], Wrapped: err}
		return s.cause
	}
	return nil
}

// SolverStats reports the work counters of solvers that keep them.
func (s *Simulator) SolverStats() (integrators.Stats, bool) {
	if sr, ok := s.solver.(statsReporter); ok {
		return sr.Stats(), true
	}
	return integrators.Stats{}, false
}

func (s *Simulator) observe(t float64, x dynamo.State) {
	for _, m := range s.metrics {
		m.Observe(t, x)
	}
	for _, o := range s.observers {
		o.OnStep(t, x)
	}
}

// Frame advances to target and returns the particle positions there. It is
// the per-frame call made by renderers.
func (s *Simulator) Frame(target float64) (float64, []r2.Vec, error) {
	t, x, err := s.Advance(target)
	if err != nil {
		return t, nil, err
	}
	pos, _, err := dynamo.Unpack(x)
	if err != nil {
		return t, nil, err
	}
	return t, pos, nil
}
