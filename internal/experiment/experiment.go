package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/metrics"
	"github.com/san-kum/boxsim/internal/physics"
	"github.com/san-kum/boxsim/internal/sim"
)

// Experiment is one configured box run: its parameters, model and
// simulator, ready to be stepped frame by frame or run to completion.
type Experiment struct {
	cfg       *config.Config
	params    physics.ParticlesParameters
	box       *physics.Box
	factory   SolverFactory
	simulator *sim.Simulator
}

func New(cfg *config.Config, reg *Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factory, err := reg.GetSolver(cfg.Integrator.Name)
	if err != nil {
		return nil, err
	}

	params, x0, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	box, err := physics.NewBox(params)
	if err != nil {
		return nil, err
	}
	box.BroadPhase = cfg.BroadPhase

	solver, err := factory(box, 0, x0, cfg.Integrator.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Integrator.Name, err)
	}
	s, err := sim.NewWithSolver(box, solver)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(box) {
		s.AddMetric(m)
	}

	return &Experiment{cfg: cfg, params: params, box: box, factory: factory, simulator: s}, nil
}

// Run advances through every configured frame, interpolating frames from
// the solver's continuous extension when the integrator config asks for it.
func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.cfg.Integrator.DenseOutput {
		return sim.RunDense(ctx, e.simulator, e.FrameTimes())
	}
	return sim.Run(ctx, e.simulator, e.FrameTimes())
}

// Fork builds an independent simulator for the same particles and solver
// starting at (t0, x0). It has its own Box, so it may run concurrently
// with the experiment's simulator.
func (e *Experiment) Fork(t0 float64, x0 dynamo.State) (*sim.Simulator, error) {
	box, err := physics.NewBox(e.params)
	if err != nil {
		return nil, err
	}
	box.BroadPhase = e.cfg.BroadPhase
	solver, err := e.factory(box, t0, x0, e.cfg.Integrator.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.cfg.Integrator.Name, err)
	}
	return sim.NewWithSolver(box, solver)
}

func (e *Experiment) FrameTimes() []float64 {
	return sim.FrameTimes(0, e.cfg.FPS, e.cfg.Frames)
}

func (e *Experiment) Config() *config.Config              { return e.cfg }
func (e *Experiment) Params() physics.ParticlesParameters { return e.params }
func (e *Experiment) Box() *physics.Box                   { return e.box }
func (e *Experiment) Simulator() *sim.Simulator           { return e.simulator }
func (e *Experiment) AddObserver(o dynamo.Observer)       { e.simulator.AddObserver(o) }

// Sweep runs one experiment per config in parallel.
func Sweep(ctx context.Context, cfgs []*config.Config, reg *Registry, limit int) ([]*sim.Result, error) {
	jobs := make([]sim.Job, len(cfgs))
	for i, cfg := range cfgs {
		jobs[i] = sim.Job{
			Name: fmt.Sprintf("run-%d", i),
			Build: func() (*sim.Simulator, error) {
				e, err := New(cfg, reg)
				if err != nil {
					return nil, err
				}
				return e.Simulator(), nil
			},
			Times: sim.FrameTimes(0, cfg.FPS, cfg.Frames),
		}
	}
	return sim.Sweep(ctx, jobs, limit)
}
