package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/sim"
)

func TestRegistryListsSolvers(t *testing.T) {
	reg := NewRegistry()
	require.Equal(t, []string{"dopri5", "euler", "leapfrog", "rk4", "verlet"}, reg.ListSolvers())

	_, err := reg.GetSolver("midpoint")
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}

func TestDropWithEverySolver(t *testing.T) {
	reg := NewRegistry()
	for _, name := range reg.ListSolvers() {
		t.Run(name, func(t *testing.T) {
			cfg := config.GetPreset("drop")
			cfg.Integrator.Name = name
			cfg.Integrator.MaxStep = 1e-3
			cfg.Frames = 10

			e, err := New(cfg, reg)
			require.NoError(t, err)
			res, err := e.Run(context.Background())
			require.NoError(t, err)
			require.Len(t, res.States, 10)

			// 9 frames at 30 fps, well before the floor
			tf := res.Times[9]
			require.InDelta(t, 0.9-0.5*tf*tf, res.States[9][1], 1e-3)
			require.Equal(t, 1.0, res.Metrics["containment"])
		})
	}
}

func TestDenseRunMatchesStepped(t *testing.T) {
	run := func(dense bool) *sim.Result {
		cfg := config.GetPreset("drop")
		cfg.Frames = 20
		cfg.Integrator.DenseOutput = dense
		e, err := New(cfg, NewRegistry())
		require.NoError(t, err)
		res, err := e.Run(context.Background())
		require.NoError(t, err)
		return res
	}

	stepped, dense := run(false), run(true)
	require.Equal(t, stepped.Times, dense.Times)
	for i := range stepped.States {
		require.InDeltaSlice(t, stepped.States[i], dense.States[i], 1e-5, "frame %d", i)
	}
	require.NotNil(t, dense.Stats)
	require.LessOrEqual(t, dense.Stats.Accepted, stepped.Stats.Accepted)
}

func TestDefaultRunStaysInBox(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Frames = 60

	e, err := New(cfg, NewRegistry())
	require.NoError(t, err)
	res, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.States, 60)
	require.Equal(t, sim.Ready, e.Simulator().Status())
	require.Contains(t, res.Metrics, "energy_drift")
	require.Contains(t, res.Metrics, "max_overlap")
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Integrator.Name = "midpoint"
	_, err := New(cfg, NewRegistry())
	require.True(t, errors.Is(err, dynamo.ErrInvalidParams))

	cfg = config.DefaultConfig()
	cfg.Particles.Count = -3
	_, err = New(cfg, NewRegistry())
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}

func TestSweepOverElasticity(t *testing.T) {
	var cfgs []*config.Config
	for _, k := range []float64{1, 4, 16} {
		cfg := config.GetPreset("drop")
		cfg.Elasticity = k
		cfg.Frames = 45
		cfgs = append(cfgs, cfg)
	}

	results, err := Sweep(context.Background(), cfgs, NewRegistry(), 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		require.Len(t, res.States, 45)
	}
}

func TestForkMatchesOriginal(t *testing.T) {
	cfg := config.GetPreset("drop")
	e, err := New(cfg, NewRegistry())
	require.NoError(t, err)

	x0 := e.Simulator().State()
	fork, err := e.Fork(0, x0)
	require.NoError(t, err)

	_, want, err := e.Simulator().Advance(0.5)
	require.NoError(t, err)
	_, got, err := fork.Advance(0.5)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, got, 1e-12)
	require.NotSame(t, e.Box(), fork.System())

	_, err = e.Fork(0, x0[:2])
	require.ErrorIs(t, err, dynamo.ErrShape)
}
