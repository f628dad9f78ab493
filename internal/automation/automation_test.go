package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/experiment"
	"github.com/san-kum/boxsim/internal/storage"
)

const scenarioYAML = `name: drops
description: one ball, two solvers
steps:
  - name: drop-dopri
    preset: drop
    params: {frames: 10}
  - preset: drop
    integrator: rk4
    params: {frames: 10, max_step: 0.001}
`

func writeScenario(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	require.Equal(t, "drops", sc.Name)
	require.Len(t, sc.Steps, 2)

	st := storage.New(filepath.Join(t.TempDir(), "runs"))
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), st)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "drop-dopri", results[0].Name)
	require.Equal(t, "drops-2", results[1].Name)

	for _, r := range results {
		require.NoError(t, r.Err)
		meta, err := st.Load(r.RunID)
		require.NoError(t, err)
		require.Equal(t, 10, meta.Frames)
	}
	meta, err := st.Load(results[1].RunID)
	require.NoError(t, err)
	require.Equal(t, "rk4", meta.Integrator)
}

func TestRunScenarioStopsOnBadStep(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{
		{Preset: "drop", Params: map[string]float64{"frames": 2}},
		{Preset: "nope"},
	}}
	st := storage.New(t.TempDir())
	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), st)
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
	require.Len(t, results, 1)
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, "name: empty\n"))
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg, err := ScenarioStep{Params: map[string]float64{"elasticity": 8}}.Resolve()
	require.NoError(t, err)
	require.Equal(t, 8.0, cfg.Elasticity)
	require.Equal(t, config.DefaultCount, cfg.Particles.Count)

	_, err = ScenarioStep{Preset: "drop", Params: map[string]float64{"fps": 0}}.Resolve()
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)

	_, err = ScenarioStep{Params: map[string]float64{"spin": 1}}.Resolve()
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}

func TestElasticitySweep(t *testing.T) {
	base := config.GetPreset("drop")
	base.Frames = 90

	values := Linspace(2, 8, 2)
	points, err := ElasticitySweep(context.Background(), base, experiment.NewRegistry(), values, 0, 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, 2.0, points[0].Param)
	require.Equal(t, 8.0, points[1].Param)
	for _, p := range points {
		// the penalty contact is conservative, so the ball returns to its
		// release height
		require.NotEmpty(t, p.Values)
		require.InDelta(t, 0.9, p.Values[0], 0.02)
	}

	_, err = ElasticitySweep(context.Background(), base, experiment.NewRegistry(), nil, 0, 1)
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}

func TestLinspace(t *testing.T) {
	require.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	require.Equal(t, []float64{3}, Linspace(3, 7, 1))
	require.Nil(t, Linspace(0, 1, 0))
}
