// Package automation runs scripted batches of box simulations: scenario
// files listing several runs, and elasticity sweeps for rebound diagrams.
package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/boxsim/internal/analysis"
	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/experiment"
	"github.com/san-kum/boxsim/internal/storage"
)

// Scenario is a named list of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or a config file), applies Params by
// name and optionally switches the integrator.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset"`
	Config     string             `yaml:"config"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params"`
}

// StepResult records where a step was stored and how it ended.
type StepResult struct {
	Name    string
	RunID   string
	Metrics map[string]float64
	Err     error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrInvalidParams, scenario.Name)
	}
	return &scenario, nil
}

// Resolve turns the step into a validated config.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	case s.Preset != "":
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrInvalidParams, s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	if s.Integrator != "" {
		cfg.Integrator.Name = s.Integrator
	}

	names := make([]string, 0, len(s.Params))
	for k := range s.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := cfg.Set(k, s.Params[k]); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario runs the steps in order and saves each to st, including runs
// that fail part way. Configuration errors stop the scenario; simulation
// failures are recorded and the next step runs.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}
		fmt.Printf("running step %d/%d: %s\n", i+1, len(scenario.Steps), name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		res, runErr := exp.Run(ctx)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		id, err := st.Save(name, cfg, exp.Params().Particles, res, runErr)
		if err != nil {
			return results, fmt.Errorf("step %d save: %w", i+1, err)
		}
		results = append(results, StepResult{Name: name, RunID: id, Metrics: res.Metrics, Err: runErr})
	}

	return results, nil
}

// ElasticitySweep runs base once per value, in parallel, and collects the
// rebound heights of one particle for an apex diagram.
func ElasticitySweep(ctx context.Context, base *config.Config, reg *experiment.Registry, values []float64, particle, limit int) ([]analysis.ApexPoint, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no elasticity values", dynamo.ErrInvalidParams)
	}
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfgs[i] = base.Clone()
		cfgs[i].Elasticity = v
	}

	results, err := experiment.Sweep(ctx, cfgs, reg, limit)
	if err != nil {
		return nil, err
	}

	points := make([]analysis.ApexPoint, 0, len(results))
	for i, res := range results {
		tr, err := analysis.FromResult(res)
		if err != nil {
			return nil, err
		}
		heights, err := tr.Heights(particle)
		if err != nil {
			return nil, err
		}
		points = append(points, analysis.ApexPoint{Param: values[i], Values: analysis.BounceApexes(heights)})
	}
	return points, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
