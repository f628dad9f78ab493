// Package optim searches config parameters for the run that minimizes a
// metric, e.g. the max_step and tolerances that keep energy_drift small.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/boxsim/internal/config"
	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/experiment"
)

// Axis is one searched parameter, named as in config.Config.Set.
type Axis struct {
	Name   string
	Values []float64
}

type GridSearch struct {
	axes []Axis
}

// Trial is the outcome of one grid point. Err is set when the run could
// not be built or failed; such points never win.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

func NewGridSearch(axes ...Axis) (*GridSearch, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("%w: no axes", dynamo.ErrInvalidParams)
	}
	probe := config.DefaultConfig()
	for _, a := range axes {
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("%w: axis %s has no values", dynamo.ErrInvalidParams, a.Name)
		}
		if err := probe.Set(a.Name, a.Values[0]); err != nil {
			return nil, err
		}
	}
	return &GridSearch{axes: axes}, nil
}

// Points enumerates the grid, last axis fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, make(map[string]float64), &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, points *[]map[string]float64) {
	if depth == len(g.axes) {
		*points = append(*points, current)
		return
	}
	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Name] = val
		g.collect(depth+1, next, points)
	}
}

// Search runs base once per grid point, up to limit at a time, and returns
// every trial with the index of the one whose |metric| is smallest. The
// index is -1 when no run succeeded.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, metric string, limit int) ([]Trial, int, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	points := g.Points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, p := range points {
		trials[i] = Trial{Params: p, Value: math.Inf(1)}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trials[i].Value, trials[i].Err = evaluate(ctx, base, reg, p, metric)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return trials, -1, err
	}

	best := -1
	for i, tr := range trials {
		if tr.Err != nil {
			continue
		}
		if best < 0 || tr.Value < trials[best].Value {
			best = i
		}
	}
	return trials, best, nil
}

func evaluate(ctx context.Context, base *config.Config, reg *experiment.Registry, params map[string]float64, metric string) (float64, error) {
	cfg := base.Clone()
	for k, v := range params {
		if err := cfg.Set(k, v); err != nil {
			return math.Inf(1), err
		}
	}
	exp, err := experiment.New(cfg, reg)
	if err != nil {
		return math.Inf(1), err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return math.Inf(1), err
	}
	val, ok := res.Metrics[metric]
	if !ok {
		return math.Inf(1), fmt.Errorf("%w: no metric %q", dynamo.ErrInvalidParams, metric)
	}
	return math.Abs(val), nil
}
