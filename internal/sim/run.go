package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
)

// denseChunk is the number of frames RunDense samples between context checks.
const denseChunk = 32

// Result holds the states sampled by Run. On failure it holds every frame
// reached before the error.
type Result struct {
	Times   []float64
	States  []dynamo.State
	Metrics map[string]float64
	// Stats is the solver work for the run, when the solver counts it.
	Stats *integrators.Stats
}

// FrameTimes returns frames timestamps spaced 1/fps apart starting at t0.
func FrameTimes(t0, fps float64, frames int) []float64 {
	times := make([]float64, frames)
	for i := range times {
		times[i] = t0 + float64(i)/fps
	}
	return times
}

// Run advances s through times in order, checking ctx between frames.
// Metrics are reset first and reported in the result.
func Run(ctx context.Context, s *Simulator, times []float64) (*Result, error) {
	result, before := beginRun(s, len(times))

	var runErr error
	for i, target := range times {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("frame %d: %w: %w", i, dynamo.ErrContextCanceled, err)
			break
		}

		t, x, err := s.Advance(target)
		if err != nil {
			runErr = fmt.Errorf("frame %d: %w", i, err)
			break
		}
		result.Times = append(result.Times, t)
		result.States = append(result.States, x)
	}

	return endRun(s, result, before), runErr
}

// RunDense is Run on the solver's continuous extension: frames are
// interpolated inside solver steps rather than forcing a step boundary at
// every frame. ctx is checked every few frames.
func RunDense(ctx context.Context, s *Simulator, times []float64) (*Result, error) {
	result, before := beginRun(s, len(times))

	var runErr error
	for lo := 0; lo < len(times); lo += denseChunk {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("frame %d: %w: %w", lo, dynamo.ErrContextCanceled, err)
			break
		}
		hi := min(lo+denseChunk, len(times))
		err := s.Sample(times[lo:hi], func(t float64, x dynamo.State) {
			result.Times = append(result.Times, t)
			result.States = append(result.States, x)
		})
		if err != nil {
			runErr = fmt.Errorf("frame %d: %w", len(result.States), err)
			break
		}
	}

	return endRun(s, result, before), runErr
}

func beginRun(s *Simulator, frames int) (*Result, integrators.Stats) {
	for _, m := range s.metrics {
		m.Reset()
	}
	before, _ := s.SolverStats()
	return &Result{
		Times:   make([]float64, 0, frames),
		States:  make([]dynamo.State, 0, frames),
		Metrics: make(map[string]float64),
	}, before
}

func endRun(s *Simulator, result *Result, before integrators.Stats) *Result {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if after, ok := s.SolverStats(); ok {
		result.Stats = &integrators.Stats{
			Evaluations: after.Evaluations - before.Evaluations,
			Accepted:    after.Accepted - before.Accepted,
			Rejected:    after.Rejected - before.Rejected,
		}
	}
	return result
}
