package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/sim"
)

// BuildFunc constructs a fresh simulator starting at (t0, x0).
type BuildFunc func(t0 float64, x0 dynamo.State) (*sim.Simulator, error)

// LyapunovExponent estimates the largest Lyapunov exponent by running a
// reference and a perturbed copy through times (Benettin's method). After
// every sample the perturbed run is restarted at distance perturbation from
// the reference along the current separation. A positive value indicates
// chaos.
func LyapunovExponent(build BuildFunc, x0 dynamo.State, perturbation float64, times []float64) (float64, error) {
	if perturbation <= 0 || len(x0) == 0 {
		return 0, fmt.Errorf("%w: perturbation %g on a %d-entry state", dynamo.ErrInvalidParams, perturbation, len(x0))
	}
	if len(times) < 2 {
		return 0, nil
	}

	t0 := times[0]
	ref, err := build(t0, x0)
	if err != nil {
		return 0, err
	}
	xp := x0.Clone()
	xp[0] += perturbation
	pert, err := build(t0, xp)
	if err != nil {
		return 0, err
	}

	sumLog := 0.0
	for _, t := range times[1:] {
		_, x, err := ref.Advance(t)
		if err != nil {
			return 0, err
		}
		_, xp, err := pert.Advance(t)
		if err != nil {
			return 0, err
		}

		sep := 0.0
		for i := range x {
			diff := xp[i] - x[i]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)

		// Renormalize
		scale := perturbation / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
		if pert, err = build(t, xp); err != nil {
			return 0, err
		}
	}

	return sumLog / (times[len(times)-1] - t0), nil
}
