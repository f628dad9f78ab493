package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
	"github.com/san-kum/boxsim/internal/sim"
)

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		freq float64
		n    int
		dt   float64
	}{
		{"2Hz power of two", 2, 1024, 1.0 / 128},
		{"0.5Hz odd length", 0.5, 300, 0.1},
		{"3Hz", 3, 1000, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make([]float64, tt.n)
			for i := range series {
				series[i] = 0.4 + 0.1*math.Sin(2*math.Pi*tt.freq*float64(i)*tt.dt)
			}
			require.InDelta(t, tt.freq, DominantFrequency(series, tt.dt), 1e-9)
		})
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	require.Zero(t, DominantFrequency([]float64{1, 2}, 0.1))
	require.Zero(t, DominantFrequency([]float64{1, 1, 1, 1, 1, 1}, 0.1))
	require.Nil(t, PowerSpectrum(nil))
}

func TestPhasePortraitAndSection(t *testing.T) {
	times := []float64{0, 1, 2, 3}
	states := [][]float64{
		{0.5, 0.1, 0.0, 1},
		{0.6, 0.3, 0.2, 1},
		{0.7, 0.5, 0.4, -1},
		{0.8, 0.2, 0.6, -1},
	}
	tr, err := NewTrajectory(times, states)
	require.NoError(t, err)

	portrait, err := PhasePortrait(tr, 0)
	require.NoError(t, err)
	require.Equal(t, Point{X: 0.3, Y: 1}, portrait.Points[1])
	require.NotEmpty(t, PhasePortraitToASCII(portrait, 20, 10))

	section, err := GeneratePoincareSection(tr, 0, 0.2)
	require.NoError(t, err)
	require.Len(t, section.Points, 1)
	require.InDelta(t, 0.55, section.Points[0].X, 1e-12)
	require.InDelta(t, 0.1, section.Points[0].Y, 1e-12)

	_, err = PhasePortrait(tr, 1)
	require.ErrorIs(t, err, dynamo.ErrShape)
	require.Equal(t, "No crossings detected", PoincareSectionToASCII(&PoincareSection{}, 10, 5))
}

func TestBounceApexes(t *testing.T) {
	heights := []float64{0.5, 0.4, 0.1, 0.3, 0.35, 0.35, 0.2, 0.05, 0.25, 0.1}
	require.Equal(t, []float64{0.35, 0.25}, BounceApexes(heights))
	require.Nil(t, BounceApexes([]float64{1, 0}))
}

func TestApexDiagramToASCII(t *testing.T) {
	data := []ApexPoint{
		{Param: 1, Values: []float64{0.1, 0.2}},
		{Param: 2, Values: []float64{0.3}},
	}
	out := ApexDiagramToASCII(data, 8, 4)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, 3, strings.Count(out, "•"))
	require.Empty(t, ApexDiagramToASCII([]ApexPoint{{Param: 1}}, 8, 4))
}

func TestLyapunovExponentOfExponentialGrowth(t *testing.T) {
	growth := dynamo.SystemFunc{Dim: 1, Fn: func(t float64, x dynamo.State) dynamo.State {
		return dynamo.State{x[0]}
	}}
	build := func(t0 float64, x0 dynamo.State) (*sim.Simulator, error) {
		return sim.New(growth, t0, x0, integrators.Options{MaxStep: 0.05, Atol: 1e-12, Rtol: 1e-12})
	}

	lambda, err := LyapunovExponent(build, dynamo.State{1}, 1e-6, sim.FrameTimes(0, 10, 21))
	require.NoError(t, err)
	require.InDelta(t, 1.0, lambda, 1e-4)

	_, err = LyapunovExponent(build, dynamo.State{1}, 0, nil)
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}
