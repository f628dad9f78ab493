package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/sim"
)

func sampleStates() ([]float64, [][]float64) {
	times := []float64{0, 0.5, 1}
	states := [][]float64{
		{0.1, 0.2, 0.3, 0.4, 1, 2, 3, 4},
		{0.11, 0.21, 0.31, 0.41, 5, 6, 7, 8},
		{0.12, 0.22, 0.32, 0.42, 9, 10, 11, 12},
	}
	return times, states
}

func TestNewTrajectoryReshape(t *testing.T) {
	times, states := sampleStates()
	tr, err := NewTrajectory(times, states)
	require.NoError(t, err)

	require.Equal(t, 3, tr.Len())
	require.Equal(t, 2, tr.NumParticles())
	require.Equal(t, times, tr.Times())

	for r, x := range states {
		for i := 0; i < tr.NumParticles(); i++ {
			pos, vel := tr.Position(i), tr.Velocity(i)
			require.Equal(t, x[2*i], pos.At(r, 0))
			require.Equal(t, x[2*i+1], pos.At(r, 1))
			require.Equal(t, x[4+2*i], vel.At(r, 0))
			require.Equal(t, x[4+2*i+1], vel.At(r, 1))
		}
		require.Equal(t, dynamo.State(x), tr.State(r))
	}

	r, c := tr.Position(1).Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)
}

func TestTrajectoryStackedPositionsMatchColumns(t *testing.T) {
	times, states := sampleStates()
	tr, err := NewTrajectory(times, states)
	require.NoError(t, err)

	var stacked mat.Dense
	stacked.Augment(tr.Position(0), tr.Position(1))
	want := mat.NewDense(3, 4, nil)
	for r, x := range states {
		want.SetRow(r, x[:4])
	}
	require.True(t, mat.Equal(want, &stacked))
}

func TestTrajectoryIsIsolatedFromInputs(t *testing.T) {
	times, states := sampleStates()
	tr, err := NewTrajectory(times, states)
	require.NoError(t, err)

	states[0][0] = 99
	times[0] = 99
	require.Equal(t, 0.1, tr.Position(0).At(0, 0))
	require.Equal(t, 0.0, tr.Times()[0])

	got := tr.Times()
	got[1] = -1
	require.Equal(t, 0.5, tr.Times()[1])

	_, isDense := tr.Position(0).(*mat.Dense)
	require.False(t, isDense)
}

func TestNewTrajectoryErrors(t *testing.T) {
	tests := []struct {
		name   string
		times  []float64
		states [][]float64
	}{
		{"length mismatch", []float64{0}, [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4}}},
		{"empty", nil, nil},
		{"width not multiple of 4", []float64{0}, [][]float64{{1, 2, 3, 4, 5, 6}}},
		{"ragged rows", []float64{0, 1}, [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4, 5, 6, 7, 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrajectory(tt.times, tt.states)
			require.ErrorIs(t, err, dynamo.ErrShape)
		})
	}
}

func TestTrajectoryParticleRange(t *testing.T) {
	times, states := sampleStates()
	tr, err := NewTrajectory(times, states)
	require.NoError(t, err)

	_, err = tr.PositionOf(2)
	require.ErrorIs(t, err, dynamo.ErrShape)
	_, err = tr.VelocityOf(-1)
	require.ErrorIs(t, err, dynamo.ErrShape)

	v, err := tr.VelocityOf(1)
	require.NoError(t, err)
	require.Equal(t, 12.0, v.At(2, 1))

	h, err := tr.Heights(0)
	require.NoError(t, err)
	require.Equal(t, []float64{0.2, 0.21, 0.22}, h)
}

func TestFromResult(t *testing.T) {
	times, states := sampleStates()
	res := &sim.Result{Times: times}
	for _, x := range states {
		res.States = append(res.States, dynamo.State(x))
	}
	tr, err := FromResult(res)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
}
