package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/boxsim/internal/dynamo"
)

func tightOptions() Options {
	return Options{MaxStep: 0.1, Atol: 1e-10, Rtol: 1e-10}
}

func TestDOPRI5Oscillator(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	tf, x, err := d.Advance(2 * math.Pi)
	require.NoError(t, err)
	require.Equal(t, 2*math.Pi, tf)
	require.InDelta(t, 1.0, x[0], 1e-7)
	require.InDelta(t, 0.0, x[1], 1e-7)
	require.Equal(t, tf, d.Time())
}

func TestDOPRI5AdvanceIsIdempotent(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	t1, x1, err := d.Advance(0.7)
	require.NoError(t, err)
	t2, x2, err := d.Advance(0.7)
	require.NoError(t, err)

	require.Equal(t, t1, t2)
	require.Equal(t, x1, x2)
}

func TestDOPRI5ReturnsCopies(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	_, x, err := d.Advance(0.5)
	require.NoError(t, err)
	x[0] = 42
	require.NotEqual(t, 42.0, d.State()[0])
}

func TestDOPRI5FreeFallIsExact(t *testing.T) {
	fall := dynamo.SystemFunc{Dim: 2, Fn: func(t float64, x dynamo.State) dynamo.State {
		return dynamo.State{x[1], -9.81}
	}}
	d, err := NewDOPRI5(fall, 0, dynamo.State{10, 0}, Options{MaxStep: 0.01, Atol: 1e-6, Rtol: 1e-6})
	require.NoError(t, err)

	for _, target := range []float64{0.1, 0.25, 1} {
		_, x, err := d.Advance(target)
		require.NoError(t, err)
		require.InDelta(t, 10-0.5*9.81*target*target, x[0], 1e-9)
		require.InDelta(t, -9.81*target, x[1], 1e-9)
	}
}

func TestDOPRI5RespectsMaxStep(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, Options{MaxStep: 0.01, Atol: 1, Rtol: 1})
	require.NoError(t, err)

	_, _, err = d.Advance(1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, d.Stats().Accepted, 100)
}

func TestDOPRI5Backward(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	_, _, err = d.Advance(1.5)
	require.NoError(t, err)
	tb, x, err := d.Advance(0)
	require.NoError(t, err)
	require.Equal(t, 0.0, tb)
	require.True(t, floats.EqualApprox(x, []float64{1, 0}, 1e-8), "got %v", x)
}

func TestDOPRI5Sample(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	times := make([]float64, 21)
	for i := range times {
		times[i] = float64(i) * 0.05
	}

	var got []float64
	err = d.Sample(times, func(ts float64, x dynamo.State) {
		got = append(got, ts)
		require.InDelta(t, math.Cos(ts), x[0], 1e-6, "t=%g", ts)
		require.InDelta(t, -math.Sin(ts), x[1], 1e-6, "t=%g", ts)
	})
	require.NoError(t, err)
	require.Equal(t, times, got)
	require.Equal(t, 1.0, d.Time())
}

func TestDOPRI5SampleRejectsUnorderedTimes(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)

	err = d.Sample([]float64{0.5, 0.2, 1}, func(float64, dynamo.State) {})
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)
}

func TestDOPRI5BlowUpFails(t *testing.T) {
	blowUp := dynamo.SystemFunc{Dim: 1, Fn: func(t float64, x dynamo.State) dynamo.State {
		return dynamo.State{x[0] * x[0]}
	}}
	d, err := NewDOPRI5(blowUp, 0, dynamo.State{1}, Options{MaxStep: 0.1, Atol: 1e-8, Rtol: 1e-8})
	require.NoError(t, err)

	_, _, err = d.Advance(2)
	require.Error(t, err)
	require.True(t, errors.Is(err, dynamo.ErrStepTooSmall) || errors.Is(err, dynamo.ErrInvalidState), "got %v", err)
	// x(t) = 1/(1-t) has its pole at t=1
	require.InDelta(t, 1.0, d.Time(), 1e-6)
	require.Greater(t, math.Abs(d.State()[0]), 1e6)
}

func TestDOPRI5MaxSteps(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, Options{MaxStep: 0.01, Atol: 1e-6, Rtol: 1e-6, MaxSteps: 3})
	require.NoError(t, err)

	_, _, err = d.Advance(1)
	require.ErrorIs(t, err, dynamo.ErrTooManySteps)
}

func TestDOPRI5Construction(t *testing.T) {
	_, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0, 0}, tightOptions())
	require.ErrorIs(t, err, dynamo.ErrShape)

	_, err = NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, Options{MaxStep: 0, Atol: 1, Rtol: 1})
	require.ErrorIs(t, err, dynamo.ErrInvalidParams)

	nan := dynamo.SystemFunc{Dim: 1, Fn: func(t float64, x dynamo.State) dynamo.State {
		return dynamo.State{math.NaN()}
	}}
	_, err = NewDOPRI5(nan, 0, dynamo.State{1}, tightOptions())
	require.ErrorIs(t, err, dynamo.ErrInvalidState)
}

func TestDOPRI5DenseBeforeFirstStep(t *testing.T) {
	d, err := NewDOPRI5(oscillator(), 0, dynamo.State{1, 0}, tightOptions())
	require.NoError(t, err)
	require.Nil(t, d.Dense(0.1))
}
