package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is a packed vector: N positions (x, y) then N velocities (vx, vy).
// In derivative form the blocks are velocities then accelerations.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

// NumParticles returns len/4, or -1 when the length is not a valid packing.
func (s State) NumParticles() int {
	if len(s) == 0 || len(s)%4 != 0 {
		return -1
	}
	return len(s) / 4
}

// System is an autonomous or time-dependent ODE right-hand side.
// The (t, x) argument order is the solver contract; t may be ignored.
type System interface {
	Derive(t float64, x State) State
	StateDim() int
}

// SystemFunc adapts a plain function to System.
type SystemFunc struct {
	Dim int
	Fn  func(t float64, x State) State
}

func (f SystemFunc) Derive(t float64, x State) State { return f.Fn(t, x) }
func (f SystemFunc) StateDim() int                   { return f.Dim }

type Hamiltonian interface {
	Energy(x State) float64
}

// Solver owns a (time, state) pair and advances it to requested times.
type Solver interface {
	Time() float64
	State() State
	Advance(target float64) (float64, State, error)
}

// Stepper performs a single fixed step of size dt.
type Stepper interface {
	Step(sys System, t float64, x State, dt float64) State
}

type Metric interface {
	Name() string
	Observe(t float64, x State)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(t float64, x State)
}
