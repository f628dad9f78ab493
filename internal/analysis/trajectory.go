package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/sim"
)

// Trajectory is the read-only history of a run: T timestamps with a T×2N
// position matrix and a T×2N velocity matrix. Columns 2i and 2i+1 hold x and
// y of particle i.
type Trajectory struct {
	times []float64
	n     int
	pos   *mat.Dense
	vel   *mat.Dense
}

// NewTrajectory reshapes packed states (one row per timestamp) into a
// Trajectory. The inputs are copied.
func NewTrajectory(times []float64, states [][]float64) (*Trajectory, error) {
	if len(times) != len(states) {
		return nil, fmt.Errorf("%w: %d timestamps for %d states", dynamo.ErrShape, len(times), len(states))
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: no states", dynamo.ErrShape)
	}
	width := len(states[0])
	if width == 0 || width%4 != 0 {
		return nil, fmt.Errorf("%w: state width %d is not a positive multiple of 4", dynamo.ErrShape, width)
	}

	half := width / 2
	rows := len(states)
	tr := &Trajectory{
		times: append([]float64(nil), times...),
		n:     width / 4,
		pos:   mat.NewDense(rows, half, nil),
		vel:   mat.NewDense(rows, half, nil),
	}
	for r, x := range states {
		if len(x) != width {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", dynamo.ErrShape, r, len(x), width)
		}
		tr.pos.SetRow(r, x[:half])
		tr.vel.SetRow(r, x[half:])
	}
	return tr, nil
}

// FromResult builds a Trajectory from the frames of a simulation run.
func FromResult(res *sim.Result) (*Trajectory, error) {
	states := make([][]float64, len(res.States))
	for i, x := range res.States {
		states[i] = x
	}
	return NewTrajectory(res.Times, states)
}

func (t *Trajectory) Len() int          { return len(t.times) }
func (t *Trajectory) NumParticles() int { return t.n }

// Times returns a copy of the timestamps.
func (t *Trajectory) Times() []float64 { return append([]float64(nil), t.times...) }

// Positions returns the full T×2N position matrix as a read-only view.
func (t *Trajectory) Positions() mat.Matrix { return view{t.pos} }

// Velocities returns the full T×2N velocity matrix as a read-only view.
func (t *Trajectory) Velocities() mat.Matrix { return view{t.vel} }

// Position returns the T×2 positions of particle i. It panics when i is out
// of range; PositionOf reports an error instead.
func (t *Trajectory) Position(i int) mat.Matrix {
	return view{t.pos.Slice(0, t.Len(), 2*i, 2*i+2)}
}

// Velocity returns the T×2 velocities of particle i. It panics when i is
// out of range; VelocityOf reports an error instead.
func (t *Trajectory) Velocity(i int) mat.Matrix {
	return view{t.vel.Slice(0, t.Len(), 2*i, 2*i+2)}
}

func (t *Trajectory) PositionOf(i int) (mat.Matrix, error) {
	if err := t.checkParticle(i); err != nil {
		return nil, err
	}
	return t.Position(i), nil
}

func (t *Trajectory) VelocityOf(i int) (mat.Matrix, error) {
	if err := t.checkParticle(i); err != nil {
		return nil, err
	}
	return t.Velocity(i), nil
}

// Heights returns a copy of the y coordinate of particle i over time.
func (t *Trajectory) Heights(i int) ([]float64, error) {
	if err := t.checkParticle(i); err != nil {
		return nil, err
	}
	return mat.Col(nil, 2*i+1, t.pos), nil
}

// State returns a copy of the packed state at row r.
func (t *Trajectory) State(r int) dynamo.State {
	half := 2 * t.n
	x := make(dynamo.State, 2*half)
	mat.Row(x[:half], r, t.pos)
	mat.Row(x[half:], r, t.vel)
	return x
}

func (t *Trajectory) checkParticle(i int) error {
	if i < 0 || i >= t.n {
		return fmt.Errorf("%w: particle %d out of range [0, %d)", dynamo.ErrShape, i, t.n)
	}
	return nil
}

// view hides the concrete matrix so callers cannot type-assert their way
// into mutating the trajectory.
type view struct{ m mat.Matrix }

func (v view) Dims() (r, c int)    { return v.m.Dims() }
func (v view) At(i, j int) float64 { return v.m.At(i, j) }
func (v view) T() mat.Matrix       { return mat.Transpose{Matrix: v} }
