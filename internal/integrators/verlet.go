package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// Verlet is velocity Verlet for states packed as positions then velocities.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys dynamo.System, t float64, x dynamo.State, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := sys.Derive(t, x)

	pos, vel := result[:half], result[half:]
	floats.AddScaledTo(pos, x[:half], dt, x[half:])
	floats.AddScaled(pos, 0.5*dt*dt, dx[half:])

	copy(v.scratch[:half], pos)
	copy(v.scratch[half:], x[half:])

	dxNew := sys.Derive(t+dt, v.scratch)

	halfDt := 0.5 * dt
	floats.AddScaledTo(vel, x[half:], halfDt, dx[half:])
	floats.AddScaled(vel, halfDt, dxNew[half:])

	return result
}

// Leapfrog is kick-drift-kick for the same packing.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys dynamo.System, t float64, x dynamo.State, dt float64) dynamo.State {
	n := len(x)
	half := n / 2

	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := sys.Derive(t, x)
	halfDt := dt * 0.5

	kick := l.scratch[half:]
	floats.AddScaledTo(kick, x[half:], halfDt, dx[half:])

	floats.AddScaledTo(result[:half], x[:half], dt, kick)
	copy(l.scratch[:half], result[:half])

	dxNew := sys.Derive(t+dt, l.scratch)

	floats.AddScaledTo(result[half:], kick, halfDt, dxNew[half:])

	return result
}
