package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/boxsim/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, t float64, x dynamo.State, dt float64) dynamo.State {
	dx := sys.Derive(t, x)
	result := make(dynamo.State, len(x))
	floats.AddScaledTo(result, x, dt, dx)
	return result
}
