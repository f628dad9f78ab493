package dynamo

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pack concatenates positions then velocities into a flat 4N vector.
func Pack(positions, velocities []r2.Vec) (State, error) {
	if len(positions) == 0 || len(positions) != len(velocities) {
		return nil, fmt.Errorf("%w: %d positions, %d velocities", ErrShape, len(positions), len(velocities))
	}
	n := len(positions)
	x := make(State, 4*n)
	for i := 0; i < n; i++ {
		x[2*i] = positions[i].X
		x[2*i+1] = positions[i].Y
		x[2*n+2*i] = velocities[i].X
		x[2*n+2*i+1] = velocities[i].Y
	}
	return x, nil
}

// Unpack splits a packed vector at its midpoint into two N-row blocks.
func Unpack(x State) (positions, velocities []r2.Vec, err error) {
	n := x.NumParticles()
	if n < 0 {
		return nil, nil, fmt.Errorf("%w: length %d is not a positive multiple of 4", ErrShape, len(x))
	}
	positions = make([]r2.Vec, n)
	velocities = make([]r2.Vec, n)
	UnpackInto(x, positions, velocities)
	return positions, velocities, nil
}

// UnpackInto is the non-allocating form of Unpack. It panics on a shape
// mismatch; callers validate dimensions up front.
func UnpackInto(x State, positions, velocities []r2.Vec) {
	n := len(positions)
	if len(velocities) != n || len(x) != 4*n {
		panic(fmt.Sprintf("%v: len(x)=%d for %d particles", ErrShape, len(x), n))
	}
	for i := 0; i < n; i++ {
		positions[i] = r2.Vec{X: x[2*i], Y: x[2*i+1]}
		velocities[i] = r2.Vec{X: x[2*n+2*i], Y: x[2*n+2*i+1]}
	}
}

// PackInto writes two N-row blocks into dst, which must have length 4N.
func PackInto(dst State, first, second []r2.Vec) {
	n := len(first)
	if len(second) != n || len(dst) != 4*n {
		panic(fmt.Sprintf("%v: len(dst)=%d for %d particles", ErrShape, len(dst), n))
	}
	for i := 0; i < n; i++ {
		dst[2*i] = first[i].X
		dst[2*i+1] = first[i].Y
		dst[2*n+2*i] = second[i].X
		dst[2*n+2*i+1] = second[i].Y
	}
}
