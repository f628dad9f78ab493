package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// DefaultEps guards divisions by near-zero separations and wall depths.
const DefaultEps = 1e-8

// Box is the dynamics of N circles in the unit box [0,1]x[0,inf).
type Box struct {
	N          int
	Masses     []float64
	Radii      []float64
	Gravity    float64
	Elasticity float64
	Eps        float64
	// BroadPhase selects pair candidates from a k-d tree of centres instead
	// of testing all N(N-1)/2 pairs.
	BroadPhase bool

	up       r2.Vec
	maxR     float64
	pos, vel []r2.Vec
	forces   []r2.Vec
}

// NewBox validates par and caches per-particle arrays.
func NewBox(par ParticlesParameters) (*Box, error) {
	if err := par.Validate(); err != nil {
		return nil, err
	}
	n := len(par.Particles)
	b := &Box{
		N:          n,
		Masses:     make([]float64, n),
		Radii:      make([]float64, n),
		Gravity:    par.GravityAccel,
		Elasticity: par.ElasticityCoef,
		Eps:        DefaultEps,
		up:         r2.Vec{X: 0, Y: 1},
		pos:        make([]r2.Vec, n),
		vel:        make([]r2.Vec, n),
		forces:     make([]r2.Vec, n),
	}
	for i, part := range par.Particles {
		b.Masses[i] = part.Mass
		b.Radii[i] = part.Radius
		b.maxR = math.Max(b.maxR, part.Radius)
	}
	return b, nil
}

func (b *Box) StateDim() int { return b.N * 4 }

// ComputeForces returns the total force on every particle.
func (b *Box) ComputeForces(positions []r2.Vec) []r2.Vec {
	forces := make([]r2.Vec, b.N)
	b.computeForcesInto(forces, positions)
	return forces
}

func (b *Box) computeForcesInto(forces, positions []r2.Vec) {
	for i := range forces {
		forces[i] = r2.Vec{}
	}

	var nb *neighbours
	if b.BroadPhase {
		nb = newNeighbours(positions, 2*b.maxR)
	}

	for i := 0; i < b.N; i++ {
		forces[i] = r2.Sub(forces[i], r2.Scale(b.Masses[i]*b.Gravity, b.up))

		if nb != nil {
			for _, j := range nb.candidates(i, positions[i]) {
				b.addPairForce(forces, positions, i, j)
			}
		} else {
			for j := i + 1; j < b.N; j++ {
				b.addPairForce(forces, positions, i, j)
			}
		}

		b.addWallForces(forces, positions, i)
	}
}

func (b *Box) addPairForce(forces, positions []r2.Vec, i, j int) {
	sep := r2.Sub(positions[i], positions[j])
	dist := r2.Norm(sep)
	rsum := b.Radii[i] + b.Radii[j]
	overlap := dist - rsum
	if overlap >= 0 {
		return
	}
	d := -overlap
	mag := b.Elasticity * d / (rsum - d)
	f := r2.Scale(mag/(dist+b.Eps), sep)
	forces[i] = r2.Add(forces[i], f)
	forces[j] = r2.Sub(forces[j], f)
}

func (b *Box) addWallForces(forces, positions []r2.Vec, i int) {
	r := b.Radii[i]
	p := positions[i]

	// left wall
	if d := p.X - r; d < 0 {
		forces[i].X += b.wallMagnitude(-d, r)
	}
	// right wall
	if d := 1 - p.X - r; d < 0 {
		forces[i].X -= b.wallMagnitude(-d, r)
	}
	// floor
	if d := p.Y - r; d < 0 {
		forces[i].Y += b.wallMagnitude(-d, r)
	}
}

func (b *Box) wallMagnitude(depth, r float64) float64 {
	return b.Elasticity * depth / math.Max(r-depth, b.Eps)
}

// Derive returns (velocities, forces/mass) packed. t is unused.
func (b *Box) Derive(_ float64, x dynamo.State) dynamo.State {
	dynamo.UnpackInto(x, b.pos, b.vel)
	b.computeForcesInto(b.forces, b.pos)
	for i, f := range b.forces {
		b.forces[i] = r2.Vec{X: f.X / b.Masses[i], Y: f.Y / b.Masses[i]}
	}
	dx := make(dynamo.State, len(x))
	dynamo.PackInto(dx, b.vel, b.forces)
	return dx
}
