package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// Energy returns kinetic + gravitational + penalty potential energy.
func (b *Box) Energy(x dynamo.State) float64 {
	pos, vel, err := dynamo.Unpack(x)
	if err != nil || len(pos) != b.N {
		return math.NaN()
	}

	ke, pe := 0.0, 0.0
	for i := 0; i < b.N; i++ {
		ke += 0.5 * b.Masses[i] * r2.Norm2(vel[i])
		pe += b.Masses[i] * b.Gravity * pos[i].Y

		for j := i + 1; j < b.N; j++ {
			rsum := b.Radii[i] + b.Radii[j]
			if d := rsum - r2.Norm(r2.Sub(pos[i], pos[j])); d > 0 {
				pe += b.penaltyPotential(d, rsum)
			}
		}

		r := b.Radii[i]
		for _, d := range [3]float64{pos[i].X - r, 1 - pos[i].X - r, pos[i].Y - r} {
			if d < 0 {
				pe += b.penaltyPotential(-d, r)
			}
		}
	}
	return ke + pe
}

// penaltyPotential integrates k*s/(r-s) from 0 to depth. Past r-eps the
// force is linear in depth, so the potential continues quadratically.
func (b *Box) penaltyPotential(depth, r float64) float64 {
	k := b.Elasticity
	d0 := r - b.Eps
	if depth <= d0 {
		return k * (r*math.Log(r/(r-depth)) - depth)
	}
	u0 := k * (r*math.Log(r/b.Eps) - d0)
	return u0 + k/(2*b.Eps)*(depth*depth-d0*d0)
}

// Momentum returns the total linear momentum.
func (b *Box) Momentum(x dynamo.State) r2.Vec {
	_, vel, err := dynamo.Unpack(x)
	if err != nil || len(vel) != b.N {
		return r2.Vec{X: math.NaN(), Y: math.NaN()}
	}
	var p r2.Vec
	for i, v := range vel {
		p = r2.Add(p, r2.Scale(b.Masses[i], v))
	}
	return p
}

// MaxOverlap returns the deepest pair interpenetration or wall penetration.
func (b *Box) MaxOverlap(positions []r2.Vec) float64 {
	worst := 0.0
	for i := 0; i < b.N && i < len(positions); i++ {
		r := b.Radii[i]
		for j := i + 1; j < b.N && j < len(positions); j++ {
			d := b.Radii[i] + b.Radii[j] - r2.Norm(r2.Sub(positions[i], positions[j]))
			worst = math.Max(worst, d)
		}
		p := positions[i]
		worst = math.Max(worst, r-p.X)
		worst = math.Max(worst, p.X+r-1)
		worst = math.Max(worst, r-p.Y)
	}
	return worst
}
