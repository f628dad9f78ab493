package physics

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

// Range is a closed-open interval [Min, Max).
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) sample(u float64) float64 {
	return u*(r.Max-r.Min) + r.Min
}

// RandomParticles draws n masses then n radii uniformly from the ranges.
func RandomParticles(rng *rand.Rand, n int, radius, mass Range) []ParticleParameters {
	masses := make([]float64, n)
	for i := range masses {
		masses[i] = mass.sample(rng.Float64())
	}
	parts := make([]ParticleParameters, n)
	for i := range parts {
		parts[i] = ParticleParameters{Radius: radius.sample(rng.Float64()), Mass: masses[i]}
	}
	return parts
}

// RandomPositions places n centres uniformly in the unit square.
func RandomPositions(rng *rand.Rand, n int) []r2.Vec {
	pos := make([]r2.Vec, n)
	for i := range pos {
		pos[i] = r2.Vec{X: rng.Float64(), Y: rng.Float64()}
	}
	return pos
}
