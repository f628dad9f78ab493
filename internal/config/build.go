package config

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/physics"
)

// Parameters returns the validated physical parameters. Random particles are
// drawn from a generator seeded with Seed, so the same config always yields
// the same particles.
func (c *Config) Parameters() (physics.ParticlesParameters, error) {
	par, _ := c.build()
	return par, par.Validate()
}

// Build returns the physical parameters and the packed initial state.
func (c *Config) Build() (physics.ParticlesParameters, dynamo.State, error) {
	par, x0 := c.build()
	if err := par.Validate(); err != nil {
		return par, nil, err
	}
	return par, x0, nil
}

func (c *Config) build() (physics.ParticlesParameters, dynamo.State) {
	par := physics.ParticlesParameters{
		GravityAccel:   c.Gravity,
		ElasticityCoef: c.Elasticity,
	}

	var pos, vel []r2.Vec
	if len(c.Bodies) > 0 {
		for _, b := range c.Bodies {
			par.Particles = append(par.Particles, physics.ParticleParameters{Radius: b.Radius, Mass: b.Mass})
			pos = append(pos, r2.Vec{X: b.X, Y: b.Y})
			vel = append(vel, r2.Vec{X: b.VX, Y: b.VY})
		}
	} else if c.Particles.Count > 0 {
		rng := rand.New(rand.NewSource(c.Seed))
		par.Particles = physics.RandomParticles(rng, c.Particles.Count,
			physics.Range{Min: c.Particles.Radius[0], Max: c.Particles.Radius[1]},
			physics.Range{Min: c.Particles.Mass[0], Max: c.Particles.Mass[1]})
		pos = physics.RandomPositions(rng, c.Particles.Count)
		vel = make([]r2.Vec, c.Particles.Count)
	}

	x0, err := dynamo.Pack(pos, vel)
	if err != nil {
		return par, nil
	}
	return par, x0
}
