package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// ParticleParameters describes one circular particle.
type ParticleParameters struct {
	Radius float64 `yaml:"radius" json:"radius"`
	Mass   float64 `yaml:"mass" json:"mass"`
}

// ParticlesParameters is the full physical configuration. The order of
// Particles is the stable particle index used in every state vector.
type ParticlesParameters struct {
	Particles      []ParticleParameters `yaml:"particles" json:"particles"`
	GravityAccel   float64              `yaml:"gravity" json:"gravity"`
	ElasticityCoef float64              `yaml:"elasticity" json:"elasticity"`
}

func (p ParticlesParameters) Validate() error {
	if len(p.Particles) == 0 {
		return fmt.Errorf("%w: no particles", dynamo.ErrInvalidParams)
	}
	for i, part := range p.Particles {
		if !(part.Radius > 0) || math.IsInf(part.Radius, 0) {
			return fmt.Errorf("%w: particle %d radius %g", dynamo.ErrInvalidParams, i, part.Radius)
		}
		if !(part.Mass > 0) || math.IsInf(part.Mass, 0) {
			return fmt.Errorf("%w: particle %d mass %g", dynamo.ErrInvalidParams, i, part.Mass)
		}
	}
	if math.IsNaN(p.GravityAccel) || math.IsInf(p.GravityAccel, 0) {
		return fmt.Errorf("%w: gravity %g", dynamo.ErrInvalidParams, p.GravityAccel)
	}
	if !(p.ElasticityCoef >= 0) || math.IsInf(p.ElasticityCoef, 0) {
		return fmt.Errorf("%w: elasticity %g", dynamo.ErrInvalidParams, p.ElasticityCoef)
	}
	return nil
}

// Radii returns the particle radii in index order.
func (p ParticlesParameters) Radii() []float64 {
	r := make([]float64, len(p.Particles))
	for i, part := range p.Particles {
		r[i] = part.Radius
	}
	return r
}
