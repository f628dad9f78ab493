// Package physics provides the particles-in-a-box dynamics model.
//
// [Box] implements [dynamo.System]: gravity plus penalty (soft) collision
// forces between overlapping circles and against the left, right and floor
// walls of the unit box. The top of the box is open.
//
// Forces grow with interpenetration depth instead of resolving impulses,
// which keeps the right-hand side continuous for adaptive solvers:
//
//	box, err := physics.NewBox(physics.ParticlesParameters{
//	    Particles:      physics.RandomParticles(rng, 15, physics.Range{Min: 0.01, Max: 0.05}, physics.Range{Min: 0.001, Max: 0.01}),
//	    GravityAccel:   1,
//	    ElasticityCoef: 4,
//	})
//
// Box also implements [dynamo.Hamiltonian]; the penalty forces are
// conservative so total energy is a useful drift diagnostic.
package physics
