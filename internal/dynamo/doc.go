// Package dynamo provides core simulation primitives for particle systems.
//
// The package defines the fundamental interfaces and types shared by the
// dynamics model, the solvers and the simulation clock:
//
//   - [State]: flat vector of positions followed by velocities
//   - [System]: interface for ODE systems (dX/dt = f(t, X))
//   - [Solver]: integrator that owns a (time, state) pair
//   - [Pack] / [Unpack]: state codec between flat vectors and r2 blocks
//
// # Example
//
//	box, _ := physics.NewBox(params)
//	x0, _ := dynamo.Pack(positions, velocities)
//	s, _ := sim.New(box, 0, x0, integrators.Options{MaxStep: 1e-2, Atol: 1e-5, Rtol: 1e-5})
//	t, x, err := s.Advance(1.0 / 30)
//
// # Thread Safety
//
// Solvers are NOT thread-safe. For parallel parameter sweeps build one
// system and one solver per goroutine.
package dynamo
