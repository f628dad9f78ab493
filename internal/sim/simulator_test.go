package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
	"github.com/san-kum/boxsim/internal/physics"
	"github.com/san-kum/boxsim/internal/sim"
)

var opts = integrators.Options{MaxStep: 1e-2, Atol: 1e-8, Rtol: 1e-8}

func singleParticle(gravity float64, pos, vel r2.Vec) (*physics.Box, dynamo.State) {
	box, err := physics.NewBox(physics.ParticlesParameters{
		Particles:      []physics.ParticleParameters{{Radius: 0.05, Mass: 1}},
		GravityAccel:   gravity,
		ElasticityCoef: 100,
	})
	Expect(err).NotTo(HaveOccurred())
	x, err := dynamo.Pack([]r2.Vec{pos}, []r2.Vec{vel})
	Expect(err).NotTo(HaveOccurred())
	return box, x
}

type counter struct{ n int }

func (c *counter) OnStep(float64, dynamo.State) { c.n++ }

var _ = Describe("Simulator", func() {
	Context("with a resting particle and no gravity", func() {
		var s *sim.Simulator

		BeforeEach(func() {
			box, x0 := singleParticle(0, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
			var err error
			s, err = sim.New(box, 0, x0, opts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts ready", func() {
			Expect(s.Status()).To(Equal(sim.Ready))
			Expect(s.Time()).To(Equal(0.0))
		})

		It("keeps the particle in place", func() {
			t, pos, err := s.Frame(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(10.0))
			Expect(pos).To(Equal([]r2.Vec{{X: 0.5, Y: 0.5}}))
		})

		It("rejects a non-finite target and stays ready", func() {
			for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				_, _, err := s.Advance(target)
				Expect(err).To(MatchError(dynamo.ErrInvalidParams))
				Expect(s.Status()).To(Equal(sim.Ready))
				Expect(s.Err()).To(BeNil())
			}
			t, _, err := s.Frame(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(1.0))
		})

		It("rejects non-finite sample times and stays ready", func() {
			err := s.Sample([]float64{0.1, math.NaN()}, func(float64, dynamo.State) {})
			Expect(err).To(MatchError(dynamo.ErrInvalidParams))
			Expect(s.Status()).To(Equal(sim.Ready))
			Expect(s.Time()).To(Equal(0.0))
		})

		It("returns the same state when advanced to the current time", func() {
			_, x1, err := s.Advance(0.3)
			Expect(err).NotTo(HaveOccurred())
			t2, x2, err := s.Advance(0.3)
			Expect(err).NotTo(HaveOccurred())
			Expect(t2).To(Equal(0.3))
			Expect(x2).To(Equal(x1))
		})

		It("hands out copies", func() {
			_, x, err := s.Advance(0.1)
			Expect(err).NotTo(HaveOccurred())
			x[0] = -1
			Expect(s.State()[0]).To(Equal(0.5))
		})

		It("notifies observers on every advance", func() {
			c := &counter{}
			s.AddObserver(c)
			for _, target := range []float64{0.1, 0.2, 0.3} {
				_, _, err := s.Advance(target)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(c.n).To(Equal(3))
		})
	})

	Context("with a falling particle", func() {
		It("follows free fall before touching the floor", func() {
			box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.9}, r2.Vec{})
			s, err := sim.New(box, 0, x0, opts)
			Expect(err).NotTo(HaveOccurred())

			_, pos, err := s.Frame(0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(pos[0].X).To(BeNumerically("~", 0.5, 1e-12))
			Expect(pos[0].Y).To(BeNumerically("~", 0.9-0.125, 1e-9))
		})

		It("bounces off the floor and stays in the box", func() {
			box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
			s, err := sim.New(box, 0, x0, opts)
			Expect(err).NotTo(HaveOccurred())

			res, err := sim.Run(context.Background(), s, sim.FrameTimes(0, 30, 90))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.States).To(HaveLen(90))
			minY := math.Inf(1)
			for _, x := range res.States {
				minY = math.Min(minY, x[1])
			}
			Expect(minY).To(BeNumerically(">", 0))
			Expect(minY).To(BeNumerically("<", 0.05))
		})
	})

	Context("when the solver fails", func() {
		var s *sim.Simulator

		BeforeEach(func() {
			blowUp := dynamo.SystemFunc{Dim: 4, Fn: func(t float64, x dynamo.State) dynamo.State {
				return dynamo.State{x[0] * x[0], 0, 0, 0}
			}}
			var err error
			s, err = sim.New(blowUp, 0, dynamo.State{1, 0, 0, 0}, opts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports a simulation error and becomes failed", func() {
			_, _, err := s.Advance(2)
			Expect(err).To(HaveOccurred())
			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Target).To(Equal(2.0))
			Expect(s.Status()).To(Equal(sim.Failed))
			Expect(s.Err()).To(Equal(err))
		})

		It("fails while sampling past the blow-up", func() {
			var seen []float64
			err := s.Sample([]float64{0, 0.5, 2}, func(t float64, _ dynamo.State) {
				seen = append(seen, t)
			})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, dynamo.ErrStepTooSmall) || errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
			Expect(seen).To(Equal([]float64{0, 0.5}))
			Expect(s.Status()).To(Equal(sim.Failed))
		})

		It("refuses every later call", func() {
			_, _, err := s.Advance(2)
			Expect(err).To(HaveOccurred())

			_, _, err = s.Advance(0)
			Expect(err).To(MatchError(dynamo.ErrFailed))
			_, _, err = s.Frame(0.1)
			Expect(err).To(MatchError(dynamo.ErrFailed))
		})
	})

	Describe("construction", func() {
		It("rejects a state of the wrong length", func() {
			box, _ := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
			_, err := sim.New(box, 0, dynamo.State{0.5, 0.5}, opts)
			Expect(err).To(MatchError(dynamo.ErrShape))
		})

		It("rejects bad solver options", func() {
			box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
			_, err := sim.New(box, 0, x0, integrators.Options{})
			Expect(err).To(MatchError(dynamo.ErrInvalidParams))
		})

		It("accepts a fixed-step solver", func() {
			box, x0 := singleParticle(0, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{X: 0.1})
			solver, err := integrators.NewFixedStep(box, integrators.NewRK4(), 0, x0, 1e-2)
			Expect(err).NotTo(HaveOccurred())
			s, err := sim.NewWithSolver(box, solver)
			Expect(err).NotTo(HaveOccurred())

			_, pos, err := s.Frame(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(pos[0].X).To(BeNumerically("~", 0.6, 1e-12))
		})
	})
})
