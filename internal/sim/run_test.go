package sim_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
	"github.com/san-kum/boxsim/internal/sim"
)

type lastTime struct{ t float64 }

func (m *lastTime) Name() string                      { return "last_time" }
func (m *lastTime) Observe(t float64, _ dynamo.State) { m.t = t }
func (m *lastTime) Value() float64                    { return m.t }
func (m *lastTime) Reset()                            { m.t = -1 }

var _ = Describe("Run", func() {
	It("samples every frame time", func() {
		box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
		s, err := sim.New(box, 0, x0, opts)
		Expect(err).NotTo(HaveOccurred())
		s.AddMetric(&lastTime{})

		times := sim.FrameTimes(0, 10, 5)
		Expect(times).To(Equal([]float64{0, 0.1, 0.2, 0.3, 0.4}))

		res, err := sim.Run(context.Background(), s, times)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Times).To(Equal(times))
		Expect(res.States).To(HaveLen(5))
		Expect(res.States[0]).To(Equal(x0))
		Expect(res.Metrics).To(HaveKeyWithValue("last_time", 0.4))
	})

	It("stops on a cancelled context", func() {
		box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
		s, err := sim.New(box, 0, x0, opts)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := sim.Run(ctx, s, sim.FrameTimes(0, 10, 5))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(res.States).To(BeEmpty())
		Expect(s.Status()).To(Equal(sim.Ready))
	})
})

var _ = Describe("RunDense", func() {
	It("interpolates free fall between solver steps", func() {
		box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
		s, err := sim.New(box, 0, x0, opts)
		Expect(err).NotTo(HaveOccurred())
		s.AddMetric(&lastTime{})

		times := sim.FrameTimes(0, 10, 6)
		res, err := sim.RunDense(context.Background(), s, times)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Times).To(Equal(times))
		Expect(res.States[0]).To(Equal(x0))
		for i, t := range times {
			Expect(res.States[i][1]).To(BeNumerically("~", 0.5-t*t/2, 1e-6))
			Expect(res.States[i][3]).To(BeNumerically("~", -t, 1e-6))
		}
		Expect(res.Metrics).To(HaveKeyWithValue("last_time", 0.5))
		Expect(s.Time()).To(Equal(0.5))

		Expect(res.Stats).NotTo(BeNil())
		Expect(res.Stats.Accepted).To(BeNumerically(">", 0))
		Expect(res.Stats.Evaluations).To(BeNumerically(">=", 6*res.Stats.Accepted))
	})

	It("falls back to stepping for solvers without dense output", func() {
		box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
		solver, err := integrators.NewFixedStep(box, integrators.NewRK4(), 0, x0, 0.01)
		Expect(err).NotTo(HaveOccurred())
		s, err := sim.NewWithSolver(box, solver)
		Expect(err).NotTo(HaveOccurred())

		times := sim.FrameTimes(0, 10, 6)
		res, err := sim.RunDense(context.Background(), s, times)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Times).To(Equal(times))
		Expect(res.Stats).To(BeNil())
	})

	It("stops on a cancelled context", func() {
		box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{})
		s, err := sim.New(box, 0, x0, opts)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := sim.RunDense(ctx, s, sim.FrameTimes(0, 10, 5))
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(res.States).To(BeEmpty())
	})
})

var _ = Describe("Sweep", func() {
	It("runs independent jobs", func() {
		var jobs []sim.Job
		for i, y := range []float64{0.3, 0.6, 0.9} {
			jobs = append(jobs, sim.Job{
				Name: fmt.Sprintf("drop-%d", i),
				Build: func() (*sim.Simulator, error) {
					box, x0 := singleParticle(1, r2.Vec{X: 0.5, Y: y}, r2.Vec{})
					return sim.New(box, 0, x0, opts)
				},
				Times: sim.FrameTimes(0, 10, 3),
			})
		}

		results, err := sim.Sweep(context.Background(), jobs, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for i, y := range []float64{0.3, 0.6, 0.9} {
			Expect(results[i].States[0][1]).To(Equal(y))
		}
	})

	It("reports the failing job", func() {
		jobs := []sim.Job{{
			Name:  "broken",
			Build: func() (*sim.Simulator, error) { return nil, dynamo.ErrInvalidParams },
		}}
		_, err := sim.Sweep(context.Background(), jobs, 0)
		Expect(err).To(MatchError(dynamo.ErrInvalidParams))
		Expect(err.Error()).To(ContainSubstring(`"broken"`))
	})
})
