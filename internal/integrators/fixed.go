package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// FixedStep advances with equal substeps no larger than MaxStep using any
// single-step method. It has no error control.
type FixedStep struct {
	sys     dynamo.System
	stepper dynamo.Stepper
	maxStep float64
	t       float64
	x       dynamo.State
}

func NewFixedStep(sys dynamo.System, stepper dynamo.Stepper, t0 float64, x0 dynamo.State, maxStep float64) (*FixedStep, error) {
	if !(maxStep > 0) || math.IsInf(maxStep, 0) {
		return nil, fmt.Errorf("%w: max_step must be positive, got %g", dynamo.ErrInvalidParams, maxStep)
	}
	if err := checkInitial(sys, x0); err != nil {
		return nil, err
	}
	return &FixedStep{sys: sys, stepper: stepper, maxStep: maxStep, t: t0, x: x0.Clone()}, nil
}

func (f *FixedStep) Time() float64       { return f.t }
func (f *FixedStep) State() dynamo.State { return f.x.Clone() }

func (f *FixedStep) Advance(target float64) (float64, dynamo.State, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return f.t, f.x.Clone(), fmt.Errorf("%w: target time %g", dynamo.ErrInvalidParams, target)
	}
	span := target - f.t
	if span == 0 {
		return f.t, f.x.Clone(), nil
	}

	steps := int(math.Ceil(math.Abs(span) / f.maxStep))
	dt := span / float64(steps)
	t0 := f.t
	x := f.x
	for i := 0; i < steps; i++ {
		x = f.stepper.Step(f.sys, t0+float64(i)*dt, x, dt)
		if !x.IsValid() {
			return f.t, f.x.Clone(), dynamo.ErrInvalidState
		}
	}

	f.t, f.x = target, x
	return f.t, f.x.Clone(), nil
}
