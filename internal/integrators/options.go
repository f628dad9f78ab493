package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// Options tunes a solver. MaxStep, Atol and Rtol are required.
type Options struct {
	MaxStep float64 `yaml:"max_step" json:"max_step"`
	Atol    float64 `yaml:"atol" json:"atol"`
	Rtol    float64 `yaml:"rtol" json:"rtol"`
	// FirstStep overrides the automatic initial step guess when > 0.
	FirstStep float64 `yaml:"first_step,omitempty" json:"first_step,omitempty"`
	// MaxSteps bounds the internal steps of one Advance call; 0 is unbounded.
	MaxSteps int `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`
}

func (o Options) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"max_step", o.MaxStep}, {"atol", o.Atol}, {"rtol", o.Rtol}} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", dynamo.ErrInvalidParams, f.name, f.v)
		}
	}
	if o.FirstStep < 0 || o.MaxSteps < 0 {
		return fmt.Errorf("%w: first_step and max_steps must not be negative", dynamo.ErrInvalidParams)
	}
	return nil
}

func checkInitial(sys dynamo.System, x0 dynamo.State) error {
	if len(x0) != sys.StateDim() {
		return fmt.Errorf("%w: state has %d entries, system expects %d", dynamo.ErrShape, len(x0), sys.StateDim())
	}
	if !x0.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}
