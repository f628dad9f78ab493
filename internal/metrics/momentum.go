package metrics

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/physics"
)

// Momentum reports the largest magnitude of total linear momentum seen.
type Momentum struct {
	name string
	box  *physics.Box
	max  float64
}

func NewMomentum(box *physics.Box) *Momentum {
	return &Momentum{name: "max_momentum", box: box}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(_ float64, x dynamo.State) {
	m.max = max(m.max, r2.Norm(m.box.Momentum(x)))
}

func (m *Momentum) Value() float64 { return m.max }
func (m *Momentum) Reset()         { m.max = 0 }

// Overlap reports the deepest interpenetration between two particles or a
// particle and a wall seen in any frame.
type Overlap struct {
	name string
	box  *physics.Box
	max  float64
}

func NewOverlap(box *physics.Box) *Overlap {
	return &Overlap{name: "max_overlap", box: box}
}

func (o *Overlap) Name() string { return o.name }

func (o *Overlap) Observe(_ float64, x dynamo.State) {
	pos, _, err := dynamo.Unpack(x)
	if err != nil {
		return
	}
	o.max = max(o.max, o.box.MaxOverlap(pos))
}

func (o *Overlap) Value() float64 { return o.max }
func (o *Overlap) Reset()         { o.max = 0 }

// Standard returns the metrics recorded for every box run.
func Standard(box *physics.Box) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(box),
		NewEnergyDrift(box),
		NewMomentum(box),
		NewOverlap(box),
		NewContainment(),
	}
}
