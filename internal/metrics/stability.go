package metrics

import (
	"github.com/san-kum/boxsim/internal/dynamo"
)

// Containment is the fraction of observed frames in which every particle
// centre lies inside the box walls: 0 <= x <= 1 and y >= 0. The box has no
// ceiling, so height is unbounded above.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{
		name: "containment",
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(_ float64, x dynamo.State) {
	pos, _, err := dynamo.Unpack(x)
	if err != nil {
		return
	}
	c.samples++
	for _, p := range pos {
		if p.X < 0 || p.X > 1 || p.Y < 0 {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
