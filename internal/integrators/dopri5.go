package integrators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/boxsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0

	// continuous extension (Hairer's CONTD5)
	d1 = -12715105075.0 / 11282082432.0
	d3 = 87487479700.0 / 32700410799.0
	d4 = -10690763975.0 / 1880347072.0
	d5 = 701980252875.0 / 199316789632.0
	d6 = -1453857185.0 / 822651844.0
	d7 = 69997945.0 / 29380423.0
)

const uround = 2.3e-16

// Stats counts the work done by a solver since construction.
type Stats struct {
	Evaluations int
	Accepted    int
	Rejected    int
}

// DOPRI5 is an adaptive explicit Runge-Kutta 5(4) solver with FSAL and a
// 4th order continuous extension over the last accepted step.
type DOPRI5 struct {
	sys  dynamo.System
	opts Options

	safety   float64
	minScale float64
	maxScale float64
	beta     float64

	t      float64
	x      dynamo.State
	h      float64 // proposed magnitude of the next step, 0 if unknown
	dir    float64
	facOld float64

	k       [7]dynamo.State
	scratch dynamo.State
	xNew    dynamo.State

	told, hold float64
	rcont      [5]dynamo.State
	haveDense  bool

	stats Stats
}

// NewDOPRI5 prepares a solver at (t0, x0). x0 is copied.
func NewDOPRI5(sys dynamo.System, t0 float64, x0 dynamo.State, opts Options) (*DOPRI5, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkInitial(sys, x0); err != nil {
		return nil, err
	}

	n := len(x0)
	d := &DOPRI5{
		sys:      sys,
		opts:     opts,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		beta:     0.04,
		t:        t0,
		x:        x0.Clone(),
		facOld:   1e-4,
		scratch:  make(dynamo.State, n),
		xNew:     make(dynamo.State, n),
	}
	for i := range d.k {
		d.k[i] = make(dynamo.State, n)
	}
	for i := range d.rcont {
		d.rcont[i] = make(dynamo.State, n)
	}

	d.eval(d.k[0], t0, d.x)
	if !d.k[0].IsValid() {
		return nil, fmt.Errorf("derivative at t=%g: %w", t0, dynamo.ErrInvalidState)
	}
	return d, nil
}

func (d *DOPRI5) Time() float64       { return d.t }
func (d *DOPRI5) State() dynamo.State { return d.x.Clone() }
func (d *DOPRI5) Stats() Stats        { return d.stats }

func (d *DOPRI5) eval(dst dynamo.State, t float64, x dynamo.State) {
	copy(dst, d.sys.Derive(t, x))
	d.stats.Evaluations++
}

// Advance integrates to exactly target. The final step is shortened to land
// on it, so calling Advance twice with the same target is a no-op.
func (d *DOPRI5) Advance(target float64) (float64, dynamo.State, error) {
	if err := d.integrate(target, nil); err != nil {
		return d.t, d.x.Clone(), err
	}
	return d.t, d.x.Clone(), nil
}

// Sample integrates through times, which must be monotone in the direction
// of integration, and reports each one via the continuous extension.
func (d *DOPRI5) Sample(times []float64, fn func(t float64, x dynamo.State)) error {
	if len(times) == 0 {
		return nil
	}
	end := times[len(times)-1]
	dir := math.Copysign(1, end-d.t)
	prev := d.t
	for _, ts := range times {
		if (ts-prev)*dir < 0 || math.IsNaN(ts) {
			return fmt.Errorf("%w: sample times must be monotone from t=%g", dynamo.ErrInvalidParams, d.t)
		}
		prev = ts
	}

	next := 0
	for next < len(times) && times[next] == d.t {
		fn(d.t, d.x.Clone())
		next++
	}
	return d.integrate(end, func() {
		for next < len(times) && (times[next]-d.t)*dir <= 0 {
			if times[next] == d.t {
				fn(d.t, d.x.Clone())
			} else {
				fn(times[next], d.Dense(times[next]))
			}
			next++
		}
	})
}

// Dense evaluates the continuous extension of the last accepted step.
// Outside that step it extrapolates; it returns nil before the first step.
func (d *DOPRI5) Dense(t float64) dynamo.State {
	if !d.haveDense {
		return nil
	}
	theta := (t - d.told) / d.hold
	theta1 := 1 - theta
	y := make(dynamo.State, len(d.x))
	r := d.rcont
	for i := range y {
		y[i] = r[0][i] + theta*(r[1][i]+theta1*(r[2][i]+theta*(r[3][i]+theta1*r[4][i])))
	}
	return y
}

func (d *DOPRI5) integrate(target float64, onAccept func()) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("%w: target time %g", dynamo.ErrInvalidParams, target)
	}
	if target == d.t {
		return nil
	}

	dir := math.Copysign(1, target-d.t)
	if d.h == 0 || dir != d.dir {
		d.dir = dir
		if d.opts.FirstStep > 0 {
			d.h = d.opts.FirstStep
		} else {
			d.h = d.initialStep()
		}
	}

	rejected := false
	for steps := 0; ; steps++ {
		if d.opts.MaxSteps > 0 && steps >= d.opts.MaxSteps {
			return dynamo.ErrTooManySteps
		}

		proposed := math.Min(d.h, d.opts.MaxStep)
		h := proposed
		last := false
		if remaining := math.Abs(target - d.t); remaining <= math.Min(1.01*h, d.opts.MaxStep) {
			h = remaining
			last = true
		}
		if 0.1*h <= math.Abs(d.t)*uround {
			if last {
				// target is within rounding of the current time
				d.t = target
				return nil
			}
			return dynamo.ErrStepTooSmall
		}

		errNorm := d.trial(h * dir)
		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			d.h = h * d.minScale
			rejected = true
			d.stats.Rejected++
			continue
		}

		fac11 := math.Pow(errNorm, 0.2-d.beta*0.75)
		if errNorm > 1 {
			d.h = h / math.Min(1/d.minScale, fac11/d.safety)
			rejected = true
			d.stats.Rejected++
			continue
		}

		d.accept(h*dir, last, target)
		d.facOld = math.Max(errNorm, 1e-4)
		fac := fac11 / math.Pow(d.facOld, d.beta)
		fac = math.Max(1/d.maxScale, math.Min(1/d.minScale, fac/d.safety))
		hNew := h / fac
		if rejected {
			hNew = math.Min(hNew, h)
		}
		if last && h < proposed && !rejected {
			hNew = math.Max(hNew, proposed)
		}
		d.h = math.Min(hNew, d.opts.MaxStep)
		rejected = false

		if !d.k[0].IsValid() || !d.x.IsValid() {
			return dynamo.ErrInvalidState
		}
		if onAccept != nil {
			onAccept()
		}
		if last {
			return nil
		}
	}
}

// Tableau rows as weights on k1..k7. row7 yields the 5th order solution
// and rowE the embedded error estimate.
var (
	row2 = []float64{b21}
	row3 = []float64{b31, b32}
	row4 = []float64{b41, b42, b43}
	row5 = []float64{b51, b52, b53, b54}
	row6 = []float64{b61, b62, b63, b64, b65}
	row7 = []float64{c1, 0, c3, c4, c5, c6}
	rowE = []float64{dc1, 0, dc3, dc4, dc5, dc6, dc7}
)

// combine sets dst = base + h*sum(row[j]*k[j]). A nil base starts from zero.
func (d *DOPRI5) combine(dst, base dynamo.State, h float64, row []float64) {
	if base == nil {
		for i := range dst {
			dst[i] = 0
		}
	} else {
		copy(dst, base)
	}
	for j, w := range row {
		if w != 0 {
			floats.AddScaled(dst, h*w, d.k[j])
		}
	}
}

// trial computes stages 2..7 for step h from (d.t, d.x) into d.k and d.xNew
// and returns the RMS scaled error estimate.
func (d *DOPRI5) trial(h float64) float64 {
	x, t, s := d.x, d.t, d.scratch

	d.combine(s, x, h, row2)
	d.eval(d.k[1], t+a2*h, s)

	d.combine(s, x, h, row3)
	d.eval(d.k[2], t+a3*h, s)

	d.combine(s, x, h, row4)
	d.eval(d.k[3], t+a4*h, s)

	d.combine(s, x, h, row5)
	d.eval(d.k[4], t+a5*h, s)

	d.combine(s, x, h, row6)
	d.eval(d.k[5], t+h, s)

	d.combine(d.xNew, x, h, row7)
	d.eval(d.k[6], t+h, d.xNew)

	d.combine(s, nil, h, rowE)
	sum := 0.0
	for i, errEst := range s {
		sk := d.opts.Atol + d.opts.Rtol*math.Max(math.Abs(x[i]), math.Abs(d.xNew[i]))
		sum += (errEst / sk) * (errEst / sk)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func (d *DOPRI5) accept(h float64, last bool, target float64) {
	x, xNew := d.x, d.xNew
	k1, k3, k4, k5, k6, k7 := d.k[0], d.k[2], d.k[3], d.k[4], d.k[5], d.k[6]
	r := d.rcont
	for i := range x {
		ydiff := xNew[i] - x[i]
		bspl := h*k1[i] - ydiff
		r[0][i] = x[i]
		r[1][i] = ydiff
		r[2][i] = bspl
		r[3][i] = ydiff - h*k7[i] - bspl
		r[4][i] = h * (d1*k1[i] + d3*k3[i] + d4*k4[i] + d5*k5[i] + d6*k6[i] + d7*k7[i])
	}
	d.told, d.hold, d.haveDense = d.t, h, true

	copy(d.x, xNew)
	copy(d.k[0], k7)
	if last {
		d.t = target
	} else {
		d.t += h
	}
	d.stats.Accepted++
}

// initialStep is Hairer's HINIT guess for a 5th order method.
func (d *DOPRI5) initialStep() float64 {
	x, f0 := d.x, d.k[0]
	n := float64(len(x))
	dnf, dny := 0.0, 0.0
	for i := range x {
		sk := d.opts.Atol + d.opts.Rtol*math.Abs(x[i])
		dnf += (f0[i] / sk) * (f0[i] / sk)
		dny += (x[i] / sk) * (x[i] / sk)
	}
	dnf /= n
	dny /= n

	var h float64
	if dnf <= 1e-10 || dny <= 1e-10 {
		h = 1e-6
	} else {
		h = 0.01 * math.Sqrt(dny/dnf)
	}
	h = math.Min(h, d.opts.MaxStep)

	for i := range x {
		d.scratch[i] = x[i] + h*d.dir*f0[i]
	}
	f1 := d.k[1]
	d.eval(f1, d.t+h*d.dir, d.scratch)

	der2 := 0.0
	for i := range x {
		sk := d.opts.Atol + d.opts.Rtol*math.Abs(x[i])
		der2 += ((f1[i] - f0[i]) / sk) * ((f1[i] - f0[i]) / sk)
	}
	der2 = math.Sqrt(der2/n) / h

	der12 := math.Max(math.Abs(der2), math.Sqrt(dnf))
	var h1 float64
	if der12 <= 1e-15 || math.IsNaN(der12) {
		h1 = math.Max(1e-6, h*1e-3)
	} else {
		h1 = math.Pow(0.01/der12, 0.2)
	}
	return math.Min(math.Min(100*h, h1), d.opts.MaxStep)
}
