package integrators

import "github.com/san-kum/tenpush/internal/core"

// Dormand-Prince coefficients (RK45)
var (
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
)

// RK45 takes the fifth-order Dormand-Prince step. Fibers are traced with a
// fixed arc step, so the embedded error estimate is not used.
type RK45 struct{}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Step(dir Direction, x, prev core.Vec3, h float64) (core.Vec3, core.Vec3, StopReason) {
	k1, stop := dir(x, prev)
	if stop != StopNone {
		return x, prev, stop
	}

	at := func(terms ...core.Vec3) core.Vec3 {
		var sum core.Vec3
		for _, t := range terms {
			sum = sum.Add(t)
		}
		return x.Add(sum.Scale(h))
	}

	k2, stop := dir(at(k1.Scale(b21)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k3, stop := dir(at(k1.Scale(b31), k2.Scale(b32)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k4, stop := dir(at(k1.Scale(b41), k2.Scale(b42), k3.Scale(b43)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k5, stop := dir(at(k1.Scale(b51), k2.Scale(b52), k3.Scale(b53), k4.Scale(b54)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k6, stop := dir(at(k1.Scale(b61), k2.Scale(b62), k3.Scale(b63), k4.Scale(b64), k5.Scale(b65)), k1)
	if stop != StopNone {
		return x, prev, stop
	}

	return at(k1.Scale(c1), k3.Scale(c3), k4.Scale(c4), k5.Scale(c5), k6.Scale(c6)), k1, StopNone
}
