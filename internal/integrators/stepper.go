package integrators

import (
	"fmt"

	"github.com/san-kum/tenpush/internal/core"
)

// Direction returns the unit direction to follow at x, sign-aligned with
// prev, or a non-zero StopReason when tracing cannot continue there.
type Direction func(x, prev core.Vec3) (core.Vec3, StopReason)

// Stepper advances a point one step of length h along a direction field.
// It returns the new position and the direction taken at the start.
type Stepper interface {
	Step(dir Direction, x, prev core.Vec3, h float64) (next, taken core.Vec3, stop StopReason)
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dir Direction, x, prev core.Vec3, h float64) (core.Vec3, core.Vec3, StopReason) {
	d, stop := dir(x, prev)
	if stop != StopNone {
		return x, prev, stop
	}
	return x.Add(d.Scale(h)), d, StopNone
}

type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(dir Direction, x, prev core.Vec3, h float64) (core.Vec3, core.Vec3, StopReason) {
	k1, stop := dir(x, prev)
	if stop != StopNone {
		return x, prev, stop
	}
	k2, stop := dir(x.Add(k1.Scale(h*0.5)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k3, stop := dir(x.Add(k2.Scale(h*0.5)), k1)
	if stop != StopNone {
		return x, prev, stop
	}
	k4, stop := dir(x.Add(k3.Scale(h)), k1)
	if stop != StopNone {
		return x, prev, stop
	}

	h6 := h / 6.0
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return x.Add(sum.Scale(h6)), k1, StopNone
}

// NewStepper returns the stepper registered under name.
func NewStepper(name string) (Stepper, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "", "rk4":
		return NewRK4(), nil
	case "rk45":
		return NewRK45(), nil
	default:
		return nil, fmt.Errorf("%w: unknown fiber integrator %q", core.ErrConfig, name)
	}
}
