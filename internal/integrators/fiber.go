// Package integrators traces fibers: short polylines that follow the
// principal eigenvector of a tensor field in both directions from a seed.
package integrators

import (
	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/field"
)

type StopReason int

const (
	StopNone StopReason = iota
	StopSteps
	StopBounds
	StopAniso
	StopConfidence
	StopDegenerate
)

func (s StopReason) String() string {
	switch s {
	case StopNone:
		return "none"
	case StopSteps:
		return "steps"
	case StopBounds:
		return "bounds"
	case StopAniso:
		return "aniso"
	case StopConfidence:
		return "confidence"
	case StopDegenerate:
		return "degenerate"
	}
	return "unknown"
}

type Trace struct {
	Verts []core.Vec3
	Seed  int
	// Stop is the reason the shorter of the two halves ended.
	Stop StopReason
}

// Fiber traces polylines through one field handle. It keeps scratch
// buffers and is not safe for concurrent use; Clone gives each worker its
// own.
type Fiber struct {
	field    field.Field
	stepper  Stepper
	step     float64
	minAniso float64

	fwd, back []core.Vec3
}

// NewFiber traces with a fixed step length, stopping wherever the field's
// anisotropy drops below minAniso.
func NewFiber(f field.Field, stepper Stepper, step, minAniso float64) *Fiber {
	return &Fiber{
		field:    f,
		stepper:  stepper,
		step:     step,
		minAniso: minAniso,
	}
}

func (f *Fiber) Clone() *Fiber {
	return NewFiber(f.field.Clone(), f.stepper, f.step, f.minAniso)
}

func (f *Fiber) Step() float64 { return f.step }

func (f *Fiber) direction(x, prev core.Vec3) (core.Vec3, StopReason) {
	dim := f.field.Dim()
	ten, _, _ := f.field.Sample(x)
	if ten.Conf() < 0.5 {
		return core.Vec3{}, StopConfidence
	}
	e, err := field.Decompose(ten, dim)
	if err != nil {
		return core.Vec3{}, StopDegenerate
	}
	if field.Anisotropy(e) < f.minAniso {
		return core.Vec3{}, StopAniso
	}
	d := e.Vecs[0].Flatten(dim).Normalize()
	if d == (core.Vec3{}) {
		return d, StopDegenerate
	}
	if d.Dot(prev) < 0 {
		d = d.Scale(-1)
	}
	return d, StopNone
}

func (f *Fiber) half(buf []core.Vec3, seed, start core.Vec3, maxSteps int) ([]core.Vec3, StopReason) {
	dim := f.field.Dim()
	buf = buf[:0]
	x, prev := seed, start
	for i := 0; i < maxSteps; i++ {
		next, taken, stop := f.stepper.Step(f.direction, x, prev, f.step)
		if stop != StopNone {
			return buf, stop
		}
		next = next.Flatten(dim)
		if field.Containment(next, dim) != (core.Vec3{}) {
			return buf, StopBounds
		}
		buf = append(buf, next)
		x, prev = next, taken
	}
	return buf, StopSteps
}

// Integrate traces up to maxSteps in each direction from seed. When no
// direction can be found at the seed itself the trace holds only the seed.
func (f *Fiber) Integrate(seed core.Vec3, maxSteps int) Trace {
	d0, stop := f.direction(seed, core.Vec3{})
	if stop != StopNone {
		return Trace{Verts: []core.Vec3{seed}, Stop: stop}
	}

	var fstop, bstop StopReason
	f.fwd, fstop = f.half(f.fwd, seed, d0, maxSteps)
	f.back, bstop = f.half(f.back, seed, d0.Scale(-1), maxSteps)

	verts := make([]core.Vec3, 0, len(f.back)+1+len(f.fwd))
	for i := len(f.back) - 1; i >= 0; i-- {
		verts = append(verts, f.back[i])
	}
	verts = append(verts, seed)
	verts = append(verts, f.fwd...)

	reason := fstop
	if len(f.back) < len(f.fwd) {
		reason = bstop
	}
	return Trace{Verts: verts, Seed: len(f.back), Stop: reason}
}
