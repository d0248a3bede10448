// Package probe adapts the field sampler and fiber integrator to the
// engine's point model. Each worker owns one Prober; none of its methods
// are safe for concurrent use.
package probe

import (
	"fmt"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/field"
	"github.com/san-kum/tenpush/internal/integrators"
	"github.com/san-kum/tenpush/internal/thing"
)

type Prober struct {
	field field.Field
	fiber *integrators.Fiber
}

// New wraps f and, when tractlets are in use, fib. fib may be nil.
func New(f field.Field, fib *integrators.Fiber) *Prober {
	return &Prober{field: f, fiber: fib}
}

// Clone returns a prober with private field and fiber handles.
func (p *Prober) Clone() *Prober {
	c := &Prober{field: p.field.Clone()}
	if p.fiber != nil {
		c.fiber = p.fiber.Clone()
	}
	return c
}

func (p *Prober) Dim() int { return p.field.Dim() }

func (p *Prober) CanTract() bool { return p.fiber != nil }

// Probe samples the field at pt.Pos and stores the tensor, its inverse,
// the containment gradient and the derived anisotropy in pt.
func (p *Prober) Probe(pt *thing.Point) error {
	ten, inv, cnt := p.field.Sample(pt.Pos)
	e, err := field.Decompose(ten, p.field.Dim())
	if err != nil {
		return fmt.Errorf("probe at %v: %w", pt.Pos, err)
	}
	pt.Ten, pt.Inv, pt.Cnt = ten, inv, cnt
	pt.Aniso = field.Anisotropy(e)
	return nil
}

// Tract traces a fiber from seed. It panics if the prober has no fiber
// integrator; check CanTract first.
func (p *Prober) Tract(seed core.Vec3, maxSteps int) integrators.Trace {
	return p.fiber.Integrate(seed, maxSteps)
}
