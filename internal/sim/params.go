package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/force"
)

type Params struct {
	Threads        int
	Dim            int
	Margin         float64
	SingleBin      bool
	MaxBinsPerAxis int
	// EigenRes is the lattice resolution of the max-eigenvalue scan.
	EigenRes int

	Drag    float64
	PreDrag float64
	Mass    float64
	Step    float64
	Scale   float64
	Nudge   float64
	Wall    float64
	Contain float64
	// VertexCharge weights tractlet vertices; single points carry 1.
	VertexCharge float64

	Force        force.Model
	DriftCorrect bool
	DriftClamp   bool

	Tractlets     bool
	Threshold     float64
	Softness      float64
	TractStep     float64
	TractMaxSteps int
	Frenet        bool
	FrenetMinLen  float64

	MinMeanSpeed float64
	MinIter      int
	MaxIter      int

	NumThings int
	Seed      int64

	Logger *slog.Logger
}

func DefaultParams() Params {
	return Params{
		Threads:        1,
		Dim:            2,
		Margin:         0.1,
		MaxBinsPerAxis: 64,
		EigenRes:       17,
		Drag:           0.8,
		PreDrag:        2.0,
		Mass:           1,
		Step:           0.05,
		Scale:          0.1,
		Wall:           1,
		VertexCharge:   1,
		Force:          &force.Spring{K: 1, Pull: 0.5},
		DriftClamp:     true,
		Threshold:      0.5,
		Softness:       0.1,
		TractStep:      0.02,
		TractMaxSteps:  5,
		FrenetMinLen:   0.05,
		MinMeanSpeed:   1e-4,
		MinIter:        10,
		MaxIter:        500,
		NumThings:      200,
		Seed:           1,
	}
}

func (p *Params) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %g", core.ErrConfig, name, v)
		}
		return nil
	}
	nonNegative := func(name string, v float64) error {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be non-negative, got %g", core.ErrConfig, name, v)
		}
		return nil
	}

	if p.Threads < 1 {
		return fmt.Errorf("%w: thread count must be at least 1, got %d", core.ErrConfig, p.Threads)
	}
	if p.Dim != 2 && p.Dim != 3 {
		return fmt.Errorf("%w: dimension must be 2 or 3, got %d", core.ErrConfig, p.Dim)
	}
	if p.Force == nil {
		return fmt.Errorf("%w: no force model", core.ErrConfig)
	}
	for _, c := range []struct {
		name string
		v    float64
	}{{"mass", p.Mass}, {"step", p.Step}, {"scale", p.Scale}} {
		if err := positive(c.name, c.v); err != nil {
			return err
		}
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"margin", p.Margin}, {"drag", p.Drag}, {"pre-drag", p.PreDrag},
		{"nudge", p.Nudge}, {"wall", p.Wall}, {"contain", p.Contain},
		{"vertex charge", p.VertexCharge}, {"min mean speed", p.MinMeanSpeed},
	} {
		if err := nonNegative(c.name, c.v); err != nil {
			return err
		}
	}
	if p.MinIter < 0 || p.MaxIter < 0 || p.NumThings < 0 {
		return fmt.Errorf("%w: iteration bounds and thing count must be non-negative", core.ErrConfig)
	}
	if p.Tractlets {
		if err := positive("tractlet step", p.TractStep); err != nil {
			return err
		}
		if p.TractMaxSteps < 1 {
			return fmt.Errorf("%w: tractlet max steps must be at least 1, got %d", core.ErrConfig, p.TractMaxSteps)
		}
		if err := nonNegative("tractlet softness", p.Softness); err != nil {
			return err
		}
	}
	return nil
}

func (p *Params) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// drag returns the drag coefficient in effect at iteration iter.
func (p *Params) drag(iter int) float64 {
	if iter < p.MinIter {
		return p.PreDrag
	}
	return p.Drag
}
