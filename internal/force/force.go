// Package force provides the pairwise force laws used between points.
//
// A [Model] maps the distance two points actually have to the distance they
// should rest at, returning a signed magnitude: positive attracts, negative
// repels. Each model also reports the largest separation at which it can be
// nonzero, which sizes the spatial grid.
//
//   - [Spring]: linear repulsion, smoothstep-shaped attraction up to a pull range
//   - [Gauss]: derivative of a Gaussian bump, cut off at a multiple of sigma
//   - [Charge]: inverse-square repulsion inside a cutoff
//   - [Cotan]: cotangent-squared repulsion that vanishes at the rest distance
package force

import (
	"math"
)

const sqrt3 = 1.7320508075688772

type Model interface {
	Name() string
	Magnitude(haveDist, restDist, scale float64) float64
	MaxDistance(scale, maxEval float64) float64
	Params() []float64
}

type Spring struct {
	K    float64
	Pull float64
}

func (s *Spring) Name() string      { return "spring" }
func (s *Spring) Params() []float64 { return []float64{s.K, s.Pull} }

func (s *Spring) Magnitude(haveDist, restDist, scale float64) float64 {
	diff := haveDist - restDist
	pull := s.Pull * scale
	switch {
	case diff > pull:
		return 0
	case diff > 0:
		x := diff / pull
		return s.K * diff * (x*x - 2*x + 1)
	default:
		return s.K * diff
	}
}

func (s *Spring) MaxDistance(scale, maxEval float64) float64 {
	return 2 * scale * maxEval * (1 + s.Pull)
}

// Gauss signs its magnitude like every model here: positive attracts,
// negative repels.
type Gauss struct {
	Cut float64
}

func (g *Gauss) Name() string      { return "gauss" }
func (g *Gauss) Params() []float64 { return []float64{g.Cut} }

// Magnitude is the derivative of a zero-mean Gaussian with sigma = rest/sqrt(3),
// which is negative (repulsive) for every positive distance.
func (g *Gauss) Magnitude(haveDist, restDist, scale float64) float64 {
	sig := restDist / sqrt3
	if haveDist > g.Cut*sig {
		return 0
	}
	gauss := math.Exp(-haveDist*haveDist/(2*sig*sig)) / (sig * math.Sqrt(2*math.Pi))
	return -haveDist / (sig * sig) * gauss
}

func (g *Gauss) MaxDistance(scale, maxEval float64) float64 {
	return (2 * scale * maxEval / sqrt3) * g.Cut
}

type Charge struct {
	Strength float64
	Cut      float64
}

func (c *Charge) Name() string      { return "charge" }
func (c *Charge) Params() []float64 { return []float64{c.Strength, c.Cut} }

func (c *Charge) Magnitude(haveDist, restDist, scale float64) float64 {
	x := haveDist / restDist
	if x > c.Cut {
		return 0
	}
	return -c.Strength / (x * x)
}

func (c *Charge) MaxDistance(scale, maxEval float64) float64 {
	return 2 * scale * maxEval * c.Cut
}

type Cotan struct {
	Strength float64
}

func (c *Cotan) Name() string      { return "cotan" }
func (c *Cotan) Params() []float64 { return []float64{c.Strength} }

func (c *Cotan) Magnitude(haveDist, restDist, scale float64) float64 {
	x := haveDist / restDist
	if x > 1 {
		return 0
	}
	s := math.Sin(x * math.Pi / 2)
	return c.Strength * (1 - 1/(s*s))
}

func (c *Cotan) MaxDistance(scale, maxEval float64) float64 {
	return 2 * scale * maxEval
}
