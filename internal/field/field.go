// Package field provides tensor field samplers and the eigen analysis the
// engine needs from them.
//
// A [Field] answers point queries with the tensor, its inverse and a
// containment gradient. Implementations are not required to be safe for
// concurrent use; each worker takes its own handle through Clone.
//
// Three reference fields are provided:
//
//   - [Uniform]: the same tensor everywhere
//   - [Circle]: principal direction tangent to circles around the z axis,
//     anisotropy rising with radius
//   - [Noise]: principal direction and anisotropy driven by simplex noise
//
// All of them report confidence 1 inside [-1,1]^d and 0 outside, and a
// containment gradient equal to the outward penetration beyond that box.
package field

import (
	"fmt"
	"math"

	"github.com/san-kum/tenpush/internal/core"
)

type Field interface {
	Dim() int
	Sample(pos core.Vec3) (ten, inv core.Tensor, cnt core.Vec3)
	Clone() Field
}

// Containment returns the vector from the nearest point of [-1,1]^d to p;
// zero inside.
func Containment(p core.Vec3, dim int) core.Vec3 {
	var c core.Vec3
	for i := 0; i < dim; i++ {
		c[i] = p[i] - math.Max(-1, math.Min(1, p[i]))
	}
	return c
}

func inside(p core.Vec3, dim int) bool {
	return Containment(p, dim) == core.Vec3{}
}

// axial builds the tensor with eigenvalue l1 along unit e1 and l2 across it,
// together with its inverse.
func axial(conf, l1, l2 float64, e1 core.Vec3, dim int) (ten, inv core.Tensor) {
	var m, mi [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			o := e1[i] * e1[j]
			m[i][j] = (l1 - l2) * o
			mi[i][j] = (1/l1 - 1/l2) * o
		}
		m[i][i] += l2
		mi[i][i] += 1 / l2
	}
	if dim == 2 {
		m[0][2], m[1][2], m[2][0], m[2][1], m[2][2] = 0, 0, 0, 0, 1
		mi[0][2], mi[1][2], mi[2][0], mi[2][1], mi[2][2] = 0, 0, 0, 0, 1
	}
	return core.FromMatrix(conf, m), core.FromMatrix(conf, mi)
}

func confidence(p core.Vec3, dim int) float64 {
	if inside(p, dim) {
		return 1
	}
	return 0
}

type Uniform struct {
	dim int
	ten core.Tensor
	inv core.Tensor
}

// NewUniform returns a field that is ten everywhere. ten must be positive
// definite.
func NewUniform(dim int, ten core.Tensor) (*Uniform, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: field dimension must be 2 or 3, got %d", core.ErrConfig, dim)
	}
	if dim == 2 {
		ten[core.TenXZ], ten[core.TenYZ], ten[core.TenZZ] = 0, 0, 1
	}
	inv, err := Invert(ten, dim)
	if err != nil {
		return nil, err
	}
	return &Uniform{dim: dim, ten: ten, inv: inv}, nil
}

func (u *Uniform) Dim() int     { return u.dim }
func (u *Uniform) Clone() Field { c := *u; return &c }

func (u *Uniform) Sample(pos core.Vec3) (core.Tensor, core.Tensor, core.Vec3) {
	ten, inv := u.ten, u.inv
	conf := confidence(pos, u.dim)
	ten[core.TenConf] *= conf
	inv[core.TenConf] *= conf
	return ten, inv, Containment(pos, u.dim)
}

type Circle struct {
	dim   int
	aniso float64
}

// NewCircle returns a field whose principal direction circles the z axis.
// Anisotropy grows linearly from 0 at the axis to aniso at radius 1.
func NewCircle(dim int, aniso float64) (*Circle, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("%w: field dimension must be 2 or 3, got %d", core.ErrConfig, dim)
	}
	if aniso < 0 || aniso >= 1 {
		return nil, fmt.Errorf("%w: circle anisotropy must be in [0,1), got %g", core.ErrConfig, aniso)
	}
	return &Circle{dim: dim, aniso: aniso}, nil
}

func (c *Circle) Dim() int     { return c.dim }
func (c *Circle) Clone() Field { cc := *c; return &cc }

func (c *Circle) Sample(pos core.Vec3) (core.Tensor, core.Tensor, core.Vec3) {
	r := math.Hypot(pos[0], pos[1])
	e1 := core.Vec3{1, 0, 0}
	l2 := 1.0
	if r > 1e-9 {
		e1 = core.Vec3{-pos[1] / r, pos[0] / r, 0}
		l2 = 1 - c.aniso*math.Min(r, 1)
	}
	ten, inv := axial(confidence(pos, c.dim), 1, l2, e1, c.dim)
	return ten, inv, Containment(pos, c.dim)
}
