package core

import (
	"fmt"
	"math"
)

type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

func (v Vec3) Scale(factor float64) Vec3 {
	return Vec3{v[0] * factor, v[1] * factor, v[2] * factor}
}

func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Norm2() float64 { return v.Dot(v) }
func (v Vec3) Norm() float64  { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or the zero vector when v is zero.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

func (v Vec3) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Flatten zeroes the out-of-plane component when dim is 2.
func (v Vec3) Flatten(dim int) Vec3 {
	if dim == 2 {
		v[2] = 0
	}
	return v
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v[0], v[1], v[2])
}

// Tensor is a symmetric 3x3 tensor packed as
// [conf, xx, xy, xz, yy, yz, zz].
type Tensor [7]float64

const (
	TenConf = iota
	TenXX
	TenXY
	TenXZ
	TenYY
	TenYZ
	TenZZ
)

// Identity returns the unit tensor with full confidence.
func Identity() Tensor {
	return Tensor{1, 1, 0, 0, 1, 0, 1}
}

// FromMatrix packs a symmetric matrix; off-diagonals are averaged.
func FromMatrix(conf float64, m [3][3]float64) Tensor {
	return Tensor{
		conf,
		m[0][0],
		(m[0][1] + m[1][0]) / 2,
		(m[0][2] + m[2][0]) / 2,
		m[1][1],
		(m[1][2] + m[2][1]) / 2,
		m[2][2],
	}
}

func (t Tensor) Conf() float64 { return t[TenConf] }

func (t Tensor) Matrix() [3][3]float64 {
	return [3][3]float64{
		{t[TenXX], t[TenXY], t[TenXZ]},
		{t[TenXY], t[TenYY], t[TenYZ]},
		{t[TenXZ], t[TenYZ], t[TenZZ]},
	}
}

// Apply multiplies the tensor by v.
func (t Tensor) Apply(v Vec3) Vec3 {
	return Vec3{
		t[TenXX]*v[0] + t[TenXY]*v[1] + t[TenXZ]*v[2],
		t[TenXY]*v[0] + t[TenYY]*v[1] + t[TenYZ]*v[2],
		t[TenXZ]*v[0] + t[TenYZ]*v[1] + t[TenZZ]*v[2],
	}
}

// Mean returns 0.5*a + 0.5*b component-wise, confidence included.
func Mean(a, b Tensor) Tensor {
	var m Tensor
	for i := range m {
		m[i] = 0.5*a[i] + 0.5*b[i]
	}
	return m
}

// PackedLen is the number of floats a tensor occupies in a snapshot.
func PackedLen(dim int) int {
	if dim == 2 {
		return 4
	}
	return 7
}

// Pack appends the snapshot representation of t: [conf, xx, xy, yy] in 2-D,
// all seven values in 3-D.
func (t Tensor) Pack(dst []float64, dim int) []float64 {
	if dim == 2 {
		return append(dst, t[TenConf], t[TenXX], t[TenXY], t[TenYY])
	}
	return append(dst, t[:]...)
}

// Unpack is the inverse of Pack.
func Unpack(src []float64, dim int) Tensor {
	if dim == 2 {
		return Tensor{src[0], src[1], src[2], 0, src[3], 0, 1}
	}
	var t Tensor
	copy(t[:], src[:7])
	return t
}
