package integrators

import "github.com/san-kum/tenpush/internal/core"

// ArcLength is the summed segment length of a polyline.
func ArcLength(verts []core.Vec3) float64 {
	l := 0.0
	for i := 1; i < len(verts); i++ {
		l += verts[i].Sub(verts[i-1]).Norm()
	}
	return l
}

// Frames returns a unit tangent and a unit curvature normal per vertex.
// Tangents use central differences (one-sided at the ends); normals are the
// second difference with its tangential part removed, zero where the
// polyline is locally straight.
func Frames(verts []core.Vec3) (tan, nor []core.Vec3) {
	n := len(verts)
	tan = make([]core.Vec3, n)
	nor = make([]core.Vec3, n)
	if n < 2 {
		return tan, nor
	}

	for i := 0; i < n; i++ {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		tan[i] = verts[hi].Sub(verts[lo]).Normalize()
	}

	for i := 1; i < n-1; i++ {
		curv := verts[i+1].Sub(verts[i].Scale(2)).Add(verts[i-1])
		curv = curv.Sub(tan[i].Scale(curv.Dot(tan[i])))
		if curv.Norm() > 1e-12 {
			nor[i] = curv.Normalize()
		}
	}
	if n > 2 {
		nor[0] = orthogonal(nor[1], tan[0])
		nor[n-1] = orthogonal(nor[n-2], tan[n-1])
	}
	return tan, nor
}

// orthogonal removes the t component from v and renormalizes.
func orthogonal(v, t core.Vec3) core.Vec3 {
	v = v.Sub(t.Scale(v.Dot(t)))
	if v.Norm() < 1e-12 {
		return core.Vec3{}
	}
	return v.Normalize()
}
