// Package core provides the numeric primitives shared by the tenpush engine.
//
//   - [Vec3]: position, velocity and force vectors (z is zero in 2-D runs)
//   - [Tensor]: packed symmetric 3x3 tensor with a leading confidence value
//   - sentinel errors used across the engine (see errors.go)
//
// 2-D runs reuse the 3-D types: the out-of-plane component of every vector is
// held at zero and 2-D tensors keep xz = yz = 0, zz = 1.
package core
