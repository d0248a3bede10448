package field

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tenpush/internal/core"
)

// Eigen holds eigenvalues in descending order with matching unit vectors.
type Eigen struct {
	Vals [3]float64
	Vecs [3]core.Vec3
}

// Decompose returns the eigen system of t restricted to its first dim axes.
func Decompose(t core.Tensor, dim int) (Eigen, error) {
	m := t.Matrix()
	data := make([]float64, 0, dim*dim)
	for i := 0; i < dim; i++ {
		data = append(data, m[i][:dim]...)
	}

	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(dim, data), true); !ok {
		return Eigen{}, fmt.Errorf("%w: eigen decomposition failed for %v", core.ErrNumericDomain, t)
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// gonum sorts ascending
	var e Eigen
	for k := 0; k < dim; k++ {
		src := dim - 1 - k
		e.Vals[k] = vals[src]
		for i := 0; i < dim; i++ {
			e.Vecs[k][i] = vecs.At(i, src)
		}
	}
	if dim == 2 {
		e.Vals[2] = t[core.TenZZ]
		e.Vecs[2] = core.Vec3{0, 0, 1}
	}
	return e, nil
}

// Invert returns the inverse of a positive definite tensor, keeping its
// confidence. In 2-D the out-of-plane block stays the identity.
func Invert(t core.Tensor, dim int) (core.Tensor, error) {
	e, err := Decompose(t, dim)
	if err != nil {
		return core.Tensor{}, err
	}
	var m [3][3]float64
	for k := 0; k < dim; k++ {
		if !(e.Vals[k] > 0) {
			return core.Tensor{}, fmt.Errorf("%w: tensor not positive definite (eigenvalue %g)", core.ErrConfig, e.Vals[k])
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				m[i][j] += e.Vecs[k][i] * e.Vecs[k][j] / e.Vals[k]
			}
		}
	}
	if dim == 2 {
		m[2][2] = 1
	}
	return core.FromMatrix(t.Conf(), m), nil
}

// Anisotropy is (l1 - l2) / l1 over the first dim eigenvalues, in [0, 1].
func Anisotropy(e Eigen) float64 {
	if !(e.Vals[0] > 0) {
		return 0
	}
	a := (e.Vals[0] - e.Vals[1]) / e.Vals[0]
	return math.Max(0, math.Min(1, a))
}

// MaxEigenvalue scans f on a res^d lattice over [-1,1]^d and returns the
// largest principal eigenvalue seen. Slabs along the last axis are scanned
// in parallel, each with its own field handle.
func MaxEigenvalue(ctx context.Context, f Field, res, workers int) (float64, error) {
	if res < 2 {
		res = 2
	}
	dim := f.Dim()
	step := 2 / float64(res-1)

	var (
		mu   sync.Mutex
		best float64
	)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for slab := 0; slab < res; slab++ {
		slab := slab
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := f.Clone()
			slabMax := 0.0
			inner := 1
			if dim == 3 {
				inner = res
			}
			for j := 0; j < inner; j++ {
				for i := 0; i < res; i++ {
					p := core.Vec3{-1 + float64(i)*step, -1 + float64(j)*step, 0}
					if dim == 2 {
						p[1] = -1 + float64(slab)*step
					} else {
						p[2] = -1 + float64(slab)*step
					}
					ten, _, _ := local.Sample(p)
					e, err := Decompose(ten, dim)
					if err != nil {
						return err
					}
					slabMax = math.Max(slabMax, e.Vals[0])
				}
			}
			mu.Lock()
			best = math.Max(best, slabMax)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return best, nil
}
