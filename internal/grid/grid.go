// Package grid partitions the simulation domain into a regular array of bins.
//
// The domain is [-1-margin, 1+margin] along every used axis. Bins are at least
// as wide as the force cutoff radius, so every point that can act on a point
// in bin b lies in one of b's neighbors. A grid may also run in single-bin
// mode, where the whole domain (and everything outside it) is one bin.
package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/tenpush/internal/core"
)

// Grid provides bin lookup for positions and the fixed neighbor lists of
// every bin. It is read-only while a stage is running.
type Grid struct {
	Dim    int
	Margin float64
	// Edge is the number of bins along each used axis.
	Edge int

	size      [3]int
	lo, hi    float64
	width     float64
	single    bool
	neighbors [][]int
}

// EdgeCells derives the per-axis bin count from the cutoff radius,
// clamped to [1, maxPerAxis] (maxPerAxis <= 0 means no upper clamp).
func EdgeCells(margin, cutoff float64, maxPerAxis int) int {
	edge := int(math.Floor((2 + 2*margin) / cutoff))
	if edge < 1 {
		edge = 1
	}
	if maxPerAxis > 0 && edge > maxPerAxis {
		edge = maxPerAxis
	}
	return edge
}

// New returns a grid whose bins are no narrower than cutoff.
func New(dim int, margin, cutoff float64, maxPerAxis int) (*Grid, error) {
	if err := check(dim, margin); err != nil {
		return nil, err
	}
	if !(cutoff > 0) || math.IsInf(cutoff, 0) {
		return nil, fmt.Errorf("%w: cutoff radius must be positive and finite, got %g", core.ErrConfig, cutoff)
	}
	g := &Grid{Dim: dim, Margin: margin}
	g.init(EdgeCells(margin, cutoff, maxPerAxis), false)
	return g, nil
}

// NewSingle returns a grid with exactly one bin.
func NewSingle(dim int, margin float64) (*Grid, error) {
	if err := check(dim, margin); err != nil {
		return nil, err
	}
	g := &Grid{Dim: dim, Margin: margin}
	g.init(1, true)
	return g, nil
}

func check(dim int, margin float64) error {
	if dim != 2 && dim != 3 {
		return fmt.Errorf("%w: dimension must be 2 or 3, got %d", core.ErrConfig, dim)
	}
	if margin < 0 || math.IsNaN(margin) {
		return fmt.Errorf("%w: margin must be non-negative, got %g", core.ErrConfig, margin)
	}
	return nil
}

func (g *Grid) init(edge int, single bool) {
	g.Edge = edge
	g.single = single
	g.lo = -1 - g.Margin
	g.hi = 1 + g.Margin
	g.width = (g.hi - g.lo) / float64(edge)
	g.size = [3]int{edge, edge, edge}
	if g.Dim == 2 {
		g.size[2] = 1
	}
	g.RebuildNeighbors()
}

func (g *Grid) NumBins() int   { return g.size[0] * g.size[1] * g.size[2] }
func (g *Grid) Single() bool   { return g.single }
func (g *Grid) Width() float64 { return g.width }

// Idx returns the bin index of cell coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return x + y*g.size[0] + z*g.size[0]*g.size[1]
}

// Coords returns the cell coordinates of a bin index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	area := g.size[0] * g.size[1]
	x = idx % g.size[0]
	y = (idx % area) / g.size[0]
	z = idx / area
	return x, y, z
}

// Locate returns the bin holding p, or false when p lies outside the
// domain plus margin. In single-bin mode every position is in bin 0.
func (g *Grid) Locate(p core.Vec3) (int, bool) {
	if g.single {
		return 0, true
	}
	var c [3]int
	for i := 0; i < g.Dim; i++ {
		v := p[i]
		if math.IsNaN(v) || v < g.lo || v > g.hi {
			return -1, false
		}
		c[i] = int((v - g.lo) / g.width)
		if c[i] >= g.Edge {
			c[i] = g.Edge - 1
		}
	}
	return g.Idx(c[0], c[1], c[2]), true
}

// Contains reports whether p is inside the domain proper, [-1,1] on every
// used axis, without the margin.
func (g *Grid) Contains(p core.Vec3) bool {
	for i := 0; i < g.Dim; i++ {
		if !(p[i] >= -1 && p[i] <= 1) {
			return false
		}
	}
	return true
}

// Neighbors returns the bins adjacent to bin, bin itself included.
// The slice must not be modified.
func (g *Grid) Neighbors(bin int) []int {
	return g.neighbors[bin]
}

// RebuildNeighbors recomputes every neighbor list. It must not run while a
// stage is active.
func (g *Grid) RebuildNeighbors() {
	n := g.NumBins()
	g.neighbors = make([][]int, n)
	if g.single {
		g.neighbors[0] = []int{0}
		return
	}

	zr := 1
	if g.Dim == 2 {
		zr = 0
	}
	for idx := 0; idx < n; idx++ {
		x, y, z := g.Coords(idx)
		list := make([]int, 0, 27)
		for dz := -zr; dz <= zr; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny, nz := x+dx, y+dy, z+dz
					if !g.inBounds(nx, ny, nz) {
						continue
					}
					list = append(list, g.Idx(nx, ny, nz))
				}
			}
		}
		g.neighbors[idx] = list
	}
}

func (g *Grid) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x < g.size[0] && y < g.size[1] && z < g.size[2]
}
