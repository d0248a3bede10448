// Package thing holds the simulated entities and the bins that own them.
//
// A [Thing] is either a single [Point] or a polyline of points (a tractlet)
// with one distinguished seed vertex. Things live in an arena addressed by
// generation-checked [ID]s, so a bin never holds a dangling reference: once a
// thing is destroyed its ID stops resolving. Bins also index every vertex
// through a [PointRef]; replacing a thing's vertices bumps its epoch, which
// invalidates all older refs at once without touching other bins.
package thing

import (
	"fmt"

	"github.com/san-kum/tenpush/internal/core"
)

type Point struct {
	Pos    core.Vec3
	Vel    core.Vec3
	Frc    core.Vec3
	Charge float64

	Ten   core.Tensor
	Inv   core.Tensor
	Cnt   core.Vec3
	Aniso float64

	// tractlet vertices only
	Tan core.Vec3
	Nor core.Vec3
}

type Kind uint8

const (
	Single Kind = iota
	Polyline
)

func (k Kind) String() string {
	if k == Polyline {
		return "polyline"
	}
	return "single"
}

type ID struct {
	Index uint32
	Gen   uint32
}

func (id ID) String() string {
	return fmt.Sprintf("#%d.%d", id.Index, id.Gen)
}

type Thing struct {
	ID    ID
	Kind  Kind
	Verts []Point
	Seed  int
	// Len is the arc length of a polyline, zero for a single point.
	Len float64

	Vel core.Vec3
	Frc core.Vec3

	epoch uint32
}

// NewSingle returns a thing whose only point is its seed.
func NewSingle(p Point) *Thing {
	return &Thing{Kind: Single, Verts: []Point{p}}
}

// NewPolyline returns a tractlet seeded at verts[seed].
func NewPolyline(verts []Point, seed int, length float64) *Thing {
	return &Thing{Kind: Polyline, Verts: verts, Seed: seed, Len: length}
}

func (t *Thing) SeedPoint() *Point { return &t.Verts[t.Seed] }

func (t *Thing) Epoch() uint32 { return t.epoch }

// SetSingle collapses t to the single point p. Every vertex ref indexed
// before the call stops resolving.
func (t *Thing) SetSingle(p Point) {
	t.Kind = Single
	t.Verts = append(t.Verts[:0], p)
	t.Seed = 0
	t.Len = 0
	t.epoch++
}

// SetPolyline replaces t's vertices. Every vertex ref indexed before the
// call stops resolving.
func (t *Thing) SetPolyline(verts []Point, seed int, length float64) {
	t.Kind = Polyline
	t.Verts = verts
	t.Seed = seed
	t.Len = length
	t.epoch++
}

type PointRef struct {
	Thing ID
	Vert  int
	Epoch uint32
}
