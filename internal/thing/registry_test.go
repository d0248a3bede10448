package thing

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/tenpush/internal/core"
)

func pointAt(x, y float64) Point {
	return Point{Pos: core.Vec3{x, y, 0}, Charge: 1}
}

func TestRegistryAddGet(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry(4)

	a := NewSingle(pointAt(0, 0))
	id := r.Add(a, 2)

	g.Expect(r.Len()).To(Equal(1))
	g.Expect(r.Get(id)).To(BeIdenticalTo(a))
	g.Expect(r.Bins[2].Things).To(Equal([]ID{id}))
	g.Expect(r.Bins[2].Points).To(HaveLen(1))

	th, p := r.Resolve(r.Bins[2].Points[0])
	g.Expect(th).To(BeIdenticalTo(a))
	g.Expect(p).To(BeIdenticalTo(a.SeedPoint()))
}

func TestRegistryGenerations(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry(1)

	old := r.Add(NewSingle(pointAt(0, 0)), 0)
	ref := r.Bins[0].Points[0]
	r.Destroy(old)

	g.Expect(r.Len()).To(Equal(0))
	g.Expect(r.Get(old)).To(BeNil())
	th, p := r.Resolve(ref)
	g.Expect(th).To(BeNil())
	g.Expect(p).To(BeNil())

	fresh := r.Add(NewSingle(pointAt(1, 1)), 0)
	g.Expect(fresh.Index).To(Equal(old.Index), "slot is reused")
	g.Expect(fresh.Gen).NotTo(Equal(old.Gen))
	g.Expect(r.Get(old)).To(BeNil())
	g.Expect(r.Get(fresh)).NotTo(BeNil())

	r.Destroy(old)
	g.Expect(r.Len()).To(Equal(1), "destroying a stale id is a no-op")
}

func TestEpochInvalidatesRefs(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry(2)

	verts := []Point{pointAt(0, 0), pointAt(0.1, 0), pointAt(0.2, 0)}
	tr := NewPolyline(verts, 1, 0.2)
	r.Add(tr, 0)
	g.Expect(r.Bins[0].Points).To(HaveLen(3))
	g.Expect(tr.SeedPoint().Pos).To(Equal(core.Vec3{0.1, 0, 0}))

	stale := r.Bins[0].Points
	tr.SetSingle(pointAt(0.1, 0))
	for _, ref := range stale {
		th, _ := r.Resolve(ref)
		g.Expect(th).To(BeNil())
	}

	r.IndexVertices(tr, 1)
	th, p := r.Resolve(r.Bins[1].Points[0])
	g.Expect(th).To(BeIdenticalTo(tr))
	g.Expect(th.Kind).To(Equal(Single))
	g.Expect(p.Pos).To(Equal(core.Vec3{0.1, 0, 0}))
}

func TestEachOrder(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry(3)

	c := r.Add(NewSingle(pointAt(2, 0)), 2)
	a := r.Add(NewSingle(pointAt(0, 0)), 0)
	b := r.Add(NewSingle(pointAt(1, 0)), 0)

	var seen []ID
	var bins []int
	r.Each(func(bin int, t *Thing) {
		seen = append(seen, t.ID)
		bins = append(bins, bin)
	})
	g.Expect(seen).To(Equal([]ID{a, b, c}))
	g.Expect(bins).To(Equal([]int{0, 0, 2}))
}
