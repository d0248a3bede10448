package grid

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/tenpush/internal/core"
)

func TestEdgeCells(t *testing.T) {
	g := NewWithT(t)

	g.Expect(EdgeCells(0, 0.5, 0)).To(Equal(4))
	g.Expect(EdgeCells(0.5, 0.5, 0)).To(Equal(6))
	g.Expect(EdgeCells(0, 10, 0)).To(Equal(1))
	g.Expect(EdgeCells(0, 0.001, 32)).To(Equal(32))
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		dim    int
		margin float64
		cutoff float64
	}{
		{"dim 1", 1, 0, 0.5},
		{"dim 4", 4, 0, 0.5},
		{"negative margin", 2, -0.1, 0.5},
		{"zero cutoff", 3, 0, 0},
		{"negative cutoff", 3, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dim, tt.margin, tt.cutoff, 0)
			if !errors.Is(err, core.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLocate(t *testing.T) {
	g := NewWithT(t)

	grd, err := New(2, 0, 0.5, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(grd.NumBins()).To(Equal(16))

	bin, ok := grd.Locate(core.Vec3{-1, -1, 0})
	g.Expect(ok).To(BeTrue())
	g.Expect(bin).To(Equal(0))

	bin, ok = grd.Locate(core.Vec3{1, 1, 0})
	g.Expect(ok).To(BeTrue())
	g.Expect(bin).To(Equal(15), "upper boundary folds into the last cell")

	bin, ok = grd.Locate(core.Vec3{0.1, -0.6, 7})
	g.Expect(ok).To(BeTrue(), "z is ignored in 2-D")
	g.Expect(bin).To(Equal(grd.Idx(2, 0, 0)))

	_, ok = grd.Locate(core.Vec3{1.0001, 0, 0})
	g.Expect(ok).To(BeFalse())
}

func TestLocateSingle(t *testing.T) {
	g := NewWithT(t)

	grd, err := NewSingle(3, 0.1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(grd.NumBins()).To(Equal(1))
	g.Expect(grd.Neighbors(0)).To(Equal([]int{0}))

	bin, ok := grd.Locate(core.Vec3{5, 5, 5})
	g.Expect(ok).To(BeTrue())
	g.Expect(bin).To(Equal(0))
}

func TestNeighborsSymmetric(t *testing.T) {
	for _, dim := range []int{2, 3} {
		grd, err := New(dim, 0.2, 0.4, 0)
		if err != nil {
			t.Fatalf("new grid: %v", err)
		}
		g := NewWithT(t)

		for b := 0; b < grd.NumBins(); b++ {
			nb := grd.Neighbors(b)
			g.Expect(nb).To(ContainElement(b), "bin %d is its own neighbor", b)
			for _, o := range nb {
				g.Expect(grd.Neighbors(o)).To(ContainElement(b), "dim %d: %d -> %d", dim, b, o)
			}
		}
	}
}

func TestNeighborCounts(t *testing.T) {
	g := NewWithT(t)

	grd, err := New(3, 0, 0.5, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(grd.Neighbors(grd.Idx(0, 0, 0))).To(HaveLen(8))
	g.Expect(grd.Neighbors(grd.Idx(1, 1, 1))).To(HaveLen(27))

	flat, err := New(2, 0, 0.5, 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(flat.Neighbors(flat.Idx(0, 0, 0))).To(HaveLen(4))
	g.Expect(flat.Neighbors(flat.Idx(1, 2, 0))).To(HaveLen(9))
}

func TestCoordsRoundTrip(t *testing.T) {
	g := NewWithT(t)

	grd, err := New(3, 0, 0.3, 0)
	g.Expect(err).NotTo(HaveOccurred())
	for idx := 0; idx < grd.NumBins(); idx++ {
		x, y, z := grd.Coords(idx)
		g.Expect(grd.Idx(x, y, z)).To(Equal(idx))
	}
}
