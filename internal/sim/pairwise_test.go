package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/force"
	"github.com/san-kum/tenpush/internal/sim"
	"github.com/san-kum/tenpush/internal/thing"
)

func scaled(k float64) core.Tensor {
	return core.Tensor{1, k, 0, 0, k, 0, 1}
}

var _ = Describe("Interaction", func() {
	var in sim.Interaction

	BeforeEach(func() {
		in = sim.Interaction{
			Model:  &force.Spring{K: 1, Pull: 0.5},
			Scale:  0.1,
			Cutoff: 1,
		}
	})

	It("is antisymmetric without drift correction", func() {
		a := &thing.Point{Pos: core.Vec3{0.1, 0.05, 0}, Inv: core.Tensor{1, 2, 0.3, 0, 1, 0, 1}}
		b := &thing.Point{Pos: core.Vec3{0.18, 0.02, 0}, Inv: core.Tensor{1, 1.5, -0.2, 0, 0.8, 0, 1}}

		fab, _, err := in.Force(a, b)
		Expect(err).NotTo(HaveOccurred())
		fba, _, err := in.Force(b, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(fab.Norm()).To(BeNumerically(">", 0))
		for i := range fab {
			Expect(fab[i]).To(BeNumerically("~", -fba[i], 1e-12))
		}
	})

	It("repels points closer than the rest distance", func() {
		a := &thing.Point{Pos: core.Vec3{0, 0, 0}, Inv: core.Identity()}
		b := &thing.Point{Pos: core.Vec3{0.1, 0, 0}, Inv: core.Identity()}
		f, _, err := in.Force(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(f[0]).To(BeNumerically("~", -0.1, 1e-12))
	})

	It("ignores coincident points", func() {
		a := &thing.Point{Pos: core.Vec3{0.2, 0.2, 0}, Inv: core.Identity()}
		f, coincident, err := in.Force(a, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(coincident).To(BeTrue())
		Expect(f).To(Equal(core.Vec3{}))
	})

	It("is zero beyond the cutoff", func() {
		in.Cutoff = 0.05
		a := &thing.Point{Pos: core.Vec3{0, 0, 0}, Inv: core.Identity()}
		b := &thing.Point{Pos: core.Vec3{0.1, 0, 0}, Inv: core.Identity()}
		f, coincident, err := in.Force(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(coincident).To(BeFalse())
		Expect(f).To(Equal(core.Vec3{}))
	})

	Describe("drift correction", func() {
		BeforeEach(func() {
			in.DriftCorrect = true
		})

		It("clamps a strongly negative factor", func() {
			in.DriftClamp = true
			a := &thing.Point{Pos: core.Vec3{0, 0, 0}, Inv: scaled(0.01)}
			b := &thing.Point{Pos: core.Vec3{0.1, 0, 0}, Inv: scaled(100)}
			f, _, err := in.Force(a, b)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.IsValid()).To(BeTrue())
		})

		It("reports a strongly negative factor when not clamping", func() {
			a := &thing.Point{Pos: core.Vec3{0, 0, 0}, Inv: scaled(0.01)}
			b := &thing.Point{Pos: core.Vec3{0.1, 0, 0}, Inv: scaled(100)}
			_, _, err := in.Force(a, b)
			Expect(err).To(MatchError(core.ErrNumericDomain))
		})

		It("always reports a factor of one or more", func() {
			in.DriftClamp = true
			a := &thing.Point{Pos: core.Vec3{0, 0, 0}, Inv: scaled(100)}
			b := &thing.Point{Pos: core.Vec3{0.001, 0, 0}, Inv: scaled(0.01)}
			_, _, err := in.Force(a, b)
			Expect(err).To(MatchError(core.ErrNumericDomain))
		})
	})
})
