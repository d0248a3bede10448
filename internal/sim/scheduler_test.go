package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/force"
	"github.com/san-kum/tenpush/internal/sim"
	"github.com/san-kum/tenpush/internal/thing"
)

var ctx = context.Background()

type counter struct{ calls []sim.IterStats }

func (c *counter) OnIteration(st sim.IterStats) { c.calls = append(c.calls, st) }

var _ = Describe("Scheduler", func() {
	Describe("configuration", func() {
		It("rejects invalid parameters", func() {
			for _, mutate := range []func(*sim.Params){
				func(p *sim.Params) { p.Threads = 0 },
				func(p *sim.Params) { p.Dim = 4 },
				func(p *sim.Params) { p.Mass = 0 },
				func(p *sim.Params) { p.Scale = -1 },
				func(p *sim.Params) { p.Force = nil },
				func(p *sim.Params) { p.Tractlets = true; p.TractStep = 0 },
			} {
				p := quietParams()
				mutate(&p)
				_, err := sim.New(p, isotropic(2), nil)
				Expect(err).To(MatchError(core.ErrConfig))
			}
		})

		It("rejects a field of the wrong dimension", func() {
			_, err := sim.New(quietParams(), isotropic(3), nil)
			Expect(err).To(MatchError(core.ErrConfig))
		})

		It("sizes the grid from the cutoff radius", func() {
			s := started(quietParams(), isotropic(2))
			Expect(s.MaxEigenvalue()).To(BeNumerically("~", 1, 1e-9))
			Expect(s.Cutoff()).To(BeNumerically("~", 0.3, 1e-9))
			Expect(s.Grid().Edge).To(Equal(7))
			Expect(s.Phase()).To(Equal(sim.PhaseIdle))
		})

		It("keeps everything in one bin in single-bin mode", func() {
			p := quietParams()
			p.SingleBin = true
			p.NumThings = 10
			s := started(p, isotropic(2))
			Expect(s.Grid().NumBins()).To(Equal(1))
			_, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Registry().Len()).To(Equal(10))
		})

		It("refuses to seed outside the domain", func() {
			s := started(quietParams(), isotropic(2))
			_, err := s.AddThing(core.Vec3{3, 0, 0})
			Expect(err).To(MatchError(core.ErrBinLocate))
		})
	})

	Describe("iteration", func() {
		It("pushes two close things apart", func() {
			s := started(quietParams(), isotropic(2))
			a, err := s.AddThing(core.Vec3{0.05, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			b, err := s.AddThing(core.Vec3{-0.05, 0, 0})
			Expect(err).NotTo(HaveOccurred())

			st, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Things).To(Equal(2))
			Expect(st.MeanSpeed).To(BeNumerically(">", 0))

			va, vb := s.Thing(a).Vel, s.Thing(b).Vel
			Expect(va[0]).To(BeNumerically(">", 0))
			Expect(vb[0]).To(BeNumerically("<", 0))
			Expect(va[0]).To(BeNumerically("~", -vb[0], 1e-12))
			Expect(va[1]).To(BeZero())
			Expect(va[2]).To(BeZero())
		})

		It("pushes apart two springs in a single 2-D cell", func() {
			p := quietParams()
			p.SingleBin = true
			p.Force = &force.Spring{K: 1, Pull: 1}
			p.Scale = 0.2
			s := started(p, isotropic(2))
			a, err := s.AddThing(core.Vec3{-0.1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			b, err := s.AddThing(core.Vec3{0.1, 0, 0})
			Expect(err).NotTo(HaveOccurred())

			st, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.MeanSpeed).To(BeNumerically(">", 0))

			va, vb := s.Thing(a).Vel, s.Thing(b).Vel
			Expect(va[0]).To(BeNumerically("<", 0))
			Expect(vb[0]).To(BeNumerically(">", 0))
			Expect(va[0]).To(BeNumerically("~", -vb[0], 1e-12))
			Expect(va[1]).To(BeZero())
			Expect(vb[1]).To(BeZero())
		})

		It("destroys a thing that leaves the domain", func() {
			s := started(quietParams(), isotropic(2))
			id, err := s.AddThing(core.Vec3{1, 0, 0})
			Expect(err).NotTo(HaveOccurred())
			s.Thing(id).Vel = core.Vec3{10, 0, 0}

			st, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Rebin.Destroyed).To(Equal(1))
			Expect(s.Registry().Len()).To(BeZero())
			Expect(s.Thing(id)).To(BeNil())
			Expect(countRefs(s.Registry())).To(BeZero())
		})

		It("keeps bins consistent and rebinning idempotent", func() {
			p := quietParams()
			p.NumThings = 60
			p.Tractlets = true
			s := started(p, circle(0.9))
			for i := 0; i < 4; i++ {
				_, err := s.Iterate()
				Expect(err).NotTo(HaveOccurred())
				expectConsistentBins(s)
				Expect(sim.Rebin(s.Grid(), s.Registry())).To(Equal(sim.RebinStats{}))
			}
		})

		It("notifies observers once per iteration", func() {
			p := quietParams()
			p.NumThings = 5
			s := started(p, isotropic(2))
			c := &counter{}
			s.AddObserver(c)
			for i := 0; i < 3; i++ {
				_, err := s.Iterate()
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(c.calls).To(HaveLen(3))
			Expect(c.calls[2].Iter).To(Equal(2))
			Expect(s.Iter()).To(Equal(3))
		})
	})

	Describe("tractlets", func() {
		var p sim.Params

		BeforeEach(func() {
			p = quietParams()
			p.Tractlets = true
			p.Threshold = 0.5
			p.Softness = 0.1
		})

		It("grows a tractlet where the field is anisotropic", func() {
			s := started(p, circle(0.9))
			id, err := s.AddThing(core.Vec3{0.8, 0, 0})
			Expect(err).NotTo(HaveOccurred())

			st, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Tractlets).To(Equal(1))

			t := s.Thing(id)
			Expect(t.Kind).To(Equal(thing.Polyline))
			Expect(len(t.Verts)).To(BeNumerically(">=", 2))
			Expect(t.Len).To(BeNumerically(">", 0))
			Expect(countRefs(s.Registry())).To(Equal(len(t.Verts)))
			expectConsistentBins(s)
		})

		It("collapses a tractlet where the field is isotropic", func() {
			s := started(p, isotropic(2))
			sn := &sim.Snapshot{
				Dim:       2,
				Positions: []float64{-0.02, 0, 0, 0, 0.02, 0},
				Tensors:   []float64{1, 1, 0, 1, 1, 1, 0, 1, 1, 1, 0, 1},
				Things:    []sim.ThingRecord{{Offset: 0, Count: 3, Seed: 1}},
			}
			Expect(s.Load(sn)).To(Succeed())
			Expect(countRefs(s.Registry())).To(Equal(3))

			st, err := s.Iterate()
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Tractlets).To(BeZero())
			Expect(st.Rebin.Dropped).To(Equal(3))

			var only *thing.Thing
			s.Registry().Each(func(_ int, t *thing.Thing) { only = t })
			Expect(only).NotTo(BeNil())
			Expect(only.Kind).To(Equal(thing.Single))
			Expect(countRefs(s.Registry())).To(Equal(1))
			expectConsistentBins(s)
		})
	})

	Describe("failure", func() {
		It("reports the diverging thing and refuses to continue", func() {
			p := quietParams()
			p.Threads = 3
			s := started(p, isotropic(2))
			id, err := s.AddThing(core.Vec3{0.3, 0.3, 0})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.AddThing(core.Vec3{-0.5, 0.2, 0})
			Expect(err).NotTo(HaveOccurred())
			s.Thing(id).Vel = core.Vec3{math.NaN(), 0, 0}

			_, err = s.Iterate()
			Expect(err).To(MatchError(core.ErrNumericDivergence))
			var te *core.ThingError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Thing).To(Equal(id.String()))
			Expect(te.Stage).To(Equal("update"))
			Expect(te.Iter).To(BeZero())

			_, err = s.Iterate()
			Expect(err).To(MatchError(core.ErrRunFailed))
			Expect(s.Err()).To(MatchError(core.ErrNumericDivergence))
		})

		It("leaves the last completed iteration intact when Update fails", func() {
			p := quietParams()
			p.Threads = 2
			s := started(p, isotropic(2))
			good, err := s.AddThing(core.Vec3{-0.9, -0.9, 0})
			Expect(err).NotTo(HaveOccurred())
			bad, err := s.AddThing(core.Vec3{0.9, 0.9, 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(mustLocate(s, core.Vec3{-0.9, -0.9, 0})).To(BeNumerically("<", mustLocate(s, core.Vec3{0.9, 0.9, 0})))

			s.Thing(good).Vel = core.Vec3{0.5, 0, 0}
			s.Thing(bad).Vel = core.Vec3{math.Inf(1), 0, 0}
			before, err := s.Snapshot()
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Iterate()
			Expect(err).To(MatchError(core.ErrNumericDivergence))

			Expect(s.Thing(good).SeedPoint().Pos).To(Equal(core.Vec3{-0.9, -0.9, 0}))
			Expect(s.Thing(good).Vel).To(Equal(core.Vec3{0.5, 0, 0}))
			Expect(s.Thing(bad).Vel).To(Equal(core.Vec3{math.Inf(1), 0, 0}))
			Expect(s.Iter()).To(BeZero())

			after, err := s.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
			expectConsistentBins(s)
		})

		It("refuses to iterate after Finish", func() {
			s, err := sim.New(quietParams(), isotropic(2), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start(ctx)).To(Succeed())
			s.Finish()
			s.Finish()
			_, err = s.Iterate()
			Expect(err).To(MatchError(core.ErrFinished))
			_, err = s.Snapshot()
			Expect(err).To(MatchError(core.ErrFinished))
		})
	})

	Describe("Run", func() {
		It("converges when nothing moves", func() {
			p := quietParams()
			p.MinIter = 2
			s := started(p, isotropic(2))
			_, err := s.AddThing(core.Vec3{0, 0, 0})
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.History).To(HaveLen(2))
		})

		It("stops at the iteration limit", func() {
			p := quietParams()
			p.NumThings = 20
			p.MinMeanSpeed = 0
			p.MaxIter = 5
			s := started(p, isotropic(2))

			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeFalse())
			Expect(res.History).To(HaveLen(5))
		})

		It("returns the partial result when cancelled", func() {
			p := quietParams()
			p.NumThings = 5
			s := started(p, isotropic(2))
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := s.Run(cctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.History).To(BeEmpty())
		})
	})

	Describe("determinism", func() {
		positions := func(threads int) []float64 {
			p := quietParams()
			p.Threads = threads
			p.NumThings = 40
			p.Seed = 7
			p.Tractlets = true
			s := started(p, circle(0.8))
			for i := 0; i < 5; i++ {
				_, err := s.Iterate()
				Expect(err).NotTo(HaveOccurred())
			}
			sn, err := s.Snapshot()
			Expect(err).NotTo(HaveOccurred())
			return sn.Positions
		}

		It("repeats a single-threaded run exactly", func() {
			Expect(positions(1)).To(Equal(positions(1)))
		})

		It("gives the same layout with several workers", func() {
			Expect(positions(4)).To(Equal(positions(1)))
		})
	})
})
