package sim

import (
	"math"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/integrators"
	"github.com/san-kum/tenpush/internal/thing"
)

// idle reports whether bin b has nothing to do in stage st.
func (s *Scheduler) idle(b int, st Stage) bool {
	bin := &s.reg.Bins[b]
	if st == StageUpdate {
		return len(bin.Things) == 0
	}
	return bin.Empty()
}

// forceBin computes the force on every point indexed in bin b and the
// per-thing drag and nudge of every thing owned by b.
func (s *Scheduler) forceBin(task *Task, b int, iter int) error {
	p := &s.params
	bin := &s.reg.Bins[b]

	for _, id := range bin.Things {
		if t := s.reg.Get(id); t != nil {
			t.Frc = core.Vec3{}
		}
	}

	for _, ref := range bin.Points {
		me, pt := s.reg.Resolve(ref)
		if pt == nil {
			continue
		}
		pt.Frc = core.Vec3{}
		for _, nb := range s.grid.Neighbors(b) {
			for _, oref := range s.reg.Bins[nb].Points {
				her, other := s.reg.Resolve(oref)
				if other == nil || her == me {
					continue
				}
				f, coincident, err := s.inter.Force(pt, other)
				if err != nil {
					return &core.ThingError{Thing: me.ID.String(), Iter: iter, Stage: StageForce.String(), Pos: pt.Pos, Wrapped: err}
				}
				if coincident {
					task.coincident++
					continue
				}
				pt.Frc = pt.Frc.Add(f.Scale(pt.Charge * other.Charge))
			}
		}
		if p.Wall > 0 {
			pt.Frc = pt.Frc.Add(wallForce(pt.Pos, p.Dim, p.Wall))
		}
		if p.Contain != 0 {
			pt.Frc = pt.Frc.Sub(pt.Cnt.Scale(p.Contain))
		}
	}

	drag := p.drag(iter)
	for _, id := range bin.Things {
		t := s.reg.Get(id)
		if t == nil {
			continue
		}
		t.Frc = t.Frc.Sub(t.Vel.Scale(drag))
		if p.Nudge > 0 {
			t.Frc = t.Frc.Sub(t.SeedPoint().Pos.Scale(p.Nudge))
		}
	}
	return nil
}

// wallForce pushes a point outside [-1,1] back in, proportional to how far
// it has gone.
func wallForce(pos core.Vec3, dim int, k float64) core.Vec3 {
	var f core.Vec3
	for i := 0; i < dim; i++ {
		switch {
		case pos[i] > 1:
			f[i] = -k * (pos[i] - 1)
		case pos[i] < -1:
			f[i] = k * (-1 - pos[i])
		}
	}
	return f
}

// updateBin integrates every thing owned by bin b and decides its new
// representation. Nothing is written to the things; the outcomes are queued
// on the task and applied by commit.
func (s *Scheduler) updateBin(task *Task, b int, iter int) error {
	p := &s.params
	bin := &s.reg.Bins[b]

	for _, id := range bin.Things {
		t := s.reg.Get(id)
		if t == nil {
			continue
		}

		frc := t.Frc
		if t.Kind == thing.Single {
			frc = frc.Add(t.Verts[0].Frc)
		} else {
			frc = frc.Add(s.reduce(t))
		}

		seed := t.SeedPoint()
		pos := seed.Pos.Add(t.Vel.Scale(p.Step)).Flatten(p.Dim)
		vel := t.Vel.Add(frc.Scale(p.Step / p.Mass)).Flatten(p.Dim)

		speed := vel.Norm()
		if math.IsNaN(speed) || math.IsInf(speed, 0) {
			return &core.ThingError{Thing: t.ID.String(), Iter: iter, Stage: StageUpdate.String(), Pos: seed.Pos, Wrapped: core.ErrNumericDivergence}
		}
		task.speedSum += speed
		task.things++

		u := update{t: t, bin: b, vel: vel, frc: frc}
		u.seed = thing.Point{Pos: pos, Vel: vel, Charge: 1}
		if err := task.prober.Probe(&u.seed); err != nil {
			return &core.ThingError{Thing: t.ID.String(), Iter: iter, Stage: StageUpdate.String(), Pos: pos, Wrapped: err}
		}

		if s.wantsTractlet(task, &u.seed) {
			if verts, seedIdx, length, ok := s.tractlet(task, u.seed); ok {
				u.verts, u.seedIdx, u.length = verts, seedIdx, length
				task.tractlets++
				task.vertices += len(verts)
				task.pending = append(task.pending, u)
				continue
			}
		}
		task.vertices++
		task.pending = append(task.pending, u)
	}
	return nil
}

// commit applies the queued outcomes of a successful Update stage. Every
// bin was claimed by exactly one task, so the vertex refs of a bin are
// appended in thing order whatever the thread count.
func (s *Scheduler) commit() {
	for _, task := range s.tasks {
		for i := range task.pending {
			u := &task.pending[i]
			t := u.t
			t.Vel = u.vel
			t.Frc = u.frc
			switch {
			case u.verts != nil:
				t.SetPolyline(u.verts, u.seedIdx, u.length)
				s.reg.IndexVertices(t, u.bin)
			case t.Kind == thing.Polyline:
				t.SetSingle(u.seed)
				s.reg.IndexVertices(t, u.bin)
			default:
				t.Verts[0] = u.seed
			}
		}
	}
}

func (s *Scheduler) wantsTractlet(task *Task, np *thing.Point) bool {
	p := &s.params
	return p.Tractlets && task.prober.CanTract() &&
		s.grid.Contains(np.Pos) && np.Aniso >= p.Threshold-p.Softness
}

// tractlet traces a fiber through np and probes its vertices. ok is false
// when the fiber has fewer than two vertices.
func (s *Scheduler) tractlet(task *Task, np thing.Point) (verts []thing.Point, seed int, length float64, ok bool) {
	p := &s.params
	tr := task.prober.Tract(np.Pos, p.TractMaxSteps)
	if len(tr.Verts) < 2 {
		return nil, 0, 0, false
	}

	tan, nor := integrators.Frames(tr.Verts)
	verts = make([]thing.Point, len(tr.Verts))
	for i, x := range tr.Verts {
		v := &verts[i]
		if i == tr.Seed {
			*v = np
		} else {
			v.Pos = x
			if err := task.prober.Probe(v); err != nil {
				return nil, 0, 0, false
			}
		}
		v.Charge = p.VertexCharge
		v.Tan, v.Nor = tan[i], nor[i]
	}
	return verts, tr.Seed, integrators.ArcLength(tr.Verts), true
}

// reduce sums the forces on a tractlet's vertices into one force on the
// thing. With Frenet averaging on, each vertex force is expressed in its
// own tangent/normal/binormal frame and rebuilt in the seed's frame, so a
// curved tractlet is not pulled sideways by its own bend.
func (s *Scheduler) reduce(t *thing.Thing) core.Vec3 {
	var sum core.Vec3
	p := &s.params
	seed := t.SeedPoint()
	if !p.Frenet || t.Len < p.FrenetMinLen || seed.Nor == (core.Vec3{}) {
		for i := range t.Verts {
			sum = sum.Add(t.Verts[i].Frc)
		}
		return sum
	}

	sT, sN := seed.Tan, seed.Nor
	sB := sT.Cross(sN)
	for i := range t.Verts {
		v := &t.Verts[i]
		along := v.Frc.Dot(v.Tan)
		if v.Nor == (core.Vec3{}) {
			sum = sum.Add(sT.Scale(along)).Add(v.Frc.Sub(v.Tan.Scale(along)))
			continue
		}
		b := v.Tan.Cross(v.Nor)
		sum = sum.Add(sT.Scale(along)).
			Add(sN.Scale(v.Frc.Dot(v.Nor))).
			Add(sB.Scale(v.Frc.Dot(b)))
	}
	return sum
}
