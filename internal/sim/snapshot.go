package sim

import (
	"fmt"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/field"
	"github.com/san-kum/tenpush/internal/integrators"
	"github.com/san-kum/tenpush/internal/thing"
)

// ThingRecord locates one thing's vertices in a Snapshot.
type ThingRecord struct {
	Offset int
	Count  int
	Seed   int
}

// Snapshot is the live population in flat arrays, ordered bin by bin, then
// thing by thing, then vertex by vertex. Positions hold Dim floats per
// vertex and Tensors hold core.PackedLen(Dim).
type Snapshot struct {
	Dim       int
	Iter      int
	Positions []float64
	Tensors   []float64
	Things    []ThingRecord
}

func (sn *Snapshot) NumVertices() int {
	if sn.Dim == 0 {
		return 0
	}
	return len(sn.Positions) / sn.Dim
}

// Vertex returns the position of vertex i.
func (sn *Snapshot) Vertex(i int) core.Vec3 {
	var v core.Vec3
	copy(v[:sn.Dim], sn.Positions[i*sn.Dim:])
	return v
}

func (sn *Snapshot) validate() error {
	if sn.Dim != 2 && sn.Dim != 3 {
		return fmt.Errorf("%w: snapshot dimension %d", core.ErrConfig, sn.Dim)
	}
	n := len(sn.Positions) / sn.Dim
	if len(sn.Positions) != n*sn.Dim || len(sn.Tensors) != n*core.PackedLen(sn.Dim) {
		return fmt.Errorf("%w: snapshot arrays disagree on vertex count", core.ErrConfig)
	}
	for i, r := range sn.Things {
		if r.Count < 1 || r.Offset < 0 || r.Offset+r.Count > n || r.Seed < 0 || r.Seed >= r.Count {
			return fmt.Errorf("%w: snapshot thing %d out of range", core.ErrConfig, i)
		}
	}
	return nil
}

// Snapshot extracts the live population. It may be called whenever no
// iteration is running.
func (s *Scheduler) Snapshot() (*Snapshot, error) {
	if s.phase == PhaseFinished {
		return nil, core.ErrFinished
	}
	if s.reg == nil {
		return nil, fmt.Errorf("snapshot before start: %w", core.ErrConfig)
	}

	dim := s.params.Dim
	sn := &Snapshot{Dim: dim, Iter: s.iter}
	s.reg.Each(func(_ int, t *thing.Thing) {
		sn.Things = append(sn.Things, ThingRecord{
			Offset: len(sn.Positions) / dim,
			Count:  len(t.Verts),
			Seed:   t.Seed,
		})
		for i := range t.Verts {
			v := &t.Verts[i]
			sn.Positions = append(sn.Positions, v.Pos[:dim]...)
			sn.Tensors = v.Ten.Pack(sn.Tensors, dim)
		}
	})
	return sn, nil
}

// Load adds the things of sn to the population, at rest. Tensors come from
// the snapshot; inverses, anisotropy and containment are recomputed.
// Nothing is added if any seed or vertex lies outside the domain.
func (s *Scheduler) Load(sn *Snapshot) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("load in phase %s: %w", s.phase, core.ErrConfig)
	}
	if err := sn.validate(); err != nil {
		return err
	}
	if sn.Dim != s.params.Dim {
		return fmt.Errorf("%w: snapshot is %d-D but the run is %d-D", core.ErrConfig, sn.Dim, s.params.Dim)
	}

	dim := sn.Dim
	tl := core.PackedLen(dim)
	things := make([]*thing.Thing, len(sn.Things))
	bins := make([]int, len(sn.Things))
	for i, r := range sn.Things {
		verts := make([]thing.Point, r.Count)
		pos := make([]core.Vec3, r.Count)
		for j := range verts {
			k := r.Offset + j
			v := &verts[j]
			v.Pos = sn.Vertex(k)
			if _, ok := s.grid.Locate(v.Pos); !ok {
				return fmt.Errorf("loading vertex %d at %v: %w", k, v.Pos, core.ErrBinLocate)
			}
			v.Ten = core.Unpack(sn.Tensors[k*tl:(k+1)*tl], dim)
			inv, err := field.Invert(v.Ten, dim)
			if err != nil {
				return fmt.Errorf("loading vertex %d: %w", k, err)
			}
			e, err := field.Decompose(v.Ten, dim)
			if err != nil {
				return fmt.Errorf("loading vertex %d: %w", k, err)
			}
			v.Inv = inv
			v.Aniso = field.Anisotropy(e)
			v.Cnt = field.Containment(v.Pos, dim)
			v.Charge = 1
			pos[j] = v.Pos
		}

		var t *thing.Thing
		if r.Count == 1 {
			t = thing.NewSingle(verts[0])
		} else {
			tan, nor := integrators.Frames(pos)
			for j := range verts {
				verts[j].Tan, verts[j].Nor = tan[j], nor[j]
				verts[j].Charge = s.params.VertexCharge
			}
			t = thing.NewPolyline(verts, r.Seed, integrators.ArcLength(pos))
		}
		bins[i], _ = s.grid.Locate(t.SeedPoint().Pos)
		things[i] = t
	}

	for i, t := range things {
		s.reg.Insert(t)
		s.reg.Bins[bins[i]].Things = append(s.reg.Bins[bins[i]].Things, t.ID)
		for j := range t.Verts {
			b, _ := s.grid.Locate(t.Verts[j].Pos)
			s.reg.IndexVertex(t, j, b)
		}
	}
	s.log.Info("snapshot loaded", "things", len(things), "vertices", sn.NumVertices())
	return nil
}
