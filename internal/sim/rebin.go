package sim

import (
	"github.com/san-kum/tenpush/internal/grid"
	"github.com/san-kum/tenpush/internal/thing"
)

type RebinStats struct {
	Moved     int
	Dropped   int
	Destroyed int
}

// Rebin moves every thing to the bin holding its seed and every vertex ref
// to the bin holding its vertex. Things whose seed left the domain are
// destroyed; refs to destroyed things, replaced vertices or positions
// outside the domain are dropped. Moves are collected first and applied
// afterwards, so nothing is visited twice. Rebin must not run concurrently
// with a stage.
func Rebin(g *grid.Grid, r *thing.Registry) RebinStats {
	var st RebinStats

	type thingMove struct {
		id  thing.ID
		bin int
	}
	var tmoves []thingMove
	for b := range r.Bins {
		bin := &r.Bins[b]
		kept := bin.Things[:0]
		for _, id := range bin.Things {
			t := r.Get(id)
			if t == nil {
				continue
			}
			nb, ok := g.Locate(t.SeedPoint().Pos)
			switch {
			case !ok:
				r.Destroy(id)
				st.Destroyed++
			case nb != b:
				tmoves = append(tmoves, thingMove{id, nb})
				st.Moved++
			default:
				kept = append(kept, id)
			}
		}
		bin.Things = kept
	}
	for _, m := range tmoves {
		r.Bins[m.bin].Things = append(r.Bins[m.bin].Things, m.id)
	}

	type pointMove struct {
		ref thing.PointRef
		bin int
	}
	var pmoves []pointMove
	for b := range r.Bins {
		bin := &r.Bins[b]
		kept := bin.Points[:0]
		for _, ref := range bin.Points {
			_, pt := r.Resolve(ref)
			if pt == nil {
				st.Dropped++
				continue
			}
			nb, ok := g.Locate(pt.Pos)
			switch {
			case !ok:
				st.Dropped++
			case nb != b:
				pmoves = append(pmoves, pointMove{ref, nb})
				st.Moved++
			default:
				kept = append(kept, ref)
			}
		}
		bin.Points = kept
	}
	for _, m := range pmoves {
		r.Bins[m.bin].Points = append(r.Bins[m.bin].Points, m.ref)
	}
	return st
}
