package thing

// Bin owns the things seeded inside its cell and indexes every vertex that
// lies inside it.
type Bin struct {
	Things []ID
	Points []PointRef
}

func (b *Bin) Empty() bool { return len(b.Things) == 0 && len(b.Points) == 0 }

type slot struct {
	gen   uint32
	thing *Thing
}

// Registry is the arena of live things plus the bins that own them.
//
// Get and Resolve may be called concurrently while no goroutine mutates the
// registry. Insert, Destroy and any change to a bin's Things list must only
// happen while no stage is running; a stage may append to the Points list of
// the bin it has claimed.
type Registry struct {
	Bins []Bin

	slots []slot
	free  []uint32
	live  int
}

func NewRegistry(numBins int) *Registry {
	return &Registry{Bins: make([]Bin, numBins)}
}

// Insert stores t in the arena and assigns its ID. It does not place t in
// any bin.
func (r *Registry) Insert(t *Thing) ID {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[idx]
	s.thing = t
	t.ID = ID{Index: idx, Gen: s.gen}
	r.live++
	return t.ID
}

// Add inserts t, gives it to bin and indexes all its vertices there.
func (r *Registry) Add(t *Thing, bin int) ID {
	id := r.Insert(t)
	r.Bins[bin].Things = append(r.Bins[bin].Things, id)
	r.IndexVertices(t, bin)
	return id
}

// IndexVertices appends refs for every current vertex of t to bin.
func (r *Registry) IndexVertices(t *Thing, bin int) {
	b := &r.Bins[bin]
	for v := range t.Verts {
		b.Points = append(b.Points, PointRef{Thing: t.ID, Vert: v, Epoch: t.epoch})
	}
}

// IndexVertex appends a ref for vertex v of t to bin.
func (r *Registry) IndexVertex(t *Thing, v, bin int) {
	r.Bins[bin].Points = append(r.Bins[bin].Points, PointRef{Thing: t.ID, Vert: v, Epoch: t.epoch})
}

// Get returns the live thing for id, or nil if it was destroyed.
func (r *Registry) Get(id ID) *Thing {
	if int(id.Index) >= len(r.slots) {
		return nil
	}
	s := r.slots[id.Index]
	if s.gen != id.Gen || s.thing == nil {
		return nil
	}
	return s.thing
}

// Resolve returns the thing and vertex a ref points to, or nils when the
// thing is gone or its vertices were replaced since the ref was made.
func (r *Registry) Resolve(ref PointRef) (*Thing, *Point) {
	t := r.Get(ref.Thing)
	if t == nil || t.epoch != ref.Epoch || ref.Vert >= len(t.Verts) {
		return nil, nil
	}
	return t, &t.Verts[ref.Vert]
}

// Destroy frees id's slot. Refs to it stop resolving; removing id from its
// bin is the caller's job.
func (r *Registry) Destroy(id ID) {
	if r.Get(id) == nil {
		return
	}
	s := &r.slots[id.Index]
	s.thing = nil
	s.gen++
	r.free = append(r.free, id.Index)
	r.live--
}

// Len is the number of live things.
func (r *Registry) Len() int { return r.live }

// Each visits live things bin by bin, in bin list order.
func (r *Registry) Each(fn func(bin int, t *Thing)) {
	for b := range r.Bins {
		for _, id := range r.Bins[b].Things {
			if t := r.Get(id); t != nil {
				fn(b, t)
			}
		}
	}
}

// Reset drops every thing and empties all bins, resizing to numBins.
func (r *Registry) Reset(numBins int) {
	r.Bins = make([]Bin, numBins)
	r.slots = r.slots[:0]
	r.free = r.free[:0]
	r.live = 0
}
