package metrics

import "github.com/san-kum/tenpush/internal/sim"

// TractletFraction averages, over all iterations, the share of things
// represented as tractlets.
type TractletFraction struct {
	name    string
	sum     float64
	samples int
}

func NewTractletFraction() *TractletFraction {
	return &TractletFraction{name: "tractlet_fraction"}
}

func (t *TractletFraction) Name() string { return t.name }

func (t *TractletFraction) Observe(st sim.IterStats) {
	if st.Things > 0 {
		t.sum += float64(st.Tractlets) / float64(st.Things)
	}
	t.samples++
}

func (t *TractletFraction) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.sum / float64(t.samples)
}

func (t *TractletFraction) Reset() {
	t.sum = 0
	t.samples = 0
}

// Losses counts things destroyed for leaving the domain.
type Losses struct {
	name      string
	destroyed int
}

func NewLosses() *Losses {
	return &Losses{name: "losses"}
}

func (l *Losses) Name() string { return l.name }

func (l *Losses) Observe(st sim.IterStats) { l.destroyed += st.Rebin.Destroyed }

func (l *Losses) Value() float64 { return float64(l.destroyed) }

func (l *Losses) Reset() { l.destroyed = 0 }

// Coincident counts point pairs skipped because they sat on top of each
// other.
type Coincident struct {
	name  string
	total int
}

func NewCoincident() *Coincident {
	return &Coincident{name: "coincident"}
}

func (c *Coincident) Name() string { return c.name }

func (c *Coincident) Observe(st sim.IterStats) { c.total += st.Coincident }

func (c *Coincident) Value() float64 { return float64(c.total) }

func (c *Coincident) Reset() { c.total = 0 }
