package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/tenpush/internal/sim"
)

func snapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Dim:       2,
		Positions: []float64{-1, 1, 0.5, 0, 0.6, 0, 0.7, 0},
		Tensors:   make([]float64, 16),
		Things: []sim.ThingRecord{
			{Offset: 0, Count: 1, Seed: 0},
			{Offset: 1, Count: 3, Seed: 1},
		},
	}
}

func TestCanvasDraw(t *testing.T) {
	c := NewCanvas(21, 11)
	c.Draw(snapshot())

	if c.cells[0][0] != 'o' {
		t.Errorf("expected seed at top-left corner, got %q", c.cells[0][0])
	}
	x, y := c.cell(0.6, 0)
	if c.cells[y][x] != 'o' {
		t.Errorf("expected tractlet seed at (%d,%d), got %q", x, y, c.cells[y][x])
	}
	x, y = c.cell(0.5, 0)
	if c.cells[y][x] != '.' {
		t.Errorf("expected tractlet vertex at (%d,%d), got %q", x, y, c.cells[y][x])
	}

	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 13 {
		t.Errorf("expected 13 lines with borders, got %d", len(lines))
	}
}

func newTestModel() Model {
	return NewModel("test", make(chan Frame), make(chan struct{}), func() Outcome { return Outcome{} }, nil)
}

func TestModelTracksFrames(t *testing.T) {
	var m tea.Model = newTestModel()
	for i, v := range []float64{0.4, 0.2, 0.1} {
		m, _ = m.Update(frameMsg{Stats: sim.IterStats{Iter: i, MeanSpeed: v, Things: 4}, Snapshot: snapshot()})
	}

	view := m.View()
	if !strings.Contains(view, "iter 2") {
		t.Errorf("view missing iteration:\n%s", view)
	}
	if !strings.Contains(view, "mean speed") {
		t.Errorf("view missing speed chart:\n%s", view)
	}
	if got := len(m.(Model).history); got != 3 {
		t.Errorf("expected 3 history points, got %d", got)
	}
}

func TestModelShowsOutcome(t *testing.T) {
	var m tea.Model = newTestModel()
	m, _ = m.Update(doneMsg{Err: errors.New("speed diverged")})
	if !strings.Contains(m.View(), "failed: speed diverged") {
		t.Errorf("expected failure in view:\n%s", m.View())
	}

	m = newTestModel()
	m, _ = m.Update(doneMsg{Result: &sim.Result{Converged: true}})
	if !strings.Contains(m.View(), "converged") {
		t.Errorf("expected convergence in view:\n%s", m.View())
	}
}

func TestModelQuitCancels(t *testing.T) {
	cancelled := false
	m := NewModel("test", make(chan Frame), make(chan struct{}), func() Outcome { return Outcome{} }, func() { cancelled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Error("expected quit to cancel the run")
	}
	if cmd == nil {
		t.Error("expected a quit command")
	}
}

func TestFeedSkipsSnapshotWhenFull(t *testing.T) {
	calls := 0
	f := &Feed{
		snapshot: func() (*sim.Snapshot, error) { calls++; return snapshot(), nil },
		frames:   make(chan Frame, 1),
	}

	f.OnIteration(sim.IterStats{Iter: 0})
	f.OnIteration(sim.IterStats{Iter: 1})
	f.OnIteration(sim.IterStats{Iter: 2})
	if calls != 1 {
		t.Errorf("expected one snapshot while the view is busy, got %d", calls)
	}

	fr := <-f.Frames()
	if fr.Stats.Iter != 0 {
		t.Errorf("expected the first frame to be kept, got iter %d", fr.Stats.Iter)
	}
	f.OnIteration(sim.IterStats{Iter: 3})
	if calls != 2 {
		t.Errorf("expected a snapshot once the buffer drained, got %d calls", calls)
	}
}
