package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tenpush/internal/sim"
)

const (
	canvasWidth  = 60
	canvasHeight = 24
	historyLen   = 120
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Outcome is how the scheduler's Run ended.
type Outcome struct {
	Result *sim.Result
	Err    error
}

type frameMsg Frame

type doneMsg Outcome

type Model struct {
	title   string
	frames  <-chan Frame
	done    <-chan struct{}
	result  func() Outcome
	cancel  context.CancelFunc
	canvas  *Canvas
	history []float64
	last    Frame
	outcome *Outcome
}

// NewModel shows frames until the view is closed. done is closed when the
// run ends, after which result reports how.
func NewModel(title string, frames <-chan Frame, done <-chan struct{}, result func() Outcome, cancel context.CancelFunc) Model {
	return Model{
		title:   title,
		frames:  frames,
		done:    done,
		result:  result,
		cancel:  cancel,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		history: make([]float64, 0, historyLen),
	}
}

func waitFrame(frames <-chan Frame) tea.Cmd {
	return func() tea.Msg { return frameMsg(<-frames) }
}

func waitDone(done <-chan struct{}, result func() Outcome) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg(result())
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitFrame(m.frames), waitDone(m.done, m.result))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case frameMsg:
		m.last = Frame(msg)
		m.history = append(m.history, msg.Stats.MeanSpeed)
		if len(m.history) > historyLen {
			m.history = m.history[1:]
		}
		m.canvas.Draw(msg.Snapshot)
		if m.outcome != nil {
			return m, nil
		}
		return m, waitFrame(m.frames)
	case doneMsg:
		o := Outcome(msg)
		m.outcome = &o
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(cyan.Render("tenpush") + "  " + white.Render(m.title) + "\n\n")
	b.WriteString(m.canvas.String())

	st := m.last.Stats
	b.WriteString(dim.Render(fmt.Sprintf("iter %d  things %d  tractlets %d  vertices %d  lost %d",
		st.Iter, st.Things, st.Tractlets, st.Vertices, st.Rebin.Destroyed)) + "\n")
	b.WriteString(yellow.Render(fmt.Sprintf("mean speed %.3g", st.MeanSpeed)) + "\n\n")

	if len(m.history) > 1 {
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(canvasWidth),
			asciigraph.Caption("mean speed")))
		b.WriteString("\n\n")
	}

	switch {
	case m.outcome == nil:
		b.WriteString(dim.Render("running, q to stop"))
	case m.outcome.Err != nil:
		b.WriteString(red.Render("failed: "+m.outcome.Err.Error()) + dim.Render("  q to exit"))
	case m.outcome.Result != nil && m.outcome.Result.Converged:
		b.WriteString(green.Render("converged") + dim.Render("  q to exit"))
	default:
		b.WriteString(white.Render("stopped") + dim.Render("  q to exit"))
	}
	b.WriteString("\n")
	return b.String()
}

// Run drives s.Run(ctx) in the background while showing the live view.
// Quitting the view cancels the run; Run waits for the scheduler to stop
// before returning.
func Run(ctx context.Context, s *sim.Scheduler, title string) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := NewFeed(s, 1)
	s.AddObserver(feed)

	var out Outcome
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := s.Run(ctx)
		out = Outcome{Result: res, Err: err}
	}()

	_, err := tea.NewProgram(NewModel(title, feed.Frames(), done, func() Outcome { return out }, cancel)).Run()
	cancel()
	<-done
	if err != nil {
		return out.Result, fmt.Errorf("live view: %w", err)
	}
	return out.Result, out.Err
}
