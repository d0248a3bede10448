package tui

import "github.com/san-kum/tenpush/internal/sim"

// Frame is what the live view shows after one iteration.
type Frame struct {
	Stats    sim.IterStats
	Snapshot *sim.Snapshot
}

// Feed is a sim.Observer that forwards frames to the view without ever
// blocking the scheduler; frames are dropped while the view is busy.
type Feed struct {
	snapshot func() (*sim.Snapshot, error)
	frames   chan Frame
}

func NewFeed(s *sim.Scheduler, buffer int) *Feed {
	return &Feed{snapshot: s.Snapshot, frames: make(chan Frame, buffer)}
}

func (f *Feed) Frames() <-chan Frame { return f.frames }

// OnIteration is the only sender, so a full buffer stays full until the
// view reads from it and the snapshot would be wasted.
func (f *Feed) OnIteration(st sim.IterStats) {
	if len(f.frames) == cap(f.frames) {
		return
	}
	sn, err := f.snapshot()
	if err != nil {
		return
	}
	select {
	case f.frames <- Frame{Stats: st, Snapshot: sn}:
	default:
	}
}
