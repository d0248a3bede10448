package sim

import "time"

type Stage int

const (
	StageForce Stage = iota
	StageUpdate
)

func (s Stage) String() string {
	if s == StageUpdate {
		return "update"
	}
	return "force"
}

type Phase int

const (
	PhaseCreated Phase = iota
	PhaseIdle
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// IterStats summarizes one completed iteration.
type IterStats struct {
	Iter       int
	MeanSpeed  float64
	Things     int
	Tractlets  int
	Vertices   int
	Coincident int
	Rebin      RebinStats
	Elapsed    time.Duration
}

type Metric interface {
	Name() string
	Observe(st IterStats)
	Value() float64
	Reset()
}

type Observer interface {
	OnIteration(st IterStats)
}

type Result struct {
	History   []IterStats
	Converged bool
	Metrics   map[string]float64
}
