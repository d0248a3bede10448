package metrics

import "github.com/san-kum/tenpush/internal/sim"

// MeanSpeed reports the mean thing speed of the latest iteration.
type MeanSpeed struct {
	name  string
	last  float64
	valid bool
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(st sim.IterStats) {
	m.last = st.MeanSpeed
	m.valid = true
}

func (m *MeanSpeed) Value() float64 {
	if !m.valid {
		return 0
	}
	return m.last
}

func (m *MeanSpeed) Reset() {
	m.last = 0
	m.valid = false
}

// SpeedDecay is the ratio of the latest mean speed to the largest one seen,
// a rough measure of how far the system has settled.
type SpeedDecay struct {
	name string
	peak float64
	last float64
}

func NewSpeedDecay() *SpeedDecay {
	return &SpeedDecay{name: "speed_decay"}
}

func (s *SpeedDecay) Name() string { return s.name }

func (s *SpeedDecay) Observe(st sim.IterStats) {
	if st.MeanSpeed > s.peak {
		s.peak = st.MeanSpeed
	}
	s.last = st.MeanSpeed
}

func (s *SpeedDecay) Value() float64 {
	if s.peak == 0 {
		return 0
	}
	return s.last / s.peak
}

func (s *SpeedDecay) Reset() {
	s.peak = 0
	s.last = 0
}
