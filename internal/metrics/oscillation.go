package metrics

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/tenpush/internal/sim"
)

const (
	oscWindow     = 64
	oscMinSamples = 16
)

// SpeedOscillation is the share of mean-speed power, over the latest
// iterations, at frequencies above one cycle per 16 iterations. A run that
// settles smoothly stays near 0; one that rings without damping tends to 1.
type SpeedOscillation struct {
	name   string
	speeds []float64
}

func NewSpeedOscillation() *SpeedOscillation {
	return &SpeedOscillation{name: "speed_oscillation", speeds: make([]float64, 0, oscWindow)}
}

func (s *SpeedOscillation) Name() string { return s.name }

func (s *SpeedOscillation) Observe(st sim.IterStats) {
	if len(s.speeds) == oscWindow {
		copy(s.speeds, s.speeds[1:])
		s.speeds = s.speeds[:oscWindow-1]
	}
	s.speeds = append(s.speeds, st.MeanSpeed)
}

func (s *SpeedOscillation) Value() float64 {
	n := len(s.speeds)
	if n < oscMinSamples {
		return 0
	}

	mean := 0.0
	for _, v := range s.speeds {
		mean += v
	}
	mean /= float64(n)
	x := make([]float64, n)
	for i, v := range s.speeds {
		x[i] = v - mean
	}

	spectrum := fft.FFTReal(x)
	total, high := 0.0, 0.0
	for k := 1; k <= n/2; k++ {
		p := cmplx.Abs(spectrum[k])
		p *= p
		total += p
		if k*16 > n {
			high += p
		}
	}
	if total == 0 {
		return 0
	}
	return high / total
}

func (s *SpeedOscillation) Reset() {
	s.speeds = s.speeds[:0]
}
