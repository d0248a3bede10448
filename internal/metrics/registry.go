package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/sim"
)

var registry = map[string]func() sim.Metric{
	"mean_speed":        func() sim.Metric { return NewMeanSpeed() },
	"speed_decay":       func() sim.Metric { return NewSpeedDecay() },
	"speed_oscillation": func() sim.Metric { return NewSpeedOscillation() },
	"tractlet_fraction": func() sim.Metric { return NewTractletFraction() },
	"losses":            func() sim.Metric { return NewLosses() },
	"coincident":        func() sim.Metric { return NewCoincident() },
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func New(name string) (sim.Metric, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q", core.ErrConfig, name)
	}
	return ctor(), nil
}

// All returns one fresh instance of every metric, sorted by name.
func All() []sim.Metric {
	out := make([]sim.Metric, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n]())
	}
	return out
}
