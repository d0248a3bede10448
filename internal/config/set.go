package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/tenpush/internal/core"
)

// tunable maps sweepable parameter names to the field they set.
var tunable = map[string]func(*Config) *float64{
	"drag":           func(c *Config) *float64 { return &c.Dynamics.Drag },
	"pre_drag":       func(c *Config) *float64 { return &c.Dynamics.PreDrag },
	"mass":           func(c *Config) *float64 { return &c.Dynamics.Mass },
	"step":           func(c *Config) *float64 { return &c.Dynamics.Step },
	"scale":          func(c *Config) *float64 { return &c.Dynamics.Scale },
	"nudge":          func(c *Config) *float64 { return &c.Dynamics.Nudge },
	"wall":           func(c *Config) *float64 { return &c.Dynamics.Wall },
	"contain":        func(c *Config) *float64 { return &c.Dynamics.Contain },
	"margin":         func(c *Config) *float64 { return &c.Domain.Margin },
	"threshold":      func(c *Config) *float64 { return &c.Tractlet.Threshold },
	"softness":       func(c *Config) *float64 { return &c.Tractlet.Softness },
	"anisotropy":     func(c *Config) *float64 { return &c.Field.Anisotropy },
	"min_mean_speed": func(c *Config) *float64 { return &c.Run.MinMeanSpeed },
}

// Set assigns a numeric parameter by name.
func (c *Config) Set(name string, v float64) error {
	field, ok := tunable[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", core.ErrConfig, name, Tunable())
	}
	*field(c) = v
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cc := *c
	return &cc
}

func Tunable() []string {
	names := make([]string, 0, len(tunable))
	for n := range tunable {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
