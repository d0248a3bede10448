package config

import "sort"

func preset(kind string, mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Field.Kind = kind
	mutate(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"circle": {
		"sparse": preset("circle", func(c *Config) {
			c.Run.Things = 80
			c.Dynamics.Scale = 0.15
		}),
		"dense": preset("circle", func(c *Config) {
			c.Run.Things = 600
			c.Run.Threads = 4
			c.Dynamics.Scale = 0.05
		}),
		"tractlets": preset("circle", func(c *Config) {
			c.Run.Things = 150
			c.Field.Anisotropy = 0.9
			c.Tractlet.Enabled = true
			c.Tractlet.Frenet = true
		}),
	},
	"noise": {
		"default": preset("noise", func(c *Config) {
			c.Run.Things = 300
			c.Run.Threads = 4
		}),
		"fibers": preset("noise", func(c *Config) {
			c.Run.Things = 200
			c.Run.Threads = 4
			c.Field.Anisotropy = 0.95
			c.Tractlet.Enabled = true
			c.Tractlet.Frenet = true
			c.Tractlet.MaxSteps = 8
			c.Force.DriftCorrect = true
		}),
	},
	"uniform": {
		"lattice": preset("uniform", func(c *Config) {
			c.Run.Things = 250
			c.Force.Spec = "cotan:1"
		}),
		"volume": preset("uniform", func(c *Config) {
			c.Run.Dim = 3
			c.Run.Things = 400
			c.Run.Threads = 4
			c.Run.EigenRes = 9
			c.Dynamics.Scale = 0.15
			c.Force.Spec = "gauss:3"
		}),
	},
}

func GetPreset(kind, name string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	cfg, ok := kindPresets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
