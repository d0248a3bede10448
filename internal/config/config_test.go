package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/tenpush/internal/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Field.Kind != "circle" {
		t.Errorf("expected field circle, got %s", cfg.Field.Kind)
	}
	if cfg.Run.Threads < 1 {
		t.Error("threads should be at least 1")
	}
	if !cfg.Force.DriftClamp {
		t.Error("drift clamp should default to on")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero threads", func(c *Config) { c.Run.Threads = 0 }, core.ErrConfig},
		{"dim 4", func(c *Config) { c.Run.Dim = 4 }, core.ErrConfig},
		{"negative scale", func(c *Config) { c.Dynamics.Scale = -1 }, core.ErrConfig},
		{"unknown force", func(c *Config) { c.Force.Spec = "magnet:1" }, core.ErrParse},
		{"force arity", func(c *Config) { c.Force.Spec = "spring:1" }, core.ErrParse},
		{"unknown field", func(c *Config) { c.Field.Kind = "vortex" }, core.ErrConfig},
		{"bad integrator", func(c *Config) { c.Tractlet.Integrator = "leapfrog" }, core.ErrConfig},
		{"anisotropy out of range", func(c *Config) { c.Field.Anisotropy = 1 }, core.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Run.Threads = 3
	cfg.Force.Spec = "gauss:4"
	cfg.Tractlet.Enabled = true

	p, err := cfg.Params(nil)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Threads != 3 {
		t.Errorf("expected 3 threads, got %d", p.Threads)
	}
	if p.Force.Name() != "gauss" {
		t.Errorf("expected gauss force, got %s", p.Force.Name())
	}
	if !p.Tractlets {
		t.Error("expected tractlets enabled")
	}
	if p.NumThings != cfg.Run.Things {
		t.Errorf("expected %d things, got %d", cfg.Run.Things, p.NumThings)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Run.Things = 42
	cfg.Field.Kind = "noise"
	cfg.Tractlet.Frenet = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Run.Things != 42 || got.Field.Kind != "noise" || !got.Tractlet.Frenet {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Unmarshal("run:\n  things: 7\n")
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Run.Things != 7 {
		t.Errorf("expected 7 things, got %d", cfg.Run.Things)
	}
	if cfg.Dynamics.Mass != DefaultConfig().Dynamics.Mass {
		t.Errorf("expected default mass, got %f", cfg.Dynamics.Mass)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("circle", "tractlets")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if !cfg.Tractlet.Enabled {
		t.Error("expected tractlets enabled")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("circle", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "sparse") != nil {
		t.Error("expected nil for nonexistent field kind")
	}
}

func TestPresetsValidate(t *testing.T) {
	for kind := range Presets {
		for _, name := range ListPresets(kind) {
			if err := GetPreset(kind, name).Validate(); err != nil {
				t.Errorf("preset %s/%s: %v", kind, name, err)
			}
		}
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent field kind")
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Set("scale", 0.25); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Dynamics.Scale != 0.25 {
		t.Errorf("expected scale 0.25, got %f", cfg.Dynamics.Scale)
	}
	if err := cfg.Set("gravity", 1); !errors.Is(err, core.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}

	clone := cfg.Clone()
	clone.Dynamics.Scale = 1
	if cfg.Dynamics.Scale != 0.25 {
		t.Error("clone shares state with the original")
	}
}
