package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tenpush/internal/core"
	"github.com/san-kum/tenpush/internal/field"
	"github.com/san-kum/tenpush/internal/force"
	"github.com/san-kum/tenpush/internal/integrators"
	"github.com/san-kum/tenpush/internal/sim"
)

const (
	DefaultThreads = 1
	DefaultDim     = 2
	DefaultThings  = 200
	DefaultForce   = "spring:1,0.5"
	DefaultField   = "circle"
)

type Config struct {
	Run      RunConfig      `yaml:"run"`
	Domain   DomainConfig   `yaml:"domain"`
	Dynamics DynamicsConfig `yaml:"dynamics"`
	Force    ForceConfig    `yaml:"force"`
	Tractlet TractletConfig `yaml:"tractlet"`
	Field    FieldConfig    `yaml:"field"`
}

type RunConfig struct {
	Threads      int     `yaml:"threads"`
	Dim          int     `yaml:"dim"`
	Seed         int64   `yaml:"seed"`
	Things       int     `yaml:"things"`
	MinIter      int     `yaml:"min_iter"`
	MaxIter      int     `yaml:"max_iter"`
	MinMeanSpeed float64 `yaml:"min_mean_speed"`
	EigenRes     int     `yaml:"eigen_res"`
}

type DomainConfig struct {
	Margin         float64 `yaml:"margin"`
	SingleBin      bool    `yaml:"single_bin"`
	MaxBinsPerAxis int     `yaml:"max_bins_per_axis"`
}

type DynamicsConfig struct {
	Drag         float64 `yaml:"drag"`
	PreDrag      float64 `yaml:"pre_drag"`
	Mass         float64 `yaml:"mass"`
	Step         float64 `yaml:"step"`
	Scale        float64 `yaml:"scale"`
	Nudge        float64 `yaml:"nudge"`
	Wall         float64 `yaml:"wall"`
	Contain      float64 `yaml:"contain"`
	VertexCharge float64 `yaml:"vertex_charge"`
}

type ForceConfig struct {
	Spec         string `yaml:"spec"`
	DriftCorrect bool   `yaml:"drift_correct"`
	DriftClamp   bool   `yaml:"drift_clamp"`
}

type TractletConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Threshold    float64 `yaml:"threshold"`
	Softness     float64 `yaml:"softness"`
	Step         float64 `yaml:"step"`
	MaxSteps     int     `yaml:"max_steps"`
	Frenet       bool    `yaml:"frenet"`
	FrenetMinLen float64 `yaml:"frenet_min_len"`
	Integrator   string  `yaml:"integrator"`
}

type FieldConfig struct {
	Kind       string  `yaml:"kind"`
	Seed       int64   `yaml:"seed"`
	Anisotropy float64 `yaml:"anisotropy"`
	Frequency  float64 `yaml:"frequency"`
}

func DefaultConfig() *Config {
	p := sim.DefaultParams()
	return &Config{
		Run: RunConfig{
			Threads:      DefaultThreads,
			Dim:          DefaultDim,
			Seed:         p.Seed,
			Things:       DefaultThings,
			MinIter:      p.MinIter,
			MaxIter:      p.MaxIter,
			MinMeanSpeed: p.MinMeanSpeed,
			EigenRes:     p.EigenRes,
		},
		Domain: DomainConfig{
			Margin:         p.Margin,
			MaxBinsPerAxis: p.MaxBinsPerAxis,
		},
		Dynamics: DynamicsConfig{
			Drag:         p.Drag,
			PreDrag:      p.PreDrag,
			Mass:         p.Mass,
			Step:         p.Step,
			Scale:        p.Scale,
			Nudge:        p.Nudge,
			Wall:         p.Wall,
			Contain:      p.Contain,
			VertexCharge: p.VertexCharge,
		},
		Force: ForceConfig{
			Spec:       DefaultForce,
			DriftClamp: true,
		},
		Tractlet: TractletConfig{
			Threshold:    p.Threshold,
			Softness:     p.Softness,
			Step:         p.TractStep,
			MaxSteps:     p.TractMaxSteps,
			FrenetMinLen: p.FrenetMinLen,
			Integrator:   "rk4",
		},
		Field: FieldConfig{
			Kind:       DefaultField,
			Seed:       1,
			Anisotropy: 0.8,
			Frequency:  1.5,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrConfig, path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal returns the YAML form stored alongside runs.
func (c *Config) Marshal() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func Unmarshal(doc string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(doc), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	return cfg, nil
}

// Validate checks what the scheduler cannot: the force specification, the
// field and the fiber integrator. Everything else is checked by Params.
func (c *Config) Validate() error {
	if _, err := force.Parse(c.Force.Spec); err != nil {
		return err
	}
	if _, err := integrators.NewStepper(c.Tractlet.Integrator); err != nil {
		return err
	}
	if _, err := c.NewField(); err != nil {
		return err
	}
	p, err := c.Params(nil)
	if err != nil {
		return err
	}
	return p.Validate()
}

// Params converts the document into scheduler parameters.
func (c *Config) Params(logger *slog.Logger) (sim.Params, error) {
	model, err := force.Parse(c.Force.Spec)
	if err != nil {
		return sim.Params{}, err
	}
	return sim.Params{
		Threads:        c.Run.Threads,
		Dim:            c.Run.Dim,
		Margin:         c.Domain.Margin,
		SingleBin:      c.Domain.SingleBin,
		MaxBinsPerAxis: c.Domain.MaxBinsPerAxis,
		EigenRes:       c.Run.EigenRes,
		Drag:           c.Dynamics.Drag,
		PreDrag:        c.Dynamics.PreDrag,
		Mass:           c.Dynamics.Mass,
		Step:           c.Dynamics.Step,
		Scale:          c.Dynamics.Scale,
		Nudge:          c.Dynamics.Nudge,
		Wall:           c.Dynamics.Wall,
		Contain:        c.Dynamics.Contain,
		VertexCharge:   c.Dynamics.VertexCharge,
		Force:          model,
		DriftCorrect:   c.Force.DriftCorrect,
		DriftClamp:     c.Force.DriftClamp,
		Tractlets:      c.Tractlet.Enabled,
		Threshold:      c.Tractlet.Threshold,
		Softness:       c.Tractlet.Softness,
		TractStep:      c.Tractlet.Step,
		TractMaxSteps:  c.Tractlet.MaxSteps,
		Frenet:         c.Tractlet.Frenet,
		FrenetMinLen:   c.Tractlet.FrenetMinLen,
		MinMeanSpeed:   c.Run.MinMeanSpeed,
		MinIter:        c.Run.MinIter,
		MaxIter:        c.Run.MaxIter,
		NumThings:      c.Run.Things,
		Seed:           c.Run.Seed,
		Logger:         logger,
	}, nil
}

// NewField builds the tensor field named by the field section.
func (c *Config) NewField() (field.Field, error) {
	f := c.Field
	switch strings.ToLower(f.Kind) {
	case "uniform":
		return field.NewUniform(c.Run.Dim, core.Identity())
	case "circle":
		return field.NewCircle(c.Run.Dim, f.Anisotropy)
	case "noise":
		return field.NewNoise(c.Run.Dim, f.Seed, f.Frequency, f.Anisotropy)
	}
	return nil, fmt.Errorf("%w: unknown field kind %q", core.ErrConfig, f.Kind)
}

func (c *Config) NewStepper() (integrators.Stepper, error) {
	return integrators.NewStepper(c.Tractlet.Integrator)
}

// FieldKinds lists the accepted field.kind values.
func FieldKinds() []string {
	return []string{"circle", "noise", "uniform"}
}
