package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/boxsim/internal/dynamo"
	"github.com/san-kum/boxsim/internal/integrators"
)

const (
	DefaultCount      = 15
	DefaultGravity    = 1.0
	DefaultElasticity = 4.0
	DefaultMaxStep    = 1e-2
	DefaultTolerance  = 1e-5
	DefaultFPS        = 30.0
	DefaultFrames     = 300
	DefaultSeed       = 1
)

type Config struct {
	Particles  ParticlesConfig  `yaml:"particles"`
	Bodies     []BodyConfig     `yaml:"bodies,omitempty"`
	Gravity    float64          `yaml:"gravity"`
	Elasticity float64          `yaml:"elasticity"`
	BroadPhase bool             `yaml:"broad_phase,omitempty"`
	Integrator IntegratorConfig `yaml:"integrator"`
	FPS        float64          `yaml:"fps"`
	Frames     int              `yaml:"frames"`
	Seed       uint64           `yaml:"seed"`
}

// ParticlesConfig describes randomly generated particles. Radius and Mass
// are [min, max] ranges sampled uniformly.
type ParticlesConfig struct {
	Count  int        `yaml:"count"`
	Radius [2]float64 `yaml:"radius,flow"`
	Mass   [2]float64 `yaml:"mass,flow"`
}

// BodyConfig places one particle explicitly. When any bodies are listed
// they replace random generation.
type BodyConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	VX     float64 `yaml:"vx,omitempty"`
	VY     float64 `yaml:"vy,omitempty"`
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
}

type IntegratorConfig struct {
	Name                string `yaml:"name"`
	integrators.Options `yaml:",inline"`
	DenseOutput         bool `yaml:"dense_output,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: ParticlesConfig{
			Count:  DefaultCount,
			Radius: [2]float64{0.01, 0.05},
			Mass:   [2]float64{0.001, 0.01},
		},
		Gravity:    DefaultGravity,
		Elasticity: DefaultElasticity,
		Integrator: IntegratorConfig{
			Name: "dopri5",
			Options: integrators.Options{
				MaxStep: DefaultMaxStep,
				Atol:    DefaultTolerance,
				Rtol:    DefaultTolerance,
			},
		},
		FPS:    DefaultFPS,
		Frames: DefaultFrames,
		Seed:   DefaultSeed,
	}
}

// Load reads a YAML config. Fields missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Bodies = append([]BodyConfig(nil), c.Bodies...)
	return &cp
}

// Duration is the simulated time covered by all frames.
func (c *Config) Duration() float64 {
	return float64(c.Frames) / c.FPS
}

func (c *Config) Validate() error {
	if len(c.Bodies) == 0 {
		if c.Particles.Count <= 0 {
			return fmt.Errorf("%w: particle count must be positive, got %d", dynamo.ErrInvalidParams, c.Particles.Count)
		}
		if err := checkRange("radius", c.Particles.Radius); err != nil {
			return err
		}
		if err := checkRange("mass", c.Particles.Mass); err != nil {
			return err
		}
	}
	if !(c.FPS > 0) || math.IsInf(c.FPS, 0) {
		return fmt.Errorf("%w: fps must be positive, got %g", dynamo.ErrInvalidParams, c.FPS)
	}
	if c.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", dynamo.ErrInvalidParams, c.Frames)
	}
	if c.Integrator.Name == "" {
		return fmt.Errorf("%w: integrator name is empty", dynamo.ErrInvalidParams)
	}
	if err := c.Integrator.Options.Validate(); err != nil {
		return err
	}
	_, err := c.Parameters()
	return err
}

func checkRange(name string, r [2]float64) error {
	if !(r[0] > 0) || r[1] < r[0] || math.IsInf(r[1], 0) {
		return fmt.Errorf("%w: %s range [%g, %g] must satisfy 0 < min <= max", dynamo.ErrInvalidParams, name, r[0], r[1])
	}
	return nil
}
