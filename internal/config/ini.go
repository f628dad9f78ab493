package config

import (
	"fmt"
	"sort"

	"gopkg.in/gcfg.v1"
)

// ExampleINIFile documents the INI layout accepted by LoadINI.
const ExampleINIFile = `[Particles]
Count = 15
RadiusMin = 0.01
RadiusMax = 0.05
MassMin = 0.001
MassMax = 0.01

[Physics]
Gravity = 1.0
Elasticity = 4.0
# BroadPhase = true

[Integrator]
Name = dopri5
MaxStep = 0.01
Atol = 1e-5
Rtol = 1e-5
# DenseOutput = true

[Run]
FPS = 30
Frames = 300
Seed = 1

# Explicit bodies replace random generation. Sections are applied in
# name order.
# [Body "a"]
# X = 0.5
# Y = 0.9
# Radius = 0.05
# Mass = 0.01
`

type iniFile struct {
	Particles struct {
		Count                int
		RadiusMin, RadiusMax float64
		MassMin, MassMax     float64
	}
	Physics struct {
		Gravity, Elasticity float64
		BroadPhase          bool
	}
	Integrator struct {
		Name                string
		MaxStep, Atol, Rtol float64
		FirstStep           float64
		MaxSteps            int
		DenseOutput         bool
	}
	Run struct {
		FPS    float64
		Frames int
		Seed   uint64
	}
	Body map[string]*struct {
		X, Y, VX, VY float64
		Radius, Mass float64
	}
}

// LoadINI reads a gcfg INI config. Fields missing from the file keep their
// defaults.
func LoadINI(path string) (*Config, error) {
	cfg := DefaultConfig()
	ini := iniFile{}
	ini.Particles.Count = cfg.Particles.Count
	ini.Particles.RadiusMin, ini.Particles.RadiusMax = cfg.Particles.Radius[0], cfg.Particles.Radius[1]
	ini.Particles.MassMin, ini.Particles.MassMax = cfg.Particles.Mass[0], cfg.Particles.Mass[1]
	ini.Physics.Gravity, ini.Physics.Elasticity = cfg.Gravity, cfg.Elasticity
	ini.Integrator.Name = cfg.Integrator.Name
	ini.Integrator.MaxStep, ini.Integrator.Atol, ini.Integrator.Rtol = cfg.Integrator.MaxStep, cfg.Integrator.Atol, cfg.Integrator.Rtol
	ini.Run.FPS, ini.Run.Frames, ini.Run.Seed = cfg.FPS, cfg.Frames, cfg.Seed

	if err := gcfg.ReadFileInto(&ini, path); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Particles.Count = ini.Particles.Count
	cfg.Particles.Radius = [2]float64{ini.Particles.RadiusMin, ini.Particles.RadiusMax}
	cfg.Particles.Mass = [2]float64{ini.Particles.MassMin, ini.Particles.MassMax}
	cfg.Gravity, cfg.Elasticity, cfg.BroadPhase = ini.Physics.Gravity, ini.Physics.Elasticity, ini.Physics.BroadPhase
	cfg.Integrator.Name = ini.Integrator.Name
	cfg.Integrator.MaxStep = ini.Integrator.MaxStep
	cfg.Integrator.Atol, cfg.Integrator.Rtol = ini.Integrator.Atol, ini.Integrator.Rtol
	cfg.Integrator.FirstStep, cfg.Integrator.MaxSteps = ini.Integrator.FirstStep, ini.Integrator.MaxSteps
	cfg.Integrator.DenseOutput = ini.Integrator.DenseOutput
	cfg.FPS, cfg.Frames, cfg.Seed = ini.Run.FPS, ini.Run.Frames, ini.Run.Seed

	names := make([]string, 0, len(ini.Body))
	for name := range ini.Body {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := ini.Body[name]
		cfg.Bodies = append(cfg.Bodies, BodyConfig{X: b.X, Y: b.Y, VX: b.VX, VY: b.VY, Radius: b.Radius, Mass: b.Mass})
	}
	return cfg, nil
}
