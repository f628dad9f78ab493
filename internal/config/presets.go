package config

import (
	"sort"

	"github.com/san-kum/boxsim/internal/integrators"
)

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"dense": {
		Particles:  ParticlesConfig{Count: 80, Radius: [2]float64{0.01, 0.03}, Mass: [2]float64{0.001, 0.01}},
		Gravity:    1.0,
		Elasticity: 4.0,
		BroadPhase: true,
		Integrator: IntegratorConfig{Name: "dopri5", Options: integrators.Options{MaxStep: 1e-2, Atol: 1e-5, Rtol: 1e-5}},
		FPS:        30,
		Frames:     300,
		Seed:       7,
	},
	"drop": {
		Bodies: []BodyConfig{
			{X: 0.5, Y: 0.9, Radius: 0.05, Mass: 0.01},
		},
		Gravity:    1.0,
		Elasticity: 4.0,
		Integrator: IntegratorConfig{Name: "dopri5", Options: integrators.Options{MaxStep: 1e-2, Atol: 1e-6, Rtol: 1e-6}},
		FPS:        30,
		Frames:     300,
	},
	"rigid": {
		Particles:  ParticlesConfig{Count: 15, Radius: [2]float64{0.01, 0.05}, Mass: [2]float64{0.001, 0.01}},
		Gravity:    1.0,
		Elasticity: 50.0,
		Integrator: IntegratorConfig{Name: "dopri5", Options: integrators.Options{MaxStep: 2e-3, Atol: 1e-6, Rtol: 1e-6}},
		FPS:        30,
		Frames:     300,
		Seed:       1,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
