package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/boxsim/internal/dynamo"
)

var setters = map[string]func(*Config, float64){
	"count": func(c *Config, v float64) {
		c.Particles.Count = int(v)
		c.Bodies = nil
	},
	"gravity":    func(c *Config, v float64) { c.Gravity = v },
	"elasticity": func(c *Config, v float64) { c.Elasticity = v },
	"fps":        func(c *Config, v float64) { c.FPS = v },
	"frames":     func(c *Config, v float64) { c.Frames = int(v) },
	"seed":       func(c *Config, v float64) { c.Seed = uint64(v) },
	"max_step":   func(c *Config, v float64) { c.Integrator.MaxStep = v },
	"atol":       func(c *Config, v float64) { c.Integrator.Atol = v },
	"rtol":       func(c *Config, v float64) { c.Integrator.Rtol = v },
}

// Set assigns a numeric field by its YAML name. Setting count discards
// explicit bodies. The result is not validated.
func (c *Config) Set(name string, value float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", dynamo.ErrInvalidParams, name, SettableParams())
	}
	set(c, value)
	return nil
}

// SettableParams lists the names accepted by Set.
func SettableParams() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
