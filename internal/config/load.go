package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration: defaults overlaid with the YAML file at
// path when path is non-empty. Flag overrides are applied by the
// caller after loading.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enum fields. Callers that overlay
// settings after Load should validate again.
func (c *Config) Validate() error {
	t := c.Transfer
	if t.DistanceFactor <= 0 {
		return fmt.Errorf("distance_factor must be positive, got %g", t.DistanceFactor)
	}
	if t.AngleDeg <= 0 || t.AngleDeg > 180 {
		return fmt.Errorf("angle_deg must be in (0,180], got %g", t.AngleDeg)
	}
	if t.SmoothAlpha <= 0 || t.SmoothAlpha > 1 {
		return fmt.Errorf("smooth_alpha must be in (0,1], got %g", t.SmoothAlpha)
	}
	if t.SmoothIterations < 0 {
		return fmt.Errorf("smooth_iterations must not be negative, got %d", t.SmoothIterations)
	}
	switch t.Weighting {
	case "cotangent", "uniform":
	default:
		return fmt.Errorf("weighting must be cotangent or uniform, got %q", t.Weighting)
	}
	switch t.Solver {
	case "cg", "dense":
	default:
		return fmt.Errorf("solver must be cg or dense, got %q", t.Solver)
	}
	return nil
}
