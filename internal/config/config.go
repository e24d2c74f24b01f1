// Package config handles CLI configuration loading: defaults, then an
// optional YAML file, then command-line flags on top.
package config

// Config holds all settings for a transfer run.
type Config struct {
	Transfer TransferConfig `yaml:"transfer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TransferConfig holds pipeline thresholds and tuning.
type TransferConfig struct {
	// DistanceFactor scales the target bounding box diagonal into the
	// matcher's distance gate and the smoother's band radius.
	DistanceFactor   float64 `yaml:"distance_factor"`
	AngleDeg         float64 `yaml:"angle_deg"`
	SmoothIterations int     `yaml:"smooth_iterations"`
	SmoothAlpha      float64 `yaml:"smooth_alpha"`
	Workers          int     `yaml:"workers"`
	// Weighting is "cotangent" or "uniform".
	Weighting string `yaml:"weighting"`
	// Solver is "cg" or "dense".
	Solver string `yaml:"solver"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the reference pipeline's defaults.
func Default() *Config {
	return &Config{
		Transfer: TransferConfig{
			DistanceFactor:   0.05,
			AngleDeg:         30,
			SmoothIterations: 10,
			SmoothAlpha:      0.2,
			Workers:          0,
			Weighting:        "cotangent",
			Solver:           "cg",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
