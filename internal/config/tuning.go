package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ktkachuk/teps/internal/teps"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* methods supply defaults for the rest.
type TuningConfig struct {
	// Engine params
	MaxCentroids      *int     `json:"max_centroids,omitempty"`
	LearningRate      *float64 `json:"learning_rate,omitempty"`
	LearningRateDecay *float64 `json:"learning_rate_decay,omitempty"`
	MinLearningRate   *float64 `json:"min_learning_rate,omitempty"`
	NoveltyMultiplier *float64 `json:"novelty_multiplier,omitempty"`
	OutlierMultiplier *float64 `json:"outlier_multiplier,omitempty"`
	MinSpread         *float64 `json:"min_spread,omitempty"`
	MinDwell          *int     `json:"min_dwell,omitempty"`
	WarmupSamples     *int     `json:"warmup_samples,omitempty"`
	DistanceMetric    *string  `json:"distance_metric,omitempty"`

	// Featurizer params
	WindowSize *int `json:"window_size,omitempty"`

	// Storage params
	FlushInterval *string `json:"flush_interval,omitempty"` // duration string like "2s"
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and stay under the size cap. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks file-level constraints. Engine invariants (positive
// min_dwell, multiplier ordering) are enforced by the engine at construction
// so a bad override fails there with a precise error.
func (c *TuningConfig) Validate() error {
	if c.FlushInterval != nil && *c.FlushInterval != "" {
		if _, err := time.ParseDuration(*c.FlushInterval); err != nil {
			return fmt.Errorf("invalid flush_interval '%s': %w", *c.FlushInterval, err)
		}
	}
	if c.WindowSize != nil && *c.WindowSize < 1 {
		return fmt.Errorf("window_size must be >= 1, got %d", *c.WindowSize)
	}
	if c.DistanceMetric != nil {
		if _, err := teps.ParseMetric(*c.DistanceMetric); err != nil {
			return err
		}
	}
	return nil
}

// GetWindowSize returns the window_size value or the default.
func (c *TuningConfig) GetWindowSize() int {
	if c.WindowSize == nil {
		return 20
	}
	return *c.WindowSize
}

// GetFlushInterval parses and returns the flush_interval as a time.Duration.
func (c *TuningConfig) GetFlushInterval() time.Duration {
	if c.FlushInterval == nil || *c.FlushInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.FlushInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// EngineParams assembles teps.EngineParams from the config, filling unset
// fields from the engine defaults.
func (c *TuningConfig) EngineParams() teps.EngineParams {
	p := teps.DefaultEngineParams()
	if c.MaxCentroids != nil {
		p.MaxCentroids = *c.MaxCentroids
	}
	if c.LearningRate != nil {
		p.LearningRate = *c.LearningRate
	}
	if c.LearningRateDecay != nil {
		p.LearningRateDecay = *c.LearningRateDecay
	}
	if c.MinLearningRate != nil {
		p.MinLearningRate = *c.MinLearningRate
	}
	if c.NoveltyMultiplier != nil {
		p.NoveltyMultiplier = *c.NoveltyMultiplier
	}
	if c.OutlierMultiplier != nil {
		p.OutlierMultiplier = *c.OutlierMultiplier
	}
	if c.MinSpread != nil {
		p.MinSpread = *c.MinSpread
	}
	if c.MinDwell != nil {
		p.MinDwell = *c.MinDwell
	}
	if c.WarmupSamples != nil {
		p.WarmupSamples = *c.WarmupSamples
	}
	if c.DistanceMetric != nil {
		p.Metric = teps.DistanceMetric(*c.DistanceMetric)
	}
	return p
}
