package teps

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps all parameter validation failures so callers can
// distinguish a bad configuration from runtime errors.
var ErrInvalidConfig = errors.New("invalid engine configuration")

// EngineParams holds the tunable parameters for a segmentation engine.
// Validation is strict: an engine refuses to construct with invalid
// parameters rather than silently defaulting them.
type EngineParams struct {
	// MaxCentroids caps how many phase prototypes may exist at once.
	MaxCentroids int
	// LearningRate controls how fast centroids track recent behaviour,
	// in (0, 1]. Each assignment moves the centroid toward the sample by
	// this fraction.
	LearningRate float64
	// LearningRateDecay geometrically decays the effective learning rate
	// each processed sample until MinLearningRate is reached. 1.0 disables
	// the schedule.
	LearningRateDecay float64
	// MinLearningRate is the floor for the decayed learning rate.
	MinLearningRate float64
	// NoveltyMultiplier scales a centroid's spread into the threshold past
	// which a sample is considered novel enough for a new centroid.
	NoveltyMultiplier float64
	// OutlierMultiplier scales a centroid's spread into the stricter bound
	// past which an assigned sample is flagged as a distance anomaly. Must
	// exceed NoveltyMultiplier.
	OutlierMultiplier float64
	// MinSpread is an absolute floor for the spread estimate when deriving
	// thresholds, so a freshly created centroid (spread zero) does not flag
	// every following sample.
	MinSpread float64
	// MinDwell is the number of consecutive matching raw assignments
	// required before a phase change is reported.
	MinDwell int
	// WarmupSamples suppresses distance-anomaly flags for the first N
	// samples while spread estimates settle. Zero disables warmup.
	WarmupSamples int
	// Metric selects the distance function.
	Metric DistanceMetric
}

// DefaultEngineParams returns parameters suitable for a normalised torque
// signal sampled at ~100Hz. The multipliers are starting points for tuning,
// not calibrated constants.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		MaxCentroids:      8,
		LearningRate:      0.05,
		LearningRateDecay: 0.9995,
		MinLearningRate:   0.005,
		NoveltyMultiplier: 3.0,
		OutlierMultiplier: 6.0,
		MinSpread:         0.05,
		MinDwell:          5,
		WarmupSamples:     30,
		Metric:            MetricEuclidean,
	}
}

// Validate checks all parameter invariants. Every violation is reported
// wrapped in ErrInvalidConfig.
func (p EngineParams) Validate() error {
	if p.MaxCentroids < 1 {
		return fmt.Errorf("%w: max_centroids must be >= 1, got %d", ErrInvalidConfig, p.MaxCentroids)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("%w: learning_rate must be in (0, 1], got %v", ErrInvalidConfig, p.LearningRate)
	}
	if p.LearningRateDecay <= 0 || p.LearningRateDecay > 1 {
		return fmt.Errorf("%w: learning_rate_decay must be in (0, 1], got %v", ErrInvalidConfig, p.LearningRateDecay)
	}
	if p.MinLearningRate <= 0 || p.MinLearningRate > p.LearningRate {
		return fmt.Errorf("%w: min_learning_rate must be in (0, learning_rate], got %v", ErrInvalidConfig, p.MinLearningRate)
	}
	if p.NoveltyMultiplier <= 0 {
		return fmt.Errorf("%w: novelty_multiplier must be positive, got %v", ErrInvalidConfig, p.NoveltyMultiplier)
	}
	if p.OutlierMultiplier <= p.NoveltyMultiplier {
		return fmt.Errorf("%w: outlier_multiplier (%v) must exceed novelty_multiplier (%v)",
			ErrInvalidConfig, p.OutlierMultiplier, p.NoveltyMultiplier)
	}
	if p.MinSpread < 0 {
		return fmt.Errorf("%w: min_spread must be non-negative, got %v", ErrInvalidConfig, p.MinSpread)
	}
	if p.MinDwell < 1 {
		return fmt.Errorf("%w: min_dwell must be >= 1, got %d", ErrInvalidConfig, p.MinDwell)
	}
	if p.WarmupSamples < 0 {
		return fmt.Errorf("%w: warmup_samples must be non-negative, got %d", ErrInvalidConfig, p.WarmupSamples)
	}
	if _, err := ParseMetric(string(p.Metric)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
