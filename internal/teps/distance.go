package teps

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric selects how assignment distances are computed.
type DistanceMetric string

const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricManhattan DistanceMetric = "manhattan"
	MetricCosine    DistanceMetric = "cosine"
)

// ParseMetric converts a configuration string into a DistanceMetric.
func ParseMetric(s string) (DistanceMetric, error) {
	switch DistanceMetric(s) {
	case MetricEuclidean, MetricManhattan, MetricCosine:
		return DistanceMetric(s), nil
	}
	return "", fmt.Errorf("unknown distance metric %q", s)
}

// Distance computes the configured distance between two equal-length vectors.
// Cosine distance is 1 - cosine similarity, clamped so that a zero vector
// (undefined direction) is maximally distant from everything.
func (m DistanceMetric) Distance(a, b []float64) float64 {
	switch m {
	case MetricManhattan:
		return floats.Distance(a, b, 1)
	case MetricCosine:
		na := floats.Norm(a, 2)
		nb := floats.Norm(b, 2)
		if na == 0 || nb == 0 {
			return 1
		}
		sim := floats.Dot(a, b) / (na * nb)
		// Guard against floating point drift outside [-1, 1].
		if sim > 1 {
			sim = 1
		} else if sim < -1 {
			sim = -1
		}
		return 1 - sim
	default:
		return floats.Distance(a, b, 2)
	}
}
