package teps

import (
	"math"
	"testing"
)

func TestParseMetric(t *testing.T) {
	for _, name := range []string{"euclidean", "manhattan", "cosine"} {
		if _, err := ParseMetric(name); err != nil {
			t.Errorf("expected %q to parse, got %v", name, err)
		}
	}
	if _, err := ParseMetric("chebyshev"); err == nil {
		t.Error("expected unknown metric to fail")
	}
}

func TestDistance_Euclidean(t *testing.T) {
	d := MetricEuclidean.Distance([]float64{0, 0}, []float64{3, 4})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("expected 5, got %v", d)
	}
}

func TestDistance_Manhattan(t *testing.T) {
	d := MetricManhattan.Distance([]float64{0, 0}, []float64{3, 4})
	if math.Abs(d-7) > 1e-12 {
		t.Errorf("expected 7, got %v", d)
	}
}

func TestDistance_Cosine(t *testing.T) {
	// Parallel vectors: distance 0.
	if d := MetricCosine.Distance([]float64{1, 0}, []float64{5, 0}); math.Abs(d) > 1e-12 {
		t.Errorf("expected 0 for parallel vectors, got %v", d)
	}
	// Orthogonal vectors: distance 1.
	if d := MetricCosine.Distance([]float64{1, 0}, []float64{0, 2}); math.Abs(d-1) > 1e-12 {
		t.Errorf("expected 1 for orthogonal vectors, got %v", d)
	}
	// Opposite vectors: distance 2.
	if d := MetricCosine.Distance([]float64{1, 0}, []float64{-1, 0}); math.Abs(d-2) > 1e-12 {
		t.Errorf("expected 2 for opposite vectors, got %v", d)
	}
	// Zero vector has no direction: maximally distant by convention.
	if d := MetricCosine.Distance([]float64{0, 0}, []float64{1, 0}); d != 1 {
		t.Errorf("expected 1 for zero vector, got %v", d)
	}
}
