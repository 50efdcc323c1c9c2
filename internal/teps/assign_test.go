package teps

import (
	"math"
	"testing"
)

func testAssignParams() EngineParams {
	p := DefaultEngineParams()
	p.LearningRateDecay = 1.0
	p.MinLearningRate = p.LearningRate
	p.WarmupSamples = 0
	return p
}

func TestAssigner_ColdStart(t *testing.T) {
	p := testAssignParams()
	store := NewCentroidStore(p.MaxCentroids, p.Metric)
	a := NewAssigner(store, p)

	asn := a.Process([]float64{1, 2}, 0)
	if !asn.CreatedNew {
		t.Fatal("first sample must seed a centroid")
	}
	if asn.Distance != 0 {
		t.Errorf("cold start distance must be 0, got %v", asn.Distance)
	}
	if asn.NearestID != -1 {
		t.Errorf("cold start has no pre-existing nearest, got %d", asn.NearestID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 centroid, got %d", store.Len())
	}
}

func TestAssigner_NoveltyCreatesCentroid(t *testing.T) {
	p := testAssignParams()
	store := NewCentroidStore(p.MaxCentroids, p.Metric)
	a := NewAssigner(store, p)

	a.Process([]float64{0}, 0)
	asn := a.Process([]float64{10}, 1)

	if !asn.CreatedNew {
		t.Fatal("distant sample must seed a new centroid")
	}
	if asn.NearestID != 0 {
		t.Errorf("expected pre-existing nearest 0, got %d", asn.NearestID)
	}
	if math.Abs(asn.NearestDistance-10) > 1e-12 {
		t.Errorf("expected nearest distance 10, got %v", asn.NearestDistance)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 centroids, got %d", store.Len())
	}
}

func TestAssigner_CapacityFallbackDoesNotUpdate(t *testing.T) {
	p := testAssignParams()
	p.MaxCentroids = 1
	store := NewCentroidStore(p.MaxCentroids, p.Metric)
	a := NewAssigner(store, p)

	a.Process([]float64{0}, 0)
	asn := a.Process([]float64{10}, 1)

	if !asn.CapacityHit {
		t.Fatal("expected capacity fallback")
	}
	if asn.CreatedNew {
		t.Error("fallback must not report a created centroid")
	}
	if asn.CentroidID != 0 {
		t.Errorf("fallback must assign to nearest centroid 0, got %d", asn.CentroidID)
	}
	// The outlier must not drag the established prototype.
	if got := store.Get(0).Mean[0]; got != 0 {
		t.Errorf("capacity fallback moved the centroid to %v", got)
	}
}

func TestAssigner_InBandSampleUpdates(t *testing.T) {
	p := testAssignParams()
	p.LearningRate = 0.5
	p.MinLearningRate = 0.5
	store := NewCentroidStore(p.MaxCentroids, p.Metric)
	a := NewAssigner(store, p)

	a.Process([]float64{0}, 0)
	// Within novelty threshold (3 × MinSpread 0.05 = 0.15).
	asn := a.Process([]float64{0.1}, 1)

	if asn.CreatedNew || asn.CapacityHit {
		t.Fatalf("in-band sample must assign, got %+v", asn)
	}
	if got := store.Get(0).Mean[0]; math.Abs(got-0.05) > 1e-12 {
		t.Errorf("expected mean 0.05 after update, got %v", got)
	}
}

func TestAssigner_LearningRateDecaysToFloor(t *testing.T) {
	p := testAssignParams()
	p.LearningRate = 0.1
	p.LearningRateDecay = 0.5
	p.MinLearningRate = 0.02
	store := NewCentroidStore(p.MaxCentroids, p.Metric)
	a := NewAssigner(store, p)

	for i := 0; i < 10; i++ {
		a.Process([]float64{0}, int64(i))
	}
	if got := a.LearningRate(); got != p.MinLearningRate {
		t.Errorf("expected learning rate at floor %v, got %v", p.MinLearningRate, got)
	}
}
