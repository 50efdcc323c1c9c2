package teps

import (
	"errors"
	"math"
	"testing"
)

func TestCentroidStore_EmptyNearest(t *testing.T) {
	s := NewCentroidStore(4, MetricEuclidean)

	_, _, err := s.Nearest([]float64{1, 2})
	if !errors.Is(err, ErrEmptyStore) {
		t.Fatalf("expected ErrEmptyStore, got %v", err)
	}
}

func TestCentroidStore_CreateAndNearest(t *testing.T) {
	s := NewCentroidStore(4, MetricEuclidean)

	id0, err := s.Create([]float64{0, 0}, 0)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id1, err := s.Create([]float64{10, 0}, 1)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id0 == id1 {
		t.Errorf("expected unique IDs, got %d twice", id0)
	}

	id, dist, err := s.Nearest([]float64{9, 0})
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if id != id1 {
		t.Errorf("expected nearest=%d, got %d", id1, id)
	}
	if math.Abs(dist-1) > 1e-12 {
		t.Errorf("expected distance 1, got %v", dist)
	}
}

func TestCentroidStore_CapacityExceeded(t *testing.T) {
	s := NewCentroidStore(2, MetricEuclidean)

	if _, err := s.Create([]float64{0}, 0); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Create([]float64{1}, 1); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := s.Create([]float64{2}, 2)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 centroids after capacity hit, got %d", s.Len())
	}
}

func TestCentroidStore_UpdateMovesMeanAndSpread(t *testing.T) {
	s := NewCentroidStore(4, MetricEuclidean)
	id, _ := s.Create([]float64{0, 0}, 0)

	s.Update(id, []float64{1, 0}, 1.0, 0.5, 1)

	c := s.Get(id)
	if c == nil {
		t.Fatal("centroid disappeared after update")
	}
	if math.Abs(c.Mean[0]-0.5) > 1e-12 || c.Mean[1] != 0 {
		t.Errorf("expected mean [0.5 0], got %v", c.Mean)
	}
	// spreadSq = (1-0.5)*0 + 0.5*1² = 0.5
	if math.Abs(c.Spread()-math.Sqrt(0.5)) > 1e-12 {
		t.Errorf("expected spread sqrt(0.5), got %v", c.Spread())
	}
	if c.Count != 2 {
		t.Errorf("expected count 2, got %d", c.Count)
	}
	if c.LastUpdate != 1 {
		t.Errorf("expected last update index 1, got %d", c.LastUpdate)
	}
}

func TestCentroidStore_SnapshotIsACopy(t *testing.T) {
	s := NewCentroidStore(4, MetricEuclidean)
	id, _ := s.Create([]float64{3, 4}, 0)

	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 snapshot entry, got %d", len(snap))
	}
	snap[0].Mean[0] = 99

	if got := s.Get(id).Mean[0]; got != 3 {
		t.Errorf("snapshot mutation leaked into store: mean[0]=%v", got)
	}
}
