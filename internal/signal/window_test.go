package signal

import (
	"math"
	"testing"
)

func TestFeaturizer_NotReadyUntilFull(t *testing.T) {
	f := NewFeaturizer(3)

	if _, ok := f.Push(1); ok {
		t.Fatal("ready after 1 of 3 samples")
	}
	if _, ok := f.Push(2); ok {
		t.Fatal("ready after 2 of 3 samples")
	}
	v, ok := f.Push(3)
	if !ok {
		t.Fatal("not ready after full window")
	}
	if len(v) != f.Dim() {
		t.Fatalf("expected %d features, got %d", f.Dim(), len(v))
	}
}

func TestFeaturizer_WindowStats(t *testing.T) {
	f := NewFeaturizer(3)
	f.Push(1)
	f.Push(2)
	v, _ := f.Push(6)

	// [mean, min, max] over {1, 2, 6}
	if math.Abs(v[0]-3) > 1e-12 {
		t.Errorf("expected mean 3, got %v", v[0])
	}
	if v[1] != 1 {
		t.Errorf("expected min 1, got %v", v[1])
	}
	if v[2] != 6 {
		t.Errorf("expected max 6, got %v", v[2])
	}
}

func TestFeaturizer_RollsOldSamplesOut(t *testing.T) {
	f := NewFeaturizer(2)
	f.Push(10)
	f.Push(20)
	v, _ := f.Push(30)

	// Window is now {20, 30}; the 10 rolled out.
	if v[1] != 20 || v[2] != 30 {
		t.Errorf("expected window {20, 30}, got min=%v max=%v", v[1], v[2])
	}
}

func TestFeaturizer_ReturnedVectorIsSafe(t *testing.T) {
	f := NewFeaturizer(1)
	v1, _ := f.Push(5)
	v2, _ := f.Push(7)

	if v1[0] == v2[0] {
		t.Error("pushed sample overwrote previously returned vector")
	}
}
