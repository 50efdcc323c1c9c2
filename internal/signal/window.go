package signal

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Featurizer reduces a scalar sensor stream to fixed-dimension feature
// vectors using rolling-window statistics. Each pushed sample yields one
// [mean, min, max] vector computed over the most recent window, the same
// reduction the upstream torque-signal stage performs before segmentation.
// Not ready until the window has filled once.
type Featurizer struct {
	window []float64
	filled int
	next   int
	// scratch avoids an allocation per sample when computing stats.
	scratch []float64
}

// NewFeaturizer creates a featurizer over a rolling window of size samples.
// Size must be at least 1.
func NewFeaturizer(size int) *Featurizer {
	if size < 1 {
		size = 1
	}
	return &Featurizer{
		window:  make([]float64, size),
		scratch: make([]float64, 0, size),
	}
}

// Dim returns the dimensionality of produced feature vectors.
func (f *Featurizer) Dim() int { return 3 }

// Ready reports whether the window has filled.
func (f *Featurizer) Ready() bool { return f.filled == len(f.window) }

// Push adds one raw sample. It returns the feature vector for the current
// window and true once the window is full; before that it returns nil and
// false. The returned slice is freshly allocated and safe to retain.
func (f *Featurizer) Push(x float64) ([]float64, bool) {
	f.window[f.next] = x
	f.next = (f.next + 1) % len(f.window)
	if f.filled < len(f.window) {
		f.filled++
	}
	if !f.Ready() {
		return nil, false
	}

	f.scratch = append(f.scratch[:0], f.window...)
	return []float64{
		stat.Mean(f.scratch, nil),
		floats.Min(f.scratch),
		floats.Max(f.scratch),
	}, true
}
