package teps

import (
	"errors"
	"math"
)

// Store-level errors. Both are recovered inside the engine and never reach
// the caller directly; they surface only as result flags.
var (
	// ErrEmptyStore is returned by Nearest before any centroid exists.
	ErrEmptyStore = errors.New("centroid store is empty")
	// ErrCapacityExceeded is returned by Create once MaxCentroids is reached.
	ErrCapacityExceeded = errors.New("centroid capacity exceeded")
)

// Centroid is one learned phase prototype. Owned exclusively by the
// CentroidStore; IDs are unique and stable for the lifetime of the run.
type Centroid struct {
	ID   int
	Mean []float64
	// Count is the number of samples assigned to this centroid so far.
	Count uint64
	// LastUpdate is the sample index of the most recent assignment.
	LastUpdate int64
	// spreadSq is the exponentially weighted second moment of assignment
	// distance, used to derive per-centroid novelty/outlier thresholds.
	spreadSq float64
}

// Spread returns the centroid's adaptive spread estimate (the square root of
// its exponentially weighted second moment of assignment distance).
func (c *Centroid) Spread() float64 {
	return math.Sqrt(c.spreadSq)
}

// CentroidSnapshot is a read-only copy of a centroid for reporting.
type CentroidSnapshot struct {
	ID         int       `json:"id"`
	Mean       []float64 `json:"mean"`
	Count      uint64    `json:"count"`
	LastUpdate int64     `json:"last_update"`
	Spread     float64   `json:"spread"`
}

// CentroidStore holds the current set of phase prototypes. It is not safe
// for concurrent use; the engine owns exactly one store per stream.
type CentroidStore struct {
	centroids []*Centroid
	nextID    int
	max       int
	metric    DistanceMetric
}

// NewCentroidStore creates an empty store bounded at max centroids.
func NewCentroidStore(max int, metric DistanceMetric) *CentroidStore {
	return &CentroidStore{max: max, metric: metric}
}

// Len returns the number of centroids currently in the store.
func (s *CentroidStore) Len() int { return len(s.centroids) }

// Get returns the centroid with the given ID, or nil if it does not exist.
func (s *CentroidStore) Get(id int) *Centroid {
	for _, c := range s.centroids {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Nearest returns the ID of the centroid closest to v and that distance.
// Returns ErrEmptyStore before any centroid exists; the caller handles cold
// start by creating the first centroid from the first sample.
func (s *CentroidStore) Nearest(v []float64) (int, float64, error) {
	if len(s.centroids) == 0 {
		return 0, 0, ErrEmptyStore
	}
	bestID := s.centroids[0].ID
	bestDist := s.metric.Distance(v, s.centroids[0].Mean)
	for _, c := range s.centroids[1:] {
		if d := s.metric.Distance(v, c.Mean); d < bestDist {
			bestDist = d
			bestID = c.ID
		}
	}
	return bestID, bestDist, nil
}

// Create allocates a new centroid at v with zero history. Fails with
// ErrCapacityExceeded once the configured bound is reached; the caller must
// fall back to the nearest existing centroid rather than drop the sample.
func (s *CentroidStore) Create(v []float64, sampleIdx int64) (int, error) {
	if len(s.centroids) >= s.max {
		return 0, ErrCapacityExceeded
	}
	mean := make([]float64, len(v))
	copy(mean, v)
	c := &Centroid{
		ID:         s.nextID,
		Mean:       mean,
		Count:      1,
		LastUpdate: sampleIdx,
	}
	s.nextID++
	s.centroids = append(s.centroids, c)
	return c.ID, nil
}

// Update moves centroid id toward v by alpha (an online weighted mean, so
// recent samples outweigh old ones) and folds the assignment distance into
// the exponentially weighted spread estimate.
func (s *CentroidStore) Update(id int, v []float64, dist, alpha float64, sampleIdx int64) {
	c := s.Get(id)
	if c == nil {
		return
	}
	for i := range c.Mean {
		c.Mean[i] += alpha * (v[i] - c.Mean[i])
	}
	// Exponentially weighted second moment of assignment distance.
	c.spreadSq = (1-alpha)*c.spreadSq + alpha*dist*dist
	c.Count++
	c.LastUpdate = sampleIdx
}

// Snapshot returns read-only copies of all centroids in creation order.
func (s *CentroidStore) Snapshot() []CentroidSnapshot {
	out := make([]CentroidSnapshot, 0, len(s.centroids))
	for _, c := range s.centroids {
		mean := make([]float64, len(c.Mean))
		copy(mean, c.Mean)
		out = append(out, CentroidSnapshot{
			ID:         c.ID,
			Mean:       mean,
			Count:      c.Count,
			LastUpdate: c.LastUpdate,
			Spread:     c.Spread(),
		})
	}
	return out
}
