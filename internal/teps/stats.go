package teps

import (
	"sync"
	"time"

	"github.com/ktkachuk/teps/internal/monitoring"
)

// logf routes engine diagnostics through the shared monitoring logger.
func logf(format string, v ...interface{}) { monitoring.Logf(format, v...) }

// StatsSnapshot is a copy of the stream counters.
type StatsSnapshot struct {
	Samples           int64 `json:"samples"`
	Settlements       int64 `json:"settlements"`
	CreatedCentroids  int64 `json:"created_centroids"`
	DistanceAnomalies int64 `json:"distance_anomalies"`
	SequenceAnomalies int64 `json:"sequence_anomalies"`
}

// StreamStats tracks per-run counters with thread-safe operations.
type StreamStats struct {
	mu                sync.Mutex
	samples           int64
	settlements       int64
	createdCentroids  int64
	distanceAnomalies int64
	sequenceAnomalies int64
	lastReset         time.Time
}

// NewStreamStats creates a new StreamStats instance.
func NewStreamStats() *StreamStats {
	return &StreamStats{lastReset: time.Now()}
}

// Add folds one result into the counters.
func (s *StreamStats) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	if r.PhaseSettled {
		s.settlements++
	}
	if r.CreatedCentroid {
		s.createdCentroids++
	}
	if r.DistanceAnomaly {
		s.distanceAnomalies++
	}
	if r.SequenceAnomaly {
		s.sequenceAnomalies++
	}
}

// Snapshot returns the current counters without resetting them.
func (s *StreamStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Samples:           s.samples,
		Settlements:       s.settlements,
		CreatedCentroids:  s.createdCentroids,
		DistanceAnomalies: s.distanceAnomalies,
		SequenceAnomalies: s.sequenceAnomalies,
	}
}

// GetAndReset returns the interval counters and restarts the interval.
func (s *StreamStats) GetAndReset() (snap StatsSnapshot, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	duration = now.Sub(s.lastReset)
	snap = StatsSnapshot{
		Samples:           s.samples,
		Settlements:       s.settlements,
		CreatedCentroids:  s.createdCentroids,
		DistanceAnomalies: s.distanceAnomalies,
		SequenceAnomalies: s.sequenceAnomalies,
	}
	s.samples = 0
	s.settlements = 0
	s.createdCentroids = 0
	s.distanceAnomalies = 0
	s.sequenceAnomalies = 0
	s.lastReset = now
	return snap, duration
}

// LogStats logs a throughput line for the interval since the last reset.
func (s *StreamStats) LogStats() {
	snap, duration := s.GetAndReset()
	if snap.Samples == 0 {
		return
	}
	perSec := float64(snap.Samples) / duration.Seconds()
	logf("TEPS stats (/sec): %.1f samples, %d settlements, %d new centroids, %d distance anomalies, %d sequence anomalies",
		perSec, snap.Settlements, snap.CreatedCentroids, snap.DistanceAnomalies, snap.SequenceAnomalies)
}
