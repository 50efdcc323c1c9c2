package teps

// Detector flags per-sample anomalies. The two flags are independent and not
// mutually exclusive.
type Detector struct {
	params    EngineParams
	store     *CentroidStore
	adjacency *AdjacencyModel
}

// NewDetector creates a detector over the given store and adjacency model.
func NewDetector(params EngineParams, store *CentroidStore, adjacency *AdjacencyModel) *Detector {
	return &Detector{params: params, store: store, adjacency: adjacency}
}

// DistanceAnomaly reports an outlier sample (sensor glitch, missing
// workpiece). The sample is judged against the nearest centroid that existed
// before it was processed: a capacity fallback is always anomalous, and any
// sample farther from that prototype than the outlier bound is flagged even
// if it seeded a new centroid. Suppressed during warmup while spread
// estimates settle, and on cold start.
func (d *Detector) DistanceAnomaly(asn Assignment, sampleIdx int64) bool {
	if sampleIdx < int64(d.params.WarmupSamples) {
		return false
	}
	if asn.CapacityHit {
		return true
	}
	if asn.NearestID < 0 {
		return false
	}
	c := d.store.Get(asn.NearestID)
	if c == nil {
		return false
	}
	bound := d.params.OutlierMultiplier * spreadFloor(c.Spread(), d.params.MinSpread)
	return asn.NearestDistance > bound
}

// SequenceAnomaly evaluates a settlement event against the adjacency model
// and then records the observed pair. Only transitions between two settled
// phases count; the very first settlement (from UnknownPhase) establishes
// the model without a verdict.
func (d *Detector) SequenceAnomaly(s Settlement) bool {
	if !s.Settled || s.Previous == UnknownPhase {
		return false
	}
	rare := d.adjacency.Rare(s.Previous, s.Phase)
	d.adjacency.Record(s.Previous, s.Phase)
	return rare
}
