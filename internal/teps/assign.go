package teps

import "errors"

// Assignment is the outcome of routing one sample through the store.
type Assignment struct {
	// CentroidID is the centroid the sample was assigned to.
	CentroidID int
	// Distance is the distance to the assigned centroid at assignment time
	// (zero when the sample seeded a new centroid).
	Distance float64
	// CreatedNew reports whether the sample seeded a new centroid.
	CreatedNew bool
	// CapacityHit reports that novelty was detected but the centroid budget
	// was exhausted, so the sample fell back to the nearest centroid.
	CapacityHit bool
	// NearestID and NearestDistance describe the nearest centroid that
	// existed before this sample was processed. They equal the assignment
	// when no centroid was created, and NearestID is -1 on cold start. The
	// anomaly detector judges outliers against this pre-existing prototype.
	NearestID       int
	NearestDistance float64
}

// Assigner implements the online assign/update loop: nearest centroid,
// per-centroid adaptive novelty threshold, incremental forgetting-weighted
// update. It is the streaming analogue of the k-means assignment step, one
// sample at a time.
type Assigner struct {
	store  *CentroidStore
	params EngineParams
	// alpha is the current (decayed) learning rate.
	alpha float64
}

// NewAssigner creates an assigner over the given store.
func NewAssigner(store *CentroidStore, params EngineParams) *Assigner {
	return &Assigner{store: store, params: params, alpha: params.LearningRate}
}

// LearningRate returns the current effective learning rate.
func (a *Assigner) LearningRate() float64 { return a.alpha }

// Process routes one sample: cold start, novelty test against the nearest
// centroid's spread, creation with capacity fallback, or plain assignment
// with an adaptive update. Every sample results in exactly one assignment.
// A capacity fallback assigns without updating, so a far outlier cannot
// drag an established prototype.
func (a *Assigner) Process(v []float64, sampleIdx int64) Assignment {
	defer a.decay()

	id, dist, err := a.store.Nearest(v)
	if errors.Is(err, ErrEmptyStore) {
		// Cold start: the first sample defines the first phase prototype.
		newID, _ := a.store.Create(v, sampleIdx)
		return Assignment{CentroidID: newID, CreatedNew: true, NearestID: -1}
	}

	c := a.store.Get(id)
	threshold := a.params.NoveltyMultiplier * spreadFloor(c.Spread(), a.params.MinSpread)
	if dist > threshold {
		newID, err := a.store.Create(v, sampleIdx)
		if err == nil {
			return Assignment{
				CentroidID: newID, CreatedNew: true,
				NearestID: id, NearestDistance: dist,
			}
		}
		// Budget exhausted: assign to the nearest centroid anyway, without
		// updating it, and let the anomaly detector report the fallback.
		return Assignment{
			CentroidID: id, Distance: dist, CapacityHit: true,
			NearestID: id, NearestDistance: dist,
		}
	}

	a.store.Update(id, v, dist, a.alpha, sampleIdx)
	return Assignment{
		CentroidID: id, Distance: dist,
		NearestID: id, NearestDistance: dist,
	}
}

// decay steps the learning-rate schedule toward its floor.
func (a *Assigner) decay() {
	if a.alpha > a.params.MinLearningRate {
		a.alpha *= a.params.LearningRateDecay
		if a.alpha < a.params.MinLearningRate {
			a.alpha = a.params.MinLearningRate
		}
	}
}

// spreadFloor applies the configured minimum spread so thresholds stay
// meaningful for centroids with little history.
func spreadFloor(spread, floor float64) float64 {
	if spread < floor {
		return floor
	}
	return spread
}
