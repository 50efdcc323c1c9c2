package teps

import (
	"context"
	"fmt"
	"sync"
)

// Result is the per-sample output of the engine. Exactly one Result is
// produced for every submitted vector; the engine retains nothing about it
// afterwards.
type Result struct {
	// SampleIndex is the zero-based index of the sample within the run.
	SampleIndex int64 `json:"sample_index"`
	// Phase is the settled phase ID (UnknownPhase before first settlement).
	Phase int `json:"phase"`
	// RawCentroid is the nearest-centroid label before hysteresis.
	RawCentroid int `json:"raw_centroid"`
	// Distance is the assignment distance to the raw centroid.
	Distance float64 `json:"distance"`
	// CreatedCentroid reports that this sample seeded a new centroid.
	CreatedCentroid bool `json:"created_centroid"`
	// PhaseSettled reports that this sample completed a phase settlement.
	PhaseSettled bool `json:"phase_settled"`
	// DistanceAnomaly flags an outlier sample (sensor glitch, missing
	// workpiece) or a capacity fallback.
	DistanceAnomaly bool `json:"distance_anomaly"`
	// SequenceAnomaly flags a settlement onto a never-seen phase transition
	// (skipped phase, out-of-order phase).
	SequenceAnomaly bool `json:"sequence_anomaly"`
}

// Snapshot is a point-in-time view of the engine's learned state for the
// monitoring surface.
type Snapshot struct {
	Samples      int64                `json:"samples"`
	Phase        int                  `json:"phase"`
	LearningRate float64              `json:"learning_rate"`
	Centroids    []CentroidSnapshot   `json:"centroids"`
	Transitions  map[PhasePair]uint64 `json:"-"`
	Stats        StatsSnapshot        `json:"stats"`
}

// Engine is the streaming driver: submit one feature vector, receive one
// Result. An engine instance is owned by exactly one driving loop; for
// multiple sensor streams, create one engine per stream, since centroid
// adaptation must reflect a single coherent temporal sequence.
type Engine struct {
	params    EngineParams
	store     *CentroidStore
	assigner  *Assigner
	machine   *PhaseMachine
	adjacency *AdjacencyModel
	detector  *Detector
	stats     *StreamStats

	sampleIdx int64
	dim       int

	// mu serialises Submit against Snapshot, which is served from the
	// monitoring goroutine.
	mu sync.RWMutex
}

// NewEngine constructs an engine, failing fatally on invalid parameters.
func NewEngine(params EngineParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	store := NewCentroidStore(params.MaxCentroids, params.Metric)
	adjacency := NewAdjacencyModel()
	return &Engine{
		params:    params,
		store:     store,
		assigner:  NewAssigner(store, params),
		machine:   NewPhaseMachine(params.MinDwell),
		adjacency: adjacency,
		detector:  NewDetector(params, store, adjacency),
		stats:     NewStreamStats(),
	}, nil
}

// Params returns the engine's configuration.
func (e *Engine) Params() EngineParams { return e.params }

// Stats returns the engine's counters.
func (e *Engine) Stats() *StreamStats { return e.stats }

// Submit processes one feature vector and returns its segmentation result.
// The only error conditions are caller misuse (empty vector or a dimension
// change mid-run); no data content ever causes a sample to be dropped.
func (e *Engine) Submit(v []float64) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(v) == 0 {
		return Result{}, fmt.Errorf("empty feature vector at sample %d", e.sampleIdx)
	}
	if e.dim == 0 {
		e.dim = len(v)
	} else if len(v) != e.dim {
		return Result{}, fmt.Errorf("feature vector dimension changed from %d to %d at sample %d",
			e.dim, len(v), e.sampleIdx)
	}

	idx := e.sampleIdx
	e.sampleIdx++

	asn := e.assigner.Process(v, idx)
	settlement := e.machine.Observe(asn.CentroidID)

	distAnom := e.detector.DistanceAnomaly(asn, idx)
	seqAnom := e.detector.SequenceAnomaly(settlement)

	r := Result{
		SampleIndex:     idx,
		Phase:           settlement.Phase,
		RawCentroid:     asn.CentroidID,
		Distance:        asn.Distance,
		CreatedCentroid: asn.CreatedNew,
		PhaseSettled:    settlement.Settled,
		DistanceAnomaly: distAnom,
		SequenceAnomaly: seqAnom,
	}
	e.stats.Add(r)
	return r, nil
}

// Snapshot returns a copy of the engine's learned state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		Samples:      e.sampleIdx,
		Phase:        e.machine.Phase(),
		LearningRate: e.assigner.LearningRate(),
		Centroids:    e.store.Snapshot(),
		Transitions:  e.adjacency.Snapshot(),
		Stats:        e.stats.Snapshot(),
	}
}

// Run drives the engine from a channel of feature vectors and yields one
// Result per input on the returned channel. The output channel closes when
// the input closes or the context is cancelled. Malformed vectors are
// reported through the diagnostic logger and skipped at the channel
// boundary; Submit itself never drops well-formed samples.
func (e *Engine) Run(ctx context.Context, in <-chan []float64) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				r, err := e.Submit(v)
				if err != nil {
					logf("dropping malformed input: %v", err)
					continue
				}
				select {
				case out <- r:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
