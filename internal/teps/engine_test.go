package teps

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testEngineParams() EngineParams {
	p := DefaultEngineParams()
	p.LearningRateDecay = 1.0
	p.MinLearningRate = p.LearningRate
	p.WarmupSamples = 0
	return p
}

func submitAll(t *testing.T, e *Engine, stream [][]float64) []Result {
	t.Helper()
	results := make([]Result, 0, len(stream))
	for i, v := range stream {
		r, err := e.Submit(v)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		results = append(results, r)
	}
	return results
}

func constantStream(value float64, n int) [][]float64 {
	stream := make([][]float64, n)
	for i := range stream {
		stream[i] = []float64{value}
	}
	return stream
}

func TestEngine_OneResultPerSample(t *testing.T) {
	e, err := NewEngine(testEngineParams())
	if err != nil {
		t.Fatal(err)
	}

	results := submitAll(t, e, constantStream(1.0, 500))
	if len(results) != 500 {
		t.Fatalf("expected 500 results, got %d", len(results))
	}
	for i, r := range results {
		if r.SampleIndex != int64(i) {
			t.Fatalf("result %d has sample index %d", i, r.SampleIndex)
		}
	}
}

func TestEngine_ConstantStreamConverges(t *testing.T) {
	e, err := NewEngine(testEngineParams())
	if err != nil {
		t.Fatal(err)
	}

	results := submitAll(t, e, constantStream(2.5, 200))

	if got := e.Snapshot().Stats.CreatedCentroids; got != 1 {
		t.Errorf("constant stream must create exactly one centroid, got %d", got)
	}
	for _, r := range results {
		if r.DistanceAnomaly {
			t.Fatalf("sample %d flagged anomalous on a constant stream", r.SampleIndex)
		}
	}
	// The machine settles onto the single phase after MinDwell samples and
	// stays there.
	last := results[len(results)-1]
	if last.Phase == UnknownPhase {
		t.Error("expected the stream to settle")
	}
}

func TestEngine_CentroidCountBounded(t *testing.T) {
	p := testEngineParams()
	p.MaxCentroids = 4
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}

	// Ten well-separated levels against a budget of four.
	var stream [][]float64
	for level := 0; level < 10; level++ {
		for i := 0; i < 20; i++ {
			stream = append(stream, []float64{float64(level * 10)})
		}
	}
	submitAll(t, e, stream)

	if got := len(e.Snapshot().Centroids); got > 4 {
		t.Fatalf("centroid count %d exceeds max_centroids 4", got)
	}
}

func TestEngine_SingleOutlierFlaggedOnce(t *testing.T) {
	p := testEngineParams()
	p.MinDwell = 3
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}

	stream := constantStream(1.0, 200)
	stream[100] = []float64{50.0}

	results := submitAll(t, e, stream)

	for _, r := range results {
		if r.DistanceAnomaly != (r.SampleIndex == 100) {
			t.Fatalf("sample %d: distance anomaly = %v", r.SampleIndex, r.DistanceAnomaly)
		}
	}
	// The one-sample excursion must not disturb the settled phase.
	settledPhase := results[p.MinDwell-1].Phase
	settlements := 0
	for _, r := range results {
		if r.PhaseSettled {
			settlements++
		}
		if r.SampleIndex >= int64(p.MinDwell-1) && r.Phase != settledPhase {
			t.Fatalf("sample %d: phase flickered to %d", r.SampleIndex, r.Phase)
		}
	}
	if settlements != 1 {
		t.Errorf("expected exactly one settlement, got %d", settlements)
	}
}

func TestEngine_CapacityFallbackFlagged(t *testing.T) {
	p := testEngineParams()
	p.MaxCentroids = 1
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}

	stream := constantStream(0.0, 50)
	stream[25] = []float64{10.0}

	results := submitAll(t, e, stream)
	if !results[25].DistanceAnomaly {
		t.Error("capacity fallback must surface as a distance anomaly")
	}
	if got := len(e.Snapshot().Centroids); got != 1 {
		t.Errorf("expected centroid budget to hold at 1, got %d", got)
	}
}

// TestEngine_PhaseCycleScenario feeds A,A,A,B,B,B,A,A,A,B,B,B with
// min_dwell=2. Settlement to phase(A) happens at the second sample. The
// adjacency model is directed and flags the first occurrence of each ordered
// pair: the first A→B settlement and the first B→A settlement are sequence
// anomalies, their repeats are not.
func TestEngine_PhaseCycleScenario(t *testing.T) {
	p := testEngineParams()
	p.MinDwell = 2
	// Suppress distance anomalies; this scenario is about sequencing.
	p.WarmupSamples = 1000
	e, err := NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}

	a, b := []float64{0}, []float64{5}
	stream := [][]float64{a, a, a, b, b, b, a, a, a, b, b, b}
	results := submitAll(t, e, stream)

	if !results[1].PhaseSettled {
		t.Fatal("expected settlement at sample 2 (index 1)")
	}
	phaseA := results[1].Phase

	type settleEvent struct {
		index   int64
		phase   int
		anomaly bool
	}
	var events []settleEvent
	for _, r := range results {
		if r.PhaseSettled {
			events = append(events, settleEvent{r.SampleIndex, r.Phase, r.SequenceAnomaly})
		}
	}

	want := []settleEvent{
		{1, phaseA, false}, // first settlement, no prior phase
		{4, 1, true},       // A→B never seen
		{7, phaseA, true},  // B→A never seen (directed model)
		{10, 1, false},     // A→B seen before
	}
	if diff := cmp.Diff(want, events, cmp.AllowUnexported(settleEvent{})); diff != "" {
		t.Fatalf("settlement events mismatch (-want +got):\n%s", diff)
	}
}

// TestEngine_OrderSensitivity verifies the engine is a streaming algorithm:
// the same multiset of samples in a different order yields different output.
func TestEngine_OrderSensitivity(t *testing.T) {
	p := testEngineParams()
	p.MinDwell = 2

	run := func(stream [][]float64) []Result {
		e, err := NewEngine(p)
		if err != nil {
			t.Fatal(err)
		}
		return submitAll(t, e, stream)
	}

	a, b := []float64{0}, []float64{5}
	grouped := [][]float64{a, a, a, a, b, b, b, b}
	interleaved := [][]float64{a, b, a, b, a, b, a, b}

	if diff := cmp.Diff(run(grouped), run(interleaved)); diff == "" {
		t.Fatal("reordering the stream must change the result sequence")
	}
}

func TestEngine_SubmitErrors(t *testing.T) {
	e, err := NewEngine(testEngineParams())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Submit(nil); err == nil {
		t.Error("expected error for empty vector")
	}
	if _, err := e.Submit([]float64{1, 2}); err != nil {
		t.Fatalf("first well-formed sample failed: %v", err)
	}
	if _, err := e.Submit([]float64{1}); err == nil {
		t.Error("expected error for dimension change mid-run")
	}
}

func TestEngine_RunChannelDriver(t *testing.T) {
	e, err := NewEngine(testEngineParams())
	if err != nil {
		t.Fatal(err)
	}

	in := make(chan []float64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := e.Run(ctx, in)

	go func() {
		for i := 0; i < 10; i++ {
			in <- []float64{1.0}
		}
		close(in)
	}()

	count := 0
	for range out {
		count++
	}
	if count != 10 {
		t.Fatalf("expected 10 results from channel driver, got %d", count)
	}
}
