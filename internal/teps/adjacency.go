package teps

// PhasePair is a directed (from, to) settled-phase transition.
type PhasePair struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// AdjacencyModel records which settled-phase transitions have been observed.
// Counts are directed (A→B and B→A are distinct) and grow monotonically for
// the lifetime of the run. Keys only ever reference phases that were settled
// at some point.
type AdjacencyModel struct {
	counts map[PhasePair]uint64
	total  uint64
}

// NewAdjacencyModel creates an empty model.
func NewAdjacencyModel() *AdjacencyModel {
	return &AdjacencyModel{counts: make(map[PhasePair]uint64)}
}

// Seen returns how many times the directed transition has been observed.
func (m *AdjacencyModel) Seen(from, to int) uint64 {
	return m.counts[PhasePair{From: from, To: to}]
}

// Total returns the total number of observed transitions.
func (m *AdjacencyModel) Total() uint64 { return m.total }

// Record increments the directed transition count. Always called after the
// rarity verdict, so the model keeps adapting regardless of the verdict: an
// anomaly is a monitoring signal, not a rejection.
func (m *AdjacencyModel) Record(from, to int) {
	m.counts[PhasePair{From: from, To: to}]++
	m.total++
}

// Rare reports whether the directed transition has never been observed.
// Evaluated before Record, so the first occurrence of every ordered pair is
// rare exactly once.
func (m *AdjacencyModel) Rare(from, to int) bool {
	return m.Seen(from, to) == 0
}

// Snapshot returns a copy of the transition counts for reporting.
func (m *AdjacencyModel) Snapshot() map[PhasePair]uint64 {
	out := make(map[PhasePair]uint64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
