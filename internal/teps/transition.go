package teps

// UnknownPhase is the reported phase before the machine first settles.
const UnknownPhase = -1

// PhaseMachine converts the noisy raw nearest-centroid label stream into a
// stable phase label stream. A phase change is only reported after MinDwell
// consecutive samples favour the same candidate, trading MinDwell samples of
// latency for stability near cluster boundaries.
type PhaseMachine struct {
	settled   int
	candidate int
	dwell     int
	minDwell  int
}

// Settlement describes one Observe step.
type Settlement struct {
	// Phase is the settled phase after this sample (UnknownPhase until the
	// first settlement).
	Phase int
	// Settled reports that this sample completed a settlement.
	Settled bool
	// Previous is the phase that was settled before this settlement. Only
	// meaningful when Settled is true.
	Previous int
}

// NewPhaseMachine creates a machine in the Unsettled state.
func NewPhaseMachine(minDwell int) *PhaseMachine {
	return &PhaseMachine{settled: UnknownPhase, candidate: UnknownPhase, minDwell: minDwell}
}

// Phase returns the currently settled phase (UnknownPhase before the first
// settlement).
func (m *PhaseMachine) Phase() int { return m.settled }

// Observe feeds one raw assignment into the machine. A raw label matching the
// current candidate increments the dwell counter; a differing label resets the
// candidate. When the counter reaches MinDwell the candidate becomes the
// settled phase. There is no terminal state.
func (m *PhaseMachine) Observe(raw int) Settlement {
	if raw != m.candidate {
		m.candidate = raw
		m.dwell = 0
	}
	// A raw label equal to the already-settled phase needs no dwell counting.
	if raw == m.settled {
		m.dwell = 0
		m.candidate = raw
		return Settlement{Phase: m.settled}
	}

	m.dwell++
	if m.dwell >= m.minDwell {
		prev := m.settled
		m.settled = m.candidate
		m.dwell = 0
		return Settlement{Phase: m.settled, Settled: true, Previous: prev}
	}
	return Settlement{Phase: m.settled}
}
