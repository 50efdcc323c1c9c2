package monitor

import (
	"sync"

	"github.com/ktkachuk/teps/internal/teps"
)

// RingEntry pairs a raw sensor reading with the segmentation result it
// produced.
type RingEntry struct {
	Value  float64     `json:"value"`
	Result teps.Result `json:"result"`
}

// ResultRing is a fixed-capacity ring buffer of recent results for the
// monitoring endpoints. Writers never block; old entries are overwritten.
type ResultRing struct {
	mu      sync.Mutex
	entries []RingEntry
	next    int
	full    bool
}

// NewResultRing creates a ring holding up to capacity entries.
func NewResultRing(capacity int) *ResultRing {
	if capacity < 1 {
		capacity = 1
	}
	return &ResultRing{entries: make([]RingEntry, capacity)}
}

// Push appends one entry, overwriting the oldest when full.
func (r *ResultRing) Push(value float64, result teps.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = RingEntry{Value: value, Result: result}
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Len returns the number of entries currently held.
func (r *ResultRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Recent returns up to n entries in arrival order, newest last.
func (r *ResultRing) Recent(n int) []RingEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.entries)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]RingEntry, n)
	start := r.next - n
	if start < 0 {
		start += len(r.entries)
	}
	for i := 0; i < n; i++ {
		out[i] = r.entries[(start+i)%len(r.entries)]
	}
	return out
}
