package sim

// DefaultHistoryCap bounds chart history so draw cost stays flat.
const DefaultHistoryCap = 500

// Sample is one charted point. Param is the parameter value at that
// iteration for demos that plot a trajectory (gradient descent); Value is the
// objective or loss.
type Sample struct {
	Iteration int     `json:"iteration"`
	Param     float64 `json:"param,omitempty"`
	Value     float64 `json:"value"`
}

// History is a bounded FIFO of samples; the oldest entry is evicted first.
type History struct {
	cap     int
	samples []Sample
}

// NewHistory returns an empty history holding at most capacity samples.
// A non-positive capacity selects DefaultHistoryCap.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{cap: capacity}
}

// Add appends s, evicting the oldest sample when full.
func (h *History) Add(s Sample) {
	if len(h.samples) == h.cap {
		copy(h.samples, h.samples[1:])
		h.samples[len(h.samples)-1] = s
		return
	}
	h.samples = append(h.samples, s)
}

// Samples returns a copy of the retained samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Len returns the number of retained samples.
func (h *History) Len() int { return len(h.samples) }

// Cap returns the capacity.
func (h *History) Cap() int { return h.cap }

// Last returns the newest sample.
func (h *History) Last() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Reset drops all samples.
func (h *History) Reset() {
	h.samples = h.samples[:0]
}
