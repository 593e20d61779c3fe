// Package sim implements the site's interactive numeric simulators. Every
// demo is an explicit instance: its parameters, counters, history, running
// flag and random source are fields, never package state.
package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/yavin-ai/yavin/internal/render"
)

// Kind identifies a simulator type.
type Kind string

const (
	KindGradient  Kind = "gradient"
	KindBoundary  Kind = "boundary"
	KindAttention Kind = "attention"
	KindNetwork   Kind = "network"
)

// Kinds lists every simulator type in display order.
var Kinds = []Kind{KindGradient, KindBoundary, KindAttention, KindNetwork}

// Valid reports whether k names a known simulator.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Demo is the uniform contract a host uses to drive and draw a simulator.
type Demo interface {
	Kind() Kind
	// Reset re-initializes the demo's state and zeroes its counters.
	Reset()
	// Advance performs one step and reports whether the demo is finished.
	Advance() bool
	// Animate runs steps on the demo's cadence until finished or stopped.
	// It returns false without doing anything when already running.
	Animate(ctx context.Context) bool
	Stop()
	Running() bool
	// Observe registers fn to be called after every animated step.
	Observe(fn func())
	// Snapshot returns a JSON-friendly copy of the observable state.
	Snapshot() any
	Draw(s render.Surface, th render.Theme)
}

// Options configures a demo at construction time.
type Options struct {
	// Seed, when non-zero, makes the demo's random draws reproducible.
	Seed int64
	// Interval overrides the default per-step animation delay. Negative
	// values mean no delay.
	Interval time.Duration
	// HistoryCap bounds retained chart samples.
	HistoryCap int
}

func (o Options) rng() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (o Options) interval(def time.Duration) time.Duration {
	switch {
	case o.Interval < 0:
		return 0
	case o.Interval == 0:
		return def
	default:
		return o.Interval
	}
}

// New constructs a demo of the given kind.
func New(kind Kind, opts Options) (Demo, bool) {
	switch kind {
	case KindGradient:
		return NewGradientDescent(opts), true
	case KindBoundary:
		return NewDecisionBoundary(opts), true
	case KindAttention:
		return NewAttentionWeights(opts), true
	case KindNetwork:
		return NewNetworkTrainer(opts), true
	default:
		return nil, false
	}
}

// uniform draws from [lo, hi).
func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
