package viewer

import (
	"errors"
	"time"

	"github.com/yavin-ai/yavin/internal/sim"
)

var (
	ErrNotFound       = errors.New("demo not found")
	ErrUnknownKind    = errors.New("unknown demo kind")
	ErrTooManyDemos   = errors.New("too many active demos")
	ErrRunning        = errors.New("demo is running")
	ErrNotSupported   = errors.New("operation not supported by this demo")
	ErrInvalidRequest = errors.New("invalid request")
)

// Settings carries the per-kind defaults applied to new instances.
type Settings struct {
	GradientRate     float64
	GradientInterval time.Duration
	BoundaryRate     float64
	BoundaryEpochs   int
	BoundaryInterval time.Duration
	NetworkEpochs    int
	NetworkInterval  time.Duration
	HistoryCap       int
	Theme            string
	MaxInstances     int
}

// DefaultSettings mirrors the simulator defaults.
func DefaultSettings() Settings {
	return Settings{
		GradientRate:     sim.DefaultGradientRate,
		GradientInterval: sim.GradientInterval,
		BoundaryRate:     sim.DefaultBoundaryRate,
		BoundaryEpochs:   sim.DefaultBoundaryEpochs,
		BoundaryInterval: sim.BoundaryInterval,
		NetworkEpochs:    sim.DefaultNetworkEpochs,
		NetworkInterval:  sim.NetworkInterval,
		HistoryCap:       sim.DefaultHistoryCap,
		Theme:            "light",
		MaxInstances:     64,
	}
}

// Summary is the API view of an instance.
type Summary struct {
	ID        string    `json:"id"`
	Kind      sim.Kind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Running   bool      `json:"running"`
	State     any       `json:"state"`
}

// Event is pushed to websocket subscribers.
type Event struct {
	Type  string   `json:"type"` // "state", "run_end" or "error"
	ID    string   `json:"id"`
	Kind  sim.Kind `json:"kind"`
	State any      `json:"state,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Run is a persisted record of one finished animated run.
type Run struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instance_id"`
	Kind       sim.Kind  `json:"kind"`
	Steps      int       `json:"steps"`
	FinalValue float64   `json:"final_value"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// KindStats aggregates runs of one demo kind.
type KindStats struct {
	Kind  sim.Kind `json:"kind"`
	Runs  int      `json:"runs"`
	Steps int      `json:"steps"`
}
