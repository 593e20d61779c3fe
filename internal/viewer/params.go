package viewer

import (
	"fmt"

	"github.com/yavin-ai/yavin/internal/sim"
)

// Params is a partial update of a demo's tunables. Nil fields are left
// unchanged. Numeric values are passed to the simulator as given.
type Params struct {
	LearningRate *float64 `json:"learning_rate,omitempty"`
	Epochs       *int     `json:"epochs,omitempty"`
	X            *float64 `json:"x,omitempty"`
	Tokens       *string  `json:"tokens,omitempty"`
	Dataset      *string  `json:"dataset,omitempty"`
	Activation   *string  `json:"activation,omitempty"`
}

// fields lists the names of the parameters set in p.
func (p Params) fields() []string {
	var out []string
	if p.LearningRate != nil {
		out = append(out, "learning_rate")
	}
	if p.Epochs != nil {
		out = append(out, "epochs")
	}
	if p.X != nil {
		out = append(out, "x")
	}
	if p.Tokens != nil {
		out = append(out, "tokens")
	}
	if p.Dataset != nil {
		out = append(out, "dataset")
	}
	if p.Activation != nil {
		out = append(out, "activation")
	}
	return out
}

var supportedParams = map[sim.Kind]map[string]bool{
	sim.KindGradient:  {"learning_rate": true, "x": true},
	sim.KindBoundary:  {"learning_rate": true, "epochs": true},
	sim.KindAttention: {"tokens": true},
	sim.KindNetwork:   {"learning_rate": true, "epochs": true, "dataset": true, "activation": true},
}

// Apply validates p against the instance's kind and applies it. Nothing is
// changed when any field is unsupported or invalid.
func (inst *Instance) Apply(p Params) error {
	fields := p.fields()
	if len(fields) == 0 {
		return fmt.Errorf("%w: no parameters given", ErrInvalidRequest)
	}
	for _, f := range fields {
		if !supportedParams[inst.Kind][f] {
			return fmt.Errorf("%w: %s on %s", ErrNotSupported, f, inst.Kind)
		}
	}

	switch d := inst.demo.(type) {
	case *sim.GradientDescent:
		if p.X != nil && inst.Running() {
			return ErrRunning
		}
		if p.LearningRate != nil {
			d.SetLearningRate(*p.LearningRate)
		}
		if p.X != nil {
			d.SetX(*p.X)
		}
	case *sim.DecisionBoundary:
		if p.LearningRate != nil {
			d.SetLearningRate(*p.LearningRate)
		}
		if p.Epochs != nil {
			d.SetEpochs(*p.Epochs)
		}
	case *sim.AttentionWeights:
		d.SetTokens(*p.Tokens)
	case *sim.NetworkTrainer:
		if p.Dataset != nil {
			if _, ok := sim.LookupDataset(*p.Dataset); !ok {
				return fmt.Errorf("%w: %q", sim.ErrUnknownDataset, *p.Dataset)
			}
		}
		if p.Activation != nil {
			if err := d.SetActivation(*p.Activation); err != nil {
				return err
			}
		}
		if p.Dataset != nil {
			d.SetDataset(*p.Dataset)
		}
		if p.LearningRate != nil {
			d.SetLearningRate(*p.LearningRate)
		}
		if p.Epochs != nil {
			d.SetEpochs(*p.Epochs)
		}
	}
	inst.publishState()
	return nil
}
