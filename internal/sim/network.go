package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/yavin-ai/yavin/internal/render"
)

const (
	// DefaultNetworkEpochs is the length of one animated training run.
	DefaultNetworkEpochs = 100
	// DefaultNetworkRate is the displayed learning rate. Training is
	// simulated, so it never influences the curve.
	DefaultNetworkRate = 0.01
	// NetworkInterval is the per-epoch animation cadence.
	NetworkInterval = 20 * time.Millisecond

	minLoss        = 0.01
	maxAccuracy    = 0.99
	gradientPeriod = 5
)

var (
	ErrTooFewLayers      = errors.New("add at least input and output layers")
	ErrUnknownDataset    = errors.New("unknown dataset")
	ErrUnknownActivation = errors.New("unknown activation")
	ErrUnknownLayerType  = errors.New("unknown layer type")
)

// LayerType is the role of a layer in the diagram.
type LayerType string

const (
	LayerInput  LayerType = "input"
	LayerHidden LayerType = "hidden"
	LayerOutput LayerType = "output"
)

// Activation names a layer nonlinearity.
type Activation string

const (
	ActivationReLU    Activation = "relu"
	ActivationSigmoid Activation = "sigmoid"
	ActivationTanh    Activation = "tanh"
)

func (a Activation) valid() bool {
	switch a {
	case ActivationReLU, ActivationSigmoid, ActivationTanh:
		return true
	}
	return false
}

// Layer is one column of neurons in the toy network.
type Layer struct {
	Type       LayerType  `json:"type"`
	Neurons    int        `json:"neurons"`
	Activation Activation `json:"activation"`
}

// Dataset is a small labelled sample set the trainer pretends to fit.
type Dataset struct {
	Name       string      `json:"name"`
	Title      string      `json:"title"`
	Inputs     [][]float64 `json:"inputs"`
	Outputs    [][]float64 `json:"outputs"`
	InputSize  int         `json:"input_size"`
	OutputSize int         `json:"output_size"`
}

// DatasetNames lists the built-in datasets.
var DatasetNames = []string{"xor", "iris", "spiral"}

// LookupDataset returns a fresh copy of the named built-in dataset.
func LookupDataset(name string) (Dataset, bool) {
	switch name {
	case "xor":
		return Dataset{
			Name:       "xor",
			Title:      "XOR Problem",
			Inputs:     [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
			Outputs:    [][]float64{{0}, {1}, {1}, {0}},
			InputSize:  2,
			OutputSize: 1,
		}, true
	case "iris":
		return Dataset{
			Name:  "iris",
			Title: "Iris Classification (Simplified)",
			Inputs: [][]float64{
				{5.1, 3.5, 1.4, 0.2}, {4.9, 3.0, 1.4, 0.2}, {6.2, 2.9, 4.3, 1.3},
				{5.9, 3.0, 5.1, 1.8}, {6.3, 3.3, 6.0, 2.5}, {5.8, 2.7, 5.1, 1.9},
			},
			Outputs: [][]float64{
				{1, 0, 0}, {1, 0, 0}, {0, 1, 0},
				{0, 0, 1}, {0, 0, 1}, {0, 0, 1},
			},
			InputSize:  4,
			OutputSize: 3,
		}, true
	case "spiral":
		return spiralDataset(50), true
	}
	return Dataset{}, false
}

// spiralDataset builds two interleaved arms of perArm points each.
func spiralDataset(perArm int) Dataset {
	ds := Dataset{Name: "spiral", Title: "Spiral Dataset", InputSize: 2, OutputSize: 2}
	for i := 0; i < perArm; i++ {
		r := float64(i) / float64(perArm) * 5
		t := 1.75 * float64(i) / float64(perArm) * 2 * math.Pi
		ds.Inputs = append(ds.Inputs, []float64{r * math.Cos(t), r * math.Sin(t)})
		ds.Outputs = append(ds.Outputs, []float64{1, 0})
		t2 := t + math.Pi
		ds.Inputs = append(ds.Inputs, []float64{r * math.Cos(t2), r * math.Sin(t2)})
		ds.Outputs = append(ds.Outputs, []float64{0, 1})
	}
	return ds
}

// LayerGradient is the displayed gradient magnitude for one layer.
type LayerGradient struct {
	Layer    LayerType `json:"layer"`
	Gradient float64   `json:"gradient"`
}

// NetworkTrainer lets a user stack layers and watch a scripted training
// run. The loss curve is synthetic: it decays exponentially with noise and
// does not depend on the architecture or learning rate.
type NetworkTrainer struct {
	mu         sync.Mutex
	rng        *rand.Rand
	dataset    Dataset
	activation Activation
	layers     []Layer
	rate       float64
	epochs     int
	epoch      int
	loss       float64
	accuracy   float64
	gradients  []LayerGradient
	status     string
	history    *History
	interval   time.Duration
	observer   func()
	// generation changes on every ResetNetwork so a run in flight can tell
	// that the network it was training is gone.
	generation int

	driver Driver
}

// NetworkState is the observable state of a NetworkTrainer demo.
type NetworkState struct {
	Dataset      string          `json:"dataset"`
	Activation   Activation      `json:"activation"`
	Layers       []Layer         `json:"layers"`
	LearningRate float64         `json:"learning_rate"`
	Epochs       int             `json:"epochs"`
	Epoch        int             `json:"epoch"`
	Loss         float64         `json:"loss"`
	Accuracy     float64         `json:"accuracy"`
	Gradients    []LayerGradient `json:"gradients"`
	Status       string          `json:"status"`
	Training     bool            `json:"training"`
	History      []Sample        `json:"history"`
}

// NewNetworkTrainer creates a trainer on the xor dataset with an empty
// network.
func NewNetworkTrainer(opts Options) *NetworkTrainer {
	ds, _ := LookupDataset("xor")
	return &NetworkTrainer{
		rng:        opts.rng(),
		dataset:    ds,
		activation: ActivationReLU,
		rate:       DefaultNetworkRate,
		epochs:     DefaultNetworkEpochs,
		status:     "Add layers to begin building!",
		history:    NewHistory(opts.HistoryCap),
		interval:   opts.interval(NetworkInterval),
	}
}

func (n *NetworkTrainer) Kind() Kind { return KindNetwork }

// SetDataset selects the dataset used to size input and output layers
// added afterwards.
func (n *NetworkTrainer) SetDataset(name string) error {
	ds, ok := LookupDataset(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	n.mu.Lock()
	n.dataset = ds
	n.mu.Unlock()
	return nil
}

// SetActivation selects the nonlinearity for layers added afterwards.
func (n *NetworkTrainer) SetActivation(name string) error {
	a := Activation(strings.ToLower(name))
	if !a.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	n.mu.Lock()
	n.activation = a
	n.mu.Unlock()
	return nil
}

// SetLearningRate records the rate shown alongside the run.
func (n *NetworkTrainer) SetLearningRate(rate float64) {
	n.mu.Lock()
	n.rate = rate
	n.mu.Unlock()
}

// SetEpochs changes how many epochs Animate runs. Non-positive values are
// ignored.
func (n *NetworkTrainer) SetEpochs(epochs int) {
	if epochs <= 0 {
		return
	}
	n.mu.Lock()
	n.epochs = epochs
	n.mu.Unlock()
}

// AddLayer appends a layer. Input and output widths come from the current
// dataset; hidden layers get between 4 and 9 neurons. Output layers always
// use sigmoid.
func (n *NetworkTrainer) AddLayer(kind LayerType) (Layer, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	l := Layer{Type: kind, Activation: n.activation}
	switch kind {
	case LayerInput:
		l.Neurons = n.dataset.InputSize
	case LayerOutput:
		l.Neurons = n.dataset.OutputSize
		l.Activation = ActivationSigmoid
	case LayerHidden:
		l.Neurons = 4 + n.rng.Intn(6)
	default:
		return Layer{}, fmt.Errorf("%w: %q", ErrUnknownLayerType, kind)
	}
	n.layers = append(n.layers, l)
	n.status = fmt.Sprintf("Added %s layer with %d neurons", kind, l.Neurons)
	return l, nil
}

// ResetNetwork removes every layer and clears the run.
func (n *NetworkTrainer) ResetNetwork() {
	n.driver.Stop()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.layers = nil
	n.gradients = nil
	n.epoch = 0
	n.loss = 0
	n.accuracy = 0
	n.history.Reset()
	n.generation++
	n.status = "Network reset. Add layers to begin building!"
}

func (n *NetworkTrainer) Reset() { n.ResetNetwork() }

// epochStep simulates epoch e (0-based) of a run of total epochs.
func (n *NetworkTrainer) epochStep(e, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.epochStepLocked(e, total)
}

func (n *NetworkTrainer) epochStepLocked(e, total int) {
	loss := math.Max(minLoss, 2*math.Exp(-float64(e)/(float64(total)/3))+uniform(n.rng, 0, 0.1))
	acc := math.Min(maxAccuracy, 1-loss+uniform(n.rng, 0, 0.05))
	n.epoch = e + 1
	n.loss = loss
	n.accuracy = acc
	n.history.Add(Sample{Iteration: e + 1, Value: loss})

	if e%gradientPeriod == 0 {
		n.gradients = n.gradients[:0]
		decay := math.Exp(-float64(e) / 50)
		for i := len(n.layers) - 1; i >= 0; i-- {
			n.gradients = append(n.gradients, LayerGradient{
				Layer:    n.layers[i].Type,
				Gradient: uniform(n.rng, 0.5, 1.0) * decay,
			})
		}
	}
}

// TrainNetwork plays a simulated run of epochs epochs on the animation
// cadence. It fails with ErrTooFewLayers when fewer than two layers exist and
// returns started == false when a run is already in progress. lr is
// recorded but has no effect on the curve.
func (n *NetworkTrainer) TrainNetwork(ctx context.Context, epochs int, lr float64) (started bool, err error) {
	n.mu.Lock()
	if len(n.layers) < 2 {
		n.status = "Add at least input and output layers!"
		n.mu.Unlock()
		return false, ErrTooFewLayers
	}
	if epochs <= 0 {
		epochs = n.epochs
	}
	gen := n.generation
	n.mu.Unlock()

	// Run state is only touched once the driver has been claimed, so a
	// concurrent call that loses the claim leaves the winning run alone.
	e := 0
	reason, started := n.driver.Run(ctx, Loop{
		Interval: n.interval,
		MaxSteps: epochs,
		Step: func() bool {
			if e == 0 && !n.beginRun(gen, lr) {
				return true
			}
			if !n.trainEpoch(gen, e, epochs) {
				return true
			}
			e++
			return false
		},
		OnStep: func(int) { n.notify() },
	})
	if !started {
		n.mu.Lock()
		n.status = "Training already in progress..."
		n.mu.Unlock()
		return false, nil
	}

	n.mu.Lock()
	switch {
	case n.generation != gen:
		// Reset during the run; its status stands.
	case reason == ReasonCapped || reason == ReasonDone:
		n.status = fmt.Sprintf("Training complete! Final accuracy: %.1f%%", n.accuracy*100)
	default:
		n.status = fmt.Sprintf("Training stopped at epoch %d", n.epoch)
	}
	n.mu.Unlock()
	n.notify()
	return true, nil
}

// beginRun clears the previous run's curve. It reports false when the
// network was reset after the run was requested.
func (n *NetworkTrainer) beginRun(gen int, lr float64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.generation != gen {
		return false
	}
	n.rate = lr
	n.history.Reset()
	n.gradients = nil
	n.status = fmt.Sprintf("Training on %s...", n.dataset.Title)
	return true
}

// trainEpoch runs epoch e unless the network was reset since the run began.
func (n *NetworkTrainer) trainEpoch(gen, e, total int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.generation != gen {
		return false
	}
	n.epochStepLocked(e, total)
	return true
}

// Advance simulates the next epoch of a run sized by the configured epoch
// count. It reports done when the network is too small to train or the run
// is complete.
func (n *NetworkTrainer) Advance() bool {
	n.mu.Lock()
	if len(n.layers) < 2 {
		n.mu.Unlock()
		return true
	}
	e, total := n.epoch, n.epochs
	n.mu.Unlock()
	if e >= total {
		return true
	}
	n.epochStep(e, total)
	return e+1 >= total
}

// Animate trains for the configured epoch count at the configured rate.
func (n *NetworkTrainer) Animate(ctx context.Context) bool {
	n.mu.Lock()
	epochs, lr := n.epochs, n.rate
	n.mu.Unlock()
	started, err := n.TrainNetwork(ctx, epochs, lr)
	return err == nil && started
}

func (n *NetworkTrainer) Stop()         { n.driver.Stop() }
func (n *NetworkTrainer) Running() bool { return n.driver.Running() }
func (n *NetworkTrainer) Wait()         { n.driver.Wait() }

func (n *NetworkTrainer) Observe(fn func()) {
	n.mu.Lock()
	n.observer = fn
	n.mu.Unlock()
}

func (n *NetworkTrainer) notify() {
	n.mu.Lock()
	fn := n.observer
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns a copy of the trainer's observable state.
func (n *NetworkTrainer) State() NetworkState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return NetworkState{
		Dataset:      n.dataset.Name,
		Activation:   n.activation,
		Layers:       append([]Layer(nil), n.layers...),
		LearningRate: n.rate,
		Epochs:       n.epochs,
		Epoch:        n.epoch,
		Loss:         n.loss,
		Accuracy:     n.accuracy,
		Gradients:    append([]LayerGradient(nil), n.gradients...),
		Status:       n.status,
		Training:     n.driver.Running(),
		History:      n.history.Samples(),
	}
}

func (n *NetworkTrainer) Snapshot() any { return n.State() }

// Draw renders the layer diagram on the left and the loss chart on the
// right.
func (n *NetworkTrainer) Draw(s render.Surface, th render.Theme) {
	st := n.State()
	w, h := s.Size()
	s.Clear(th.Background)

	split := w * 0.6
	drawDiagram(s, th, st.Layers, split, h)
	drawLossChart(s, th, st.History, split, w-split, h)

	s.SetFill(th.TextSecondary)
	s.Text(st.Status, 10, h-8, render.AlignLeft)
}

func drawDiagram(s render.Surface, th render.Theme, layers []Layer, w, h float64) {
	if len(layers) == 0 {
		return
	}
	maxNeurons := 1
	for _, l := range layers {
		if l.Neurons > maxNeurons {
			maxNeurons = l.Neurons
		}
	}
	top, bottom := 60.0, h-30
	spacing := math.Min(40, (bottom-top)/float64(maxNeurons))
	radius := math.Min(15, spacing*0.4)
	colW := w / float64(len(layers))

	layerX := func(i int) float64 { return colW * (float64(i) + 0.5) }
	neuronY := func(l Layer, i int) float64 {
		total := float64(l.Neurons) * spacing
		return top + (bottom-top-total)/2 + spacing/2 + float64(i)*spacing
	}

	s.SetStroke(th.TextTertiary)
	s.SetLineWidth(1)
	s.SetAlpha(0.3)
	for i := 0; i < len(layers)-1; i++ {
		a, b := layers[i], layers[i+1]
		for n1 := 0; n1 < a.Neurons; n1++ {
			for n2 := 0; n2 < b.Neurons; n2++ {
				s.BeginPath()
				s.MoveTo(layerX(i)+radius, neuronY(a, n1))
				s.LineTo(layerX(i+1)-radius, neuronY(b, n2))
				s.Stroke()
			}
		}
	}
	s.SetAlpha(1)

	for i, l := range layers {
		x := layerX(i)
		for j := 0; j < l.Neurons; j++ {
			s.BeginPath()
			s.Arc(x, neuronY(l, j), radius)
			s.SetFill(th.Background)
			s.Fill()
			s.SetStroke(th.TextPrimary)
			s.SetLineWidth(2)
			s.Stroke()
		}
		s.SetFill(th.TextPrimary)
		s.Text(strings.ToUpper(string(l.Type)), x, 30, render.AlignCenter)
		s.Text(fmt.Sprintf("(%d)", l.Neurons), x, 45, render.AlignCenter)
	}
}

func drawLossChart(s render.Surface, th render.Theme, history []Sample, left, w, h float64) {
	const pad = 30.0
	x0, x1 := left+pad, left+w-pad
	y0, y1 := pad, h-pad

	s.SetStroke(th.TextPrimary)
	s.SetLineWidth(2)
	s.BeginPath()
	s.MoveTo(x0, y0)
	s.LineTo(x0, y1)
	s.LineTo(x1, y1)
	s.Stroke()

	s.SetFill(th.TextPrimary)
	s.Text("Epoch", (x0+x1)/2, h-12, render.AlignCenter)
	s.Text("Loss", x0, y0-8, render.AlignCenter)

	if len(history) < 2 {
		return
	}
	maxEpoch := float64(history[len(history)-1].Iteration)
	maxLoss := 0.0
	for _, p := range history {
		maxLoss = math.Max(maxLoss, p.Value)
	}
	px := func(p Sample) float64 { return x0 + float64(p.Iteration)/maxEpoch*(x1-x0) }
	py := func(p Sample) float64 { return y1 - p.Value/maxLoss*(y1-y0) }

	s.BeginPath()
	for i, p := range history {
		if i == 0 {
			s.MoveTo(px(p), py(p))
		} else {
			s.LineTo(px(p), py(p))
		}
	}
	s.Stroke()

	for _, p := range history {
		s.BeginPath()
		s.Arc(px(p), py(p), 3)
		s.Fill()
	}
}
