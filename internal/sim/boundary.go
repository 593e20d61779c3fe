package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/yavin-ai/yavin/internal/render"
)

const (
	// DefaultBoundaryRate is the logistic learning rate a fresh demo uses.
	DefaultBoundaryRate = 0.5
	// DefaultBoundaryEpochs is the length of one animated training run.
	DefaultBoundaryEpochs = 100
	// BoundaryInterval is the per-epoch animation cadence.
	BoundaryInterval = 50 * time.Millisecond
	// HeatmapResolution is the number of probability cells per axis.
	HeatmapResolution = 20

	pointsPerClass = 15
	logEpsilon     = 1e-8
	minSlope       = 1e-6
)

// Point is a labelled sample in the unit square.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label int     `json:"label"`
}

// DecisionBoundary trains a two-feature logistic classifier with full-batch
// gradient descent on binary cross-entropy.
type DecisionBoundary struct {
	mu       sync.Mutex
	rng      *rand.Rand
	points   []Point
	w0, w1   float64
	bias     float64
	rate     float64
	epochs   int
	epoch    int
	loss     float64
	history  *History
	interval time.Duration
	observer func()

	driver Driver
}

// BoundaryState is the observable state of a DecisionBoundary demo.
type BoundaryState struct {
	Points       []Point  `json:"points"`
	W0           float64  `json:"w0"`
	W1           float64  `json:"w1"`
	Bias         float64  `json:"bias"`
	LearningRate float64  `json:"learning_rate"`
	Epochs       int      `json:"epochs"`
	Epoch        int      `json:"epoch"`
	Loss         float64  `json:"loss"`
	Running      bool     `json:"running"`
	History      []Sample `json:"history"`
}

// NewDecisionBoundary creates a demo with freshly generated data.
func NewDecisionBoundary(opts Options) *DecisionBoundary {
	d := &DecisionBoundary{
		rng:      opts.rng(),
		rate:     DefaultBoundaryRate,
		epochs:   DefaultBoundaryEpochs,
		history:  NewHistory(opts.HistoryCap),
		interval: opts.interval(BoundaryInterval),
	}
	d.GenerateData()
	return d
}

func (d *DecisionBoundary) Kind() Kind { return KindBoundary }

// GenerateData places two clusters of pointsPerClass points, label 0 in the
// lower-left of the unit square and label 1 in the upper-right, and draws
// fresh weights.
func (d *DecisionBoundary) GenerateData() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.points = d.points[:0]
	for i := 0; i < pointsPerClass; i++ {
		d.points = append(d.points, Point{
			X: uniform(d.rng, 0.1, 0.5), Y: uniform(d.rng, 0.1, 0.5), Label: 0,
		})
	}
	for i := 0; i < pointsPerClass; i++ {
		d.points = append(d.points, Point{
			X: uniform(d.rng, 0.5, 0.9), Y: uniform(d.rng, 0.5, 0.9), Label: 1,
		})
	}
	d.w0 = uniform(d.rng, -0.5, 0.5)
	d.w1 = uniform(d.rng, -0.5, 0.5)
	d.bias = uniform(d.rng, -0.5, 0.5)
	d.epoch = 0
	d.loss = d.meanLoss()
	d.history.Reset()
}

func (d *DecisionBoundary) Reset() { d.GenerateData() }

// AddPoint appends a point labelled with the class the current boundary
// does NOT predict, so every click gives the classifier something to fix.
func (d *DecisionBoundary) AddPoint(x, y float64) Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	label := 1
	if d.predict(x, y) > 0.5 {
		label = 0
	}
	p := Point{X: x, Y: y, Label: label}
	d.points = append(d.points, p)
	return p
}

// ClearPoints removes every sample but keeps the weights.
func (d *DecisionBoundary) ClearPoints() {
	d.mu.Lock()
	d.points = d.points[:0]
	d.mu.Unlock()
}

// Predict returns P(label=1 | x, y).
func (d *DecisionBoundary) Predict(x, y float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.predict(x, y)
}

func (d *DecisionBoundary) predict(x, y float64) float64 {
	return sigmoid(d.w0*x + d.w1*y + d.bias)
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// SetWeights replaces the classifier parameters.
func (d *DecisionBoundary) SetWeights(w0, w1, bias float64) {
	d.mu.Lock()
	d.w0, d.w1, d.bias = w0, w1, bias
	d.mu.Unlock()
}

// SetLearningRate changes the step size of later epochs.
func (d *DecisionBoundary) SetLearningRate(rate float64) {
	d.mu.Lock()
	d.rate = rate
	d.mu.Unlock()
}

// SetEpochs changes how many epochs Animate runs. Non-positive values are
// ignored.
func (d *DecisionBoundary) SetEpochs(n int) {
	if n <= 0 {
		return
	}
	d.mu.Lock()
	d.epochs = n
	d.mu.Unlock()
}

// Loss returns the mean cross-entropy of the current weights.
func (d *DecisionBoundary) Loss() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meanLoss()
}

func (d *DecisionBoundary) meanLoss() float64 {
	if len(d.points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range d.points {
		sum += crossEntropy(d.predict(p.X, p.Y), p.Label)
	}
	return sum / float64(len(d.points))
}

func crossEntropy(pred float64, label int) float64 {
	y := float64(label)
	return -(y*math.Log(pred+logEpsilon) + (1-y)*math.Log(1-pred+logEpsilon))
}

// TrainStep runs one full-batch epoch and returns the mean loss measured
// before the update. With no points the weights stay put, the epoch still
// advances and the loss is 0.
func (d *DecisionBoundary) TrainStep() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.trainStep()
}

func (d *DecisionBoundary) trainStep() float64 {
	n := len(d.points)
	d.epoch++
	if n == 0 {
		d.loss = 0
		d.history.Add(Sample{Iteration: d.epoch, Value: 0})
		return 0
	}

	var g0, g1, gb, loss float64
	for _, p := range d.points {
		pred := d.predict(p.X, p.Y)
		diff := pred - float64(p.Label)
		g0 += diff * p.X
		g1 += diff * p.Y
		gb += diff
		loss += crossEntropy(pred, p.Label)
	}
	scale := d.rate / float64(n)
	d.w0 -= scale * g0
	d.w1 -= scale * g1
	d.bias -= scale * gb

	d.loss = loss / float64(n)
	d.history.Add(Sample{Iteration: d.epoch, Value: d.loss})
	return d.loss
}

// Advance trains one epoch. Training has no convergence criterion so it
// never reports done.
func (d *DecisionBoundary) Advance() bool {
	d.TrainStep()
	return false
}

// Train runs epochs training steps on the animation cadence. It returns
// false if training was already in progress.
func (d *DecisionBoundary) Train(ctx context.Context, epochs int) bool {
	_, started := d.driver.Run(ctx, Loop{
		Interval: d.interval,
		MaxSteps: epochs,
		Step:     d.Advance,
		OnStep:   func(int) { d.notify() },
	})
	return started
}

func (d *DecisionBoundary) Animate(ctx context.Context) bool {
	d.mu.Lock()
	epochs := d.epochs
	d.mu.Unlock()
	return d.Train(ctx, epochs)
}

func (d *DecisionBoundary) Stop()         { d.driver.Stop() }
func (d *DecisionBoundary) Running() bool { return d.driver.Running() }
func (d *DecisionBoundary) Wait()         { d.driver.Wait() }

func (d *DecisionBoundary) Observe(fn func()) {
	d.mu.Lock()
	d.observer = fn
	d.mu.Unlock()
}

func (d *DecisionBoundary) notify() {
	d.mu.Lock()
	fn := d.observer
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns a copy of the demo's observable state.
func (d *DecisionBoundary) State() BoundaryState {
	d.mu.Lock()
	defer d.mu.Unlock()
	pts := make([]Point, len(d.points))
	copy(pts, d.points)
	return BoundaryState{
		Points:       pts,
		W0:           d.w0,
		W1:           d.w1,
		Bias:         d.bias,
		LearningRate: d.rate,
		Epochs:       d.epochs,
		Epoch:        d.epoch,
		Loss:         d.loss,
		Running:      d.driver.Running(),
		History:      d.history.Samples(),
	}
}

func (d *DecisionBoundary) Snapshot() any { return d.State() }

// Draw renders the probability heatmap, the decision line, the samples and a
// readout of the current parameters.
func (d *DecisionBoundary) Draw(s render.Surface, th render.Theme) {
	st := d.State()
	w, h := s.Size()
	const pad = 30.0
	pw, ph := w-2*pad, h-2*pad

	sx := func(x float64) float64 { return pad + x*pw }
	sy := func(y float64) float64 { return h - pad - y*ph }
	prob := func(x, y float64) float64 { return sigmoid(st.W0*x + st.W1*y + st.Bias) }

	s.Clear(th.Background)

	cw, ch := pw/HeatmapResolution, ph/HeatmapResolution
	s.SetAlpha(0.3)
	for i := 0; i < HeatmapResolution; i++ {
		for j := 0; j < HeatmapResolution; j++ {
			cx := (float64(i) + 0.5) / HeatmapResolution
			cy := (float64(j) + 0.5) / HeatmapResolution
			s.SetFill(render.Mix(th.ClassZero, th.ClassOne, prob(cx, cy)))
			s.FillRect(pad+float64(i)*cw, h-pad-float64(j+1)*ch, cw, ch)
		}
	}
	s.SetAlpha(1)

	s.SetStroke(th.TextTertiary)
	s.SetLineWidth(1)
	s.StrokeRect(pad, pad, pw, ph)

	if math.Abs(st.W1) >= minSlope {
		lineY := func(x float64) float64 { return -(st.W0*x + st.Bias) / st.W1 }
		s.SetStroke(th.TextPrimary)
		s.SetLineWidth(2)
		s.BeginPath()
		s.MoveTo(sx(0), sy(lineY(0)))
		s.LineTo(sx(1), sy(lineY(1)))
		s.Stroke()
	}

	s.SetStroke(th.Background)
	s.SetLineWidth(1.5)
	for _, p := range st.Points {
		c := th.ClassZero
		if p.Label == 1 {
			c = th.ClassOne
		}
		s.SetFill(c)
		s.BeginPath()
		s.Arc(sx(p.X), sy(p.Y), 5)
		s.Fill()
		s.Stroke()
	}

	s.SetFill(th.TextPrimary)
	s.Text(fmt.Sprintf("Epoch %d   w = (%.3f, %.3f)   b = %.3f   loss %.4f",
		st.Epoch, st.W0, st.W1, st.Bias, st.Loss), pad, pad-10, render.AlignLeft)
}
