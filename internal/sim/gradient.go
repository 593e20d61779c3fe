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
	// DefaultGradientRate is the learning rate a fresh demo starts with.
	DefaultGradientRate = 0.1
	// GradientTolerance is the |f'(x)| below which descent has converged.
	GradientTolerance = 1e-3
	// GradientMaxIterations hard-stops an unattended run.
	GradientMaxIterations = 100
	// GradientInterval is the animation cadence.
	GradientInterval = 100 * time.Millisecond

	gradientStartRange = 3.0
	gradientPlotRange  = 3.5
)

// Status describes where an iterative demo is in its lifecycle.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusConverged Status = "converged"
	StatusCapped    Status = "capped"
	StatusStopped   Status = "stopped"
)

func objective(x float64) float64  { return x * x }
func derivative(x float64) float64 { return 2 * x }

// GradientDescent minimizes f(x)=x² with fixed-step gradient descent.
type GradientDescent struct {
	mu        sync.Mutex
	rng       *rand.Rand
	x         float64
	rate      float64
	gradient  float64
	iteration int
	status    Status
	history   *History
	interval  time.Duration
	observer  func()

	driver Driver
}

// GradientState is the observable state of a GradientDescent demo.
type GradientState struct {
	X            float64  `json:"x"`
	FX           float64  `json:"fx"`
	Gradient     float64  `json:"gradient"`
	LearningRate float64  `json:"learning_rate"`
	Iteration    int      `json:"iteration"`
	Status       Status   `json:"status"`
	Running      bool     `json:"running"`
	History      []Sample `json:"history"`
}

// NewGradientDescent creates a demo at a random starting point.
func NewGradientDescent(opts Options) *GradientDescent {
	g := &GradientDescent{
		rng:      opts.rng(),
		rate:     DefaultGradientRate,
		history:  NewHistory(opts.HistoryCap),
		interval: opts.interval(GradientInterval),
	}
	g.Reset()
	return g
}

func (g *GradientDescent) Kind() Kind { return KindGradient }

// Reset draws a new start in [-3, 3] and clears history to that sample.
func (g *GradientDescent) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetAt(uniform(g.rng, -gradientStartRange, gradientStartRange))
}

// SetX restarts the descent from x.
func (g *GradientDescent) SetX(x float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetAt(x)
}

func (g *GradientDescent) resetAt(x float64) {
	g.x = x
	g.gradient = derivative(x)
	g.iteration = 0
	g.status = StatusIdle
	g.history.Reset()
	g.history.Add(Sample{Iteration: 0, Param: x, Value: objective(x)})
}

// SetLearningRate changes the coefficient used by subsequent steps. Any
// value is accepted; large rates diverge, which is visible, not an error.
func (g *GradientDescent) SetLearningRate(rate float64) {
	g.mu.Lock()
	g.rate = rate
	g.mu.Unlock()
}

// LearningRate returns the current coefficient.
func (g *GradientDescent) LearningRate() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rate
}

// Step applies x ← x − rate·f'(x) and reports whether |f'(x)| was below
// GradientTolerance. Once GradientMaxIterations steps have run it does
// nothing until the next reset.
func (g *GradientDescent) Step() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step()
}

func (g *GradientDescent) step() bool {
	if g.iteration >= GradientMaxIterations {
		return g.status == StatusConverged
	}
	grad := derivative(g.x)
	g.x -= g.rate * grad
	g.gradient = grad
	g.iteration++
	g.history.Add(Sample{Iteration: g.iteration, Param: g.x, Value: objective(g.x)})

	converged := math.Abs(grad) < GradientTolerance
	switch {
	case converged:
		g.status = StatusConverged
	case g.iteration >= GradientMaxIterations:
		g.status = StatusCapped
	default:
		g.status = StatusRunning
	}
	return converged
}

// Advance steps once and reports whether the run should end, either by
// convergence or by the iteration cap.
func (g *GradientDescent) Advance() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	converged := g.step()
	return converged || g.iteration >= GradientMaxIterations
}

// Run steps on the animation cadence until converged, capped, stopped or ctx
// is cancelled. It returns false if a run was already in progress.
func (g *GradientDescent) Run(ctx context.Context) bool {
	reason, started := g.driver.Run(ctx, Loop{
		Interval: g.interval,
		Step:     g.Advance,
		OnStep:   func(int) { g.notify() },
	})
	if !started {
		return false
	}
	if reason == ReasonStopped || reason == ReasonCancelled {
		g.mu.Lock()
		// A reset during the run has already set idle.
		if g.status == StatusRunning {
			g.status = StatusStopped
		}
		g.mu.Unlock()
	}
	return true
}

func (g *GradientDescent) Animate(ctx context.Context) bool { return g.Run(ctx) }
func (g *GradientDescent) Stop()                            { g.driver.Stop() }
func (g *GradientDescent) Running() bool                    { return g.driver.Running() }

// Wait blocks until an active run returns.
func (g *GradientDescent) Wait() { g.driver.Wait() }

func (g *GradientDescent) Observe(fn func()) {
	g.mu.Lock()
	g.observer = fn
	g.mu.Unlock()
}

func (g *GradientDescent) notify() {
	g.mu.Lock()
	fn := g.observer
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns a copy of the demo's observable state.
func (g *GradientDescent) State() GradientState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GradientState{
		X:            g.x,
		FX:           objective(g.x),
		Gradient:     g.gradient,
		LearningRate: g.rate,
		Iteration:    g.iteration,
		Status:       g.status,
		Running:      g.driver.Running(),
		History:      g.history.Samples(),
	}
}

func (g *GradientDescent) Snapshot() any { return g.State() }

// Draw renders the curve, the trajectory so far, the current point and a
// downhill arrow whose length follows the clamped gradient magnitude.
func (g *GradientDescent) Draw(s render.Surface, th render.Theme) {
	st := g.State()
	w, h := s.Size()
	const pad = 30.0
	yMax := objective(gradientPlotRange)

	sx := func(x float64) float64 {
		return pad + (x+gradientPlotRange)/(2*gradientPlotRange)*(w-2*pad)
	}
	sy := func(y float64) float64 {
		return h - pad - y/yMax*(h-2*pad)
	}

	s.Clear(th.Background)

	s.SetStroke(th.TextTertiary)
	s.SetLineWidth(1)
	s.BeginPath()
	s.MoveTo(pad, h-pad)
	s.LineTo(w-pad, h-pad)
	s.MoveTo(sx(0), pad)
	s.LineTo(sx(0), h-pad)
	s.Stroke()

	s.SetStroke(th.TextPrimary)
	s.SetLineWidth(2)
	s.BeginPath()
	const segments = 100
	for i := 0; i <= segments; i++ {
		x := -gradientPlotRange + 2*gradientPlotRange*float64(i)/segments
		if i == 0 {
			s.MoveTo(sx(x), sy(objective(x)))
		} else {
			s.LineTo(sx(x), sy(objective(x)))
		}
	}
	s.Stroke()

	if len(st.History) > 1 {
		s.SetStroke(th.Accent)
		s.SetAlpha(0.6)
		s.SetLineWidth(1.5)
		s.BeginPath()
		for i, p := range st.History {
			if i == 0 {
				s.MoveTo(sx(p.Param), sy(p.Value))
			} else {
				s.LineTo(sx(p.Param), sy(p.Value))
			}
		}
		s.Stroke()
		s.SetAlpha(1)
	}

	px, py := sx(st.X), sy(st.FX)
	s.SetFill(th.ClassOne)
	s.BeginPath()
	s.Arc(px, py, 6)
	s.Fill()

	if st.Gradient != 0 {
		length := clamp(math.Abs(st.Gradient), 0, 3) / 3 * 60
		dir := -math.Copysign(1, st.Gradient)
		tip := px + dir*length
		s.SetStroke(th.Accent)
		s.SetLineWidth(2)
		s.BeginPath()
		s.MoveTo(px, py)
		s.LineTo(tip, py)
		s.MoveTo(tip, py)
		s.LineTo(tip-dir*6, py-4)
		s.MoveTo(tip, py)
		s.LineTo(tip-dir*6, py+4)
		s.Stroke()
	}

	s.SetFill(th.TextPrimary)
	s.Text(fmt.Sprintf("x = %.4f   f(x) = %.4f   step %d   (%s)", st.X, st.FX, st.Iteration, st.Status), pad, pad-10, render.AlignLeft)
}
