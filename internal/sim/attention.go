package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/yavin-ai/yavin/internal/render"
)

const (
	// DefaultSentence seeds a fresh attention demo.
	DefaultSentence = "The cat sat on the mat"
	// MaxTokens caps how many tokens the matrix is built for.
	MaxTokens = 8
)

// AttentionWeights produces a plausible-looking row-stochastic attention
// matrix for a short token sequence. It is illustrative only: weights favour
// the diagonal and adjacent tokens and carry no learned meaning.
type AttentionWeights struct {
	mu       sync.Mutex
	rng      *rand.Rand
	tokens   []string
	weights  [][]float64
	selected int
	observer func()
}

// AttentionState is the observable state of an AttentionWeights demo.
type AttentionState struct {
	Tokens   []string    `json:"tokens"`
	Weights  [][]float64 `json:"weights"`
	Selected int         `json:"selected"`
}

// NewAttentionWeights creates a demo over DefaultSentence.
func NewAttentionWeights(opts Options) *AttentionWeights {
	a := &AttentionWeights{
		rng:    opts.rng(),
		tokens: Tokenize(DefaultSentence),
	}
	a.GenerateAttention()
	return a
}

func (a *AttentionWeights) Kind() Kind { return KindAttention }

// Tokenize splits text on whitespace and keeps at most MaxTokens tokens.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	if len(fields) > MaxTokens {
		fields = fields[:MaxTokens]
	}
	return fields
}

// GenerateAttention draws a new matrix: self weights from [0.3, 0.5),
// neighbours from [0.1, 0.25), everything else from [0, 0.1), then each row
// is normalized to sum to 1.
func (a *AttentionWeights) GenerateAttention() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generate()
}

func (a *AttentionWeights) generate() {
	n := len(a.tokens)
	a.weights = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		var sum float64
		for j := 0; j < n; j++ {
			switch d := i - j; {
			case d == 0:
				row[j] = uniform(a.rng, 0.3, 0.5)
			case d == 1 || d == -1:
				row[j] = uniform(a.rng, 0.1, 0.25)
			default:
				row[j] = uniform(a.rng, 0, 0.1)
			}
			sum += row[j]
		}
		if sum > 0 {
			for j := range row {
				row[j] /= sum
			}
		}
		a.weights[i] = row
	}
}

// SetTokens replaces the sequence and regenerates the matrix. Input with no
// tokens leaves the current sequence in place. The selection moves to the
// first token.
func (a *AttentionWeights) SetTokens(text string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if toks := Tokenize(text); len(toks) > 0 {
		a.tokens = toks
	}
	a.selected = 0
	a.generate()
	out := make([]string, len(a.tokens))
	copy(out, a.tokens)
	return out
}

// HandleSelect chooses the source token whose attention is highlighted. The
// index is clamped into range.
func (a *AttentionWeights) HandleSelect(i int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case len(a.tokens) == 0:
		i = 0
	case i < 0:
		i = 0
	case i >= len(a.tokens):
		i = len(a.tokens) - 1
	}
	a.selected = i
	return i
}

// Reset restores the default sentence.
func (a *AttentionWeights) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = Tokenize(DefaultSentence)
	a.selected = 0
	a.generate()
}

// Advance regenerates the matrix. The demo has no iterative state, so one
// advance always finishes it.
func (a *AttentionWeights) Advance() bool {
	a.GenerateAttention()
	return true
}

// Animate regenerates once and notifies the observer.
func (a *AttentionWeights) Animate(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	a.Advance()
	a.notify()
	return true
}

func (a *AttentionWeights) Stop()         {}
func (a *AttentionWeights) Running() bool { return false }

func (a *AttentionWeights) Observe(fn func()) {
	a.mu.Lock()
	a.observer = fn
	a.mu.Unlock()
}

func (a *AttentionWeights) notify() {
	a.mu.Lock()
	fn := a.observer
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// State returns a deep copy of the tokens, matrix and selection.
func (a *AttentionWeights) State() AttentionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	toks := make([]string, len(a.tokens))
	copy(toks, a.tokens)
	ws := make([][]float64, len(a.weights))
	for i, row := range a.weights {
		ws[i] = append([]float64(nil), row...)
	}
	return AttentionState{Tokens: toks, Weights: ws, Selected: a.selected}
}

func (a *AttentionWeights) Snapshot() any { return a.State() }

// Draw lays out the query tokens on top and the key/value tokens below, with
// curved edges from the selected query whose width and opacity follow the
// weight.
func (a *AttentionWeights) Draw(s render.Surface, th render.Theme) {
	st := a.State()
	w, h := s.Size()
	s.Clear(th.Background)

	n := len(st.Tokens)
	if n == 0 {
		return
	}
	const pad, gap, boxH = 20.0, 10.0, 32.0
	boxW := math.Min(80, (w-2*pad)/float64(n)-gap)
	total := float64(n)*boxW + float64(n-1)*gap
	left := (w - total) / 2
	queryY, keyY := h*0.2, h*0.7

	centerX := func(i int) float64 { return left + float64(i)*(boxW+gap) + boxW/2 }

	row := st.Weights[st.Selected]
	maxW := 0.0
	for _, v := range row {
		maxW = math.Max(maxW, v)
	}

	sx := centerX(st.Selected)
	for j, v := range row {
		rel := 0.0
		if maxW > 0 {
			rel = v / maxW
		}
		tx := centerX(j)
		s.SetStroke(th.Accent)
		s.SetAlpha(0.2 + 0.8*rel)
		s.SetLineWidth(1 + 6*v)
		s.BeginPath()
		s.MoveTo(sx, queryY+boxH)
		s.QuadraticTo((sx+tx)/2, (queryY+keyY)/2+boxH, tx, keyY)
		s.Stroke()
	}
	s.SetAlpha(1)

	s.SetFill(th.TextSecondary)
	s.Text("Query", pad, queryY-8, render.AlignLeft)
	s.Text("Key / Value", pad, keyY-8, render.AlignLeft)

	for i, tok := range st.Tokens {
		x := centerX(i) - boxW/2
		fill := th.Background
		if i == st.Selected {
			fill = th.Accent
		}
		s.SetFill(fill)
		s.FillRect(x, queryY, boxW, boxH)
		s.SetStroke(th.TextTertiary)
		s.SetLineWidth(1)
		s.StrokeRect(x, queryY, boxW, boxH)
		s.SetFill(th.TextPrimary)
		s.Text(tok, centerX(i), queryY+boxH/2+4, render.AlignCenter)
	}

	for j, tok := range st.Tokens {
		x := centerX(j) - boxW/2
		rel := 0.0
		if maxW > 0 {
			rel = row[j] / maxW
		}
		s.SetFill(render.Mix(th.Background, th.Accent, rel))
		s.FillRect(x, keyY, boxW, boxH)
		s.SetStroke(th.TextTertiary)
		s.SetLineWidth(1)
		s.StrokeRect(x, keyY, boxW, boxH)
		s.SetFill(th.TextPrimary)
		s.Text(tok, centerX(j), keyY+boxH/2+4, render.AlignCenter)
		s.SetFill(th.TextSecondary)
		s.Text(fmt.Sprintf("%.0f%%", row[j]*100), centerX(j), keyY+boxH+16, render.AlignCenter)
	}
}
