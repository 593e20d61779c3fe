package sim

import (
	"math"
	"reflect"
	"testing"

	"github.com/yavin-ai/yavin/internal/render"
)

func TestAttentionRowsAreStochastic(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 9})
	for trial := 0; trial < 20; trial++ {
		a.GenerateAttention()
		st := a.State()
		if len(st.Weights) != len(st.Tokens) {
			t.Fatalf("matrix has %d rows for %d tokens", len(st.Weights), len(st.Tokens))
		}
		for i, row := range st.Weights {
			var sum float64
			for _, v := range row {
				if v < 0 {
					t.Fatalf("negative weight %v in row %d", v, i)
				}
				sum += v
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("row %d sums to %v", i, sum)
			}
		}
	}
}

func TestAttentionFavoursDiagonal(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 4})
	st := a.State()
	for i, row := range st.Weights {
		for j, v := range row {
			if j != i && v >= row[i] {
				t.Errorf("row %d: off-diagonal %d weight %v >= self %v", i, j, v, row[i])
			}
		}
	}
}

func TestAttentionDefaultSentence(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	want := []string{"The", "cat", "sat", "on", "the", "mat"}
	if got := a.State().Tokens; !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestAttentionSetTokensCaps(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	got := a.SetTokens("a b c d e f g h i")
	want := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
	if n := len(a.State().Weights); n != 8 {
		t.Errorf("matrix rows = %d, want 8", n)
	}
}

func TestAttentionSetTokensEmptyKeepsPrevious(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	a.SetTokens("hello   world")
	a.HandleSelect(1)
	got := a.SetTokens("   ")
	if !reflect.DeepEqual(got, []string{"hello", "world"}) {
		t.Errorf("tokens = %v", got)
	}
	if a.State().Selected != 0 {
		t.Error("selection should reset to 0")
	}
}

func TestAttentionHandleSelectClamps(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	tests := []struct{ in, want int }{
		{-3, 0},
		{2, 2},
		{5, 5},
		{42, 5},
	}
	for _, tt := range tests {
		if got := a.HandleSelect(tt.in); got != tt.want {
			t.Errorf("HandleSelect(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAttentionResetTwice(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	a.SetTokens("x y")
	a.HandleSelect(1)
	a.Reset()
	a.Reset()
	st := a.State()
	if st.Selected != 0 || len(st.Tokens) != 6 {
		t.Errorf("selected %d tokens %v", st.Selected, st.Tokens)
	}
}

func TestAttentionDraw(t *testing.T) {
	a := NewAttentionWeights(Options{Seed: 1})
	a.HandleSelect(2)
	r := render.NewRecorder(600, 300)
	a.Draw(r, render.LightTheme())

	n := len(a.State().Tokens)
	if got := r.Count("QuadraticTo"); got != n {
		t.Errorf("edges = %d, want %d", got, n)
	}
	if got := r.Count("FillRect"); got != 2*n {
		t.Errorf("token boxes = %d, want %d", got, 2*n)
	}
	// Two row labels, two token labels per column and one percentage per key.
	if got := len(r.Texts()); got != 2+3*n {
		t.Errorf("text count = %d, want %d", got, 2+3*n)
	}
}
