package sim

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/yavin-ai/yavin/internal/render"
)

func TestBoundaryGenerateData(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 7})
	st := d.State()
	if len(st.Points) != 2*pointsPerClass {
		t.Fatalf("points = %d, want %d", len(st.Points), 2*pointsPerClass)
	}
	for _, p := range st.Points {
		lo, hi := 0.1, 0.5
		if p.Label == 1 {
			lo, hi = 0.5, 0.9
		}
		if p.X < lo || p.X > hi || p.Y < lo || p.Y > hi {
			t.Errorf("label %d point (%v, %v) outside its cluster", p.Label, p.X, p.Y)
		}
	}
	for _, w := range []float64{st.W0, st.W1, st.Bias} {
		if w < -0.5 || w > 0.5 {
			t.Errorf("initial parameter %v outside [-0.5, 0.5]", w)
		}
	}
	if st.Epoch != 0 || st.LearningRate != DefaultBoundaryRate {
		t.Errorf("epoch %d rate %v", st.Epoch, st.LearningRate)
	}
}

func TestBoundaryTrainingReducesLoss(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 99} {
		d := NewDecisionBoundary(Options{Seed: seed})
		first := d.TrainStep()
		for i := 1; i < 100; i++ {
			d.TrainStep()
		}
		if last := d.Loss(); last >= first {
			t.Errorf("seed %d: loss after 100 epochs %v >= initial %v", seed, last, first)
		}
		if d.State().Epoch != 100 {
			t.Errorf("seed %d: epoch = %d", seed, d.State().Epoch)
		}
	}
}

func TestBoundaryEmptyPointSet(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 3})
	d.ClearPoints()
	before := d.State()
	if loss := d.TrainStep(); loss != 0 {
		t.Errorf("loss on empty set = %v, want 0", loss)
	}
	after := d.State()
	if after.Epoch != before.Epoch+1 {
		t.Errorf("epoch %d -> %d, want increment", before.Epoch, after.Epoch)
	}
	if after.W0 != before.W0 || after.W1 != before.W1 || after.Bias != before.Bias {
		t.Error("weights changed with no points")
	}
}

func TestBoundaryAddPointLabelsOppositeClass(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 5})
	d.SetWeights(10, 10, -10) // boundary x + y = 1

	if p := d.AddPoint(0.9, 0.9); p.Label != 0 {
		t.Errorf("point predicted as class 1 got label %d, want 0", p.Label)
	}
	if p := d.AddPoint(0.1, 0.1); p.Label != 1 {
		t.Errorf("point predicted as class 0 got label %d, want 1", p.Label)
	}
	if n := len(d.State().Points); n != 2*pointsPerClass+2 {
		t.Errorf("points = %d", n)
	}
}

func TestBoundaryPredict(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 5})
	d.SetWeights(0, 0, 0)
	if p := d.Predict(0.3, 0.7); math.Abs(p-0.5) > 1e-12 {
		t.Errorf("Predict with zero weights = %v, want 0.5", p)
	}
}

func TestBoundaryTrainRunsEpochs(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 11, Interval: -1})
	var observed int
	d.Observe(func() { observed++ })
	if !d.Train(context.Background(), 25) {
		t.Fatal("Train did not start")
	}
	if st := d.State(); st.Epoch != 25 || len(st.History) != 25 {
		t.Errorf("epoch %d history %d, want 25", st.Epoch, len(st.History))
	}
	if observed != 25 {
		t.Errorf("observer called %d times", observed)
	}
}

func TestBoundaryResetTwice(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 1})
	d.TrainStep()
	d.AddPoint(0.5, 0.5)
	d.Reset()
	d.Reset()
	st := d.State()
	if st.Epoch != 0 || len(st.History) != 0 || len(st.Points) != 2*pointsPerClass {
		t.Errorf("epoch %d history %d points %d after double reset", st.Epoch, len(st.History), len(st.Points))
	}
}

func TestBoundaryDrawHeatmapAndReadout(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 2})
	r := render.NewRecorder(400, 400)
	d.Draw(r, render.LightTheme())

	if got := r.Count("FillRect"); got != HeatmapResolution*HeatmapResolution {
		t.Errorf("FillRect count = %d, want %d", got, HeatmapResolution*HeatmapResolution)
	}
	if got := r.Count("Arc"); got != 2*pointsPerClass {
		t.Errorf("Arc count = %d, want %d", got, 2*pointsPerClass)
	}
	texts := r.Texts()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "Epoch 0") {
		t.Errorf("readout = %v", texts)
	}
}

func TestBoundaryDrawSkipsFlatLine(t *testing.T) {
	d := NewDecisionBoundary(Options{Seed: 2})
	d.ClearPoints()
	d.SetWeights(1, 0, -0.5)

	r := render.NewRecorder(400, 400)
	d.Draw(r, render.LightTheme())
	if got := r.Count("LineTo"); got != 0 {
		t.Errorf("boundary drawn with w1 = 0: %d LineTo calls", got)
	}
}
