package render

import "image/color"

// Call is one recorded draw operation.
type Call struct {
	Op    string
	Args  []float64
	Text  string
	Color color.Color
}

// Recorder is a Surface that keeps the draw-call sequence instead of pixels.
type Recorder struct {
	W, H  float64
	Calls []Call
}

// NewRecorder returns a Recorder reporting the given size.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{W: w, H: h}
}

func (r *Recorder) add(op string, args ...float64) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) Clear(c color.Color) {
	r.Calls = append(r.Calls, Call{Op: "Clear", Color: c})
}

func (r *Recorder) SetFill(c color.Color) {
	r.Calls = append(r.Calls, Call{Op: "SetFill", Color: c})
}

func (r *Recorder) SetStroke(c color.Color) {
	r.Calls = append(r.Calls, Call{Op: "SetStroke", Color: c})
}

func (r *Recorder) SetLineWidth(w float64)           { r.add("SetLineWidth", w) }
func (r *Recorder) SetAlpha(a float64)               { r.add("SetAlpha", a) }
func (r *Recorder) BeginPath()                       { r.add("BeginPath") }
func (r *Recorder) MoveTo(x, y float64)              { r.add("MoveTo", x, y) }
func (r *Recorder) LineTo(x, y float64)              { r.add("LineTo", x, y) }
func (r *Recorder) QuadraticTo(cx, cy, x, y float64) { r.add("QuadraticTo", cx, cy, x, y) }
func (r *Recorder) Arc(x, y, radius float64)         { r.add("Arc", x, y, radius) }
func (r *Recorder) Stroke()                          { r.add("Stroke") }
func (r *Recorder) Fill()                            { r.add("Fill") }
func (r *Recorder) FillRect(x, y, w, h float64)      { r.add("FillRect", x, y, w, h) }
func (r *Recorder) StrokeRect(x, y, w, h float64)    { r.add("StrokeRect", x, y, w, h) }

func (r *Recorder) Text(s string, x, y float64, align Align) {
	r.Calls = append(r.Calls, Call{Op: "Text", Args: []float64{x, y, float64(align)}, Text: s})
}

// Count returns how many times op was recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Texts returns every string drawn, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Calls {
		if c.Op == "Text" {
			out = append(out, c.Text)
		}
	}
	return out
}
