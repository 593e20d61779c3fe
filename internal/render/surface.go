package render

import "image/color"

// Align controls horizontal text anchoring.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Surface is a 2D drawing target with canvas-like semantics. Paths are built
// with BeginPath/MoveTo/LineTo/QuadraticTo/Arc and consumed by Stroke or Fill.
type Surface interface {
	// Size returns the drawable width and height in pixels.
	Size() (w, h float64)
	// Clear paints the whole surface with c.
	Clear(c color.Color)

	SetFill(c color.Color)
	SetStroke(c color.Color)
	SetLineWidth(w float64)
	// SetAlpha sets the global opacity applied to subsequent fills and strokes.
	SetAlpha(a float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	// Arc adds a full circle of radius r centred on (x, y).
	Arc(x, y, r float64)
	Stroke()
	Fill()

	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	Text(s string, x, y float64, align Align)
}
