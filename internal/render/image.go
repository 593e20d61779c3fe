package render

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// ImageSurface rasterizes draw calls into an RGBA image using gg.
type ImageSurface struct {
	dc     *gg.Context
	fill   color.Color
	stroke color.Color
	alpha  float64
}

// NewImageSurface allocates a w×h surface.
func NewImageSurface(w, h int) *ImageSurface {
	return &ImageSurface{
		dc:     gg.NewContext(w, h),
		fill:   color.Black,
		stroke: color.Black,
		alpha:  1,
	}
}

func (s *ImageSurface) Size() (float64, float64) {
	return float64(s.dc.Width()), float64(s.dc.Height())
}

func (s *ImageSurface) Clear(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *ImageSurface) SetFill(c color.Color)   { s.fill = c }
func (s *ImageSurface) SetStroke(c color.Color) { s.stroke = c }

func (s *ImageSurface) SetLineWidth(w float64) {
	if finite(w) {
		s.dc.SetLineWidth(w)
	}
}

func (s *ImageSurface) SetAlpha(a float64) {
	if !finite(a) {
		return
	}
	s.alpha = math.Max(0, math.Min(1, a))
}

func (s *ImageSurface) BeginPath() { s.dc.ClearPath() }

func (s *ImageSurface) MoveTo(x, y float64) {
	if finite(x, y) {
		s.dc.MoveTo(x, y)
	}
}

func (s *ImageSurface) LineTo(x, y float64) {
	if finite(x, y) {
		s.dc.LineTo(x, y)
	}
}

func (s *ImageSurface) QuadraticTo(cx, cy, x, y float64) {
	if finite(cx, cy, x, y) {
		s.dc.QuadraticTo(cx, cy, x, y)
	}
}

func (s *ImageSurface) Arc(x, y, r float64) {
	if finite(x, y, r) {
		s.dc.NewSubPath()
		s.dc.DrawCircle(x, y, r)
	}
}

func (s *ImageSurface) Stroke() {
	s.dc.SetStrokeStyle(gg.NewSolidPattern(withAlpha(s.stroke, s.alpha)))
	s.dc.Stroke()
}

func (s *ImageSurface) Fill() {
	s.dc.SetFillStyle(gg.NewSolidPattern(withAlpha(s.fill, s.alpha)))
	s.dc.Fill()
}

func (s *ImageSurface) FillRect(x, y, w, h float64) {
	if !finite(x, y, w, h) {
		return
	}
	s.dc.ClearPath()
	s.dc.DrawRectangle(x, y, w, h)
	s.Fill()
}

func (s *ImageSurface) StrokeRect(x, y, w, h float64) {
	if !finite(x, y, w, h) {
		return
	}
	s.dc.ClearPath()
	s.dc.DrawRectangle(x, y, w, h)
	s.Stroke()
}

func (s *ImageSurface) Text(str string, x, y float64, align Align) {
	if !finite(x, y) {
		return
	}
	ax := 0.0
	switch align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	s.dc.SetColor(withAlpha(s.fill, s.alpha))
	s.dc.DrawStringAnchored(str, x, y, ax, 0)
}

// Image returns the rendered frame.
func (s *ImageSurface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the frame as PNG.
func (s *ImageSurface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }

func withAlpha(c color.Color, a float64) color.Color {
	if a >= 1 {
		return c
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	n.A = uint16(float64(n.A) * a)
	return n
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
