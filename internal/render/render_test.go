package render

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}},
		{"#ffffff", color.RGBA{255, 255, 255, 255}},
		{"#1a2b3c", color.RGBA{0x1a, 0x2b, 0x3c, 255}},
		{"#abc", color.RGBA{0xaa, 0xbb, 0xcc, 255}},
		{" 666666 ", color.RGBA{0x66, 0x66, 0x66, 255}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		if _, err := ParseHex(in); err == nil {
			t.Errorf("ParseHex(%q): expected error", in)
		}
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("dark").Name != "dark" {
		t.Error("expected dark theme")
	}
	if ThemeByName("DARK").Name != "dark" {
		t.Error("expected case-insensitive match")
	}
	if ThemeByName("unknown").Name != "light" {
		t.Error("expected light fallback")
	}
}

func TestMix(t *testing.T) {
	a := color.RGBA{0, 0, 0, 255}
	b := color.RGBA{200, 100, 50, 255}
	if got := Mix(a, b, 0); got != a {
		t.Errorf("Mix(t=0) = %v, want %v", got, a)
	}
	if got := Mix(a, b, 1); got != b {
		t.Errorf("Mix(t=1) = %v, want %v", got, b)
	}
	if got := Mix(a, b, 0.5); got.R != 100 || got.G != 50 || got.B != 25 {
		t.Errorf("Mix(t=0.5) = %v", got)
	}
	if got := Mix(a, b, 7); got != b {
		t.Errorf("Mix should clamp t, got %v", got)
	}
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(100, 50)
	r.BeginPath()
	r.MoveTo(0, 0)
	r.LineTo(10, 10)
	r.Stroke()
	r.Text("hello", 5, 5, AlignCenter)
	r.Text("world", 5, 15, AlignLeft)

	if w, h := r.Size(); w != 100 || h != 50 {
		t.Errorf("Size() = %v,%v", w, h)
	}
	if r.Count("LineTo") != 1 {
		t.Errorf("expected 1 LineTo, got %d", r.Count("LineTo"))
	}
	texts := r.Texts()
	if len(texts) != 2 || texts[0] != "hello" || texts[1] != "world" {
		t.Errorf("unexpected texts %v", texts)
	}
}

func TestImageSurfaceEncodesPNG(t *testing.T) {
	s := NewImageSurface(40, 30)
	th := LightTheme()
	s.Clear(th.Background)
	s.SetFill(th.ClassOne)
	s.FillRect(0, 0, 20, 30)
	s.SetStroke(th.TextPrimary)
	s.BeginPath()
	s.MoveTo(0, 0)
	s.LineTo(math.NaN(), 5) // skipped, must not panic
	s.LineTo(39, 29)
	s.Stroke()
	s.Text("x", 20, 15, AlignCenter)

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	r, g, b, _ := img.At(5, 25).RGBA()
	if r>>8 != 0xef || g>>8 != 0x44 || b>>8 != 0x44 {
		t.Errorf("expected class-one fill at (5,25), got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}
