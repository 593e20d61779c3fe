package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Theme holds the colors a demo draws with. It is passed into every Draw call
// so rendering never looks up presentation state on its own.
type Theme struct {
	Name          string
	Background    color.RGBA
	TextPrimary   color.RGBA
	TextSecondary color.RGBA
	TextTertiary  color.RGBA
	Accent        color.RGBA
	ClassZero     color.RGBA
	ClassOne      color.RGBA
}

// LightTheme mirrors the site's default palette.
func LightTheme() Theme {
	return Theme{
		Name:          "light",
		Background:    MustHex("#ffffff"),
		TextPrimary:   MustHex("#000000"),
		TextSecondary: MustHex("#333333"),
		TextTertiary:  MustHex("#666666"),
		Accent:        MustHex("#2563eb"),
		ClassZero:     MustHex("#3b82f6"),
		ClassOne:      MustHex("#ef4444"),
	}
}

// DarkTheme mirrors the site's dark-mode palette.
func DarkTheme() Theme {
	return Theme{
		Name:          "dark",
		Background:    MustHex("#0a0a0a"),
		TextPrimary:   MustHex("#f5f5f5"),
		TextSecondary: MustHex("#b4b4b4"),
		TextTertiary:  MustHex("#8c8c8c"),
		Accent:        MustHex("#60a5fa"),
		ClassZero:     MustHex("#60a5fa"),
		ClassOne:      MustHex("#f87171"),
	}
}

// ThemeByName returns the named preset, falling back to the light theme.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, "dark") {
		return DarkTheme()
	}
	return LightTheme()
}

// ParseHex parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustHex is ParseHex for compile-time constants.
func MustHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Mix linearly interpolates between a and b; t is clamped to [0,1].
func Mix(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}
