package shape

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

var (
	Black  = Color{0, 0, 0, 1}
	White  = Color{1, 1, 1, 1}
	Red    = Color{1, 0, 0, 1}
	Green  = Color{0, 0.8, 0, 1}
	Blue   = Color{0, 0.4, 1, 1}
	Yellow = Color{1, 0.9, 0, 1}
	Orange = Color{1, 0.5, 0, 1}
	Pink   = Color{1, 0.4, 0.7, 1}
)

// Palette is the color cycle offered by the properties panel.
var Palette = []Color{Red, Green, Blue, Yellow, Orange, Pink, White, Black}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// ParseHex parses "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (Color, error) {
	var alpha uint8 = 0xff
	if len(s) == 9 {
		if _, err := fmt.Sscanf(s[7:], "%02x", &alpha); err != nil {
			return Color{}, fmt.Errorf("parse alpha of %q: %w", s, err)
		}
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: float64(alpha) / 255}, nil
}

// Hex formats c as "#rrggbb", appending the alpha byte when c is not opaque.
func (c Color) Hex() string {
	h := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
	if c.A < 1 {
		h += fmt.Sprintf("%02x", uint8(c.A*255+0.5))
	}
	return h
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// Luminance returns the relative luminance of the color channels.
func (c Color) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// Contrast returns black for light colors and white for dark ones.
func (c Color) Contrast() Color {
	if c.Luminance() > 0.5 {
		return Black
	}
	return White
}
