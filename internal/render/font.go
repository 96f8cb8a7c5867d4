// Package render draws machine snapshots: to an image with gg for export,
// and to a grid of terminal cells for the interactive host.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"sketchover/internal/shape"
)

// LineSpacing is the line height as a multiple of the font size.
const LineSpacing = 1.25

type faceKey struct {
	family string
	size   float64
	style  int
}

// Fonts lays out text with the Go font family and caches one face per
// family, size and style. It implements shape.TextMeasurer and is safe for
// concurrent use.
type Fonts struct {
	mu    sync.Mutex
	fonts map[string][4]*truetype.Font
	faces map[faceKey]font.Face
}

// NewFonts parses the embedded Go fonts.
func NewFonts() (*Fonts, error) {
	parse := func(ttfs ...[]byte) ([4]*truetype.Font, error) {
		var out [4]*truetype.Font
		for i, ttf := range ttfs {
			f, err := truetype.Parse(ttf)
			if err != nil {
				return out, fmt.Errorf("failed to parse font: %w", err)
			}
			out[i] = f
		}
		return out, nil
	}
	mono, err := parse(gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF)
	if err != nil {
		return nil, err
	}
	sans, err := parse(goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF)
	if err != nil {
		return nil, err
	}
	return &Fonts{
		fonts: map[string][4]*truetype.Font{"mono": mono, "sans": sans},
		faces: make(map[faceKey]font.Face),
	}, nil
}

// family maps a descriptor family onto one of the embedded families.
// Anything unrecognized is drawn monospaced.
func family(name string) string {
	switch strings.ToLower(name) {
	case "sans", "sans-serif", "go", "go regular":
		return "sans"
	}
	return "mono"
}

func style(d shape.FontDescriptor) int {
	s := 0
	if d.Bold {
		s |= 1
	}
	if d.Italic {
		s |= 2
	}
	return s
}

func fontSize(d shape.FontDescriptor) float64 {
	if d.Size <= 0 {
		return 16
	}
	return d.Size
}

// face returns the cached face for d. The caller holds f.mu.
func (f *Fonts) face(d shape.FontDescriptor) font.Face {
	k := faceKey{family: family(d.Family), size: fontSize(d), style: style(d)}
	if fc, ok := f.faces[k]; ok {
		return fc
	}
	fc := truetype.NewFace(f.fonts[k.family][k.style], &truetype.Options{
		Size:    k.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	f.faces[k] = fc
	return fc
}

// Face returns a face for drawing text described by d. Faces are not safe
// for concurrent use; callers that draw from several goroutines need their
// own Fonts.
func (f *Fonts) Face(d shape.FontDescriptor) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.face(d)
}

// Measure implements shape.TextMeasurer.
func (f *Fonts) Measure(d shape.FontDescriptor, text string, wrapWidth float64) shape.TextLayout {
	f.mu.Lock()
	defer f.mu.Unlock()
	fc := f.face(d)
	width := func(s string) float64 {
		return float64(font.MeasureString(fc, s)) / 64
	}
	return shape.Layout(text, wrapWidth, fontSize(d)*LineSpacing, width)
}
