package shape

import (
	"strings"
	"unicode/utf8"
)

// TextLayout is the measured extent of a block of text.
type TextLayout struct {
	Lines      []string
	Width      float64
	Height     float64
	LineHeight float64
}

// TextMeasurer lays out text for bounds and hit-testing. The renderer
// provides a font-backed implementation; ApproxMeasurer is used when none
// is configured.
type TextMeasurer interface {
	Measure(font FontDescriptor, text string, wrapWidth float64) TextLayout
}

// ApproxMeasurer assumes a monospaced face with glyphs 0.6em wide and a
// line height of 1.25em.
type ApproxMeasurer struct{}

func (ApproxMeasurer) Measure(font FontDescriptor, text string, wrapWidth float64) TextLayout {
	size := font.Size
	if size <= 0 {
		size = 16
	}
	width := func(s string) float64 { return float64(utf8.RuneCountInString(s)) * size * 0.6 }
	return Layout(text, wrapWidth, size*1.25, width)
}

// Layout wraps text on word boundaries so no line exceeds wrapWidth (when
// positive) and measures the result with width. Words wider than wrapWidth
// are split by rune. Explicit newlines are kept.
func Layout(text string, wrapWidth, lineHeight float64, width func(string) float64) TextLayout {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, wrapWidth, width)...)
	}
	l := TextLayout{Lines: lines, LineHeight: lineHeight, Height: float64(len(lines)) * lineHeight}
	for _, line := range lines {
		if w := width(line); w > l.Width {
			l.Width = w
		}
	}
	return l
}

func wrapParagraph(para string, wrapWidth float64, width func(string) float64) []string {
	if wrapWidth <= 0 || width(para) <= wrapWidth {
		return []string{para}
	}
	var (
		lines []string
		cur   string
	)
	for _, word := range strings.Fields(para) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if width(candidate) <= wrapWidth {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		// Hard-break words that do not fit on a line of their own.
		for width(word) > wrapWidth {
			_, cut := utf8.DecodeRuneInString(word)
			for cut < len(word) {
				_, n := utf8.DecodeRuneInString(word[cut:])
				if width(word[:cut+n]) > wrapWidth {
					break
				}
				cut += n
			}
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		cur = word
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}
