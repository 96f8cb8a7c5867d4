package shape

import (
	"math"
	"strings"

	"sketchover/internal/geom"
)

// Bounds returns the visual bounding box of s, including stroke width.
func Bounds(s Shape, m TextMeasurer) geom.Rect {
	switch v := s.(type) {
	case Stroke:
		r, _ := geom.BoundsOf(v.Points)
		return r.Inset(v.Thickness / 2)
	case Marker:
		r, _ := geom.BoundsOf(v.Points)
		return r.Inset(v.Thickness / 2)
	case Line:
		return geom.RectFromPoints(v.From, v.To).Inset(v.Thickness / 2)
	case Rect:
		return geom.Rect{Min: v.Min, Max: v.Max}.Inset(v.Thickness / 2)
	case Ellipse:
		return geom.R(v.Center.X-v.RX, v.Center.Y-v.RY, v.Center.X+v.RX, v.Center.Y+v.RY).Inset(v.Thickness / 2)
	case Arrow:
		w1, w2 := v.Head()
		r, _ := geom.BoundsOf([]geom.Point{v.From, v.To, w1, w2})
		r = r.Inset(v.Thickness / 2)
		if c, rad := v.LabelCenter(); rad > 0 {
			r = r.Union(geom.R(c.X-rad, c.Y-rad, c.X+rad, c.Y+rad))
		}
		return r
	case Text:
		l := measurer(m).Measure(v.Font, v.Text, v.WrapWidth)
		r := geom.Rect{Min: v.Pos, Max: v.Pos.Add(geom.Pt(l.Width, l.Height))}
		if v.Background {
			r = r.Inset(4)
		}
		return r
	case StickyNote:
		w, h := NoteSize(v, m)
		return geom.Rect{Min: v.Pos, Max: v.Pos.Add(geom.Pt(w, h))}
	case StepMarker:
		r := v.Radius()
		return geom.R(v.Center.X-r, v.Center.Y-r, v.Center.X+r, v.Center.Y+r)
	}
	return geom.Rect{}
}

// NoteSize returns the card size of a sticky note.
func NoteSize(n StickyNote, m TextMeasurer) (float64, float64) {
	l := measurer(m).Measure(n.Font, n.Text, noteWrap(n))
	return math.Max(NoteMinWidth, l.Width+2*NotePadding), math.Max(NoteMinHeight, l.Height+2*NotePadding)
}

func noteWrap(n StickyNote) float64 {
	if n.WrapWidth > 0 {
		return n.WrapWidth
	}
	return NoteWrapWidth - 2*NotePadding
}

func measurer(m TextMeasurer) TextMeasurer {
	if m == nil {
		return ApproxMeasurer{}
	}
	return m
}

// Degenerate reports whether s has no visible extent and should not be
// committed: zero drag distance for two-point shapes, a single distinct
// point for freehand shapes, blank text.
func Degenerate(s Shape) bool {
	switch v := s.(type) {
	case Stroke:
		return distinctPoints(v.Points) < 2
	case Marker:
		return distinctPoints(v.Points) < 2
	case Line:
		return v.From.Eq(v.To)
	case Rect:
		return v.Max.X-v.Min.X == 0 || v.Max.Y-v.Min.Y == 0
	case Ellipse:
		return v.RX == 0 || v.RY == 0
	case Arrow:
		return v.From.Eq(v.To)
	case Text:
		return strings.TrimSpace(v.Text) == ""
	case StickyNote:
		return strings.TrimSpace(v.Text) == ""
	}
	return false
}

func distinctPoints(pts []geom.Point) int {
	if len(pts) == 0 {
		return 0
	}
	n := 1
	for _, p := range pts[1:] {
		if !p.Eq(pts[0]) {
			n++
			break
		}
	}
	return n
}

// Clone returns a deep copy of s.
func Clone(s Shape) Shape {
	switch v := s.(type) {
	case Stroke:
		v.Points = append([]geom.Point(nil), v.Points...)
		if v.Pressure != nil {
			v.Pressure = append([]float64(nil), v.Pressure...)
		}
		return v
	case Marker:
		v.Points = append([]geom.Point(nil), v.Points...)
		return v
	case Arrow:
		if v.Label != nil {
			l := *v.Label
			v.Label = &l
		}
		return v
	}
	return s
}

// Translate returns s moved by d.
func Translate(s Shape, d geom.Point) Shape {
	return mapPoints(s, func(p geom.Point) geom.Point { return p.Add(d) }, 1, 1)
}

// Scale returns s scaled by (sx, sy) about anchor. Stroke widths are kept;
// text scales its font by |sy|.
func Scale(s Shape, anchor geom.Point, sx, sy float64) Shape {
	f := func(p geom.Point) geom.Point {
		return geom.Pt(anchor.X+(p.X-anchor.X)*sx, anchor.Y+(p.Y-anchor.Y)*sy)
	}
	return mapPoints(s, f, math.Abs(sx), math.Abs(sy))
}

func mapPoints(s Shape, f func(geom.Point) geom.Point, ax, ay float64) Shape {
	mapAll := func(pts []geom.Point) []geom.Point {
		out := make([]geom.Point, len(pts))
		for i, p := range pts {
			out[i] = f(p)
		}
		return out
	}
	switch v := s.(type) {
	case Stroke:
		v.Points = mapAll(v.Points)
		if v.Pressure != nil {
			v.Pressure = append([]float64(nil), v.Pressure...)
		}
		return v
	case Marker:
		v.Points = mapAll(v.Points)
		return v
	case Line:
		v.From, v.To = f(v.From), f(v.To)
		return v
	case Rect:
		r := geom.RectFromPoints(f(v.Min), f(v.Max))
		v.Min, v.Max = r.Min, r.Max
		return v
	case Ellipse:
		v.Center = f(v.Center)
		v.RX *= ax
		v.RY *= ay
		return v
	case Arrow:
		v.From, v.To = f(v.From), f(v.To)
		if v.Label != nil {
			l := *v.Label
			v.Label = &l
		}
		return v
	case Text:
		v.Pos = f(v.Pos)
		v.Font.Size = math.Max(1, v.Font.Size*ay)
		v.WrapWidth *= ax
		return v
	case StickyNote:
		v.Pos = f(v.Pos)
		v.Font.Size = math.Max(1, v.Font.Size*ay)
		v.WrapWidth *= ax
		return v
	case StepMarker:
		v.Center = f(v.Center)
		return v
	}
	return s
}

// ColorOf returns the primary color of s.
func ColorOf(s Shape) Color {
	switch v := s.(type) {
	case Stroke:
		return v.Color
	case Marker:
		return v.Color
	case Line:
		return v.Color
	case Rect:
		return v.Color
	case Ellipse:
		return v.Color
	case Arrow:
		return v.Color
	case Text:
		return v.Color
	case StickyNote:
		return v.Color
	case StepMarker:
		return v.Color
	}
	return Color{}
}

// WithColor returns s recolored.
func WithColor(s Shape, c Color) Shape {
	switch v := Clone(s).(type) {
	case Stroke:
		v.Color = c
		return v
	case Marker:
		v.Color = c
		return v
	case Line:
		v.Color = c
		return v
	case Rect:
		v.Color = c
		return v
	case Ellipse:
		v.Color = c
		return v
	case Arrow:
		v.Color = c
		return v
	case Text:
		v.Color = c
		return v
	case StickyNote:
		v.Color = c
		return v
	case StepMarker:
		v.Color = c
		return v
	}
	return s
}

// ThicknessOf returns the stroke width of s, if it has one.
func ThicknessOf(s Shape) (float64, bool) {
	switch v := s.(type) {
	case Stroke:
		return v.Thickness, true
	case Marker:
		return v.Thickness, true
	case Line:
		return v.Thickness, true
	case Rect:
		return v.Thickness, true
	case Ellipse:
		return v.Thickness, true
	case Arrow:
		return v.Thickness, true
	}
	return 0, false
}

// WithThickness returns s with a new stroke width. Shapes without one are
// returned unchanged.
func WithThickness(s Shape, t float64) Shape {
	switch v := Clone(s).(type) {
	case Stroke:
		v.Thickness = t
		return v
	case Marker:
		v.Thickness = t
		return v
	case Line:
		v.Thickness = t
		return v
	case Rect:
		v.Thickness = t
		return v
	case Ellipse:
		v.Thickness = t
		return v
	case Arrow:
		v.Thickness = t
		return v
	}
	return s
}

// FillOf reports whether s is filled and whether it supports filling.
func FillOf(s Shape) (fill, ok bool) {
	switch v := s.(type) {
	case Rect:
		return v.Fill, true
	case Ellipse:
		return v.Fill, true
	}
	return false, false
}

// WithFill returns s with its fill flag set, for shapes that support it.
func WithFill(s Shape, fill bool) Shape {
	switch v := s.(type) {
	case Rect:
		v.Fill = fill
		return v
	case Ellipse:
		v.Fill = fill
		return v
	}
	return s
}

// FontOf returns the font of text-bearing shapes.
func FontOf(s Shape) (FontDescriptor, bool) {
	switch v := s.(type) {
	case Text:
		return v.Font, true
	case StickyNote:
		return v.Font, true
	case StepMarker:
		return FontDescriptor{Size: v.Size}, true
	}
	return FontDescriptor{}, false
}

// WithFontSize returns s with a new font size, for text-bearing shapes.
func WithFontSize(s Shape, size float64) Shape {
	switch v := s.(type) {
	case Text:
		v.Font.Size = size
		return v
	case StickyNote:
		v.Font.Size = size
		return v
	case StepMarker:
		v.Size = size
		return v
	}
	return s
}

// TextOf returns the editable text of text and sticky note shapes.
func TextOf(s Shape) (string, bool) {
	switch v := s.(type) {
	case Text:
		return v.Text, true
	case StickyNote:
		return v.Text, true
	}
	return "", false
}

// WithText returns s with its text replaced.
func WithText(s Shape, text string) Shape {
	switch v := s.(type) {
	case Text:
		v.Text = text
		return v
	case StickyNote:
		v.Text = text
		return v
	}
	return s
}

// rotate turns unit vector d by deg degrees.
func rotate(d geom.Point, deg float64) geom.Point {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return geom.Pt(d.X*cos-d.Y*sin, d.X*sin+d.Y*cos)
}

// TextFrame returns where the text of a Text or StickyNote starts and the
// width it wraps at.
func TextFrame(s Shape) (origin geom.Point, wrap float64, ok bool) {
	switch v := s.(type) {
	case Text:
		return v.Pos, v.WrapWidth, true
	case StickyNote:
		return v.Pos.Add(geom.Pt(NotePadding, NotePadding)), noteWrap(v), true
	}
	return geom.Point{}, 0, false
}
