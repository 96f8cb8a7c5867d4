// Package shape defines the closed set of drawable shapes and the pure
// geometry over them: bounds, hit-testing, transforms and stroke erasing.
//
// Shapes are immutable values. Every operation that changes geometry
// returns a new shape and never aliases the input's point slices.
package shape

import (
	"fmt"

	"sketchover/internal/geom"
)

// Kind identifies a shape variant.
type Kind int

const (
	KindStroke Kind = iota
	KindMarker
	KindLine
	KindRect
	KindEllipse
	KindArrow
	KindText
	KindStickyNote
	KindStepMarker
)

var kindNames = [...]string{
	KindStroke:     "stroke",
	KindMarker:     "marker",
	KindLine:       "line",
	KindRect:       "rect",
	KindEllipse:    "ellipse",
	KindArrow:      "arrow",
	KindText:       "text",
	KindStickyNote: "sticky_note",
	KindStepMarker: "step_marker",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind %q", s)
}

// Shape is one of the variant types declared in this package.
type Shape interface {
	Kind() Kind
	sealed()
}

// FontDescriptor selects the face used to lay out text.
type FontDescriptor struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// Stroke is a freehand pen stroke. Pressure is either nil or holds one
// sample in [0, 1] per point.
type Stroke struct {
	Points    []geom.Point `json:"points"`
	Pressure  []float64    `json:"pressure,omitempty"`
	Color     Color        `json:"color"`
	Thickness float64      `json:"thickness"`
}

// Marker is a translucent highlighter stroke.
type Marker struct {
	Points    []geom.Point `json:"points"`
	Color     Color        `json:"color"`
	Thickness float64      `json:"thickness"`
	Opacity   float64      `json:"opacity"`
}

type Line struct {
	From      geom.Point `json:"from"`
	To        geom.Point `json:"to"`
	Color     Color      `json:"color"`
	Thickness float64    `json:"thickness"`
}

// Rect is stored normalized: Min is always the top-left corner.
type Rect struct {
	Min       geom.Point `json:"min"`
	Max       geom.Point `json:"max"`
	Color     Color      `json:"color"`
	Thickness float64    `json:"thickness"`
	Fill      bool       `json:"fill,omitempty"`
}

type Ellipse struct {
	Center    geom.Point `json:"center"`
	RX        float64    `json:"rx"`
	RY        float64    `json:"ry"`
	Color     Color      `json:"color"`
	Thickness float64    `json:"thickness"`
	Fill      bool       `json:"fill,omitempty"`
}

// Label is a numbered badge attached to an arrow tail.
type Label struct {
	Value int     `json:"value"`
	Size  float64 `json:"size"`
}

// Arrow points from From to To. With HeadAtEnd unset the head is drawn at
// From instead.
type Arrow struct {
	From       geom.Point `json:"from"`
	To         geom.Point `json:"to"`
	Color      Color      `json:"color"`
	Thickness  float64    `json:"thickness"`
	HeadLength float64    `json:"head_length"`
	HeadAngle  float64    `json:"head_angle"`
	HeadAtEnd  bool       `json:"head_at_end"`
	Label      *Label     `json:"label,omitempty"`
}

// Text is a block of text whose top-left corner sits at Pos. WrapWidth of
// zero disables wrapping.
type Text struct {
	Pos        geom.Point     `json:"pos"`
	Text       string         `json:"text"`
	Color      Color          `json:"color"`
	Font       FontDescriptor `json:"font"`
	Background bool           `json:"background,omitempty"`
	WrapWidth  float64        `json:"wrap_width,omitempty"`
}

// StickyNote is text on a filled card of Color. The text color is chosen
// for contrast against the card.
type StickyNote struct {
	Pos       geom.Point     `json:"pos"`
	Text      string         `json:"text"`
	Color     Color          `json:"color"`
	Font      FontDescriptor `json:"font"`
	WrapWidth float64        `json:"wrap_width,omitempty"`
}

// StepMarker is a numbered circle placed with a single click.
type StepMarker struct {
	Center geom.Point `json:"center"`
	Value  int        `json:"value"`
	Size   float64    `json:"size"`
	Color  Color      `json:"color"`
}

func (Stroke) Kind() Kind     { return KindStroke }
func (Marker) Kind() Kind     { return KindMarker }
func (Line) Kind() Kind       { return KindLine }
func (Rect) Kind() Kind       { return KindRect }
func (Ellipse) Kind() Kind    { return KindEllipse }
func (Arrow) Kind() Kind      { return KindArrow }
func (Text) Kind() Kind       { return KindText }
func (StickyNote) Kind() Kind { return KindStickyNote }
func (StepMarker) Kind() Kind { return KindStepMarker }

func (Stroke) sealed()     {}
func (Marker) sealed()     {}
func (Line) sealed()       {}
func (Rect) sealed()       {}
func (Ellipse) sealed()    {}
func (Arrow) sealed()      {}
func (Text) sealed()       {}
func (StickyNote) sealed() {}
func (StepMarker) sealed() {}

// Sticky note card metrics.
const (
	NotePadding   = 12.0
	NoteMinWidth  = 160.0
	NoteMinHeight = 100.0
	NoteWrapWidth = 200.0
)

// Radius returns the circle radius of the marker.
func (m StepMarker) Radius() float64 {
	r := m.Size * 0.9
	if r < 8 {
		r = 8
	}
	return r
}

// Tip returns the point the arrowhead is drawn at.
func (a Arrow) Tip() geom.Point {
	if a.HeadAtEnd {
		return a.To
	}
	return a.From
}

// Tail returns the end opposite the arrowhead.
func (a Arrow) Tail() geom.Point {
	if a.HeadAtEnd {
		return a.From
	}
	return a.To
}

// Head returns the two wing points of the arrowhead. A zero-length arrow
// yields two copies of its tip.
func (a Arrow) Head() (geom.Point, geom.Point) {
	tip, tail := a.Tip(), a.Tail()
	dir := tip.Sub(tail)
	l := dir.Length()
	if l == 0 {
		return tip, tip
	}
	dir = dir.Mul(1 / l)
	length := a.HeadLength
	if length > l {
		length = l
	}
	return tip.Sub(rotate(dir, a.HeadAngle).Mul(length)), tip.Sub(rotate(dir, -a.HeadAngle).Mul(length))
}

// LabelCenter returns the center of the label badge and its radius.
func (a Arrow) LabelCenter() (geom.Point, float64) {
	if a.Label == nil {
		return geom.Point{}, 0
	}
	r := a.Label.Size * 0.8
	if r < 8 {
		r = 8
	}
	return a.Tail(), r
}
