package input

import (
	"sketchover/internal/frame"
	"sketchover/internal/geom"
)

// StateKind names the interaction state of the machine.
type StateKind int

const (
	StateIdle StateKind = iota
	StateDrawing
	StateSelecting
	StateDragging
	StateResizing
	StateEditingText
	StateMenuOpen
	StateProperties
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateDrawing:     "drawing",
	StateSelecting:   "selecting",
	StateDragging:    "dragging",
	StateResizing:    "resizing",
	StateEditingText: "editing_text",
	StateMenuOpen:    "menu_open",
	StateProperties:  "properties",
}

func (k StateKind) String() string {
	return stateNames[k]
}

// state is one of the concrete gesture states below. Each carries exactly
// the data its gesture needs.
type state interface {
	kind() StateKind
}

type idle struct{}

// drawing accumulates a shape between press and release.
type drawing struct {
	tool     Tool
	start    geom.Point
	end      geom.Point
	points   []geom.Point
	pressure []float64
}

// erasing applies eraser edits live and records them as one action on
// release.
type erasing struct {
	last    geom.Point
	path    []geom.Point
	order   []frame.ShapeID
	removed map[frame.ShapeID]frame.DrawnShape
	created map[frame.ShapeID]struct{}
}

type selecting struct {
	start, cur geom.Point
	additive   bool
}

// dragging moves the unlocked members of the selection, always from their
// original geometry so repeated moves do not drift.
type dragging struct {
	start  geom.Point
	ids    []frame.ShapeID
	before map[frame.ShapeID]frame.Snapshot
	moved  bool
}

type resizing struct {
	handle Handle
	box    geom.Rect
	ids    []frame.ShapeID
	before map[frame.ShapeID]frame.Snapshot
	moved  bool
}

// editing holds the inline text buffer. id is zero for a new shape.
type editing struct {
	id     frame.ShapeID
	note   bool
	pos    geom.Point
	buf    []rune
	cursor int
	before frame.DrawnShape
}

type menuOpen struct {
	menu *Menu
}

type propertiesOpen struct {
	panel *Panel
}

func (idle) kind() StateKind            { return StateIdle }
func (*drawing) kind() StateKind        { return StateDrawing }
func (*erasing) kind() StateKind        { return StateDrawing }
func (*selecting) kind() StateKind      { return StateSelecting }
func (*dragging) kind() StateKind       { return StateDragging }
func (*resizing) kind() StateKind       { return StateResizing }
func (*editing) kind() StateKind        { return StateEditingText }
func (*menuOpen) kind() StateKind       { return StateMenuOpen }
func (*propertiesOpen) kind() StateKind { return StateProperties }

// Handle is one of the eight resize grips around the selection bounds.
type Handle int

const (
	HandleNW Handle = iota
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

// HandlePoints returns the grip positions of box in Handle order.
func HandlePoints(box geom.Rect) [8]geom.Point {
	c := box.Center()
	return [8]geom.Point{
		box.Min,
		geom.Pt(c.X, box.Min.Y),
		geom.Pt(box.Max.X, box.Min.Y),
		geom.Pt(box.Max.X, c.Y),
		box.Max,
		geom.Pt(c.X, box.Max.Y),
		geom.Pt(box.Min.X, box.Max.Y),
		geom.Pt(box.Min.X, c.Y),
	}
}

func handleAt(box geom.Rect, p geom.Point, radius float64) (Handle, bool) {
	for i, hp := range HandlePoints(box) {
		if hp.Distance(p) <= radius {
			return Handle(i), true
		}
	}
	return 0, false
}

// resizeBox moves the edges of box grabbed by h to p.
func resizeBox(box geom.Rect, h Handle, p geom.Point) geom.Rect {
	r := box
	switch h {
	case HandleNW, HandleW, HandleSW:
		r.Min.X = p.X
	case HandleNE, HandleE, HandleSE:
		r.Max.X = p.X
	}
	switch h {
	case HandleNW, HandleN, HandleNE:
		r.Min.Y = p.Y
	case HandleSW, HandleS, HandleSE:
		r.Max.Y = p.Y
	}
	return r
}
