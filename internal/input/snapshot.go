package input

import (
	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/shape"
)

// Snapshot is a point-in-time view of everything a renderer draws. It
// shares no mutable state with the machine.
type Snapshot struct {
	Board      board.Spec
	BoardIndex int
	BoardCount int
	Page       int
	PageCount  int

	// Shapes are in z-order, bottom first. A shape being edited as text
	// is left out and drawn from Editing instead.
	Shapes    []frame.DrawnShape
	Selected  map[frame.ShapeID]bool
	Selection geom.Rect
	Handles   []geom.Point

	Preview    shape.Shape
	RubberBand *geom.Rect
	Eraser     *EraserView
	Editing    *EditingView
	Menu       *Menu
	Panel      *Panel

	State    StateKind
	Tools    ToolState
	Toast    string
	Frozen   bool
	Pointer  geom.Point
	CanUndo  bool
	CanRedo  bool
	Viewport geom.Point
}

// EraserView is the eraser cursor.
type EraserView struct {
	Center geom.Point
	Radius float64
}

// EditingView is the text being typed and its caret.
type EditingView struct {
	Shape shape.Shape
	Caret geom.Point
	// CaretHeight is the height of one line.
	CaretHeight float64
}

// Snapshot captures the current state for rendering.
func (m *Machine) Snapshot() Snapshot {
	b := m.canvas.Active()
	f := m.frame()
	snap := Snapshot{
		Board:      b.Spec,
		BoardIndex: m.canvas.ActiveIndex(),
		BoardCount: m.canvas.Len(),
		Page:       b.Pages.ActiveIndex(),
		PageCount:  b.Pages.Len(),
		Selected:   make(map[frame.ShapeID]bool, len(m.selection)),
		State:      m.st.kind(),
		Tools:      m.tools,
		Toast:      m.Toast(),
		Frozen:     m.frozen,
		Pointer:    m.pointer,
		CanUndo:    f.CanUndo(),
		CanRedo:    f.CanRedo(),
		Viewport:   m.viewport,
	}
	if m.tools.BoardPreviousColor != nil {
		c := *m.tools.BoardPreviousColor
		snap.Tools.BoardPreviousColor = &c
	}

	var hidden frame.ShapeID
	if s, ok := m.st.(*editing); ok {
		hidden = s.id
	}
	for _, d := range f.Shapes() {
		if d.ID != 0 && d.ID == hidden {
			continue
		}
		snap.Shapes = append(snap.Shapes, d.Clone())
	}
	for _, id := range m.selection {
		snap.Selected[id] = true
	}
	if box, ok := m.selectionBounds(); ok && hidden == 0 {
		snap.Selection = box
		h := HandlePoints(box)
		snap.Handles = h[:]
	}

	switch s := m.st.(type) {
	case *drawing:
		if p := m.buildShape(s); p != nil {
			snap.Preview = shape.Clone(p)
		}
	case *erasing:
		snap.Eraser = &EraserView{Center: s.last, Radius: m.tools.EraserSize / 2}
	case *selecting:
		r := geom.RectFromPoints(s.start, s.cur)
		snap.RubberBand = &r
	case *editing:
		snap.Editing = m.editingView(s)
	case *menuOpen:
		mu := *s.menu
		mu.Items = append([]MenuItem(nil), s.menu.Items...)
		snap.Menu = &mu
	case *propertiesOpen:
		p := *s.panel
		p.Entries = append([]PanelEntry(nil), s.panel.Entries...)
		snap.Panel = &p
	}
	if snap.Eraser == nil && m.tools.Tool == ToolEraser && snap.State == StateIdle {
		snap.Eraser = &EraserView{Center: m.pointer, Radius: m.tools.EraserSize / 2}
	}
	return snap
}

func (m *Machine) editingView(s *editing) *EditingView {
	preview := m.editPreview(s)
	font, _ := shape.FontOf(preview)
	origin, wrap, _ := shape.TextFrame(preview)
	l := m.measurer.Measure(font, string(s.buf[:s.cursor]), wrap)
	lh := l.LineHeight
	if lh == 0 {
		lh = font.Size * 1.25
	}
	caret := origin
	if n := len(l.Lines); n > 0 {
		last := m.measurer.Measure(font, l.Lines[n-1], 0)
		caret = origin.Add(geom.Pt(last.Width, float64(n-1)*lh))
	}
	return &EditingView{Shape: shape.Clone(preview), Caret: caret, CaretHeight: lh}
}
