package input

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/logging"
	"sketchover/internal/shape"
)

func (m *Machine) undo() {
	if _, err := m.frame().Undo(); err != nil {
		if errors.Is(err, frame.ErrNothingToUndo) {
			m.notify("Nothing to undo")
		}
		return
	}
	m.afterHistory()
}

func (m *Machine) redo() {
	if _, err := m.frame().Redo(); err != nil {
		if errors.Is(err, frame.ErrNothingToRedo) {
			m.notify("Nothing to redo")
		}
		return
	}
	m.afterHistory()
}

func (m *Machine) undoAll() {
	f := m.frame()
	if !f.CanUndo() {
		m.notify("Nothing to undo")
		return
	}
	n := 0
	for f.CanUndo() {
		if _, err := f.Undo(); err != nil {
			break
		}
		n++
	}
	logging.Logger().Debug("input: undo all", "steps", n)
	m.afterHistory()
}

func (m *Machine) redoAll() {
	f := m.frame()
	if !f.CanRedo() {
		m.notify("Nothing to redo")
		return
	}
	for f.CanRedo() {
		if _, err := f.Redo(); err != nil {
			break
		}
	}
	m.afterHistory()
}

func (m *Machine) afterHistory() {
	m.pruneSelection()
	m.resetCaches()
	m.dirty.MarkFull()
	m.modified = true
}

// removeAction builds a Batch removing ds, top-most first so every
// recorded index is valid when it is applied.
func (m *Machine) removeAction(ds []frame.DrawnShape) frame.Action {
	f := m.frame()
	sorted := append([]frame.DrawnShape(nil), ds...)
	sort.Slice(sorted, func(i, j int) bool { return f.IndexOf(sorted[i].ID) > f.IndexOf(sorted[j].ID) })
	actions := make([]frame.Action, 0, len(sorted))
	for _, d := range sorted {
		actions = append(actions, frame.Remove{Index: f.IndexOf(d.ID), Shape: d})
	}
	return frame.NewBatch(actions...)
}

// clearCanvas removes every unlocked shape of the active page.
func (m *Machine) clearCanvas() {
	victims := lo.Filter(m.frame().Shapes(), func(d frame.DrawnShape, _ int) bool { return !d.Locked })
	if len(victims) == 0 {
		return
	}
	m.commit(m.removeAction(victims))
	m.selection = nil
	m.resetCaches()
	m.dirty.MarkFull()
}

func (m *Machine) deleteSelection() {
	victims := m.editableSelection()
	if len(victims) == 0 {
		if len(m.selection) > 0 {
			m.notify("Selection is locked")
		}
		return
	}
	m.commit(m.removeAction(victims))
	m.dirty.MarkFull()
}

func (m *Machine) selectAll() {
	m.selection = lo.Map(m.frame().Shapes(), func(d frame.DrawnShape, _ int) frame.ShapeID { return d.ID })
	m.dirty.MarkFull()
}

// selectedShapes returns the selected shapes in z-order, locked included.
func (m *Machine) selectedShapes() []frame.DrawnShape {
	return lo.Filter(m.frame().Shapes(), func(d frame.DrawnShape, _ int) bool { return m.isSelected(d.ID) })
}

func (m *Machine) duplicateSelection() {
	src := m.selectedShapes()
	if len(src) == 0 {
		return
	}
	off := geom.Pt(PasteOffset, PasteOffset)
	shapes := lo.Map(src, func(d frame.DrawnShape, _ int) shape.Shape { return shape.Translate(d.Shape, off) })
	m.selection = m.addShapes(shapes...)
	m.dirty.MarkFull()
}

func (m *Machine) copySelection() {
	src := m.selectedShapes()
	if len(src) == 0 {
		return
	}
	m.clipboard = lo.Map(src, func(d frame.DrawnShape, _ int) frame.DrawnShape { return d.Clone() })
	m.pasteCount = 0
	m.notify(plural(len(src), "shape") + " copied")
	if text := clipboardText(src); text != "" {
		m.emit(CopyText{Text: text})
	}
}

// clipboardText joins the text content of the copied shapes.
func clipboardText(ds []frame.DrawnShape) string {
	var parts []string
	for _, d := range ds {
		if t, ok := shape.TextOf(d.Shape); ok && t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func (m *Machine) pasteSelection() {
	if len(m.clipboard) == 0 {
		m.notify("Clipboard is empty")
		return
	}
	m.pasteCount++
	d := PasteOffset * float64(m.pasteCount)
	off := geom.Pt(d, d)
	shapes := lo.Map(m.clipboard, func(c frame.DrawnShape, _ int) shape.Shape { return shape.Translate(c.Shape, off) })
	m.selection = m.addShapes(shapes...)
	m.dirty.MarkFull()
}

// toggleLock locks every selected shape unless all are already locked,
// in which case it unlocks them.
func (m *Machine) toggleLock() {
	src := m.selectedShapes()
	if len(src) == 0 {
		return
	}
	lock := !lo.EveryBy(src, func(d frame.DrawnShape) bool { return d.Locked })
	actions := make([]frame.Action, 0, len(src))
	for _, d := range src {
		if d.Locked == lock {
			continue
		}
		after := d.Snapshot()
		after.Locked = lock
		actions = append(actions, frame.Modify{ID: d.ID, Before: d.Snapshot(), After: after})
	}
	m.commit(frame.NewBatch(actions...))
	if lock {
		m.notify("Locked")
	} else {
		m.notify("Unlocked")
	}
}

func (m *Machine) reorderSelection(front bool) {
	ids := lo.Map(m.editableSelection(), func(d frame.DrawnShape, _ int) frame.ShapeID { return d.ID })
	if len(ids) == 0 {
		return
	}
	f := m.frame()
	var a frame.Action
	if front {
		a = f.PlanToFront(ids)
	} else {
		a = f.PlanToBack(ids)
	}
	if a == nil {
		return
	}
	m.commit(a)
	m.dirty.MarkFull()
}

// translateSelection commits a move of the unlocked selection by delta.
func (m *Machine) translateSelection(delta geom.Point) {
	src := m.editableSelection()
	if len(src) == 0 || delta.Eq(geom.Point{}) {
		return
	}
	actions := make([]frame.Action, 0, len(src))
	for _, d := range src {
		after := d.Snapshot()
		after.Shape = shape.Translate(d.Shape, delta)
		actions = append(actions, frame.Modify{ID: d.ID, Before: d.Snapshot(), After: after})
	}
	m.commit(frame.NewBatch(actions...))
	m.dirty.MarkFull()
}

func (m *Machine) nudge(dx, dy float64) {
	m.translateSelection(geom.Pt(dx, dy))
}

// moveToEdge moves the selection so its bounds touch a viewport edge.
func (m *Machine) moveToEdge(a keymap.Action) {
	var box geom.Rect
	ok := false
	for _, d := range m.editableSelection() {
		b := m.bounds(d.Shape)
		if !ok {
			box, ok = b, true
		} else {
			box = box.Union(b)
		}
	}
	if !ok {
		return
	}
	var delta geom.Point
	switch a {
	case keymap.MoveToStart:
		delta.X = -box.Min.X
	case keymap.MoveToEnd:
		delta.X = m.viewport.X - box.Max.X
	case keymap.MoveToTop:
		delta.Y = -box.Min.Y
	case keymap.MoveToBottom:
		delta.Y = m.viewport.Y - box.Max.Y
	}
	m.translateSelection(delta)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
