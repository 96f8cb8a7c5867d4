package input

import (
	"math"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

func (m *Machine) pointerDown(e PointerDown) {
	switch s := m.st.(type) {
	case *menuOpen:
		m.menuPointerDown(s, e)
		return
	case *propertiesOpen:
		m.panelPointerDown(s, e)
		return
	case *editing:
		m.commitText(s)
	case idle:
	default:
		if e.Button == ButtonRight {
			m.cancel()
			m.openContextMenuAt(e.Pos, e.Mods)
		}
		return
	}

	switch e.Button {
	case ButtonRight:
		m.openContextMenuAt(e.Pos, e.Mods)
		return
	case ButtonMiddle:
		return
	}

	if m.startResize(e.Pos) {
		return
	}

	hit, hasHit := m.topmostAt(e.Pos)
	if hasHit && m.isDoubleClick(e.Pos, hit.ID) {
		if _, ok := shape.TextOf(hit.Shape); ok && !hit.Locked {
			m.startEditingExisting(hit)
			return
		}
	}
	m.rememberClick(e.Pos, hit.ID)

	selectMode := e.Mods.Has(keymap.ModAlt) || m.tools.Tool == ToolSelect
	additive := e.Mods.Has(keymap.ModShift)
	if hasHit && m.isSelected(hit.ID) && !(selectMode && additive) {
		m.startDrag(e.Pos)
		return
	}
	if selectMode {
		if hasHit {
			if additive {
				m.selection = append(m.selection, hit.ID)
			} else {
				m.selection = []frame.ShapeID{hit.ID}
			}
			m.dirty.MarkFull()
			m.startDrag(e.Pos)
			return
		}
		if !additive {
			m.clearSelection()
		}
		m.setState(&selecting{start: e.Pos, cur: e.Pos, additive: additive})
		return
	}

	m.clearSelection()
	switch tool := m.tools.Resolve(e.Mods); tool {
	case ToolText:
		m.startEditing(e.Pos, false)
	case ToolStickyNote:
		m.startEditing(e.Pos, true)
	case ToolStepMarker:
		m.placeStepMarker(e.Pos)
	case ToolEraser:
		m.startErasing(e.Pos)
	default:
		d := &drawing{tool: tool, start: e.Pos, end: e.Pos, points: []geom.Point{e.Pos}}
		if e.HasPressure {
			d.pressure = []float64{shape.ClampPressure(e.Pressure)}
		}
		m.setState(d)
	}
}

func (m *Machine) pointerMove(e PointerMove) {
	switch s := m.st.(type) {
	case *drawing:
		old := m.buildShape(s)
		s.end = e.Pos
		if s.tool == ToolPen || s.tool == ToolMarker {
			if last := s.points[len(s.points)-1]; !last.Eq(e.Pos) {
				s.points = append(s.points, e.Pos)
				if s.pressure != nil {
					p := s.pressure[len(s.pressure)-1]
					if e.HasPressure {
						p = shape.ClampPressure(e.Pressure)
					}
					s.pressure = append(s.pressure, p)
				}
			}
		}
		m.damage(old, m.buildShape(s))
	case *erasing:
		m.eraseAlong(s, s.last, e.Pos)
		s.last = e.Pos
		s.path = append(s.path, e.Pos)
	case *selecting:
		m.dirty.Add(geom.RectFromPoints(s.start, s.cur).Inset(2))
		s.cur = e.Pos
		m.dirty.Add(geom.RectFromPoints(s.start, s.cur).Inset(2))
	case *dragging:
		m.dragTo(s, e.Pos)
	case *resizing:
		m.resizeTo(s, e.Pos)
	case *menuOpen:
		if i := s.menu.ItemAt(e.Pos); i >= 0 && !s.menu.Items[i].Disabled {
			s.menu.Focus = i
			m.dirty.MarkFull()
		}
	}
}

func (m *Machine) pointerUp(e PointerUp) {
	if e.Button != ButtonLeft {
		return
	}
	switch s := m.st.(type) {
	case *drawing:
		if !e.Pos.Eq(s.end) {
			m.pointerMove(PointerMove{Pos: e.Pos, Mods: e.Mods})
		}
		m.finishDrawing(s)
	case *erasing:
		if !e.Pos.Eq(s.last) {
			m.pointerMove(PointerMove{Pos: e.Pos, Mods: e.Mods})
		}
		m.finishErasing(s)
	case *selecting:
		m.finishSelecting(s)
	case *dragging:
		m.finishDrag(s)
	case *resizing:
		m.finishResize(s)
	}
}

// cancel abandons the current gesture and restores what it changed.
// Cancelling from idle clears the selection.
func (m *Machine) cancel() {
	switch s := m.st.(type) {
	case idle:
		m.clearSelection()
	case *drawing:
		m.damage(m.buildShape(s))
	case *erasing:
		m.frame().Revert(m.eraseAction(s))
		m.resetCaches()
		m.dirty.MarkFull()
	case *selecting:
		m.dirty.MarkFull()
	case *dragging:
		m.restoreSnapshots(s.before)
	case *resizing:
		m.restoreSnapshots(s.before)
	case *editing:
		m.dirty.MarkFull()
	case *menuOpen, *propertiesOpen:
		m.dirty.MarkFull()
	}
	m.setState(idle{})
}

func (m *Machine) restoreSnapshots(before map[frame.ShapeID]frame.Snapshot) {
	f := m.frame()
	for id, snap := range before {
		f.Set(id, snap.Shape)
		m.invalidate(id)
	}
	m.dirty.MarkFull()
}

func (m *Machine) clearSelection() {
	if len(m.selection) > 0 {
		m.selection = nil
		m.dirty.MarkFull()
	}
}

func (m *Machine) isDoubleClick(p geom.Point, id frame.ShapeID) bool {
	lc := m.lastClick
	return lc.id == id && m.now().Sub(lc.at) <= doubleClickWindow && lc.pos.Distance(p) <= clickSlop
}

func (m *Machine) rememberClick(p geom.Point, id frame.ShapeID) {
	m.lastClick.pos = p
	m.lastClick.at = m.now()
	m.lastClick.id = id
}

// buildShape turns an in-progress drawing into a shape using the current
// tool settings. It returns nil before there is anything to show.
func (m *Machine) buildShape(d *drawing) shape.Shape {
	t := m.tools
	switch d.tool {
	case ToolPen:
		return shape.Stroke{Points: d.points, Pressure: d.pressure, Color: t.Color, Thickness: t.Thickness}
	case ToolMarker:
		return shape.Marker{Points: d.points, Color: t.Color, Thickness: t.Thickness, Opacity: t.MarkerOpacity}
	case ToolLine:
		return shape.Line{From: d.start, To: d.end, Color: t.Color, Thickness: t.Thickness}
	case ToolRect:
		r := geom.RectFromPoints(d.start, d.end)
		return shape.Rect{Min: r.Min, Max: r.Max, Color: t.Color, Thickness: t.Thickness, Fill: t.Fill}
	case ToolEllipse:
		r := geom.RectFromPoints(d.start, d.end)
		return shape.Ellipse{Center: r.Center(), RX: r.Dx() / 2, RY: r.Dy() / 2, Color: t.Color, Thickness: t.Thickness, Fill: t.Fill}
	case ToolArrow:
		a := shape.Arrow{
			From: d.start, To: d.end, Color: t.Color, Thickness: t.Thickness,
			HeadLength: t.ArrowLength, HeadAngle: t.ArrowAngle, HeadAtEnd: t.ArrowHeadAtEnd,
		}
		if t.ArrowLabels {
			a.Label = &shape.Label{Value: t.NextNumber, Size: t.Font.Size * 0.6}
		}
		return a
	}
	return nil
}

func (m *Machine) finishDrawing(d *drawing) {
	m.setState(idle{})
	s := m.buildShape(d)
	if s == nil || shape.Degenerate(s) {
		m.damage(s)
		return
	}
	if st, ok := s.(shape.Stroke); ok && m.tools.Smoothing {
		st.Points, st.Pressure = shape.SimplifyStroke(st.Points, st.Pressure, SmoothingEpsilon)
		s = st
	} else if mk, ok := s.(shape.Marker); ok && m.tools.Smoothing {
		mk.Points, _ = shape.SimplifyStroke(mk.Points, nil, SmoothingEpsilon)
		s = mk
	}
	m.addShapes(shape.Clone(s))
	if a, ok := s.(shape.Arrow); ok && a.Label != nil {
		m.tools.NextNumber++
	}
}

func (m *Machine) placeStepMarker(p geom.Point) {
	m.addShapes(shape.StepMarker{Center: p, Value: m.tools.NextNumber, Size: m.tools.Font.Size, Color: m.tools.Color})
	m.tools.NextNumber++
}

func (m *Machine) finishSelecting(s *selecting) {
	m.setState(idle{})
	m.dirty.MarkFull()
	r := geom.RectFromPoints(s.start, s.cur)
	if r.Dx() < clickSlop && r.Dy() < clickSlop {
		d, ok := m.topmostAt(s.start)
		if !ok {
			return
		}
		if s.additive && m.isSelected(d.ID) {
			m.selection = without(m.selection, d.ID)
			return
		}
		m.selectAdd(d.ID, s.additive)
		return
	}
	if !s.additive {
		m.selection = nil
	}
	for _, d := range m.frame().Shapes() {
		if shape.IntersectsRect(d.Shape, r, m.measurer) {
			m.selectAdd(d.ID, true)
		}
	}
}

func (m *Machine) selectAdd(id frame.ShapeID, additive bool) {
	if !additive {
		m.selection = []frame.ShapeID{id}
		return
	}
	if !m.isSelected(id) {
		m.selection = append(m.selection, id)
	}
}

func without(ids []frame.ShapeID, id frame.ShapeID) []frame.ShapeID {
	out := make([]frame.ShapeID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// editableSelection returns the selected shapes that are not locked, in
// z-order.
func (m *Machine) editableSelection() []frame.DrawnShape {
	var out []frame.DrawnShape
	for _, d := range m.frame().Shapes() {
		if !d.Locked && m.isSelected(d.ID) {
			out = append(out, d)
		}
	}
	return out
}

func (m *Machine) startDrag(p geom.Point) {
	s := &dragging{start: p, before: make(map[frame.ShapeID]frame.Snapshot)}
	for _, d := range m.editableSelection() {
		s.ids = append(s.ids, d.ID)
		s.before[d.ID] = d.Snapshot()
	}
	m.setState(s)
}

func (m *Machine) dragTo(s *dragging, p geom.Point) {
	delta := p.Sub(s.start)
	f := m.frame()
	for _, id := range s.ids {
		before := s.before[id]
		if cur, ok := f.Get(id); ok {
			m.damage(cur.Shape)
		}
		moved := shape.Translate(before.Shape, delta)
		f.Set(id, moved)
		m.invalidate(id)
		m.damage(moved)
	}
	if delta.Length() > 0 {
		s.moved = true
	}
}

func (m *Machine) finishDrag(s *dragging) {
	m.setState(idle{})
	if !s.moved {
		return
	}
	m.record(m.modifications(s.ids, s.before))
}

// modifications builds a Modify per shape whose current state differs
// from before.
func (m *Machine) modifications(ids []frame.ShapeID, before map[frame.ShapeID]frame.Snapshot) frame.Action {
	f := m.frame()
	var actions []frame.Action
	for _, id := range ids {
		d, ok := f.Get(id)
		if !ok {
			continue
		}
		actions = append(actions, frame.Modify{ID: id, Before: before[id], After: d.Snapshot()})
	}
	return frame.NewBatch(actions...)
}

func (m *Machine) startResize(p geom.Point) bool {
	if len(m.selection) == 0 {
		return false
	}
	box, ok := m.selectionBounds()
	if !ok {
		return false
	}
	h, ok := handleAt(box, p, m.tools.Tolerance)
	if !ok {
		return false
	}
	s := &resizing{handle: h, box: box, before: make(map[frame.ShapeID]frame.Snapshot)}
	for _, d := range m.editableSelection() {
		s.ids = append(s.ids, d.ID)
		s.before[d.ID] = d.Snapshot()
	}
	if len(s.ids) == 0 {
		return false
	}
	m.setState(s)
	return true
}

func (m *Machine) resizeTo(s *resizing, p geom.Point) {
	r := resizeBox(s.box, s.handle, p)
	anchor := s.box.Min
	sx, sy := 1.0, 1.0
	switch s.handle {
	case HandleNW, HandleW, HandleSW:
		anchor.X = s.box.Max.X
		sx = scaleFactor(s.box.Max.X-r.Min.X, s.box.Dx())
	case HandleNE, HandleE, HandleSE:
		sx = scaleFactor(r.Max.X-s.box.Min.X, s.box.Dx())
	}
	switch s.handle {
	case HandleNW, HandleN, HandleNE:
		anchor.Y = s.box.Max.Y
		sy = scaleFactor(s.box.Max.Y-r.Min.Y, s.box.Dy())
	case HandleSW, HandleS, HandleSE:
		sy = scaleFactor(r.Max.Y-s.box.Min.Y, s.box.Dy())
	}
	f := m.frame()
	for _, id := range s.ids {
		scaled := shape.Scale(s.before[id].Shape, anchor, sx, sy)
		f.Set(id, scaled)
		m.invalidate(id)
	}
	s.moved = true
	m.dirty.MarkFull()
}

func scaleFactor(newLen, oldLen float64) float64 {
	if oldLen == 0 {
		return 1
	}
	f := newLen / oldLen
	if math.Abs(f) < 0.01 {
		if f < 0 {
			return -0.01
		}
		return 0.01
	}
	return f
}

func (m *Machine) finishResize(s *resizing) {
	m.setState(idle{})
	if !s.moved {
		return
	}
	m.record(m.modifications(s.ids, s.before))
}

func (m *Machine) scroll(e Scroll) {
	if e.Delta == 0 {
		return
	}
	step := 1.0
	if e.Delta < 0 {
		step = -1
	}
	switch {
	case e.Mods.Has(keymap.ModCtrl):
		m.adjustFontSize(2 * step)
	case m.tools.Tool == ToolEraser:
		m.adjustEraserSize(2 * step)
	default:
		m.adjustThickness(step)
	}
}
