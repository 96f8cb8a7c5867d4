package input

import (
	"sort"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/shape"
)

func (m *Machine) startErasing(p geom.Point) {
	f := m.frame()
	s := &erasing{
		last:    p,
		path:    []geom.Point{p},
		order:   make([]frame.ShapeID, f.Len()),
		removed: make(map[frame.ShapeID]frame.DrawnShape),
		created: make(map[frame.ShapeID]struct{}),
	}
	for i := range s.order {
		s.order[i] = f.At(i).ID
	}
	m.setState(s)
	m.eraseAlong(s, p, p)
}

// eraseAlong applies the eraser swept from a to b to the active frame.
// Edits happen live; finishErasing records them.
func (m *Machine) eraseAlong(s *erasing, a, b geom.Point) {
	f := m.frame()
	radius := m.tools.EraserSize / 2
	reach := geom.RectFromPoints(a, b).Inset(radius)
	m.dirty.Add(reach)

	for _, d := range f.Shapes() {
		if d.Locked || !m.bounds(d.Shape).Intersects(reach) {
			continue
		}
		if m.tools.EraserMode == EraserBrush {
			if pts, pressure, ok := freehand(d.Shape); ok {
				if !m.sweepHits(d, a, b, radius) {
					continue
				}
				frags, hit := shape.ErasePolyline(pts, pressure, a, b, radius)
				if hit {
					m.replaceWithFragments(s, d, frags)
				}
				continue
			}
		}
		if m.sweepHits(d, a, b, radius) {
			m.eraseShape(s, d)
		}
	}
}

// sweepHits samples the eraser segment and hit-tests d at each sample.
func (m *Machine) sweepHits(d frame.DrawnShape, a, b geom.Point, radius float64) bool {
	step := radius / 2
	if step < 1 {
		step = 1
	}
	n := int(a.Distance(b)/step) + 1
	for i := 0; i <= n; i++ {
		if m.hit(d, a.Lerp(b, float64(i)/float64(n)), radius) {
			return true
		}
	}
	return false
}

func freehand(s shape.Shape) ([]geom.Point, []float64, bool) {
	switch v := s.(type) {
	case shape.Stroke:
		return v.Points, v.Pressure, true
	case shape.Marker:
		return v.Points, nil, true
	}
	return nil, nil, false
}

func (m *Machine) eraseShape(s *erasing, d frame.DrawnShape) {
	f := m.frame()
	m.damage(d.Shape)
	f.Delete(d.ID)
	m.invalidate(d.ID)
	if _, ok := s.created[d.ID]; ok {
		delete(s.created, d.ID)
		return
	}
	s.removed[d.ID] = d
}

func (m *Machine) replaceWithFragments(s *erasing, d frame.DrawnShape, frags []shape.Fragment) {
	f := m.frame()
	idx := f.IndexOf(d.ID)
	m.eraseShape(s, d)
	for k, frag := range frags {
		var piece shape.Shape
		switch v := d.Shape.(type) {
		case shape.Stroke:
			v.Points, v.Pressure = frag.Points, frag.Pressure
			piece = v
		case shape.Marker:
			v.Points = frag.Points
			piece = v
		}
		nd := f.NewShape(piece, m.now())
		nd.CreatedAt = d.CreatedAt
		f.Insert(idx+k, nd)
		s.created[nd.ID] = struct{}{}
	}
}

// eraseAction describes everything the gesture changed as one Batch
// relative to the frame at gesture start: removals of the original shapes
// followed by insertion of surviving fragments. It is nil when nothing was
// touched.
func (m *Machine) eraseAction(s *erasing) frame.Action {
	f := m.frame()
	order := append([]frame.ShapeID(nil), s.order...)

	var originals []frame.ShapeID
	for id := range s.removed {
		originals = append(originals, id)
	}
	pos := func(id frame.ShapeID) int {
		for i, v := range order {
			if v == id {
				return i
			}
		}
		return -1
	}
	sort.Slice(originals, func(i, j int) bool { return pos(originals[i]) > pos(originals[j]) })

	var actions []frame.Action
	for _, id := range originals {
		i := pos(id)
		actions = append(actions, frame.Remove{Index: i, Shape: s.removed[id]})
		order = append(order[:i], order[i+1:]...)
	}

	var frags []frame.DrawnShape
	for id := range s.created {
		if d, ok := f.Get(id); ok {
			frags = append(frags, d)
		}
	}
	sort.Slice(frags, func(i, j int) bool { return f.IndexOf(frags[i].ID) < f.IndexOf(frags[j].ID) })
	for _, d := range frags {
		actions = append(actions, frame.Add{Index: f.IndexOf(d.ID), Shape: d})
	}
	if len(actions) == 0 {
		return nil
	}
	return frame.Batch{Actions: actions}
}

func (m *Machine) finishErasing(s *erasing) {
	m.setState(idle{})
	m.record(m.eraseAction(s))
}
