package input

import (
	"fmt"

	"github.com/samber/lo"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

// Property is an editable attribute listed in the properties panel.
type Property int

const (
	PropColor Property = iota
	PropThickness
	PropFill
	PropFontSize
	PropArrowHead
	PropLocked
)

var propertyLabels = map[Property]string{
	PropColor:     "Color",
	PropThickness: "Thickness",
	PropFill:      "Fill",
	PropFontSize:  "Font size",
	PropArrowHead: "Arrow head",
	PropLocked:    "Locked",
}

func (p Property) String() string { return propertyLabels[p] }

// PanelEntry is one row of the properties panel.
type PanelEntry struct {
	Property Property
	Value    string
	Disabled bool
}

// Panel lists the properties shared by the selected shapes.
type Panel struct {
	Pos     geom.Point
	Target  []frame.ShapeID
	Entries []PanelEntry
	Focus   int
}

// Bounds returns the rectangle the panel occupies.
func (p *Panel) Bounds() geom.Rect {
	return geom.R(p.Pos.X, p.Pos.Y, p.Pos.X+MenuWidth, p.Pos.Y+MenuItemHeight*float64(len(p.Entries)+1))
}

// EntryAt returns the row under pt, or -1. The first row is the title.
func (p *Panel) EntryAt(pt geom.Point) int {
	if !p.Bounds().Contains(pt) {
		return -1
	}
	i := int((pt.Y-p.Pos.Y)/MenuItemHeight) - 1
	if i < 0 || i >= len(p.Entries) {
		return -1
	}
	return i
}

func (m *Machine) openProperties() {
	sel := m.selectedShapes()
	if len(sel) == 0 {
		m.notify("Nothing selected")
		return
	}
	pos := m.pointer
	if box, ok := m.selectionBounds(); ok {
		pos = geom.Pt(box.Max.X+8, box.Min.Y)
	}
	p := &Panel{Pos: pos, Target: lo.Map(sel, func(d frame.DrawnShape, _ int) frame.ShapeID { return d.ID })}
	m.refreshPanel(p)
	if b := p.Bounds(); b.Max.X > m.viewport.X {
		p.Pos.X = max(0, m.viewport.X-MenuWidth)
	}
	m.setState(&propertiesOpen{panel: p})
	m.dirty.MarkFull()
}

// targets returns the panel's shapes still present in the frame.
func (m *Machine) targets(p *Panel) []frame.DrawnShape {
	f := m.frame()
	var out []frame.DrawnShape
	for _, id := range p.Target {
		if d, ok := f.Get(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// refreshPanel recomputes the rows from the current target shapes.
func (m *Machine) refreshPanel(p *Panel) {
	ds := m.targets(p)
	unlocked := lo.Filter(ds, func(d frame.DrawnShape, _ int) bool { return !d.Locked })
	shapes := lo.Map(unlocked, func(d frame.DrawnShape, _ int) shape.Shape { return d.Shape })
	noEdit := len(unlocked) == 0

	entries := []PanelEntry{
		{Property: PropColor, Value: summary(shapes, func(s shape.Shape) (string, bool) { return shape.ColorOf(s).Hex(), true }), Disabled: noEdit},
	}
	if lo.SomeBy(shapes, func(s shape.Shape) bool { _, ok := shape.ThicknessOf(s); return ok }) {
		entries = append(entries, PanelEntry{Property: PropThickness, Value: summary(shapes, func(s shape.Shape) (string, bool) {
			t, ok := shape.ThicknessOf(s)
			return fmt.Sprintf("%.0f", t), ok
		})})
	}
	if lo.SomeBy(shapes, func(s shape.Shape) bool { _, ok := shape.FillOf(s); return ok }) {
		entries = append(entries, PanelEntry{Property: PropFill, Value: summary(shapes, func(s shape.Shape) (string, bool) {
			f, ok := shape.FillOf(s)
			return onOffWord(f), ok
		})})
	}
	if lo.SomeBy(shapes, func(s shape.Shape) bool { _, ok := shape.FontOf(s); return ok }) {
		entries = append(entries, PanelEntry{Property: PropFontSize, Value: summary(shapes, func(s shape.Shape) (string, bool) {
			f, ok := shape.FontOf(s)
			return fmt.Sprintf("%.0f", f.Size), ok
		})})
	}
	if lo.SomeBy(shapes, func(s shape.Shape) bool { _, ok := s.(shape.Arrow); return ok }) {
		entries = append(entries, PanelEntry{Property: PropArrowHead, Value: summary(shapes, func(s shape.Shape) (string, bool) {
			a, ok := s.(shape.Arrow)
			if a.HeadAtEnd {
				return "end", ok
			}
			return "start", ok
		})})
	}
	locked := "off"
	switch n := lo.CountBy(ds, func(d frame.DrawnShape) bool { return d.Locked }); {
	case n == len(ds):
		locked = "on"
	case n > 0:
		locked = "Mixed"
	}
	entries = append(entries, PanelEntry{Property: PropLocked, Value: locked})

	if noEdit {
		for i := range entries {
			if entries[i].Property != PropLocked {
				entries[i].Disabled = true
			}
		}
	}
	p.Entries = entries
	if p.Focus >= len(entries) || p.Focus < 0 || entries[p.Focus].Disabled {
		p.Focus = len(entries) - 1
		for i, e := range entries {
			if !e.Disabled {
				p.Focus = i
				break
			}
		}
	}
}

// summary returns the common value of the shapes that have the
// property, or "Mixed".
func summary(shapes []shape.Shape, value func(shape.Shape) (string, bool)) string {
	var vals []string
	for _, s := range shapes {
		if v, ok := value(s); ok {
			vals = append(vals, v)
		}
	}
	vals = lo.Uniq(vals)
	switch len(vals) {
	case 0:
		return "-"
	case 1:
		return vals[0]
	}
	return "Mixed"
}

func onOffWord(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// adjustProperty changes row i by dir (+1 or -1) on every target and
// commits the result as one step.
func (m *Machine) adjustProperty(p *Panel, i, dir int) {
	if i < 0 || i >= len(p.Entries) || p.Entries[i].Disabled {
		return
	}
	ds := m.targets(p)
	prop := p.Entries[i].Property
	var actions []frame.Action

	if prop == PropLocked {
		lock := !lo.EveryBy(ds, func(d frame.DrawnShape) bool { return d.Locked })
		for _, d := range ds {
			if d.Locked != lock {
				after := d.Snapshot()
				after.Locked = lock
				actions = append(actions, frame.Modify{ID: d.ID, Before: d.Snapshot(), After: after})
			}
		}
	} else {
		unlocked := lo.Filter(ds, func(d frame.DrawnShape, _ int) bool { return !d.Locked })
		fillOn := !lo.EveryBy(unlocked, func(d frame.DrawnShape) bool { f, _ := shape.FillOf(d.Shape); return f })
		var next shape.Color
		if len(unlocked) > 0 {
			next = nextColor(shape.ColorOf(unlocked[0].Shape), dir)
		}
		for _, d := range unlocked {
			s := d.Shape
			switch prop {
			case PropColor:
				s = shape.WithColor(s, next)
			case PropThickness:
				if t, ok := shape.ThicknessOf(s); ok {
					s = shape.WithThickness(s, clampf(t+float64(dir), MinThickness, MaxThickness))
				}
			case PropFill:
				if _, ok := shape.FillOf(s); ok {
					s = shape.WithFill(s, fillOn)
				}
			case PropFontSize:
				if f, ok := shape.FontOf(s); ok {
					s = shape.WithFontSize(s, clampf(f.Size+2*float64(dir), MinFontSize, MaxFontSize))
				}
			case PropArrowHead:
				if a, ok := s.(shape.Arrow); ok {
					a.HeadAtEnd = !a.HeadAtEnd
					s = a
				}
			}
			if sameShape(s, d.Shape) {
				continue
			}
			after := d.Snapshot()
			after.Shape = s
			actions = append(actions, frame.Modify{ID: d.ID, Before: d.Snapshot(), After: after})
		}
	}
	m.commit(frame.NewBatch(actions...))
	m.refreshPanel(p)
	m.dirty.MarkFull()
}

// sameShape compares the panel-editable attributes of two shapes.
func sameShape(a, b shape.Shape) bool {
	if shape.ColorOf(a) != shape.ColorOf(b) {
		return false
	}
	ta, _ := shape.ThicknessOf(a)
	tb, _ := shape.ThicknessOf(b)
	fa, _ := shape.FillOf(a)
	fb, _ := shape.FillOf(b)
	na, _ := shape.FontOf(a)
	nb, _ := shape.FontOf(b)
	if ta != tb || fa != fb || na != nb {
		return false
	}
	aa, okA := a.(shape.Arrow)
	ab, okB := b.(shape.Arrow)
	return !okA || !okB || aa.HeadAtEnd == ab.HeadAtEnd
}

func nextColor(c shape.Color, dir int) shape.Color {
	n := len(shape.Palette)
	i := lo.IndexOf(shape.Palette, c)
	if i < 0 {
		if dir < 0 {
			return shape.Palette[n-1]
		}
		return shape.Palette[0]
	}
	return shape.Palette[((i+dir)%n+n)%n]
}

func (m *Machine) panelKey(s *propertiesOpen, e KeyDown) {
	p := s.panel
	switch keymap.CanonicalKey(e.Key) {
	case "escape":
		m.cancel()
		return
	case "up":
		p.moveFocus(-1)
	case "down", "tab":
		p.moveFocus(1)
	case "left", "-":
		m.adjustProperty(p, p.Focus, -1)
	case "right", "+", "=", "enter", "space":
		m.adjustProperty(p, p.Focus, 1)
	}
	m.dirty.MarkFull()
}

func (p *Panel) moveFocus(delta int) {
	n := len(p.Entries)
	i := p.Focus
	for range n {
		i = ((i+delta)%n + n) % n
		if !p.Entries[i].Disabled {
			p.Focus = i
			return
		}
	}
}

func (m *Machine) panelPointerDown(s *propertiesOpen, e PointerDown) {
	i := s.panel.EntryAt(e.Pos)
	if i < 0 {
		if !s.panel.Bounds().Contains(e.Pos) {
			m.cancel()
		}
		return
	}
	s.panel.Focus = i
	dir := 1
	if e.Button == ButtonRight {
		dir = -1
	}
	m.adjustProperty(s.panel, i, dir)
}
