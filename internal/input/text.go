package input

import (
	"strings"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

// textModeActions are the bound actions still honored while typing. Plain
// keys always type.
var textModeActions = map[keymap.Action]bool{
	keymap.Exit:                 true,
	keymap.IncreaseFontSize:     true,
	keymap.DecreaseFontSize:     true,
	keymap.ToggleTextBackground: true,
	keymap.SaveSession:          true,
}

func (m *Machine) startEditing(p geom.Point, note bool) {
	m.clearSelection()
	m.setState(&editing{note: note, pos: p})
	m.dirty.MarkFull()
}

func (m *Machine) startEditingExisting(d frame.DrawnShape) {
	text, _ := shape.TextOf(d.Shape)
	_, note := d.Shape.(shape.StickyNote)
	var pos geom.Point
	switch v := d.Shape.(type) {
	case shape.Text:
		pos = v.Pos
	case shape.StickyNote:
		pos = v.Pos
	}
	buf := []rune(text)
	m.selection = []frame.ShapeID{d.ID}
	m.setState(&editing{id: d.ID, note: note, pos: pos, buf: buf, cursor: len(buf), before: d})
	m.dirty.MarkFull()
}

func (m *Machine) editKey(s *editing, e KeyDown) {
	if e.Mods&(keymap.ModCtrl|keymap.ModAlt|keymap.ModSuper) != 0 {
		if a, ok := m.bindings.Lookup(keymap.EventChord(e.Key, e.Mods)); ok && textModeActions[a] {
			m.dispatch(a)
		}
		return
	}
	m.dirty.Add(m.bounds(m.editPreview(s)).Inset(4))
	switch keymap.CanonicalKey(e.Key) {
	case "escape":
		m.cancel()
		return
	case "enter":
		if e.Mods.Has(keymap.ModShift) {
			s.insert("\n")
			break
		}
		m.commitText(s)
		return
	case "backspace":
		if s.cursor > 0 {
			s.buf = append(s.buf[:s.cursor-1], s.buf[s.cursor:]...)
			s.cursor--
		}
	case "delete":
		if s.cursor < len(s.buf) {
			s.buf = append(s.buf[:s.cursor], s.buf[s.cursor+1:]...)
		}
	case "left":
		if s.cursor > 0 {
			s.cursor--
		}
	case "right":
		if s.cursor < len(s.buf) {
			s.cursor++
		}
	case "home":
		s.cursor = lineStart(s.buf, s.cursor)
	case "end":
		s.cursor = lineEnd(s.buf, s.cursor)
	default:
		if e.Text != "" {
			s.insert(e.Text)
		}
	}
	m.dirty.Add(m.bounds(m.editPreview(s)).Inset(4))
}

func (s *editing) insert(text string) {
	r := []rune(text)
	buf := make([]rune, 0, len(s.buf)+len(r))
	buf = append(buf, s.buf[:s.cursor]...)
	buf = append(buf, r...)
	buf = append(buf, s.buf[s.cursor:]...)
	s.buf = buf
	s.cursor += len(r)
}

func lineStart(buf []rune, i int) int {
	for i > 0 && buf[i-1] != '\n' {
		i--
	}
	return i
}

func lineEnd(buf []rune, i int) int {
	for i < len(buf) && buf[i] != '\n' {
		i++
	}
	return i
}

// editPreview is the shape as it would be committed now.
func (m *Machine) editPreview(s *editing) shape.Shape {
	text := string(s.buf)
	if s.id != 0 {
		return shape.WithText(s.before.Shape, text)
	}
	if s.note {
		return shape.StickyNote{Pos: s.pos, Text: text, Color: m.tools.NoteColor, Font: m.tools.Font}
	}
	return shape.Text{Pos: s.pos, Text: text, Color: m.tools.Color, Font: m.tools.Font, Background: m.tools.TextBackground}
}

// commitText ends editing. New blank text is discarded; an existing shape
// emptied of text is removed.
func (m *Machine) commitText(s *editing) {
	m.setState(idle{})
	m.dirty.MarkFull()
	preview := m.editPreview(s)
	blank := strings.TrimSpace(string(s.buf)) == ""

	if s.id == 0 {
		if !blank {
			m.addShapes(preview)
		}
		return
	}

	f := m.frame()
	cur, ok := f.Get(s.id)
	if !ok {
		return
	}
	if blank {
		m.commit(frame.Remove{Index: f.IndexOf(s.id), Shape: cur})
		return
	}
	old, _ := shape.TextOf(cur.Shape)
	if old == string(s.buf) {
		return
	}
	m.commit(frame.Modify{
		ID:     s.id,
		Before: cur.Snapshot(),
		After:  frame.Snapshot{Shape: shape.WithText(cur.Shape, string(s.buf)), Locked: cur.Locked},
	})
}

// pasteText drops clipboard text at the pointer as a new text shape.
func (m *Machine) pasteText(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if s, ok := m.st.(*editing); ok {
		m.dirty.MarkFull()
		s.insert(text)
		return
	}
	if m.st.kind() != StateIdle {
		return
	}
	ids := m.addShapes(shape.Text{Pos: m.pointer, Text: text, Color: m.tools.Color, Font: m.tools.Font, Background: m.tools.TextBackground})
	m.selection = ids
}
