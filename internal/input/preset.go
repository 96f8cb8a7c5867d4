package input

import (
	"fmt"

	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

// Preset is a tool configuration bound to a slot. Size is the eraser size
// for the eraser tool and the stroke thickness otherwise. Nil fields leave
// the current setting untouched when the preset is applied.
type Preset struct {
	Name  string
	Tool  Tool
	Color shape.Color
	Size  float64

	EraserMode     *EraserMode
	MarkerOpacity  *float64
	Fill           *bool
	FontSize       *float64
	TextBackground *bool
	ArrowLength    *float64
	ArrowAngle     *float64
	ArrowHeadAtEnd *bool
}

// apply overlays p on t.
func (p *Preset) apply(t ToolState) ToolState {
	t.Tool = p.Tool
	t.Color = p.Color
	if p.Size > 0 {
		if p.Tool == ToolEraser {
			t.EraserSize = p.Size
		} else {
			t.Thickness = p.Size
		}
	}
	if p.EraserMode != nil {
		t.EraserMode = *p.EraserMode
	}
	if p.MarkerOpacity != nil {
		t.MarkerOpacity = *p.MarkerOpacity
	}
	if p.Fill != nil {
		t.Fill = *p.Fill
	}
	if p.FontSize != nil {
		t.Font.Size = *p.FontSize
	}
	if p.TextBackground != nil {
		t.TextBackground = *p.TextBackground
	}
	if p.ArrowLength != nil {
		t.ArrowLength = *p.ArrowLength
	}
	if p.ArrowAngle != nil {
		t.ArrowAngle = *p.ArrowAngle
	}
	if p.ArrowHeadAtEnd != nil {
		t.ArrowHeadAtEnd = *p.ArrowHeadAtEnd
	}
	t.Normalize()
	return t
}

// presetFrom captures every presettable field of t.
func presetFrom(t ToolState) *Preset {
	size := t.Thickness
	if t.Tool == ToolEraser {
		size = t.EraserSize
	}
	return &Preset{
		Tool:           t.Tool,
		Color:          t.Color,
		Size:           size,
		EraserMode:     &t.EraserMode,
		MarkerOpacity:  &t.MarkerOpacity,
		Fill:           &t.Fill,
		FontSize:       &t.Font.Size,
		TextBackground: &t.TextBackground,
		ArrowLength:    &t.ArrowLength,
		ArrowAngle:     &t.ArrowAngle,
		ArrowHeadAtEnd: &t.ArrowHeadAtEnd,
	}
}

// SetPresets replaces the preset slots; ps[0] is slot 1. Entries beyond
// the last slot are ignored and nil entries leave a slot empty.
func (m *Machine) SetPresets(ps []*Preset) {
	m.presets = [keymap.PresetSlots]*Preset{}
	copy(m.presets[:], ps)
}

// Preset returns the preset in slot (1-based), if any.
func (m *Machine) Preset(slot int) (*Preset, bool) {
	if slot < 1 || slot > keymap.PresetSlots || m.presets[slot-1] == nil {
		return nil, false
	}
	return m.presets[slot-1], true
}

func (m *Machine) presetAction(op keymap.PresetOp, slot int) {
	switch op {
	case keymap.PresetApply:
		m.applyPreset(slot)
	case keymap.PresetSave:
		p := presetFrom(m.tools)
		if old, ok := m.Preset(slot); ok {
			p.Name = old.Name
		}
		m.presets[slot-1] = p
		m.notify(fmt.Sprintf("Saved preset %d", slot))
	case keymap.PresetClear:
		if _, ok := m.Preset(slot); !ok {
			return
		}
		m.presets[slot-1] = nil
		m.notify(fmt.Sprintf("Cleared preset %d", slot))
	}
}

// applyPreset overlays the preset in slot on the tool state. An empty slot
// changes nothing.
func (m *Machine) applyPreset(slot int) {
	p, ok := m.Preset(slot)
	if !ok {
		m.notify(fmt.Sprintf("Preset %d is empty", slot))
		return
	}
	m.SetTools(p.apply(m.tools))
	m.dirty.MarkFull()
	label := p.Name
	if label == "" {
		label = p.Tool.String()
	}
	m.notify(fmt.Sprintf("Preset %d: %s", slot, label))
}
