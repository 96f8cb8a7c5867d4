package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sketchover/internal/input"
	"sketchover/internal/keymap"
)

var teaMods = map[string]keymap.Mod{
	"ctrl":  keymap.ModCtrl,
	"alt":   keymap.ModAlt,
	"shift": keymap.ModShift,
}

// keyEvent translates a terminal key into a machine key event. Terminals
// cannot report Shift+Enter, so Alt+Enter stands in for it.
func keyEvent(msg tea.KeyMsg) input.KeyDown {
	switch msg.Type {
	case tea.KeyRunes:
		text := string(msg.Runes)
		if msg.Alt {
			return input.KeyDown{Key: text, Mods: keymap.ModAlt}
		}
		return input.KeyDown{Key: text, Text: text}
	case tea.KeySpace:
		return input.KeyDown{Key: " ", Text: " "}
	case tea.KeyEnter:
		if msg.Alt {
			return input.KeyDown{Key: "enter", Mods: keymap.ModShift}
		}
		return input.KeyDown{Key: "enter"}
	}

	var mods keymap.Mod
	parts := strings.Split(msg.String(), "+")
	key := parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		mods |= teaMods[p]
	}
	if msg.Alt {
		mods |= keymap.ModAlt
	}
	return input.KeyDown{Key: key, Mods: mods}
}

func mouseMods(msg tea.MouseMsg) keymap.Mod {
	var mods keymap.Mod
	if msg.Ctrl {
		mods |= keymap.ModCtrl
	}
	if msg.Alt {
		mods |= keymap.ModAlt
	}
	return mods
}

var mouseButtons = map[tea.MouseEventType]input.Button{
	tea.MouseLeft:   input.ButtonLeft,
	tea.MouseRight:  input.ButtonRight,
	tea.MouseMiddle: input.ButtonMiddle,
}

// mouseEvents translates a terminal mouse report. Terminals repeat the
// button type while dragging, so a report for the held button is motion.
func (m *model) mouseEvents(msg tea.MouseMsg) []input.Event {
	pos := m.terminal.ToCanvas(msg.X, msg.Y)
	mods := mouseMods(msg)

	switch msg.Type {
	case tea.MouseWheelUp:
		return []input.Event{input.Scroll{Pos: pos, Delta: 1, Mods: mods}}
	case tea.MouseWheelDown:
		return []input.Event{input.Scroll{Pos: pos, Delta: -1, Mods: mods}}
	case tea.MouseMotion:
		return []input.Event{input.PointerMove{Pos: pos, Mods: mods}}
	case tea.MouseRelease:
		if m.pressed == nil {
			return nil
		}
		b := *m.pressed
		m.pressed = nil
		return []input.Event{input.PointerUp{Pos: pos, Button: b, Mods: mods}}
	}

	b, ok := mouseButtons[msg.Type]
	if !ok {
		return nil
	}
	var evs []input.Event
	if m.pressed != nil {
		if *m.pressed == b {
			return []input.Event{input.PointerMove{Pos: pos, Mods: mods}}
		}
		evs = append(evs, input.PointerUp{Pos: pos, Button: *m.pressed, Mods: mods})
	}
	m.pressed = &b
	return append(evs, input.PointerDown{Pos: pos, Button: b, Mods: mods})
}
