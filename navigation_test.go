package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/keymap"
	"sketchover/internal/render"
)

func TestKeyEvent(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want input.KeyDown
	}{
		{"rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}, input.KeyDown{Key: "a", Text: "a"}},
		{"alt rune", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n"), Alt: true}, input.KeyDown{Key: "n", Mods: keymap.ModAlt}},
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, input.KeyDown{Key: " ", Text: " "}},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, input.KeyDown{Key: "enter"}},
		{"alt enter", tea.KeyMsg{Type: tea.KeyEnter, Alt: true}, input.KeyDown{Key: "enter", Mods: keymap.ModShift}},
		{"ctrl", tea.KeyMsg{Type: tea.KeyCtrlZ}, input.KeyDown{Key: "z", Mods: keymap.ModCtrl}},
		{"escape", tea.KeyMsg{Type: tea.KeyEscape}, input.KeyDown{Key: "esc"}},
		{"arrow", tea.KeyMsg{Type: tea.KeyUp}, input.KeyDown{Key: "up"}},
		{"shift arrow", tea.KeyMsg{Type: tea.KeyShiftLeft}, input.KeyDown{Key: "left", Mods: keymap.ModShift}},
		{"alt arrow", tea.KeyMsg{Type: tea.KeyRight, Alt: true}, input.KeyDown{Key: "right", Mods: keymap.ModAlt}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyEvent(tt.msg))
		})
	}
}

func TestMouseEvents(t *testing.T) {
	m := &model{terminal: render.NewTerminal(nil)}
	pos := geom.Pt(20, 56)

	evs := m.mouseEvents(tea.MouseMsg{X: 2, Y: 3, Type: tea.MouseLeft})
	require.Len(t, evs, 1)
	assert.Equal(t, input.PointerDown{Pos: pos, Button: input.ButtonLeft}, evs[0])

	// Held button reports arrive as drags.
	evs = m.mouseEvents(tea.MouseMsg{X: 2, Y: 3, Type: tea.MouseLeft, Ctrl: true})
	require.Len(t, evs, 1)
	assert.Equal(t, input.PointerMove{Pos: pos, Mods: keymap.ModCtrl}, evs[0])

	evs = m.mouseEvents(tea.MouseMsg{X: 2, Y: 3, Type: tea.MouseRelease})
	require.Len(t, evs, 1)
	assert.Equal(t, input.PointerUp{Pos: pos, Button: input.ButtonLeft}, evs[0])
	assert.Nil(t, m.pressed)

	assert.Empty(t, m.mouseEvents(tea.MouseMsg{Type: tea.MouseRelease}))
}

func TestMouseEventsButtonChange(t *testing.T) {
	m := &model{terminal: render.NewTerminal(nil)}
	m.mouseEvents(tea.MouseMsg{Type: tea.MouseLeft})

	evs := m.mouseEvents(tea.MouseMsg{Type: tea.MouseRight})
	require.Len(t, evs, 2)
	assert.IsType(t, input.PointerUp{}, evs[0])
	assert.Equal(t, input.ButtonRight, evs[1].(input.PointerDown).Button)
}

func TestMouseWheel(t *testing.T) {
	m := &model{terminal: render.NewTerminal(nil)}
	evs := m.mouseEvents(tea.MouseMsg{Type: tea.MouseWheelDown, Alt: true})
	require.Len(t, evs, 1)
	assert.Equal(t, input.Scroll{Pos: geom.Pt(4, 8), Delta: -1, Mods: keymap.ModAlt}, evs[0])
}
