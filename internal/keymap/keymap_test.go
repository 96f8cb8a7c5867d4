package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	cases := []struct {
		in   string
		want Chord
	}{
		{"Ctrl+Shift+Z", Chord{ModCtrl | ModShift, "z"}},
		{"shift+ctrl+z", Chord{ModCtrl | ModShift, "z"}},
		{"Escape", Chord{0, "escape"}},
		{"Esc", Chord{0, "escape"}},
		{"+", Chord{0, "+"}},
		{"Ctrl++", Chord{ModCtrl, "+"}},
		{"Ctrl+Alt+Up", Chord{ModCtrl | ModAlt, "up"}},
		{"T", Chord{0, "t"}},
	}
	for _, tc := range cases {
		got, err := ParseChord(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "Hyper+Z", "Ctrl+"} {
		_, err := ParseChord(bad)
		assert.Error(t, err, bad)
	}
}

func TestChordString(t *testing.T) {
	c, err := ParseChord("alt+ctrl+pageup")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Alt+Pageup", c.String())
	assert.Equal(t, "T", Chord{Key: "t"}.String())
}

func TestEventChordUpperCaseImpliesShift(t *testing.T) {
	assert.Equal(t, Chord{ModCtrl | ModShift, "z"}, EventChord("Z", ModCtrl))
	assert.Equal(t, Chord{0, "escape"}, EventChord("esc", 0))
	assert.Equal(t, Chord{0, "t"}, EventChord("t", ModTab))
}

func TestDefaultsAreConflictFree(t *testing.T) {
	_, err := Build(nil)
	require.NoError(t, err)

	m := Default()
	a, ok := m.Lookup(EventChord("z", ModCtrl))
	require.True(t, ok)
	assert.Equal(t, Undo, a)
	a, _ = m.Lookup(EventChord("Z", ModCtrl))
	assert.Equal(t, Redo, a)
	a, _ = m.Lookup(EventChord("y", ModCtrl))
	assert.Equal(t, Redo, a)
	a, _ = m.Lookup(EventChord("t", 0))
	assert.Equal(t, EnterTextMode, a)
}

func TestBuildOverrides(t *testing.T) {
	m, err := Build(map[string][]string{"undo": {"Ctrl+U"}})
	require.NoError(t, err)
	_, ok := m.Lookup(Chord{ModCtrl, "z"})
	assert.False(t, ok)
	a, ok := m.Lookup(Chord{ModCtrl, "u"})
	assert.True(t, ok)
	assert.Equal(t, Undo, a)
}

func TestBuildReportsConflictsAndKeepsFirst(t *testing.T) {
	m, err := Build(map[string][]string{
		"redo":    {"Ctrl+Z"},
		"no_such": {"Q"},
		"exit":    {"Ctrl+Q", "Bogus+Q"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	a, _ := m.Lookup(Chord{ModCtrl, "z"})
	assert.Equal(t, Undo, a)
	a, _ = m.Lookup(Chord{ModCtrl, "q"})
	assert.Equal(t, Exit, a)
}

func TestBindSameActionTwiceIsNotAConflict(t *testing.T) {
	m := NewMap()
	require.NoError(t, m.Bind(Undo, "Ctrl+Z", "ctrl+z"))
	assert.Len(t, m.Chords(Undo), 1)
	m.Unbind(Undo)
	_, ok := m.Lookup(Chord{ModCtrl, "z"})
	assert.False(t, ok)
}

func TestActionNamesRoundTrip(t *testing.T) {
	for a := Action(1); a < numActions; a++ {
		got, err := ParseAction(a.String())
		require.NoError(t, err, "action %d has no name", a)
		assert.Equal(t, a, got)
	}
	assert.Equal(t, 3, Board3.BoardSlot())
	assert.Equal(t, -1, Undo.BoardSlot())
}

func TestPresetSlot(t *testing.T) {
	op, slot, ok := ApplyPreset2.PresetSlot()
	require.True(t, ok)
	assert.Equal(t, PresetApply, op)
	assert.Equal(t, 2, slot)

	op, slot, _ = SavePreset5.PresetSlot()
	assert.Equal(t, PresetSave, op)
	assert.Equal(t, 5, slot)

	op, slot, _ = ClearPreset1.PresetSlot()
	assert.Equal(t, PresetClear, op)
	assert.Equal(t, 1, slot)

	_, _, ok = Board1.PresetSlot()
	assert.False(t, ok)

	m := Default()
	a, _ := m.Lookup(EventChord("1", 0))
	assert.Equal(t, ApplyPreset1, a)
	a, _ = m.Lookup(EventChord("!", 0))
	assert.Equal(t, SavePreset1, a)
	assert.Empty(t, m.Chords(ClearPreset1))
}
