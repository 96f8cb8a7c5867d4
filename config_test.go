package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/board"
	"sketchover/internal/input"
	"sketchover/internal/keymap"
	"sketchover/internal/shape"
	"sketchover/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), config)
}

func TestLoadConfigBadFileUsesDefaults(t *testing.T) {
	config, err := loadConfig(writeConfig(t, "[drawing\ncolor = "))
	assert.Error(t, err)
	assert.Equal(t, defaultConfig(), config)
}

func TestConfigToolState(t *testing.T) {
	config, err := loadConfig(writeConfig(t, `
[drawing]
color = "#00ff00"
thickness = 200
font_size = 30
eraser_mode = "stroke"
arrow_head_at_end = false
`))
	require.NoError(t, err)

	tools, err := config.ToolState(input.DefaultToolState())
	require.NoError(t, err)
	assert.Equal(t, shape.RGB(0, 1, 0), tools.Color)
	assert.Equal(t, input.MaxThickness, tools.Thickness, "clamped")
	assert.Equal(t, 30.0, tools.Font.Size)
	assert.Equal(t, input.EraserStroke, tools.EraserMode)
	assert.False(t, tools.ArrowHeadAtEnd)
}

func TestConfigToolStateSkipsBadColor(t *testing.T) {
	config := defaultConfig()
	config.Drawing.Color = "not a color"
	config.Drawing.Thickness = 7

	tools, err := config.ToolState(input.DefaultToolState())
	assert.Error(t, err)
	assert.Equal(t, input.DefaultToolState().Color, tools.Color)
	assert.Equal(t, 7.0, tools.Thickness)
}

func TestConfigBoardItems(t *testing.T) {
	config, err := loadConfig(writeConfig(t, `
[boards]
max_count = 4
default_board = "grid"

[[boards.items]]
id = "overlay"
name = "Overlay"
background = "transparent"

[[boards.items]]
id = "grid"
name = "Grid"
background = "#202020"
persist = false

[[boards.items]]
id = "blue"
background = "#ffffff"
pen_color = "#0000ff"
`))
	require.NoError(t, err)

	specs, err := config.BoardSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.True(t, specs[0].Background.Transparent)
	assert.False(t, specs[1].Background.Transparent)
	assert.True(t, specs[1].AutoAdjustPen)
	assert.False(t, specs[1].Persist)
	assert.Equal(t, "blue", specs[2].Name)
	require.NotNil(t, specs[2].PenColor)
	assert.Equal(t, shape.RGB(0, 0, 1), *specs[2].PenColor)

	cs, err := board.New(specs, config.BoardOptions())
	require.NoError(t, err)
	assert.Equal(t, 4, cs.MaxBoards())
}

func TestConfigLegacyBoardSection(t *testing.T) {
	config, err := loadConfig(writeConfig(t, `
[board]
whiteboard = "#eeeeee"
auto_adjust_pen = false
`))
	require.NoError(t, err)

	specs, err := config.BoardSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "whiteboard", specs[1].ID)
	assert.InDelta(t, 0xee/255.0, specs[1].Background.Color.R, 1e-9)
	assert.False(t, specs[1].AutoAdjustPen)
	assert.False(t, specs[2].AutoAdjustPen)
	assert.Equal(t, board.DefaultSpecs()[2].Background, specs[2].Background)
}

func TestConfigBoardItemErrors(t *testing.T) {
	config := defaultConfig()
	config.Boards.Items = []BoardItem{{Name: "no id"}, {ID: "ok"}, {ID: "bad", Background: "#zz"}}
	specs, err := config.BoardSpecs()
	assert.Error(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "ok", specs[0].ID)
}

func TestConfigSessionOptionsAndStore(t *testing.T) {
	config, err := loadConfig(writeConfig(t, `
[session]
persist_history = false
max_shapes_per_frame = 50
compression = "on"
`))
	require.NoError(t, err)
	config.Session.Dir = t.TempDir()

	opts := config.SessionOptions()
	assert.False(t, opts.PersistHistory)
	assert.Equal(t, 50, opts.MaxShapesPerFrame)

	st, err := config.openStore("file")
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &store.File{}, st)

	db, err := config.openStore("sqlite")
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &store.SQLite{}, db)

	_, err = config.openStore("redis")
	assert.Error(t, err)
}

func TestKeybindingOverrides(t *testing.T) {
	config := defaultConfig()
	config.Keybindings = map[string][]string{"undo": {"U"}}
	m, err := config.Bindings()
	require.NoError(t, err)
	c, err := keymap.ParseChord("U")
	require.NoError(t, err)
	a, ok := m.Lookup(c)
	require.True(t, ok)
	assert.Equal(t, keymap.Undo, a)
	assert.Equal(t, []keymap.Chord{c}, m.Chords(keymap.Undo))
}

func TestConfigPresets(t *testing.T) {
	config, err := loadConfig(writeConfig(t, `
[[presets]]
slot = 1
name = "Highlighter"
tool = "marker"
color = "#ffff00"
size = 14
marker_opacity = 0.4

[[presets]]
slot = 3
tool = "eraser"
color = "#000000"
size = 40
eraser_mode = "stroke"

[[presets]]
slot = 9
tool = "pen"
color = "#ffffff"
`))
	require.NoError(t, err)

	presets, err := config.ToolPresets()
	assert.Error(t, err, "slot 9 is out of range")
	require.Len(t, presets, keymap.PresetSlots)

	require.NotNil(t, presets[0])
	assert.Equal(t, "Highlighter", presets[0].Name)
	assert.Equal(t, input.ToolMarker, presets[0].Tool)
	assert.Equal(t, 14.0, presets[0].Size)
	require.NotNil(t, presets[0].MarkerOpacity)
	assert.Equal(t, 0.4, *presets[0].MarkerOpacity)
	assert.Nil(t, presets[0].EraserMode)

	assert.Nil(t, presets[1])
	require.NotNil(t, presets[2])
	require.NotNil(t, presets[2].EraserMode)
	assert.Equal(t, input.EraserStroke, *presets[2].EraserMode)
}
