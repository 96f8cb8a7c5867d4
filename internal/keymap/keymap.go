// Package keymap maps key chords to the actions of the drawing overlay.
//
// A Map is unique in the chord direction: each chord triggers at most one
// action, while an action may have several chords.
package keymap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Action is something a key chord can trigger.
type Action int

const (
	None Action = iota
	Exit
	EnterTextMode
	EnterStickyNoteMode
	ClearCanvas
	Undo
	Redo
	UndoAll
	RedoAll
	DuplicateSelection
	CopySelection
	PasteSelection
	SelectAll
	DeleteSelection
	ToggleLock
	MoveToFront
	MoveToBack
	NudgeUp
	NudgeDown
	NudgeLeft
	NudgeRight
	NudgeUpLarge
	NudgeDownLarge
	MoveToStart // left edge of the viewport
	MoveToEnd
	MoveToTop
	MoveToBottom
	IncreaseThickness
	DecreaseThickness
	IncreaseFontSize
	DecreaseFontSize
	IncreaseMarkerOpacity
	DecreaseMarkerOpacity
	SelectPenTool
	SelectLineTool
	SelectRectTool
	SelectEllipseTool
	SelectArrowTool
	SelectMarkerTool
	SelectEraserTool
	SelectSelectTool
	SelectStepMarkerTool
	ToggleEraserMode
	ToggleFill
	ToggleArrowHead
	ToggleArrowLabels
	ToggleTextBackground
	ResetNumbering
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
	ColorOrange
	ColorPink
	ColorWhite
	ColorBlack
	NextBoard
	PrevBoard
	NewBoard
	DeleteBoard
	DuplicateBoard
	BoardOverlay
	Board1
	Board2
	Board3
	Board4
	Board5
	Board6
	Board7
	Board8
	Board9
	NextPage
	PrevPage
	NewPage
	DuplicatePage
	DeletePage
	OpenContextMenu
	OpenProperties
	ToggleFreeze
	SaveSession
	ReloadConfig
	ExportImage
	ToggleHelp
	ApplyPreset1
	ApplyPreset2
	ApplyPreset3
	ApplyPreset4
	ApplyPreset5
	SavePreset1
	SavePreset2
	SavePreset3
	SavePreset4
	SavePreset5
	ClearPreset1
	ClearPreset2
	ClearPreset3
	ClearPreset4
	ClearPreset5

	numActions
)

// PresetSlots is the number of tool preset slots.
const PresetSlots = 5

var actionNames = map[Action]string{
	Exit:                  "exit",
	EnterTextMode:         "enter_text_mode",
	EnterStickyNoteMode:   "enter_sticky_note_mode",
	ClearCanvas:           "clear_canvas",
	Undo:                  "undo",
	Redo:                  "redo",
	UndoAll:               "undo_all",
	RedoAll:               "redo_all",
	DuplicateSelection:    "duplicate_selection",
	CopySelection:         "copy_selection",
	PasteSelection:        "paste_selection",
	SelectAll:             "select_all",
	DeleteSelection:       "delete_selection",
	ToggleLock:            "toggle_lock",
	MoveToFront:           "move_to_front",
	MoveToBack:            "move_to_back",
	NudgeUp:               "nudge_up",
	NudgeDown:             "nudge_down",
	NudgeLeft:             "nudge_left",
	NudgeRight:            "nudge_right",
	NudgeUpLarge:          "nudge_up_large",
	NudgeDownLarge:        "nudge_down_large",
	MoveToStart:           "move_to_start",
	MoveToEnd:             "move_to_end",
	MoveToTop:             "move_to_top",
	MoveToBottom:          "move_to_bottom",
	IncreaseThickness:     "increase_thickness",
	DecreaseThickness:     "decrease_thickness",
	IncreaseFontSize:      "increase_font_size",
	DecreaseFontSize:      "decrease_font_size",
	IncreaseMarkerOpacity: "increase_marker_opacity",
	DecreaseMarkerOpacity: "decrease_marker_opacity",
	SelectPenTool:         "select_pen_tool",
	SelectLineTool:        "select_line_tool",
	SelectRectTool:        "select_rect_tool",
	SelectEllipseTool:     "select_ellipse_tool",
	SelectArrowTool:       "select_arrow_tool",
	SelectMarkerTool:      "select_marker_tool",
	SelectEraserTool:      "select_eraser_tool",
	SelectSelectTool:      "select_select_tool",
	SelectStepMarkerTool:  "select_step_marker_tool",
	ToggleEraserMode:      "toggle_eraser_mode",
	ToggleFill:            "toggle_fill",
	ToggleArrowHead:       "toggle_arrow_head",
	ToggleArrowLabels:     "toggle_arrow_labels",
	ToggleTextBackground:  "toggle_text_background",
	ResetNumbering:        "reset_numbering",
	ColorRed:              "color_red",
	ColorGreen:            "color_green",
	ColorBlue:             "color_blue",
	ColorYellow:           "color_yellow",
	ColorOrange:           "color_orange",
	ColorPink:             "color_pink",
	ColorWhite:            "color_white",
	ColorBlack:            "color_black",
	NextBoard:             "next_board",
	PrevBoard:             "prev_board",
	NewBoard:              "new_board",
	DeleteBoard:           "delete_board",
	DuplicateBoard:        "duplicate_board",
	BoardOverlay:          "board_overlay",
	Board1:                "board_1",
	Board2:                "board_2",
	Board3:                "board_3",
	Board4:                "board_4",
	Board5:                "board_5",
	Board6:                "board_6",
	Board7:                "board_7",
	Board8:                "board_8",
	Board9:                "board_9",
	NextPage:              "next_page",
	PrevPage:              "prev_page",
	NewPage:               "new_page",
	DuplicatePage:         "duplicate_page",
	DeletePage:            "delete_page",
	OpenContextMenu:       "open_context_menu",
	OpenProperties:        "open_properties",
	ToggleFreeze:          "toggle_freeze",
	SaveSession:           "save_session",
	ReloadConfig:          "reload_config",
	ExportImage:           "export_image",
	ToggleHelp:            "toggle_help",
	ApplyPreset1:          "apply_preset_1",
	ApplyPreset2:          "apply_preset_2",
	ApplyPreset3:          "apply_preset_3",
	ApplyPreset4:          "apply_preset_4",
	ApplyPreset5:          "apply_preset_5",
	SavePreset1:           "save_preset_1",
	SavePreset2:           "save_preset_2",
	SavePreset3:           "save_preset_3",
	SavePreset4:           "save_preset_4",
	SavePreset5:           "save_preset_5",
	ClearPreset1:          "clear_preset_1",
	ClearPreset2:          "clear_preset_2",
	ClearPreset3:          "clear_preset_3",
	ClearPreset4:          "clear_preset_4",
	ClearPreset5:          "clear_preset_5",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction resolves a configuration name such as "undo".
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return None, fmt.Errorf("unknown action %q", name)
}

// BoardSlot returns the slot selected by a Board1..Board9 action, or -1.
func (a Action) BoardSlot() int {
	if a >= Board1 && a <= Board9 {
		return int(a-Board1) + 1
	}
	return -1
}

// PresetOp tells what a preset action does with its slot.
type PresetOp int

const (
	PresetApply PresetOp = iota + 1
	PresetSave
	PresetClear
)

// PresetSlot returns the operation and 1-based slot of a preset action.
// ok is false for every other action.
func (a Action) PresetSlot() (op PresetOp, slot int, ok bool) {
	switch {
	case a >= ApplyPreset1 && a <= ApplyPreset5:
		return PresetApply, int(a-ApplyPreset1) + 1, true
	case a >= SavePreset1 && a <= SavePreset5:
		return PresetSave, int(a-SavePreset1) + 1, true
	case a >= ClearPreset1 && a <= ClearPreset5:
		return PresetClear, int(a-ClearPreset1) + 1, true
	}
	return 0, 0, false
}

// ErrConflict is returned when a chord is already bound to another action.
var ErrConflict = errors.New("key binding conflict")

// Map resolves chords to actions.
type Map struct {
	byChord  map[Chord]Action
	byAction map[Action][]Chord
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{byChord: make(map[Chord]Action), byAction: make(map[Action][]Chord)}
}

// Bind adds chords for a. A chord already bound to a different action is
// rejected with ErrConflict; the remaining chords are still bound.
func (m *Map) Bind(a Action, chords ...string) error {
	var errs []error
	for _, s := range chords {
		c, err := ParseChord(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a, err))
			continue
		}
		if prev, ok := m.byChord[c]; ok {
			if prev != a {
				errs = append(errs, fmt.Errorf("%s: %s already bound to %s: %w", a, c, prev, ErrConflict))
			}
			continue
		}
		m.byChord[c] = a
		m.byAction[a] = append(m.byAction[a], c)
	}
	return errors.Join(errs...)
}

// Unbind removes every chord of a.
func (m *Map) Unbind(a Action) {
	for _, c := range m.byAction[a] {
		delete(m.byChord, c)
	}
	delete(m.byAction, a)
}

// Lookup returns the action bound to c.
func (m *Map) Lookup(c Chord) (Action, bool) {
	a, ok := m.byChord[c]
	return a, ok
}

// Chords returns the chords bound to a.
func (m *Map) Chords(a Action) []Chord {
	return append([]Chord(nil), m.byAction[a]...)
}

// Actions returns every bound action in declaration order.
func (m *Map) Actions() []Action {
	acts := lo.Keys(m.byAction)
	sort.Slice(acts, func(i, j int) bool { return acts[i] < acts[j] })
	return acts
}

// Build starts from the default bindings, replaces the chords of every
// action named in overrides, and returns the map together with any
// problems found. Invalid or conflicting entries are skipped.
func Build(overrides map[string][]string) (*Map, error) {
	bindings := Defaults()
	var errs []error
	for name, chords := range overrides {
		a, err := ParseAction(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		bindings[a] = chords
	}
	m := NewMap()
	// Bind in a fixed order so conflicts resolve deterministically.
	for a := Action(1); a < numActions; a++ {
		if chords, ok := bindings[a]; ok {
			if err := m.Bind(a, chords...); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return m, errors.Join(errs...)
}

// Default returns the default map.
func Default() *Map {
	m, _ := Build(nil)
	return m
}

// Defaults returns the default chords per action.
func Defaults() map[Action][]string {
	return map[Action][]string{
		Exit:                  {"Ctrl+Q"},
		EnterTextMode:         {"T"},
		EnterStickyNoteMode:   {"N"},
		ClearCanvas:           {"E"},
		Undo:                  {"Ctrl+Z"},
		Redo:                  {"Ctrl+Shift+Z", "Ctrl+Y"},
		UndoAll:               {"Ctrl+Alt+Z"},
		RedoAll:               {"Ctrl+Alt+Y"},
		DuplicateSelection:    {"Ctrl+D"},
		CopySelection:         {"Ctrl+Alt+C"},
		PasteSelection:        {"Ctrl+Alt+V"},
		SelectAll:             {"Ctrl+A"},
		DeleteSelection:       {"Delete"},
		ToggleLock:            {"L"},
		MoveToFront:           {"]"},
		MoveToBack:            {"["},
		NudgeUp:               {"Up"},
		NudgeDown:             {"Down"},
		NudgeLeft:             {"Left"},
		NudgeRight:            {"Right"},
		NudgeUpLarge:          {"PageUp"},
		NudgeDownLarge:        {"PageDown"},
		MoveToStart:           {"Home"},
		MoveToEnd:             {"End"},
		MoveToTop:             {"Ctrl+Home"},
		MoveToBottom:          {"Ctrl+End"},
		IncreaseThickness:     {"+", "="},
		DecreaseThickness:     {"-", "_"},
		IncreaseFontSize:      {"Ctrl+Shift+Up", "Alt+="},
		DecreaseFontSize:      {"Ctrl+Shift+Down", "Alt+-"},
		IncreaseMarkerOpacity: {"Ctrl+Alt+Up"},
		DecreaseMarkerOpacity: {"Ctrl+Alt+Down"},
		SelectPenTool:         {"F"},
		SelectLineTool:        {"I"},
		SelectRectTool:        {"X"},
		SelectEllipseTool:     {"C"},
		SelectArrowTool:       {"A"},
		SelectMarkerTool:      {"H"},
		SelectEraserTool:      {"D"},
		SelectSelectTool:      {"S"},
		SelectStepMarkerTool:  {"M"},
		ToggleEraserMode:      {"Ctrl+Shift+E"},
		ToggleFill:            {"Ctrl+Shift+F"},
		ToggleArrowHead:       {"Ctrl+Shift+A"},
		ToggleArrowLabels:     {"Ctrl+Shift+L"},
		ToggleTextBackground:  {"Ctrl+Shift+B"},
		ResetNumbering:        {"Ctrl+Shift+N"},
		ColorRed:              {"R"},
		ColorGreen:            {"G"},
		ColorBlue:             {"B"},
		ColorYellow:           {"Y"},
		ColorOrange:           {"O"},
		ColorPink:             {"P"},
		ColorWhite:            {"W"},
		ColorBlack:            {"K"},
		NextBoard:             {"Ctrl+Right"},
		PrevBoard:             {"Ctrl+Left"},
		NewBoard:              {"Alt+Shift+N"},
		DeleteBoard:           {"Alt+Shift+X"},
		DuplicateBoard:        {"Alt+Shift+D"},
		BoardOverlay:          {"Alt+0"},
		Board1:                {"Alt+1"},
		Board2:                {"Alt+2"},
		Board3:                {"Alt+3"},
		Board4:                {"Alt+4"},
		Board5:                {"Alt+5"},
		Board6:                {"Alt+6"},
		Board7:                {"Alt+7"},
		Board8:                {"Alt+8"},
		Board9:                {"Alt+9"},
		NextPage:              {"Alt+Right"},
		PrevPage:              {"Alt+Left"},
		NewPage:               {"Alt+N"},
		DuplicatePage:         {"Alt+D"},
		DeletePage:            {"Alt+Delete"},
		OpenContextMenu:       {"Menu", "Shift+F10"},
		OpenProperties:        {"Alt+P"},
		ToggleFreeze:          {"Ctrl+F"},
		SaveSession:           {"Ctrl+S"},
		ReloadConfig:          {"Ctrl+R"},
		ExportImage:           {"Ctrl+E"},
		ToggleHelp:            {"F1", "?"},
		ApplyPreset1:          {"1"},
		ApplyPreset2:          {"2"},
		ApplyPreset3:          {"3"},
		ApplyPreset4:          {"4"},
		ApplyPreset5:          {"5"},
		SavePreset1:           {"Shift+1", "!"},
		SavePreset2:           {"Shift+2", "@"},
		SavePreset3:           {"Shift+3", "#"},
		SavePreset4:           {"Shift+4", "$"},
		SavePreset5:           {"Shift+5", "%"},
	}
}
