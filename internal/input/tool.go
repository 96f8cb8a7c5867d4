package input

import (
	"fmt"
	"math"

	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

// Tool is the drawing tool selected by the user.
type Tool int

const (
	ToolPen Tool = iota
	ToolLine
	ToolRect
	ToolEllipse
	ToolArrow
	ToolMarker
	ToolEraser
	ToolSelect
	ToolText
	ToolStickyNote
	ToolStepMarker
)

var toolNames = [...]string{
	ToolPen:        "pen",
	ToolLine:       "line",
	ToolRect:       "rect",
	ToolEllipse:    "ellipse",
	ToolArrow:      "arrow",
	ToolMarker:     "marker",
	ToolEraser:     "eraser",
	ToolSelect:     "select",
	ToolText:       "text",
	ToolStickyNote: "sticky_note",
	ToolStepMarker: "step_marker",
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool is the inverse of Tool.String.
func ParseTool(s string) (Tool, error) {
	for t, n := range toolNames {
		if n == s {
			return Tool(t), nil
		}
	}
	return ToolPen, fmt.Errorf("unknown tool %q", s)
}

// EraserMode selects how the eraser removes ink.
type EraserMode int

const (
	// EraserBrush cuts freehand strokes where the brush passes and removes
	// other shapes it touches.
	EraserBrush EraserMode = iota
	// EraserStroke removes every shape it touches.
	EraserStroke
)

func (e EraserMode) String() string {
	if e == EraserStroke {
		return "stroke"
	}
	return "brush"
}

// ParseEraserMode accepts "brush" or "stroke".
func ParseEraserMode(s string) (EraserMode, error) {
	switch s {
	case "brush", "":
		return EraserBrush, nil
	case "stroke":
		return EraserStroke, nil
	}
	return EraserBrush, fmt.Errorf("unknown eraser mode %q", s)
}

// Tool state limits.
const (
	MinThickness     = 1.0
	MaxThickness     = 50.0
	MinFontSize      = 8.0
	MaxFontSize      = 72.0
	MinMarkerOpacity = 0.05
	MaxMarkerOpacity = 0.9
	MinEraserSize    = 2.0
	MaxEraserSize    = 100.0

	NudgeStep      = 1.0
	NudgeStepLarge = 10.0
	PasteOffset    = 12.0

	// SmoothingEpsilon is the largest deviation, in pixels, simplification
	// may introduce into a freehand stroke.
	SmoothingEpsilon = 0.75
)

// ToolState is the current pen configuration. It persists across sessions.
type ToolState struct {
	Tool           Tool
	Color          shape.Color
	Thickness      float64
	Font           shape.FontDescriptor
	Fill           bool
	TextBackground bool
	NoteColor      shape.Color
	ArrowLength    float64
	ArrowAngle     float64
	ArrowHeadAtEnd bool
	ArrowLabels    bool
	// NextNumber is the value of the next step marker or arrow label.
	NextNumber    int
	MarkerOpacity float64
	EraserSize    float64
	EraserMode    EraserMode
	Smoothing     bool
	Tolerance     float64
	// BoardPreviousColor holds the pen color to restore when leaving a
	// board that adjusted it.
	BoardPreviousColor *shape.Color
}

// DefaultToolState returns the tool state of a fresh install.
func DefaultToolState() ToolState {
	return ToolState{
		Tool:           ToolPen,
		Color:          shape.Red,
		Thickness:      3,
		Font:           shape.FontDescriptor{Family: "monospace", Size: 24},
		NoteColor:      shape.Yellow,
		ArrowLength:    20,
		ArrowAngle:     30,
		ArrowHeadAtEnd: true,
		NextNumber:     1,
		MarkerOpacity:  0.32,
		EraserSize:     12,
		EraserMode:     EraserBrush,
		Smoothing:      true,
		Tolerance:      shape.DefaultTolerance,
	}
}

// Normalize clamps every field into its valid range.
func (t *ToolState) Normalize() {
	t.Thickness = clampf(t.Thickness, MinThickness, MaxThickness)
	t.Font.Size = clampf(t.Font.Size, MinFontSize, MaxFontSize)
	t.MarkerOpacity = clampf(t.MarkerOpacity, MinMarkerOpacity, MaxMarkerOpacity)
	t.EraserSize = clampf(t.EraserSize, MinEraserSize, MaxEraserSize)
	if t.Tool < ToolPen || t.Tool > ToolStepMarker {
		t.Tool = ToolPen
	}
	if t.NextNumber < 1 {
		t.NextNumber = 1
	}
	if t.ArrowLength <= 0 {
		t.ArrowLength = 20
	}
	if t.ArrowAngle <= 0 || t.ArrowAngle >= 90 {
		t.ArrowAngle = 30
	}
	if t.Tolerance <= 0 {
		t.Tolerance = shape.DefaultTolerance
	}
	if t.Font.Family == "" {
		t.Font.Family = "monospace"
	}
}

// Resolve returns the tool a pointer press uses given the held modifiers.
// Marker and eraser selections win over modifiers; otherwise Ctrl+Shift
// draws an arrow, Ctrl a rectangle, Shift a line and Tab an ellipse.
func (t ToolState) Resolve(mods keymap.Mod) Tool {
	switch t.Tool {
	case ToolMarker, ToolEraser:
		return t.Tool
	}
	switch {
	case mods.Has(keymap.ModCtrl | keymap.ModShift):
		return ToolArrow
	case mods.Has(keymap.ModCtrl):
		return ToolRect
	case mods.Has(keymap.ModShift):
		return ToolLine
	case mods.Has(keymap.ModTab):
		return ToolEllipse
	}
	return t.Tool
}

func clampf(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
