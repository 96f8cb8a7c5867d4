package input

import (
	"fmt"
	"strings"

	"sketchover/internal/keymap"
	"sketchover/internal/logging"
	"sketchover/internal/shape"
)

func (m *Machine) keyDown(e KeyDown) {
	m.mods = e.Mods
	if isModifierKey(e.Key) {
		return
	}
	switch s := m.st.(type) {
	case *editing:
		m.editKey(s, e)
		return
	case *menuOpen:
		m.menuKey(s, e)
		return
	case *propertiesOpen:
		m.panelKey(s, e)
		return
	case idle:
	default:
		// Mid-gesture only Escape is honored.
		if keymap.CanonicalKey(e.Key) == "escape" {
			m.cancel()
		}
		return
	}

	chord := keymap.EventChord(e.Key, e.Mods)
	if chord.Key == "escape" && chord.Mods == 0 {
		m.cancel()
		return
	}
	a, ok := m.bindings.Lookup(chord)
	if !ok {
		return
	}
	m.dispatch(a)
}

func isModifierKey(key string) bool {
	switch strings.ToLower(key) {
	case "shift", "control", "ctrl", "alt", "super", "meta":
		return true
	}
	return false
}

// dispatch performs a bound action from the idle state.
func (m *Machine) dispatch(a keymap.Action) {
	logging.Logger().Debug("input: action", "action", a)
	if slot := a.BoardSlot(); slot > 0 {
		m.switchSlot(slot)
		return
	}
	if op, slot, ok := a.PresetSlot(); ok {
		m.presetAction(op, slot)
		return
	}
	switch a {
	case keymap.Exit:
		m.cancel()
		m.emit(Quit{})
	case keymap.EnterTextMode:
		m.startEditing(m.pointer, false)
	case keymap.EnterStickyNoteMode:
		m.startEditing(m.pointer, true)
	case keymap.ClearCanvas:
		m.clearCanvas()
	case keymap.Undo:
		m.undo()
	case keymap.Redo:
		m.redo()
	case keymap.UndoAll:
		m.undoAll()
	case keymap.RedoAll:
		m.redoAll()
	case keymap.DuplicateSelection:
		m.duplicateSelection()
	case keymap.CopySelection:
		m.copySelection()
	case keymap.PasteSelection:
		m.pasteSelection()
	case keymap.SelectAll:
		m.selectAll()
	case keymap.DeleteSelection:
		m.deleteSelection()
	case keymap.ToggleLock:
		m.toggleLock()
	case keymap.MoveToFront:
		m.reorderSelection(true)
	case keymap.MoveToBack:
		m.reorderSelection(false)
	case keymap.NudgeUp:
		m.nudge(0, -NudgeStep)
	case keymap.NudgeDown:
		m.nudge(0, NudgeStep)
	case keymap.NudgeLeft:
		m.nudge(-NudgeStep, 0)
	case keymap.NudgeRight:
		m.nudge(NudgeStep, 0)
	case keymap.NudgeUpLarge:
		m.nudge(0, -NudgeStepLarge)
	case keymap.NudgeDownLarge:
		m.nudge(0, NudgeStepLarge)
	case keymap.MoveToStart, keymap.MoveToEnd, keymap.MoveToTop, keymap.MoveToBottom:
		m.moveToEdge(a)
	case keymap.IncreaseThickness:
		m.adjustThickness(1)
	case keymap.DecreaseThickness:
		m.adjustThickness(-1)
	case keymap.IncreaseFontSize:
		m.adjustFontSize(2)
	case keymap.DecreaseFontSize:
		m.adjustFontSize(-2)
	case keymap.IncreaseMarkerOpacity:
		m.adjustMarkerOpacity(0.05)
	case keymap.DecreaseMarkerOpacity:
		m.adjustMarkerOpacity(-0.05)
	case keymap.SelectPenTool:
		m.selectTool(ToolPen)
	case keymap.SelectLineTool:
		m.selectTool(ToolLine)
	case keymap.SelectRectTool:
		m.selectTool(ToolRect)
	case keymap.SelectEllipseTool:
		m.selectTool(ToolEllipse)
	case keymap.SelectArrowTool:
		m.selectTool(ToolArrow)
	case keymap.SelectMarkerTool:
		m.selectTool(ToolMarker)
	case keymap.SelectEraserTool:
		m.selectTool(ToolEraser)
	case keymap.SelectSelectTool:
		m.selectTool(ToolSelect)
	case keymap.SelectStepMarkerTool:
		m.selectTool(ToolStepMarker)
	case keymap.ToggleEraserMode:
		if m.tools.EraserMode == EraserBrush {
			m.tools.EraserMode = EraserStroke
		} else {
			m.tools.EraserMode = EraserBrush
		}
		m.notify("Eraser: " + m.tools.EraserMode.String())
	case keymap.ToggleFill:
		m.tools.Fill = !m.tools.Fill
		m.notify(onOff("Fill", m.tools.Fill))
	case keymap.ToggleArrowHead:
		m.tools.ArrowHeadAtEnd = !m.tools.ArrowHeadAtEnd
		if m.tools.ArrowHeadAtEnd {
			m.notify("Arrow head at end")
		} else {
			m.notify("Arrow head at start")
		}
	case keymap.ToggleArrowLabels:
		m.tools.ArrowLabels = !m.tools.ArrowLabels
		m.notify(onOff("Arrow labels", m.tools.ArrowLabels))
	case keymap.ToggleTextBackground:
		m.tools.TextBackground = !m.tools.TextBackground
		m.notify(onOff("Text background", m.tools.TextBackground))
	case keymap.ResetNumbering:
		m.tools.NextNumber = 1
		m.notify("Numbering reset")
	case keymap.ColorRed:
		m.setColor(shape.Red, "red")
	case keymap.ColorGreen:
		m.setColor(shape.Green, "green")
	case keymap.ColorBlue:
		m.setColor(shape.Blue, "blue")
	case keymap.ColorYellow:
		m.setColor(shape.Yellow, "yellow")
	case keymap.ColorOrange:
		m.setColor(shape.Orange, "orange")
	case keymap.ColorPink:
		m.setColor(shape.Pink, "pink")
	case keymap.ColorWhite:
		m.setColor(shape.White, "white")
	case keymap.ColorBlack:
		m.setColor(shape.Black, "black")
	case keymap.NextBoard:
		m.nextBoard(1)
	case keymap.PrevBoard:
		m.nextBoard(-1)
	case keymap.NewBoard:
		m.newBoard()
	case keymap.DeleteBoard:
		m.deleteBoard()
	case keymap.DuplicateBoard:
		m.duplicateBoard()
	case keymap.BoardOverlay:
		m.switchSlot(0)
	case keymap.NextPage:
		m.stepPage(1)
	case keymap.PrevPage:
		m.stepPage(-1)
	case keymap.NewPage:
		m.newPage()
	case keymap.DuplicatePage:
		m.duplicatePage()
	case keymap.DeletePage:
		m.deletePage()
	case keymap.OpenContextMenu:
		m.openContextMenuFromKeyboard()
	case keymap.OpenProperties:
		m.openProperties()
	case keymap.ToggleFreeze:
		m.frozen = !m.frozen
		m.emit(FreezeChanged{Frozen: m.frozen})
		m.notify(onOff("Freeze", m.frozen))
	case keymap.SaveSession:
		m.emit(SaveRequest{Reason: "user"})
	case keymap.ReloadConfig:
		m.emit(ReloadConfig{})
	case keymap.ExportImage:
		m.emit(ExportImage{})
	case keymap.ToggleHelp:
		m.emit(ToggleHelp{})
	}
}

func onOff(label string, on bool) string {
	if on {
		return label + ": on"
	}
	return label + ": off"
}

func (m *Machine) selectTool(t Tool) {
	if t != m.tools.Tool {
		m.clearSelection()
	}
	m.tools.Tool = t
	m.notify("Tool: " + t.String())
}

func (m *Machine) setColor(c shape.Color, name string) {
	m.tools.Color = c
	m.notify("Color: " + name)
}

func (m *Machine) adjustThickness(delta float64) {
	m.tools.Thickness = clampf(m.tools.Thickness+delta, MinThickness, MaxThickness)
	m.notify(fmt.Sprintf("Thickness: %.0fpx", m.tools.Thickness))
}

func (m *Machine) adjustFontSize(delta float64) {
	m.tools.Font.Size = clampf(m.tools.Font.Size+delta, MinFontSize, MaxFontSize)
	m.notify(fmt.Sprintf("Font size: %.0fpt", m.tools.Font.Size))
}

func (m *Machine) adjustMarkerOpacity(delta float64) {
	m.tools.MarkerOpacity = clampf(m.tools.MarkerOpacity+delta, MinMarkerOpacity, MaxMarkerOpacity)
	m.notify(fmt.Sprintf("Marker opacity: %.0f%%", m.tools.MarkerOpacity*100))
}

func (m *Machine) adjustEraserSize(delta float64) {
	m.tools.EraserSize = clampf(m.tools.EraserSize+delta, MinEraserSize, MaxEraserSize)
	m.notify(fmt.Sprintf("Eraser size: %.0fpx", m.tools.EraserSize))
}
