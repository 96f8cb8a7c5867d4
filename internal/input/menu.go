package input

import (
	"github.com/samber/lo"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/keymap"
	"sketchover/internal/shape"
)

// Context menu geometry, in canvas pixels.
const (
	MenuItemHeight = 24.0
	MenuWidth      = 220.0
)

// MenuKind tells which entries a context menu carries.
type MenuKind int

const (
	MenuCanvas MenuKind = iota
	MenuShape
)

// MenuCommand is what activating a menu item does.
type MenuCommand int

const (
	CmdDelete MenuCommand = iota
	CmdDuplicate
	CmdToFront
	CmdToBack
	CmdToggleLock
	CmdEditText
	CmdProperties
	CmdSelectAll
	CmdPaste
	CmdClear
	CmdNewPage
	CmdNextPage
	CmdPrevPage
	CmdUndo
	CmdRedo
	CmdSwitchBoard
)

// MenuItem is one row of a context menu.
type MenuItem struct {
	Label    string
	Shortcut string
	Command  MenuCommand
	BoardID  string
	Disabled bool
}

// Menu is an open context menu. Focus is the highlighted row, or -1.
type Menu struct {
	Kind   MenuKind
	Pos    geom.Point
	Items  []MenuItem
	Focus  int
	Target []frame.ShapeID
}

// Bounds returns the rectangle the menu occupies.
func (mu *Menu) Bounds() geom.Rect {
	return geom.R(mu.Pos.X, mu.Pos.Y, mu.Pos.X+MenuWidth, mu.Pos.Y+MenuItemHeight*float64(len(mu.Items)))
}

// ItemAt returns the row under p, or -1.
func (mu *Menu) ItemAt(p geom.Point) int {
	if !mu.Bounds().Contains(p) {
		return -1
	}
	i := int((p.Y - mu.Pos.Y) / MenuItemHeight)
	if i < 0 || i >= len(mu.Items) {
		return -1
	}
	return i
}

// move shifts focus by delta, skipping disabled rows and wrapping.
func (mu *Menu) move(delta int) {
	n := len(mu.Items)
	if n == 0 {
		return
	}
	i := mu.Focus
	for range n {
		i = ((i+delta)%n + n) % n
		if !mu.Items[i].Disabled {
			mu.Focus = i
			return
		}
	}
}

func (m *Machine) shortcut(a keymap.Action) string {
	chords := m.bindings.Chords(a)
	if len(chords) == 0 {
		return ""
	}
	return chords[0].String()
}

// openContextMenuAt opens a shape menu for the shape under pos, or a
// canvas menu when there is none.
func (m *Machine) openContextMenuAt(pos geom.Point, _ keymap.Mod) {
	if d, ok := m.topmostAt(pos); ok {
		if !m.isSelected(d.ID) {
			m.selection = []frame.ShapeID{d.ID}
		}
		m.openMenu(m.shapeMenu(pos))
		return
	}
	m.clearSelection()
	m.openMenu(m.canvasMenu(pos))
}

func (m *Machine) openContextMenuFromKeyboard() {
	if len(m.selectedShapes()) > 0 {
		m.openMenu(m.shapeMenu(m.pointer))
		return
	}
	m.openMenu(m.canvasMenu(m.pointer))
}

func (m *Machine) openMenu(mu *Menu) {
	// Keep the menu inside the viewport.
	b := mu.Bounds()
	if b.Max.X > m.viewport.X {
		mu.Pos.X = max(0, m.viewport.X-MenuWidth)
	}
	if b.Max.Y > m.viewport.Y {
		mu.Pos.Y = max(0, m.viewport.Y-b.Dy())
	}
	mu.Focus = -1
	mu.move(1)
	m.setState(&menuOpen{menu: mu})
	m.dirty.MarkFull()
}

func (m *Machine) shapeMenu(pos geom.Point) *Menu {
	sel := m.selectedShapes()
	allLocked := lo.EveryBy(sel, func(d frame.DrawnShape) bool { return d.Locked })
	lockLabel := "Lock"
	if allLocked {
		lockLabel = "Unlock"
	}
	editable := len(sel) == 1 && !sel[0].Locked
	if editable {
		_, editable = shape.TextOf(sel[0].Shape)
	}
	items := []MenuItem{
		{Label: "Delete", Shortcut: m.shortcut(keymap.DeleteSelection), Command: CmdDelete, Disabled: allLocked},
		{Label: "Duplicate", Shortcut: m.shortcut(keymap.DuplicateSelection), Command: CmdDuplicate},
		{Label: "Bring to front", Shortcut: m.shortcut(keymap.MoveToFront), Command: CmdToFront, Disabled: allLocked},
		{Label: "Send to back", Shortcut: m.shortcut(keymap.MoveToBack), Command: CmdToBack, Disabled: allLocked},
		{Label: lockLabel, Shortcut: m.shortcut(keymap.ToggleLock), Command: CmdToggleLock},
		{Label: "Edit text", Command: CmdEditText, Disabled: !editable},
		{Label: "Properties", Shortcut: m.shortcut(keymap.OpenProperties), Command: CmdProperties},
	}
	ids := lo.Map(sel, func(d frame.DrawnShape, _ int) frame.ShapeID { return d.ID })
	return &Menu{Kind: MenuShape, Pos: pos, Items: items, Target: ids}
}

func (m *Machine) canvasMenu(pos geom.Point) *Menu {
	f := m.frame()
	pages := m.canvas.Active().Pages
	items := []MenuItem{
		{Label: "Select all", Shortcut: m.shortcut(keymap.SelectAll), Command: CmdSelectAll, Disabled: f.Len() == 0},
		{Label: "Paste", Shortcut: m.shortcut(keymap.PasteSelection), Command: CmdPaste, Disabled: len(m.clipboard) == 0},
		{Label: "Clear", Shortcut: m.shortcut(keymap.ClearCanvas), Command: CmdClear, Disabled: f.Len() == 0},
		{Label: "New page", Shortcut: m.shortcut(keymap.NewPage), Command: CmdNewPage},
		{Label: "Next page", Shortcut: m.shortcut(keymap.NextPage), Command: CmdNextPage, Disabled: pages.ActiveIndex() >= pages.Len()-1},
		{Label: "Previous page", Shortcut: m.shortcut(keymap.PrevPage), Command: CmdPrevPage, Disabled: pages.ActiveIndex() == 0},
		{Label: "Undo", Shortcut: m.shortcut(keymap.Undo), Command: CmdUndo, Disabled: !f.CanUndo()},
		{Label: "Redo", Shortcut: m.shortcut(keymap.Redo), Command: CmdRedo, Disabled: !f.CanRedo()},
	}
	active := m.canvas.Active()
	for _, b := range m.canvas.Boards() {
		items = append(items, MenuItem{
			Label:    "Board: " + b.Spec.Name,
			Command:  CmdSwitchBoard,
			BoardID:  b.Spec.ID,
			Disabled: b == active,
		})
	}
	return &Menu{Kind: MenuCanvas, Pos: pos, Items: items}
}

func (m *Machine) menuKey(s *menuOpen, e KeyDown) {
	switch keymap.CanonicalKey(e.Key) {
	case "escape":
		m.cancel()
	case "up":
		s.menu.move(-1)
		m.dirty.MarkFull()
	case "down", "tab":
		s.menu.move(1)
		m.dirty.MarkFull()
	case "enter", "space":
		if i := s.menu.Focus; i >= 0 && i < len(s.menu.Items) {
			m.activate(s.menu, i)
		}
	}
}

func (m *Machine) menuPointerDown(s *menuOpen, e PointerDown) {
	i := s.menu.ItemAt(e.Pos)
	switch {
	case i >= 0 && e.Button == ButtonLeft:
		m.activate(s.menu, i)
	case i < 0 && e.Button == ButtonRight:
		m.cancel()
		m.openContextMenuAt(e.Pos, e.Mods)
	case i < 0:
		m.cancel()
	}
}

// activate closes the menu and runs the command of row i.
func (m *Machine) activate(mu *Menu, i int) {
	item := mu.Items[i]
	if item.Disabled {
		return
	}
	m.setState(idle{})
	m.dirty.MarkFull()
	if mu.Kind == MenuShape {
		m.selection = lo.Filter(mu.Target, func(id frame.ShapeID, _ int) bool { return m.frame().IndexOf(id) >= 0 })
	}
	switch item.Command {
	case CmdDelete:
		m.deleteSelection()
	case CmdDuplicate:
		m.duplicateSelection()
	case CmdToFront:
		m.reorderSelection(true)
	case CmdToBack:
		m.reorderSelection(false)
	case CmdToggleLock:
		m.toggleLock()
	case CmdEditText:
		if len(m.selection) == 1 {
			if d, ok := m.frame().Get(m.selection[0]); ok {
				m.startEditingExisting(d)
			}
		}
	case CmdProperties:
		m.openProperties()
	case CmdSelectAll:
		m.selectAll()
	case CmdPaste:
		m.pasteSelection()
	case CmdClear:
		m.clearCanvas()
	case CmdNewPage:
		m.newPage()
	case CmdNextPage:
		m.stepPage(1)
	case CmdPrevPage:
		m.stepPage(-1)
	case CmdUndo:
		m.undo()
	case CmdRedo:
		m.redo()
	case CmdSwitchBoard:
		m.reportBoardErr(m.changeBoard(func() error { return m.canvas.Switch(item.BoardID) }))
	}
}
