package input

import (
	"errors"
	"fmt"

	"sketchover/internal/board"
)

// SwitchBoard activates the board with the given ID, as a host would on
// start-up or from a toolbar.
func (m *Machine) SwitchBoard(id string) error {
	return m.changeBoard(func() error { return m.canvas.Switch(id) })
}

// changeBoard leaves the current gesture, runs switchFn and applies the
// pen color rules of the board that became active.
func (m *Machine) changeBoard(switchFn func() error) error {
	if s, ok := m.st.(*editing); ok {
		m.commitText(s)
	} else if m.st.kind() != StateIdle {
		m.cancel()
	}
	prev := m.canvas.Active()
	if err := switchFn(); err != nil {
		return err
	}
	next := m.canvas.Active()
	if prev == next {
		return nil
	}
	m.applyBoardPen(prev, next)
	m.selection = nil
	m.resetCaches()
	m.dirty.MarkFull()
	m.notify(fmt.Sprintf("%s (page %d/%d)", next.Spec.Name, next.Pages.ActiveIndex()+1, next.Pages.Len()))
	m.emit(SaveRequest{Reason: "switch"})
	return nil
}

// applyBoardPen restores the pen color saved when entering prev, then
// saves and replaces it if next defines one.
func (m *Machine) applyBoardPen(prev, next *board.Board) {
	if prev != nil && prev.Spec.AdjustsPen() && m.tools.BoardPreviousColor != nil {
		m.tools.Color = *m.tools.BoardPreviousColor
		m.tools.BoardPreviousColor = nil
	}
	if c, ok := next.Spec.EffectivePenColor(); ok {
		if m.tools.BoardPreviousColor == nil {
			saved := m.tools.Color
			m.tools.BoardPreviousColor = &saved
		}
		m.tools.Color = c
	}
}

// switchSlot activates slot n. Choosing the active non-overlay board
// returns to the overlay.
func (m *Machine) switchSlot(n int) {
	if n >= m.canvas.Len() {
		m.notify(fmt.Sprintf("No board in slot %d", n))
		return
	}
	if n != 0 && n == m.canvas.ActiveIndex() {
		n = 0
	}
	m.reportBoardErr(m.changeBoard(func() error { return m.canvas.SwitchSlot(n) }))
}

func (m *Machine) nextBoard(delta int) {
	m.reportBoardErr(m.changeBoard(func() error {
		if delta > 0 {
			m.canvas.Next()
		} else {
			m.canvas.Prev()
		}
		return nil
	}))
}

func (m *Machine) newBoard() {
	m.reportBoardErr(m.changeBoard(func() error {
		_, err := m.canvas.Create(board.Spec{Background: board.TransparentBackground(), Persist: true})
		return err
	}))
}

func (m *Machine) duplicateBoard() {
	id := m.canvas.Active().Spec.ID
	m.reportBoardErr(m.changeBoard(func() error {
		_, err := m.canvas.Duplicate(id)
		return err
	}))
}

func (m *Machine) deleteBoard() {
	id := m.canvas.Active().Spec.ID
	m.reportBoardErr(m.changeBoard(func() error { return m.canvas.Delete(id) }))
}

func (m *Machine) reportBoardErr(err error) {
	switch {
	case err == nil:
	case errors.Is(err, board.ErrBoardLimit):
		m.notify(fmt.Sprintf("Board limit reached (%d)", m.canvas.MaxBoards()))
	case errors.Is(err, board.ErrOverlayBoard):
		m.notify("The overlay board cannot be removed")
	default:
		m.notify("Board unavailable")
	}
}

// changePage runs fn against the active board's pages. Selection and
// caches belong to the page being left.
func (m *Machine) changePage(fn func(p *board.Pages) error) error {
	if s, ok := m.st.(*editing); ok {
		m.commitText(s)
	} else if m.st.kind() != StateIdle {
		m.cancel()
	}
	b := m.canvas.Active()
	before := b.Pages.Active()
	if err := fn(b.Pages); err != nil {
		return err
	}
	if b.Pages.Active() != before {
		m.selection = nil
		m.resetCaches()
	}
	m.dirty.MarkFull()
	m.notify(fmt.Sprintf("Page %d/%d", b.Pages.ActiveIndex()+1, b.Pages.Len()))
	m.emit(SaveRequest{Reason: "switch"})
	return nil
}

// GotoPage activates page i of the active board.
func (m *Machine) GotoPage(i int) error {
	return m.changePage(func(p *board.Pages) error { return p.Switch(i) })
}

func (m *Machine) stepPage(delta int) {
	if err := m.changePage(func(p *board.Pages) error { return p.Step(delta) }); err != nil {
		if delta > 0 {
			m.notify("Already on the last page")
		} else {
			m.notify("Already on the first page")
		}
	}
}

func (m *Machine) newPage() {
	_ = m.changePage(func(p *board.Pages) error {
		p.New()
		return nil
	})
}

func (m *Machine) duplicatePage() {
	_ = m.changePage(func(p *board.Pages) error {
		p.Duplicate()
		return nil
	})
}

// deletePage removes the active page. The last page is cleared instead,
// as one undoable step.
func (m *Machine) deletePage() {
	err := m.changePage(func(p *board.Pages) error { return p.Delete() })
	if errors.Is(err, board.ErrLastPage) {
		victims := m.frame().Shapes()
		if len(victims) > 0 {
			m.commit(m.removeAction(victims))
		}
		m.selection = nil
		m.resetCaches()
		m.dirty.MarkFull()
		m.notify("Last page cleared")
	}
}
