// Package board manages the set of drawing boards. Each board owns an
// ordered list of pages and each page is a frame.Frame.
//
// Every mutating operation either applies fully or returns an error and
// leaves the set unchanged.
package board

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"sketchover/internal/frame"
	"sketchover/internal/logging"
)

// DefaultMaxBoards is the number of board slots besides the overlay.
const DefaultMaxBoards = 9

var (
	ErrUnknownBoard   = errors.New("unknown board")
	ErrBoardLimit     = errors.New("board limit reached")
	ErrOverlayBoard   = errors.New("the overlay board cannot be removed")
	ErrDuplicateBoard = errors.New("duplicate board id")
)

const maxRecent = 8

// Board is one canvas: a spec plus its pages.
type Board struct {
	Spec  Spec
	Pages *Pages
}

// Options bounds a CanvasSet.
type Options struct {
	MaxBoards    int
	HistoryLimit int
}

// CanvasSet holds the overlay board at index 0 followed by up to
// MaxBoards further boards, with exactly one board active.
type CanvasSet struct {
	boards       []*Board
	active       int
	maxBoards    int
	historyLimit int
	recent       []string
}

// New builds a set from specs. The overlay is added when specs lack it and
// is always placed first. Specs beyond the board limit are dropped with a
// warning.
func New(specs []Spec, opts Options) (*CanvasSet, error) {
	if opts.MaxBoards < 1 {
		opts.MaxBoards = DefaultMaxBoards
	}
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = frame.DefaultHistoryLimit
	}
	cs := &CanvasSet{maxBoards: opts.MaxBoards, historyLimit: opts.HistoryLimit}

	seen := make(map[string]struct{})
	var overlay *Spec
	var rest []Spec
	for i := range specs {
		s := specs[i]
		if s.ID == "" {
			return nil, fmt.Errorf("board %q: empty id", s.Name)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("board %q: %w", s.ID, ErrDuplicateBoard)
		}
		seen[s.ID] = struct{}{}
		if s.ID == OverlayID {
			overlay = &s
			continue
		}
		rest = append(rest, s)
	}
	if overlay == nil {
		overlay = &DefaultSpecs()[0]
	}
	overlay.Background = TransparentBackground()
	cs.boards = append(cs.boards, cs.newBoard(*overlay))

	if len(rest) > cs.maxBoards {
		logging.Logger().Warn("board: too many boards configured", "max", cs.maxBoards, "dropped", len(rest)-cs.maxBoards)
		rest = rest[:cs.maxBoards]
	}
	for _, s := range rest {
		cs.boards = append(cs.boards, cs.newBoard(s))
	}
	return cs, nil
}

func (cs *CanvasSet) newBoard(s Spec) *Board {
	return &Board{Spec: s, Pages: NewPages(cs.historyLimit)}
}

// Boards returns every board, overlay first.
func (cs *CanvasSet) Boards() []*Board {
	return append([]*Board(nil), cs.boards...)
}

// Len returns the number of boards including the overlay.
func (cs *CanvasSet) Len() int {
	return len(cs.boards)
}

// MaxBoards returns the number of slots besides the overlay.
func (cs *CanvasSet) MaxBoards() int {
	return cs.maxBoards
}

// HistoryLimit returns the undo depth given to new pages.
func (cs *CanvasSet) HistoryLimit() int {
	return cs.historyLimit
}

// Active returns the active board.
func (cs *CanvasSet) Active() *Board {
	return cs.boards[cs.active]
}

// ActiveIndex returns the slot of the active board; the overlay is 0.
func (cs *CanvasSet) ActiveIndex() int {
	return cs.active
}

// ActiveFrame returns the active page of the active board.
func (cs *CanvasSet) ActiveFrame() *frame.Frame {
	return cs.Active().Pages.Active()
}

// Board looks a board up by ID.
func (cs *CanvasSet) Board(id string) (*Board, bool) {
	i := cs.index(id)
	if i < 0 {
		return nil, false
	}
	return cs.boards[i], true
}

// Recent returns recently left board IDs, most recent first.
func (cs *CanvasSet) Recent() []string {
	return append([]string(nil), cs.recent...)
}

func (cs *CanvasSet) index(id string) int {
	for i, b := range cs.boards {
		if b.Spec.ID == id {
			return i
		}
	}
	return -1
}

// Switch activates the board with the given ID.
func (cs *CanvasSet) Switch(id string) error {
	i := cs.index(id)
	if i < 0 {
		return fmt.Errorf("switch to %q: %w", id, ErrUnknownBoard)
	}
	cs.activate(i)
	return nil
}

// SwitchSlot activates the board in slot n. Slot 0 is the overlay.
func (cs *CanvasSet) SwitchSlot(n int) error {
	if n < 0 || n >= len(cs.boards) {
		return fmt.Errorf("switch to slot %d: %w", n, ErrUnknownBoard)
	}
	cs.activate(n)
	return nil
}

// Next activates the following board, wrapping around.
func (cs *CanvasSet) Next() {
	cs.activate((cs.active + 1) % len(cs.boards))
}

// Prev activates the preceding board, wrapping around.
func (cs *CanvasSet) Prev() {
	cs.activate((cs.active - 1 + len(cs.boards)) % len(cs.boards))
}

func (cs *CanvasSet) activate(i int) {
	if i == cs.active {
		return
	}
	prev := cs.boards[cs.active].Spec.ID
	cs.recent = lo.Filter(cs.recent, func(id string, _ int) bool { return id != prev })
	cs.recent = append([]string{prev}, cs.recent...)
	if len(cs.recent) > maxRecent {
		cs.recent = cs.recent[:maxRecent]
	}
	cs.active = i
	logging.Logger().Info("board: switched", "board", cs.boards[i].Spec.ID)
}

// Create adds a board built from s and activates it. An empty ID is
// generated.
func (cs *CanvasSet) Create(s Spec) (*Board, error) {
	if len(cs.boards)-1 >= cs.maxBoards {
		return nil, fmt.Errorf("create board: %w (%d)", ErrBoardLimit, cs.maxBoards)
	}
	if s.ID == "" {
		s.ID = "board-" + uuid.NewString()[:8]
	}
	if cs.index(s.ID) >= 0 {
		return nil, fmt.Errorf("create board %q: %w", s.ID, ErrDuplicateBoard)
	}
	if s.Name == "" {
		s.Name = fmt.Sprintf("Board %d", len(cs.boards))
	}
	b := cs.newBoard(s)
	cs.boards = append(cs.boards, b)
	cs.activate(len(cs.boards) - 1)
	return b, nil
}

// Duplicate copies the board with the given ID, pages included but
// histories dropped, and activates the copy.
func (cs *CanvasSet) Duplicate(id string) (*Board, error) {
	i := cs.index(id)
	if i < 0 {
		return nil, fmt.Errorf("duplicate %q: %w", id, ErrUnknownBoard)
	}
	if id == OverlayID {
		return nil, fmt.Errorf("duplicate %q: %w", id, ErrOverlayBoard)
	}
	if len(cs.boards)-1 >= cs.maxBoards {
		return nil, fmt.Errorf("duplicate %q: %w (%d)", id, ErrBoardLimit, cs.maxBoards)
	}
	src := cs.boards[i]
	spec := src.Spec
	spec.ID = "board-" + uuid.NewString()[:8]
	spec.Name = src.Spec.Name + " copy"
	spec.Pinned = false

	frames := make([]*frame.Frame, src.Pages.Len())
	for k := range frames {
		frames[k] = src.Pages.Frame(k).Clone()
	}
	b := &Board{Spec: spec, Pages: RestorePages(frames, src.Pages.ActiveIndex(), cs.historyLimit)}

	cs.boards = append(cs.boards, nil)
	copy(cs.boards[i+2:], cs.boards[i+1:])
	cs.boards[i+1] = b
	if cs.active > i {
		cs.active++
	}
	cs.activate(i + 1)
	return b, nil
}

// Delete removes the board with the given ID. The overlay cannot be
// removed. When the active board goes, the one before it becomes active.
func (cs *CanvasSet) Delete(id string) error {
	i := cs.index(id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, ErrUnknownBoard)
	}
	if i == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrOverlayBoard)
	}
	cs.boards = append(cs.boards[:i], cs.boards[i+1:]...)
	switch {
	case cs.active == i:
		cs.active = i - 1
	case cs.active > i:
		cs.active--
	}
	cs.recent = lo.Filter(cs.recent, func(r string, _ int) bool { return r != id })
	return nil
}

// Rename sets the display name of a board.
func (cs *CanvasSet) Rename(id, name string) error {
	i := cs.index(id)
	if i < 0 {
		return fmt.Errorf("rename %q: %w", id, ErrUnknownBoard)
	}
	cs.boards[i].Spec.Name = name
	return nil
}

// Replace swaps in restored pages for the board with the given ID.
func (cs *CanvasSet) Replace(id string, pages *Pages) error {
	i := cs.index(id)
	if i < 0 {
		return fmt.Errorf("replace %q: %w", id, ErrUnknownBoard)
	}
	cs.boards[i].Pages = pages
	return nil
}

// SetHistoryLimit applies a new undo depth to every page of every board.
func (cs *CanvasSet) SetHistoryLimit(n int) {
	if n < 1 {
		n = frame.DefaultHistoryLimit
	}
	cs.historyLimit = n
	for _, b := range cs.boards {
		b.Pages.SetHistoryLimit(n)
	}
}
