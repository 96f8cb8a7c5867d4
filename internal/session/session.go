// Package session converts a canvas set and the tool state to and from a
// versioned JSON document.
//
// Decoding is all or nothing: any structural problem yields ErrCorrupt and
// no partially restored state. Individual history entries that cannot be
// trusted are dropped instead, since losing undo steps is preferable to
// losing the session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/input"
	"sketchover/internal/logging"
)

// Version is the schema version written by Encode.
const Version = 1

var (
	// ErrCorrupt reports session data that cannot be restored.
	ErrCorrupt = errors.New("session: corrupt data")
	// ErrTooLarge reports a session over the byte cap.
	ErrTooLarge = errors.New("session: too large")
)

// Options bounds what is written and accepted.
type Options struct {
	PersistHistory    bool
	MaxShapesPerFrame int
	// MaxBytes caps the uncompressed document.
	MaxBytes      int
	MaxBatchDepth int
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		PersistHistory:    true,
		MaxShapesPerFrame: 10000,
		MaxBytes:          10 << 20,
		MaxBatchDepth:     16,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MaxShapesPerFrame < 1 {
		o.MaxShapesPerFrame = d.MaxShapesPerFrame
	}
	if o.MaxBytes < 1 {
		o.MaxBytes = d.MaxBytes
	}
	if o.MaxBatchDepth < 1 {
		o.MaxBatchDepth = d.MaxBatchDepth
	}
	return o
}

// Session is a decoded document, ready to be applied.
type Session struct {
	ID          string
	SavedAt     time.Time
	ActiveBoard string
	Boards      []Board
	tools       *toolsDoc
}

// Board is one restored board.
type Board struct {
	Spec       board.Spec
	ActivePage int
	Pages      []*frame.Frame
}

// Encode serializes the boards of cs that have Persist set, plus tools.
// Frames over the shape cap lose their oldest shapes in the output only.
// When the document exceeds the byte cap history is dropped; if it still
// does, ErrTooLarge is returned.
func Encode(cs *board.CanvasSet, tools input.ToolState, opts Options) ([]byte, error) {
	opts = opts.normalized()
	data, err := encode(cs, tools, opts, opts.PersistHistory)
	if err != nil {
		return nil, err
	}
	if len(data) > opts.MaxBytes && opts.PersistHistory {
		logging.Logger().Warn("session: over size cap, dropping history", "bytes", len(data), "max", opts.MaxBytes)
		data, err = encode(cs, tools, opts, false)
		if err != nil {
			return nil, err
		}
	}
	if len(data) > opts.MaxBytes {
		return nil, fmt.Errorf("encode: %d bytes: %w", len(data), ErrTooLarge)
	}
	return data, nil
}

func encode(cs *board.CanvasSet, tools input.ToolState, opts Options, history bool) ([]byte, error) {
	doc := fileDoc{
		Version:     Version,
		ID:          uuid.NewString(),
		SavedAt:     time.Now().UnixMilli(),
		ActiveBoard: cs.Active().Spec.ID,
		Tools:       toToolsDoc(tools),
	}
	for _, b := range cs.Boards() {
		if !b.Spec.Persist {
			continue
		}
		bd := boardDoc{
			ID:            b.Spec.ID,
			Name:          b.Spec.Name,
			Transparent:   b.Spec.Background.Transparent,
			Background:    b.Spec.Background.Color,
			PenColor:      b.Spec.PenColor,
			AutoAdjustPen: b.Spec.AutoAdjustPen,
			Pinned:        b.Spec.Pinned,
			ActivePage:    b.Pages.ActiveIndex(),
		}
		for _, f := range b.Pages.Frames() {
			pd, err := encodePage(f, opts, history)
			if err != nil {
				return nil, fmt.Errorf("encode board %q: %w", b.Spec.ID, err)
			}
			bd.Pages = append(bd.Pages, pd)
		}
		doc.Boards = append(doc.Boards, bd)
	}
	return json.Marshal(doc)
}

func encodePage(f *frame.Frame, opts Options, history bool) (pageDoc, error) {
	var undo, redo []frame.Action
	if history {
		undo, redo = f.UndoStack(), f.RedoStack()
	}
	if f.Len() > opts.MaxShapesPerFrame {
		tmp := frame.Restore(f.Shapes(), undo, redo, f.HistoryLimit())
		trimmed := tmp.TrimOldest(opts.MaxShapesPerFrame)
		logging.Logger().Warn("session: trimming oldest shapes", "dropped", len(trimmed), "max", opts.MaxShapesPerFrame)
		f = tmp
		if history {
			undo, redo = tmp.UndoStack(), tmp.RedoStack()
		}
	}
	pd := pageDoc{Shapes: []shapeDoc{}}
	for _, d := range f.Shapes() {
		sd, err := toShapeDoc(d)
		if err != nil {
			return pageDoc{}, err
		}
		pd.Shapes = append(pd.Shapes, sd)
	}
	var err error
	if pd.Undo, err = encodeStack(undo); err != nil {
		return pageDoc{}, err
	}
	if pd.Redo, err = encodeStack(redo); err != nil {
		return pageDoc{}, err
	}
	return pd, nil
}

func encodeStack(stack []frame.Action) ([]actionDoc, error) {
	var out []actionDoc
	for _, a := range stack {
		doc, err := toActionDoc(a)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Decode parses and validates a document. historyLimit bounds the
// restored undo stacks.
func Decode(data []byte, historyLimit int, opts Options) (*Session, error) {
	opts = opts.normalized()
	if len(data) > opts.MaxBytes {
		return nil, fmt.Errorf("decode: %d bytes: %w", len(data), ErrTooLarge)
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version < 1 || doc.Version > Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}

	s := &Session{
		ID:          doc.ID,
		SavedAt:     time.UnixMilli(doc.SavedAt),
		ActiveBoard: doc.ActiveBoard,
		tools:       doc.Tools,
	}
	seen := make(map[string]bool)
	for _, bd := range doc.Boards {
		if bd.ID == "" || seen[bd.ID] {
			return nil, fmt.Errorf("%w: board id %q missing or repeated", ErrCorrupt, bd.ID)
		}
		seen[bd.ID] = true
		b := Board{Spec: specOf(bd), ActivePage: bd.ActivePage}
		for i, pd := range bd.Pages {
			f, err := decodePage(pd, historyLimit, opts)
			if err != nil {
				return nil, fmt.Errorf("%w: board %q page %d: %v", ErrCorrupt, bd.ID, i, err)
			}
			b.Pages = append(b.Pages, f)
		}
		s.Boards = append(s.Boards, b)
	}
	return s, nil
}

func decodePage(pd pageDoc, historyLimit int, opts Options) (*frame.Frame, error) {
	shapes := make([]frame.DrawnShape, 0, len(pd.Shapes))
	ids := make(map[frame.ShapeID]bool, len(pd.Shapes))
	for _, sd := range pd.Shapes {
		d, err := fromShapeDoc(sd)
		if err != nil {
			return nil, err
		}
		if ids[d.ID] {
			return nil, fmt.Errorf("shape id %d repeated", d.ID)
		}
		ids[d.ID] = true
		shapes = append(shapes, d)
	}

	var undo, redo []frame.Action
	if opts.PersistHistory {
		undo = decodeStack(pd.Undo)
		redo = decodeStack(pd.Redo)
		known := knownIDs(shapes, undo, redo)
		undo = dropUnknown(undo, known)
		redo = dropUnknown(redo, known)
	}
	f := frame.Restore(shapes, undo, redo, historyLimit)
	if n := f.ValidateHistory(opts.MaxBatchDepth); n > 0 {
		logging.Logger().Warn("session: dropped over-deep history entries", "count", n)
	}
	if trimmed := f.TrimOldest(opts.MaxShapesPerFrame); len(trimmed) > 0 {
		logging.Logger().Warn("session: trimmed oldest shapes on load", "count", len(trimmed))
	}
	return f, nil
}

func decodeStack(docs []actionDoc) []frame.Action {
	var out []frame.Action
	for _, doc := range docs {
		a, err := fromActionDoc(doc)
		if err != nil {
			logging.Logger().Warn("session: dropping history entry", "err", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// knownIDs collects every ID a page has held: current shapes plus those
// carried by Add and Remove entries.
func knownIDs(shapes []frame.DrawnShape, stacks ...[]frame.Action) map[frame.ShapeID]bool {
	known := make(map[frame.ShapeID]bool)
	for _, d := range shapes {
		known[d.ID] = true
	}
	var visit func(a frame.Action)
	visit = func(a frame.Action) {
		switch v := a.(type) {
		case frame.Add:
			known[v.Shape.ID] = true
		case frame.Remove:
			known[v.Shape.ID] = true
		case frame.Batch:
			for _, sub := range v.Actions {
				visit(sub)
			}
		}
	}
	for _, stack := range stacks {
		for _, a := range stack {
			visit(a)
		}
	}
	return known
}

// dropUnknown removes entries that reference IDs the page never held.
func dropUnknown(stack []frame.Action, known map[frame.ShapeID]bool) []frame.Action {
	var out []frame.Action
	for _, a := range stack {
		ok := true
		for _, id := range frame.Affected(a) {
			if !known[id] {
				ok = false
				break
			}
		}
		if !ok {
			logging.Logger().Warn("session: dropping history entry with unknown shape")
			continue
		}
		out = append(out, a)
	}
	return out
}

// Tools returns the persisted tool state layered over base, or base when
// the session carries none.
func (s *Session) Tools(base input.ToolState) input.ToolState {
	if s.tools == nil {
		return base
	}
	return s.tools.applyTools(base)
}

// Apply installs the session's boards into cs. Boards cs already has get
// their pages replaced and keep their configured spec; unknown boards are
// created while the board limit allows. Apply never fails part way: the
// only rejected boards are those over the limit, which are logged.
func (s *Session) Apply(cs *board.CanvasSet) {
	for _, b := range s.Boards {
		pages := board.RestorePages(b.Pages, b.ActivePage, cs.HistoryLimit())
		if _, ok := cs.Board(b.Spec.ID); !ok {
			if _, err := cs.Create(b.Spec); err != nil {
				logging.Logger().Warn("session: cannot restore board", "board", b.Spec.ID, "err", err)
				continue
			}
		}
		_ = cs.Replace(b.Spec.ID, pages)
	}
	if err := cs.Switch(s.ActiveBoard); err != nil {
		_ = cs.Switch(board.OverlayID)
	}
	logging.Logger().Info("session: restored", "id", s.ID, "boards", len(s.Boards), "saved_at", s.SavedAt)
}
