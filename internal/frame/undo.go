package frame

import (
	"errors"

	"sketchover/internal/logging"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Apply performs a and records it on the undo stack, clearing redo.
func (f *Frame) Apply(a Action) {
	if a == nil {
		return
	}
	f.redoAction(a)
	f.Record(a)
}

// Record pushes a, which the caller has already reflected in the frame,
// onto the undo stack. Gestures that edit shapes live use this on release.
func (f *Frame) Record(a Action) {
	if a == nil {
		return
	}
	f.undoStack = append(f.undoStack, a)
	f.redoStack = nil
	f.clampHistory()
}

// Revert undoes a without touching history. It is used to cancel a gesture
// whose edits were applied live.
func (f *Frame) Revert(a Action) {
	if a != nil {
		f.undoAction(a)
	}
}

// Undo reverts the most recent action and moves it to the redo stack.
func (f *Frame) Undo() (Action, error) {
	if len(f.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	last := len(f.undoStack) - 1
	a := f.undoStack[last]
	f.undoStack = f.undoStack[:last]
	f.undoAction(a)
	f.redoStack = append(f.redoStack, a)
	return a, nil
}

// Redo reapplies the most recently undone action.
func (f *Frame) Redo() (Action, error) {
	if len(f.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	last := len(f.redoStack) - 1
	a := f.redoStack[last]
	f.redoStack = f.redoStack[:last]
	f.redoAction(a)
	f.undoStack = append(f.undoStack, a)
	return a, nil
}

func (f *Frame) redoAction(a Action) {
	switch v := a.(type) {
	case Add:
		f.insert(v.Index, v.Shape)
	case Remove:
		if _, _, ok := f.remove(v.Shape.ID); !ok {
			logging.Logger().Debug("frame: remove of unknown shape", "id", v.Shape.ID)
		}
	case Modify:
		f.restore(v.ID, v.After)
	case Reorder:
		f.move(v.ID, v.To)
	case Batch:
		for _, sub := range v.Actions {
			f.redoAction(sub)
		}
	}
}

func (f *Frame) undoAction(a Action) {
	switch v := a.(type) {
	case Add:
		if _, _, ok := f.remove(v.Shape.ID); !ok {
			logging.Logger().Debug("frame: undo add of unknown shape", "id", v.Shape.ID)
		}
	case Remove:
		f.insert(v.Index, v.Shape)
	case Modify:
		f.restore(v.ID, v.Before)
	case Reorder:
		f.move(v.ID, v.From)
	case Batch:
		for i := len(v.Actions) - 1; i >= 0; i-- {
			f.undoAction(v.Actions[i])
		}
	}
}

func (f *Frame) restore(id ShapeID, s Snapshot) {
	i := f.IndexOf(id)
	if i < 0 {
		logging.Logger().Debug("frame: modify of unknown shape", "id", id)
		return
	}
	f.shapes[i].Shape = s.Shape
	f.shapes[i].Locked = s.Locked
}

// CanUndo reports whether Undo would succeed.
func (f *Frame) CanUndo() bool { return len(f.undoStack) > 0 }

// CanRedo reports whether Redo would succeed.
func (f *Frame) CanRedo() bool { return len(f.redoStack) > 0 }

// UndoStack returns the undo entries, oldest first.
func (f *Frame) UndoStack() []Action { return append([]Action(nil), f.undoStack...) }

// RedoStack returns the redo entries; the next one to redo is last.
func (f *Frame) RedoStack() []Action { return append([]Action(nil), f.redoStack...) }

// HistoryLimit returns the maximum undo depth.
func (f *Frame) HistoryLimit() int { return f.limit }

// SetHistoryLimit changes the maximum undo depth, discarding the oldest
// entries if the history is now too long.
func (f *Frame) SetHistoryLimit(n int) {
	if n < 1 {
		n = DefaultHistoryLimit
	}
	f.limit = n
	f.clampHistory()
}

// ClearHistory empties both stacks.
func (f *Frame) ClearHistory() {
	f.undoStack = nil
	f.redoStack = nil
}

// PruneHistory removes every history entry that references an ID in gone.
func (f *Frame) PruneHistory(gone map[ShapeID]struct{}) {
	if len(gone) == 0 {
		return
	}
	f.undoStack = pruneStack(f.undoStack, gone)
	f.redoStack = pruneStack(f.redoStack, gone)
}

// ValidateHistory drops entries whose batch nesting exceeds maxDepth and
// returns how many were dropped.
func (f *Frame) ValidateHistory(maxDepth int) int {
	dropped := 0
	filter := func(stack []Action) []Action {
		kept := stack[:0]
		for _, a := range stack {
			if Depth(a) > maxDepth {
				dropped++
				continue
			}
			kept = append(kept, a)
		}
		return kept
	}
	f.undoStack = filter(f.undoStack)
	f.redoStack = filter(f.redoStack)
	return dropped
}

func pruneStack(stack []Action, gone map[ShapeID]struct{}) []Action {
	kept := stack[:0]
	for _, a := range stack {
		if p := prune(a, gone); p != nil {
			kept = append(kept, p)
		}
	}
	return kept
}

func (f *Frame) clampHistory() {
	if over := len(f.undoStack) - f.limit; over > 0 {
		f.undoStack = append([]Action(nil), f.undoStack[over:]...)
	}
	if over := len(f.redoStack) - f.limit; over > 0 {
		f.redoStack = append([]Action(nil), f.redoStack[over:]...)
	}
}
