// Package frame holds one page of drawn shapes together with its undo and
// redo history.
//
// The position of a shape in the frame is its z-order: index 0 is drawn
// first (bottom), the last index is drawn on top. Z-orders therefore always
// form a permutation of 0..n-1.
package frame

import (
	"time"

	"sketchover/internal/shape"
)

// ShapeID identifies a shape within its frame. IDs are never reused.
type ShapeID uint64

// DefaultHistoryLimit is the undo depth used when none is configured.
const DefaultHistoryLimit = 100

// DrawnShape is a committed shape plus the metadata the frame keeps for it.
type DrawnShape struct {
	ID        ShapeID
	Shape     shape.Shape
	CreatedAt int64 // unix milliseconds
	Locked    bool
}

// Snapshot returns the mutable state of d.
func (d DrawnShape) Snapshot() Snapshot {
	return Snapshot{Shape: d.Shape, Locked: d.Locked}
}

// Clone returns a deep copy of d.
func (d DrawnShape) Clone() DrawnShape {
	d.Shape = shape.Clone(d.Shape)
	return d
}

// Frame is an ordered list of shapes with bounded undo/redo stacks.
type Frame struct {
	shapes    []DrawnShape
	undoStack []Action
	redoStack []Action
	limit     int
	nextID    ShapeID
}

// New returns an empty frame whose history holds at most historyLimit
// entries. A limit below one falls back to DefaultHistoryLimit.
func New(historyLimit int) *Frame {
	if historyLimit < 1 {
		historyLimit = DefaultHistoryLimit
	}
	return &Frame{limit: historyLimit, nextID: 1}
}

// Restore rebuilds a frame from persisted parts. The ID counter resumes
// above every ID referenced by the shapes or the history.
func Restore(shapes []DrawnShape, undo, redo []Action, historyLimit int) *Frame {
	f := New(historyLimit)
	f.shapes = append(f.shapes, shapes...)
	f.undoStack = append(f.undoStack, undo...)
	f.redoStack = append(f.redoStack, redo...)
	for _, d := range shapes {
		f.markUsed(d.ID)
	}
	for _, a := range f.undoStack {
		f.markActionIDs(a)
	}
	for _, a := range f.redoStack {
		f.markActionIDs(a)
	}
	f.clampHistory()
	return f
}

// Len returns the number of shapes.
func (f *Frame) Len() int {
	return len(f.shapes)
}

// Shapes returns the shapes in z-order. The slice is a copy; the shapes
// themselves are immutable values.
func (f *Frame) Shapes() []DrawnShape {
	return append([]DrawnShape(nil), f.shapes...)
}

// At returns the shape at z-order i.
func (f *Frame) At(i int) DrawnShape {
	return f.shapes[i]
}

// IndexOf returns the z-order of id, or -1.
func (f *Frame) IndexOf(id ShapeID) int {
	for i := range f.shapes {
		if f.shapes[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the shape with the given id.
func (f *Frame) Get(id ShapeID) (DrawnShape, bool) {
	if i := f.IndexOf(id); i >= 0 {
		return f.shapes[i], true
	}
	return DrawnShape{}, false
}

// NewShape allocates an ID for s without inserting it. Insert it with an
// Add action.
func (f *Frame) NewShape(s shape.Shape, now time.Time) DrawnShape {
	id := f.nextID
	f.nextID++
	return DrawnShape{ID: id, Shape: s, CreatedAt: now.UnixMilli()}
}

// Set replaces the geometry of id in place without touching history. It is
// used for live previews during a gesture; the gesture records a Modify
// when it completes.
func (f *Frame) Set(id ShapeID, s shape.Shape) bool {
	i := f.IndexOf(id)
	if i < 0 {
		return false
	}
	f.shapes[i].Shape = s
	return true
}

// Insert places d at z-order i without touching history. Like Set, it
// serves live gesture previews; the gesture records the matching actions
// when it completes.
func (f *Frame) Insert(i int, d DrawnShape) {
	f.insert(i, d)
}

// Delete removes id without touching history and returns the removed
// shape and its former z-order.
func (f *Frame) Delete(id ShapeID) (DrawnShape, int, bool) {
	return f.remove(id)
}

// Oldest returns up to n shapes ordered by creation time, oldest first,
// with every unlocked shape ahead of the locked ones. Ties are broken by
// ID.
func (f *Frame) Oldest(n int) []DrawnShape {
	var unlocked, locked []DrawnShape
	for _, d := range f.shapes {
		if d.Locked {
			locked = append(locked, d)
		} else {
			unlocked = append(unlocked, d)
		}
	}
	sortByAge(unlocked)
	sortByAge(locked)
	cand := append(unlocked, locked...)
	if n < len(cand) {
		cand = cand[:n]
	}
	return cand
}

// Clone returns a copy of f's shapes with an empty history.
func (f *Frame) Clone() *Frame {
	c := New(f.limit)
	c.nextID = f.nextID
	for _, d := range f.shapes {
		c.shapes = append(c.shapes, d.Clone())
	}
	return c
}

// TrimOldest drops the oldest shapes until at most max remain and prunes
// history entries that reference them. Locked shapes go only once no
// unlocked shape is left. It returns the removed shapes.
func (f *Frame) TrimOldest(max int) []DrawnShape {
	excess := len(f.shapes) - max
	if excess <= 0 {
		return nil
	}
	victims := f.Oldest(excess)
	gone := make(map[ShapeID]struct{}, len(victims))
	for _, d := range victims {
		gone[d.ID] = struct{}{}
	}
	kept := f.shapes[:0]
	for _, d := range f.shapes {
		if _, ok := gone[d.ID]; !ok {
			kept = append(kept, d)
		}
	}
	f.shapes = kept
	f.PruneHistory(gone)
	return victims
}

func (f *Frame) insert(i int, d DrawnShape) {
	if i < 0 {
		i = 0
	}
	if i > len(f.shapes) {
		i = len(f.shapes)
	}
	f.shapes = append(f.shapes, DrawnShape{})
	copy(f.shapes[i+1:], f.shapes[i:])
	f.shapes[i] = d
	f.markUsed(d.ID)
}

func (f *Frame) remove(id ShapeID) (DrawnShape, int, bool) {
	i := f.IndexOf(id)
	if i < 0 {
		return DrawnShape{}, -1, false
	}
	d := f.shapes[i]
	f.shapes = append(f.shapes[:i], f.shapes[i+1:]...)
	return d, i, true
}

// move relocates id so that it ends up at index to.
func (f *Frame) move(id ShapeID, to int) bool {
	d, _, ok := f.remove(id)
	if !ok {
		return false
	}
	f.insert(to, d)
	return true
}

func (f *Frame) markUsed(id ShapeID) {
	if id >= f.nextID {
		f.nextID = id + 1
	}
}

func (f *Frame) markActionIDs(a Action) {
	walk(a, func(a Action) {
		switch v := a.(type) {
		case Add:
			f.markUsed(v.Shape.ID)
		case Remove:
			f.markUsed(v.Shape.ID)
		case Modify:
			f.markUsed(v.ID)
		case Reorder:
			f.markUsed(v.ID)
		}
	})
}
