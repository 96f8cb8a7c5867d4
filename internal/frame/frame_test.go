package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/geom"
	"sketchover/internal/shape"
)

var epoch = time.Unix(1700000000, 0)

func line(x float64) shape.Shape {
	return shape.Line{From: geom.Pt(x, 0), To: geom.Pt(x, 10), Color: shape.Red, Thickness: 2}
}

// add appends a new line shape at the top of f and records it.
func add(f *Frame, x float64) DrawnShape {
	d := f.NewShape(line(x), epoch.Add(time.Duration(x)*time.Millisecond))
	f.Apply(Add{Index: f.Len(), Shape: d})
	return d
}

func ids(f *Frame) []ShapeID {
	var out []ShapeID
	for _, d := range f.Shapes() {
		out = append(out, d.ID)
	}
	return out
}

func TestIDsAreMonotonic(t *testing.T) {
	f := New(0)
	a := add(f, 1)
	b := add(f, 2)
	assert.Equal(t, ShapeID(1), a.ID)
	assert.Equal(t, ShapeID(2), b.ID)

	_, err := f.Undo()
	require.NoError(t, err)
	c := add(f, 3)
	assert.Equal(t, ShapeID(3), c.ID, "ids are not reused after undo")
}

func TestUndoRedoRoundTrip(t *testing.T) {
	f := New(0)
	a := add(f, 1)
	b := add(f, 2)
	before := f.Shapes()

	actions := []Action{
		Modify{ID: a.ID, Before: a.Snapshot(), After: Snapshot{Shape: line(50), Locked: true}},
		Reorder{ID: a.ID, From: 0, To: 1},
		Remove{Index: 0, Shape: b},
		Batch{Actions: []Action{
			Add{Index: 0, Shape: f.NewShape(line(7), epoch)},
			Modify{ID: a.ID, Before: Snapshot{Shape: line(50), Locked: true}, After: Snapshot{Shape: line(60)}},
		}},
	}
	for _, act := range actions {
		f.Apply(act)
	}
	after := f.Shapes()

	for range actions {
		_, err := f.Undo()
		require.NoError(t, err)
	}
	assert.Equal(t, before, f.Shapes())

	for range actions {
		_, err := f.Redo()
		require.NoError(t, err)
	}
	assert.Equal(t, after, f.Shapes())
}

func TestUndoOnEmptyHistory(t *testing.T) {
	f := New(0)
	_, err := f.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	_, err = f.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, 0, f.Len())
}

func TestHistoryCap(t *testing.T) {
	f := New(10)
	for i := 0; i < 15; i++ {
		add(f, float64(i))
	}
	assert.Len(t, f.UndoStack(), 10)

	for i := 0; i < 10; i++ {
		_, err := f.Undo()
		require.NoError(t, err)
	}
	_, err := f.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
	// the five oldest additions are no longer undoable
	assert.Equal(t, 5, f.Len())
}

func TestNewActionClearsRedo(t *testing.T) {
	f := New(0)
	add(f, 1)
	_, err := f.Undo()
	require.NoError(t, err)
	require.True(t, f.CanRedo())
	add(f, 2)
	assert.False(t, f.CanRedo())
}

func TestZOrderStaysPermutation(t *testing.T) {
	f := New(0)
	var all []ShapeID
	for i := 0; i < 6; i++ {
		all = append(all, add(f, float64(i)).ID)
	}

	f.Apply(f.PlanToFront([]ShapeID{all[0], all[2]}))
	assert.Equal(t, []ShapeID{all[1], all[3], all[4], all[5], all[0], all[2]}, ids(f))

	f.Apply(f.PlanToBack([]ShapeID{all[5], all[2]}))
	assert.Equal(t, []ShapeID{all[5], all[2], all[1], all[3], all[4], all[0]}, ids(f))

	_, err := f.Undo()
	require.NoError(t, err)
	_, err = f.Undo()
	require.NoError(t, err)
	assert.Equal(t, all, ids(f))

	for i := 0; i < f.Len(); i++ {
		assert.Equal(t, i, f.IndexOf(f.At(i).ID))
	}
}

func TestPlanIsNilWhenAlreadyInPlace(t *testing.T) {
	f := New(0)
	add(f, 1)
	top := add(f, 2)
	assert.Nil(t, f.PlanToFront([]ShapeID{top.ID}))
}

func TestSetDoesNotRecord(t *testing.T) {
	f := New(0)
	a := add(f, 1)
	require.True(t, f.Set(a.ID, line(9)))
	assert.Len(t, f.UndoStack(), 1)
	got, _ := f.Get(a.ID)
	assert.Equal(t, line(9), got.Shape)
}

func TestRevertCancelsLiveEdit(t *testing.T) {
	f := New(0)
	a := add(f, 1)
	f.Set(a.ID, line(20))
	f.Revert(Modify{ID: a.ID, Before: a.Snapshot(), After: Snapshot{Shape: line(20)}})
	got, _ := f.Get(a.ID)
	assert.Equal(t, a.Shape, got.Shape)
	assert.Len(t, f.UndoStack(), 1)
}

func TestTrimOldestPrunesHistory(t *testing.T) {
	f := New(0)
	a := add(f, 1)
	b := add(f, 2)
	c := add(f, 3)
	f.Apply(Modify{ID: c.ID, Before: Snapshot{Shape: c.Shape}, After: Snapshot{Shape: c.Shape, Locked: true}})

	removed := f.TrimOldest(1)
	require.Len(t, removed, 2)
	assert.Equal(t, a.ID, removed[0].ID)
	assert.Equal(t, b.ID, removed[1].ID)
	assert.Equal(t, []ShapeID{c.ID}, ids(f))
	// the Add entries for a and b are gone, c's Add and Modify remain
	assert.Len(t, f.UndoStack(), 2)
}

func TestTrimOldestFallsBackToLocked(t *testing.T) {
	f := New(0)
	var all []DrawnShape
	for i := 1; i <= 3; i++ {
		d := add(f, float64(i))
		f.Apply(Modify{ID: d.ID, Before: Snapshot{Shape: d.Shape}, After: Snapshot{Shape: d.Shape, Locked: true}})
		all = append(all, d)
	}
	d := add(f, 4)

	removed := f.TrimOldest(2)
	require.Len(t, removed, 2)
	assert.Equal(t, d.ID, removed[0].ID, "unlocked shapes go first")
	assert.Equal(t, all[0].ID, removed[1].ID)
	assert.Equal(t, []ShapeID{all[1].ID, all[2].ID}, ids(f))
}

func TestRestoreResumesIDs(t *testing.T) {
	d := DrawnShape{ID: 7, Shape: line(1)}
	undo := []Action{Remove{Index: 1, Shape: DrawnShape{ID: 12, Shape: line(2)}}}
	f := Restore([]DrawnShape{d}, undo, nil, 0)
	next := f.NewShape(line(3), epoch)
	assert.Equal(t, ShapeID(13), next.ID)
}

func TestValidateHistoryDropsDeepBatches(t *testing.T) {
	var deep Action = Add{Index: 0, Shape: DrawnShape{ID: 1, Shape: line(1)}}
	for i := 0; i < 3; i++ {
		deep = Batch{Actions: []Action{deep}}
	}
	f := Restore(nil, []Action{deep, Remove{Shape: DrawnShape{ID: 2}}}, nil, 0)
	assert.Equal(t, 1, f.ValidateHistory(2))
	assert.Len(t, f.UndoStack(), 1)
}

func TestCloneHasNoHistory(t *testing.T) {
	f := New(5)
	add(f, 1)
	c := f.Clone()
	assert.Equal(t, f.Shapes(), c.Shapes())
	assert.False(t, c.CanUndo())
	assert.Equal(t, 5, c.HistoryLimit())
}

func TestAffectedAndDepth(t *testing.T) {
	b := Batch{Actions: []Action{
		Reorder{ID: 3},
		Batch{Actions: []Action{Modify{ID: 4}, Reorder{ID: 3}}},
	}}
	assert.Equal(t, []ShapeID{3, 4}, Affected(b))
	assert.Equal(t, 2, Depth(b))
	assert.Equal(t, 0, Depth(Reorder{}))
	assert.Nil(t, NewBatch())
	assert.Equal(t, Reorder{ID: 1}, NewBatch(Reorder{ID: 1}))
}
