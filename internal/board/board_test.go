package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/shape"
)

func newSet(t *testing.T) *CanvasSet {
	t.Helper()
	cs, err := New(DefaultSpecs(), Options{MaxBoards: 3})
	require.NoError(t, err)
	return cs
}

func draw(f *frame.Frame) {
	d := f.NewShape(shape.Line{From: geom.Pt(0, 0), To: geom.Pt(1, 1)}, time.Now())
	f.Apply(frame.Add{Index: f.Len(), Shape: d})
}

func TestOverlayAlwaysFirst(t *testing.T) {
	cs, err := New([]Spec{{ID: "a", Name: "A"}}, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, cs.Len())
	assert.Equal(t, OverlayID, cs.Boards()[0].Spec.ID)
	assert.True(t, cs.Boards()[0].Spec.Background.Transparent)
	assert.Equal(t, OverlayID, cs.Active().Spec.ID)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Spec{{ID: "a"}, {ID: "a"}}, Options{})
	assert.ErrorIs(t, err, ErrDuplicateBoard)
}

func TestSwitchAndWrap(t *testing.T) {
	cs := newSet(t)
	require.NoError(t, cs.Switch("blackboard"))
	assert.Equal(t, "blackboard", cs.Active().Spec.ID)
	cs.Next()
	assert.Equal(t, OverlayID, cs.Active().Spec.ID)
	cs.Prev()
	assert.Equal(t, "blackboard", cs.Active().Spec.ID)
	assert.Equal(t, []string{OverlayID, "blackboard"}, cs.Recent()[:2])

	err := cs.Switch("nope")
	assert.ErrorIs(t, err, ErrUnknownBoard)
	assert.Equal(t, "blackboard", cs.Active().Spec.ID)

	require.NoError(t, cs.SwitchSlot(1))
	assert.Equal(t, "whiteboard", cs.Active().Spec.ID)
	assert.ErrorIs(t, cs.SwitchSlot(7), ErrUnknownBoard)
}

func TestCreateRespectsLimit(t *testing.T) {
	cs := newSet(t)
	b, err := cs.Create(Spec{Name: "Extra"})
	require.NoError(t, err)
	assert.NotEmpty(t, b.Spec.ID)
	assert.Equal(t, b, cs.Active())

	_, err = cs.Create(Spec{Name: "One too many"})
	assert.ErrorIs(t, err, ErrBoardLimit)
	assert.Equal(t, 4, cs.Len())
}

func TestDeleteBoard(t *testing.T) {
	cs := newSet(t)
	require.NoError(t, cs.Switch("blackboard"))
	require.NoError(t, cs.Delete("blackboard"))
	assert.Equal(t, "whiteboard", cs.Active().Spec.ID)

	assert.ErrorIs(t, cs.Delete(OverlayID), ErrOverlayBoard)
	assert.ErrorIs(t, cs.Delete("missing"), ErrUnknownBoard)
	assert.Equal(t, 2, cs.Len())
}

func TestDuplicateBoardCopiesPagesWithoutHistory(t *testing.T) {
	cs := newSet(t)
	wb, _ := cs.Board("whiteboard")
	draw(wb.Pages.Active())
	wb.Pages.New()
	draw(wb.Pages.Active())
	draw(wb.Pages.Active())

	cp, err := cs.Duplicate("whiteboard")
	require.NoError(t, err)
	assert.Equal(t, cp, cs.Active())
	assert.Equal(t, 2, cp.Pages.Len())
	assert.Equal(t, 2, cp.Pages.Active().Len())
	assert.False(t, cp.Pages.Active().CanUndo())
	assert.Equal(t, 2, cs.Boards()[2].Pages.Frame(1).Len(), "duplicate sits right after its source")
	assert.Equal(t, "whiteboard", cs.Boards()[1].Spec.ID)

	_, err = cs.Duplicate(OverlayID)
	assert.ErrorIs(t, err, ErrOverlayBoard)
}

func TestPagesAreIsolated(t *testing.T) {
	cs := newSet(t)
	p := cs.Active().Pages
	for i := 0; i < 3; i++ {
		draw(cs.ActiveFrame())
	}
	p.New()
	for i := 0; i < 2; i++ {
		draw(cs.ActiveFrame())
	}
	require.NoError(t, p.Step(-1))
	assert.Equal(t, 3, cs.ActiveFrame().Len())
	require.NoError(t, p.Step(1))
	assert.Equal(t, 2, cs.ActiveFrame().Len())

	_, err := cs.ActiveFrame().Undo()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Frame(0).Len())
	assert.Equal(t, 1, p.Frame(1).Len())
}

func TestPageNavigationDoesNotWrap(t *testing.T) {
	p := NewPages(10)
	assert.ErrorIs(t, p.Step(-1), ErrPageIndex)
	p.New()
	assert.ErrorIs(t, p.Step(1), ErrPageIndex)
	assert.Equal(t, 1, p.ActiveIndex())
}

func TestDeletePage(t *testing.T) {
	p := NewPages(10)
	assert.ErrorIs(t, p.Delete(), ErrLastPage)
	assert.Equal(t, 1, p.Len())

	p.New()
	p.New()
	require.NoError(t, p.Delete())
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 1, p.ActiveIndex())
}

func TestDuplicateAndMovePage(t *testing.T) {
	p := NewPages(10)
	draw(p.Active())
	first := p.Active()
	assert.Equal(t, 1, p.Duplicate())
	assert.Equal(t, 1, p.Active().Len())
	assert.False(t, p.Active().CanUndo())

	require.NoError(t, p.Switch(0))
	require.NoError(t, p.Move(0, 1))
	assert.Same(t, first, p.Active())
	assert.Equal(t, 1, p.ActiveIndex())
	assert.ErrorIs(t, p.Move(0, 5), ErrPageIndex)
}

func TestEffectivePenColor(t *testing.T) {
	specs := DefaultSpecs()
	_, ok := specs[0].EffectivePenColor()
	assert.False(t, ok)

	c, ok := specs[1].EffectivePenColor()
	require.True(t, ok)
	assert.Equal(t, shape.Black, c)

	c, ok = specs[2].EffectivePenColor()
	require.True(t, ok)
	assert.Equal(t, shape.White, c)

	red := shape.Red
	specs[2].PenColor = &red
	c, _ = specs[2].EffectivePenColor()
	assert.Equal(t, shape.Red, c)
}

func TestSetHistoryLimitPropagates(t *testing.T) {
	cs := newSet(t)
	cs.SetHistoryLimit(3)
	for i := 0; i < 5; i++ {
		draw(cs.ActiveFrame())
	}
	assert.Len(t, cs.ActiveFrame().UndoStack(), 3)
	cs.Active().Pages.New()
	assert.Equal(t, 3, cs.ActiveFrame().HistoryLimit())
}
