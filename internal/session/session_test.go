package session

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/shape"
)

var epoch = time.Unix(1700000000, 0)

func allShapes() []shape.Shape {
	return []shape.Shape{
		shape.Stroke{Points: []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 5}}, Pressure: []float64{0.2, 0.9}, Color: shape.Red, Thickness: 3},
		shape.Marker{Points: []geom.Point{{X: 1, Y: 1}, {X: 40, Y: 1}}, Color: shape.Yellow, Thickness: 12, Opacity: 0.32},
		shape.Line{From: geom.Pt(0, 0), To: geom.Pt(100, 0.1), Color: shape.Blue, Thickness: 2},
		shape.Rect{Min: geom.Pt(1, 2), Max: geom.Pt(30, 40), Color: shape.Green, Thickness: 4, Fill: true},
		shape.Ellipse{Center: geom.Pt(50, 50), RX: 20, RY: 10, Color: shape.Orange, Thickness: 1},
		shape.Arrow{From: geom.Pt(0, 0), To: geom.Pt(80, 80), Color: shape.Pink, Thickness: 3, HeadLength: 20, HeadAngle: 30, HeadAtEnd: true, Label: &shape.Label{Value: 4, Size: 14}},
		shape.Text{Pos: geom.Pt(5, 5), Text: "hello\nworld", Color: shape.White, Font: shape.FontDescriptor{Family: "monospace", Size: 24}, Background: true},
		shape.StickyNote{Pos: geom.Pt(200, 200), Text: "todo", Color: shape.Yellow, Font: shape.FontDescriptor{Family: "sans", Size: 18, Bold: true}},
		shape.StepMarker{Center: geom.Pt(300, 300), Value: 2, Size: 24, Color: shape.Black},
	}
}

func add(f *frame.Frame, s shape.Shape, at time.Time) frame.DrawnShape {
	d := f.NewShape(s, at)
	f.Apply(frame.Add{Index: f.Len(), Shape: d})
	return d
}

func newCanvas(t *testing.T) *board.CanvasSet {
	t.Helper()
	cs, err := board.New(board.DefaultSpecs(), board.Options{})
	require.NoError(t, err)
	return cs
}

func TestRoundTrip(t *testing.T) {
	cs := newCanvas(t)
	f := cs.ActiveFrame()
	for i, s := range allShapes() {
		add(f, s, epoch.Add(time.Duration(i)*time.Second))
	}
	d := f.At(2)
	f.Apply(frame.Modify{ID: d.ID, Before: d.Snapshot(), After: frame.Snapshot{Shape: shape.Translate(d.Shape, geom.Pt(5, 5)), Locked: true}})
	f.Apply(f.PlanToBack([]frame.ShapeID{f.At(4).ID}))
	_, err := f.Undo()
	require.NoError(t, err)

	require.NoError(t, cs.Switch("whiteboard"))
	wb, _ := cs.Board("whiteboard")
	add(wb.Pages.Active(), allShapes()[0], epoch)
	wb.Pages.New()
	add(wb.Pages.Active(), allShapes()[3], epoch)

	tools := input.DefaultToolState()
	tools.Tool = input.ToolArrow
	tools.NextNumber = 7
	black := shape.Black
	tools.BoardPreviousColor = &black

	data, err := Encode(cs, tools, DefaultOptions())
	require.NoError(t, err)

	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)
	fresh := newCanvas(t)
	s.Apply(fresh)

	assert.Equal(t, "whiteboard", fresh.Active().Spec.ID)
	ov, _ := fresh.Board(board.OverlayID)
	got := ov.Pages.Active()
	assert.Equal(t, f.Shapes(), got.Shapes())
	assert.Equal(t, f.UndoStack(), got.UndoStack())
	assert.Equal(t, f.RedoStack(), got.RedoStack())

	wb2, _ := fresh.Board("whiteboard")
	assert.Equal(t, 2, wb2.Pages.Len())
	assert.Equal(t, 1, wb2.Pages.ActiveIndex())

	restored := s.Tools(input.DefaultToolState())
	assert.Equal(t, input.ToolArrow, restored.Tool)
	assert.Equal(t, 7, restored.NextNumber)
	require.NotNil(t, restored.BoardPreviousColor)
	assert.Equal(t, shape.Black, *restored.BoardPreviousColor)

	// New shapes continue above the restored IDs.
	next := got.NewShape(allShapes()[2], epoch)
	assert.Greater(t, next.ID, f.At(f.Len()-1).ID)

	// The restored history is usable.
	_, err = got.Redo()
	require.NoError(t, err)
	_, err = got.Undo()
	require.NoError(t, err)
}

func TestHistoryExcluded(t *testing.T) {
	cs := newCanvas(t)
	add(cs.ActiveFrame(), allShapes()[2], epoch)

	opts := DefaultOptions()
	opts.PersistHistory = false
	data, err := Encode(cs, input.DefaultToolState(), opts)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"undo"`)

	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)
	fresh := newCanvas(t)
	s.Apply(fresh)
	assert.Equal(t, 1, fresh.ActiveFrame().Len())
	assert.False(t, fresh.ActiveFrame().CanUndo())
}

func TestShapeCapTrimsOldestInOutputOnly(t *testing.T) {
	cs := newCanvas(t)
	f := cs.ActiveFrame()
	var first frame.ShapeID
	for i := range 5 {
		d := add(f, allShapes()[2], epoch.Add(time.Duration(i)*time.Second))
		if i == 0 {
			first = d.ID
		}
	}
	opts := DefaultOptions()
	opts.MaxShapesPerFrame = 3
	data, err := Encode(cs, input.DefaultToolState(), opts)
	require.NoError(t, err)
	assert.Equal(t, 5, f.Len())

	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)
	restored := s.Boards[0].Pages[0]
	assert.Equal(t, 3, restored.Len())
	_, ok := restored.Get(first)
	assert.False(t, ok)
	for _, a := range restored.UndoStack() {
		for _, id := range frame.Affected(a) {
			_, ok := restored.Get(id)
			assert.True(t, ok)
		}
	}
}

func TestByteCap(t *testing.T) {
	cs := newCanvas(t)
	f := cs.ActiveFrame()
	for i := range 5 {
		add(f, allShapes()[6], epoch.Add(time.Duration(i)*time.Second))
	}

	noHistory := DefaultOptions()
	noHistory.PersistHistory = false
	small, err := Encode(cs, input.DefaultToolState(), noHistory)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxBytes = len(small)
	data, err := Encode(cs, input.DefaultToolState(), opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), len(small))
	assert.NotContains(t, string(data), `"undo"`)

	opts.MaxBytes = 100
	_, err = Encode(cs, input.DefaultToolState(), opts)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Decode(data, 100, opts)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestNonPersistentBoardsAreSkipped(t *testing.T) {
	specs := board.DefaultSpecs()
	specs[2].Persist = false
	cs, err := board.New(specs, board.Options{})
	require.NoError(t, err)

	data, err := Encode(cs, input.DefaultToolState(), DefaultOptions())
	require.NoError(t, err)
	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)
	ids := make([]string, 0, len(s.Boards))
	for _, b := range s.Boards {
		ids = append(ids, b.Spec.ID)
	}
	assert.Equal(t, []string{board.OverlayID, "whiteboard"}, ids)
}

func TestApplyCreatesRuntimeBoards(t *testing.T) {
	cs := newCanvas(t)
	b, err := cs.Create(board.Spec{Name: "Notes", Background: board.Solid(shape.RGB(0.2, 0.3, 0.4)), Persist: true})
	require.NoError(t, err)
	add(b.Pages.Active(), allShapes()[2], epoch)

	data, err := Encode(cs, input.DefaultToolState(), DefaultOptions())
	require.NoError(t, err)
	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)

	fresh := newCanvas(t)
	s.Apply(fresh)
	got, ok := fresh.Board(b.Spec.ID)
	require.True(t, ok)
	assert.Equal(t, "Notes", got.Spec.Name)
	assert.Equal(t, b.Spec.ID, fresh.Active().Spec.ID)
	assert.Equal(t, 1, got.Pages.Active().Len())
}

func TestCorruptData(t *testing.T) {
	shapeJSON := `{"id":1,"created_at":0,"kind":"line","data":{"from":{"x":0,"y":0},"to":{"x":1,"y":1},"color":{"r":1,"g":0,"b":0,"a":1},"thickness":2}}`
	cases := map[string]string{
		"not json":        `{{{`,
		"future version":  `{"version":99,"boards":[]}`,
		"missing version": `{"boards":[]}`,
		"unknown kind":    `{"version":1,"boards":[{"id":"overlay","transparent":true,"pages":[{"shapes":[{"id":1,"kind":"hexagon","data":{}}]}]}]}`,
		"repeated id":     fmt.Sprintf(`{"version":1,"boards":[{"id":"overlay","transparent":true,"pages":[{"shapes":[%s,%s]}]}]}`, shapeJSON, shapeJSON),
		"repeated board":  `{"version":1,"boards":[{"id":"a","pages":[]},{"id":"a","pages":[]}]}`,
		"pressure length": `{"version":1,"boards":[{"id":"overlay","pages":[{"shapes":[{"id":1,"kind":"stroke","data":{"points":[{"x":0,"y":0}],"pressure":[0.1,0.2]}}]}]}]}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Decode([]byte(data), 100, DefaultOptions())
			assert.ErrorIs(t, err, ErrCorrupt)
			assert.Nil(t, s)
		})
	}
}

func TestUntrustedHistoryIsDropped(t *testing.T) {
	line := json.RawMessage(`{"from":{"x":0,"y":0},"to":{"x":1,"y":1},"color":{"r":1,"g":0,"b":0,"a":1},"thickness":2}`)
	sd := shapeDoc{ID: 1, Kind: "line", Data: line}
	deep := actionDoc{Op: "add", Shape: &sd}
	for range 20 {
		deep = actionDoc{Op: "batch", Actions: []actionDoc{deep}}
	}
	doc := fileDoc{
		Version: Version,
		Boards: []boardDoc{{
			ID:          board.OverlayID,
			Transparent: true,
			Pages: []pageDoc{{
				Shapes: []shapeDoc{sd},
				Undo: []actionDoc{
					{Op: "add", Index: 0, Shape: &sd},
					{Op: "modify", ID: 99, Before: &snapshotDoc{Kind: "line", Data: line}, After: &snapshotDoc{Kind: "line", Data: line}},
					{Op: "teleport"},
					deep,
				},
			}},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	s, err := Decode(data, 100, DefaultOptions())
	require.NoError(t, err)
	f := s.Boards[0].Pages[0]
	assert.Equal(t, 1, f.Len())
	require.Len(t, f.UndoStack(), 1)
	assert.IsType(t, frame.Add{}, f.UndoStack()[0])
}
