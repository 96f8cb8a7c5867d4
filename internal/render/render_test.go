package render

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/board"
	"sketchover/internal/frame"
	"sketchover/internal/geom"
	"sketchover/internal/input"
	"sketchover/internal/shape"
)

func newFonts(t *testing.T) *Fonts {
	t.Helper()
	f, err := NewFonts()
	require.NoError(t, err)
	return f
}

func snapshotOf(spec board.Spec, shapes ...shape.Shape) input.Snapshot {
	snap := input.Snapshot{Board: spec, BoardCount: 3, PageCount: 1, Tools: input.DefaultToolState()}
	for i, s := range shapes {
		snap.Shapes = append(snap.Shapes, frame.DrawnShape{ID: frame.ShapeID(i + 1), Shape: s})
	}
	return snap
}

func rgba(img image.Image, x, y int) (r, g, b, a uint32) {
	return img.At(x, y).RGBA()
}

func TestFontsMeasure(t *testing.T) {
	f := newFonts(t)
	fd := shape.FontDescriptor{Size: 20}

	short := f.Measure(fd, "ab", 0)
	long := f.Measure(fd, "abcd", 0)
	assert.Greater(t, long.Width, short.Width)
	assert.InDelta(t, 25, short.LineHeight, 1e-9)
	assert.Len(t, short.Lines, 1)

	wrapped := f.Measure(fd, "alpha beta gamma", long.Width*1.5)
	assert.Greater(t, len(wrapped.Lines), 1)
	for _, line := range wrapped.Lines {
		assert.LessOrEqual(t, f.Measure(fd, line, 0).Width, long.Width*1.5)
	}

	lines := f.Measure(fd, "a\nb\nc", 0)
	assert.Len(t, lines.Lines, 3)
	assert.InDelta(t, 75, lines.Height, 1e-9)
}

func TestFontsCacheFaces(t *testing.T) {
	f := newFonts(t)
	a := f.Face(shape.FontDescriptor{Size: 12})
	b := f.Face(shape.FontDescriptor{Family: "monospace", Size: 12})
	c := f.Face(shape.FontDescriptor{Size: 12, Bold: true})
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestRasterizeFilledRect(t *testing.T) {
	snap := snapshotOf(board.DefaultSpecs()[1], shape.Rect{
		Min: geom.Pt(10, 10), Max: geom.Pt(50, 50), Color: shape.Red, Thickness: 2, Fill: true,
	})
	snap.Viewport = geom.Pt(100, 100)

	img, err := Rasterize(snap, newFonts(t), ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	r, g, _, a := rgba(img, 30, 30)
	assert.Greater(t, r, uint32(0xf000))
	assert.Less(t, g, uint32(0x1000))
	assert.Equal(t, uint32(0xffff), a)

	r, g, _, _ = rgba(img, 80, 80)
	assert.Greater(t, r, uint32(0xf000), "whiteboard background")
	assert.Greater(t, g, uint32(0xf000))
}

func TestRasterizeOverlayIsTransparent(t *testing.T) {
	snap := snapshotOf(board.DefaultSpecs()[0], shape.Line{
		From: geom.Pt(0, 20), To: geom.Pt(100, 20), Color: shape.Blue, Thickness: 4,
	})
	snap.Viewport = geom.Pt(100, 40)

	img, err := Rasterize(snap, newFonts(t), ImageOptions{})
	require.NoError(t, err)
	_, _, _, a := rgba(img, 50, 5)
	assert.Zero(t, a)
	_, _, b, a := rgba(img, 50, 20)
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, b, uint32(0xf000))
}

func TestRasterizeSizesFromContent(t *testing.T) {
	snap := snapshotOf(board.DefaultSpecs()[1], shape.Rect{
		Min: geom.Pt(100, 100), Max: geom.Pt(200, 150), Color: shape.Black, Fill: true,
	})
	img, err := Rasterize(snap, newFonts(t), ImageOptions{Padding: 10})
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 70, img.Bounds().Dy())

	r, _, _, _ := rgba(img, 60, 35)
	assert.Less(t, r, uint32(0x1000), "content is translated into the image")
}

func TestRasterizeNothingToExport(t *testing.T) {
	_, err := Rasterize(snapshotOf(board.DefaultSpecs()[0]), newFonts(t), ImageOptions{})
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestRasterizeAllKinds(t *testing.T) {
	snap := snapshotOf(board.DefaultSpecs()[2],
		shape.Stroke{Points: []geom.Point{{X: 5, Y: 5}, {X: 40, Y: 40}}, Pressure: []float64{0.2, 1}, Color: shape.White, Thickness: 4},
		shape.Marker{Points: []geom.Point{{X: 5, Y: 60}, {X: 90, Y: 60}}, Color: shape.Yellow, Thickness: 12, Opacity: 0.3},
		shape.Ellipse{Center: geom.Pt(150, 50), RX: 30, RY: 20, Color: shape.Green, Thickness: 2},
		shape.Arrow{From: geom.Pt(10, 120), To: geom.Pt(120, 120), Color: shape.Red, Thickness: 3, HeadLength: 15, HeadAngle: 30, HeadAtEnd: true, Label: &shape.Label{Value: 2, Size: 14}},
		shape.Text{Pos: geom.Pt(10, 150), Text: "hello", Color: shape.White, Font: shape.FontDescriptor{Size: 18}, Background: true},
		shape.StickyNote{Pos: geom.Pt(200, 100), Text: "note", Color: shape.Yellow, Font: shape.FontDescriptor{Size: 16}},
		shape.StepMarker{Center: geom.Pt(250, 30), Value: 3, Size: 16, Color: shape.Blue},
	)
	snap.Viewport = geom.Pt(400, 240)
	snap.Selection = geom.R(5, 5, 40, 40)
	snap.Handles = []geom.Point{{X: 5, Y: 5}, {X: 40, Y: 40}}
	snap.Toast = "Saved"

	img, err := Rasterize(snap, newFonts(t), ImageOptions{UI: true})
	require.NoError(t, err)

	// sticky note card body
	r, g, b, _ := rgba(img, 200+int(shape.NoteMinWidth)-10, 100+int(shape.NoteMinHeight)-10)
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xe000))
	assert.Less(t, b, uint32(0x1000))
}

func TestSavePNG(t *testing.T) {
	snap := snapshotOf(board.DefaultSpecs()[1], shape.Line{From: geom.Pt(0, 0), To: geom.Pt(10, 10), Color: shape.Black, Thickness: 2})
	snap.Viewport = geom.Pt(20, 20)
	path := t.TempDir() + "/out.png"
	require.NoError(t, SavePNG(path, snap, newFonts(t), ImageOptions{}))
	assert.FileExists(t, path)
}

func TestTerminalRender(t *testing.T) {
	term := NewTerminal(shape.ApproxMeasurer{})
	snap := snapshotOf(board.DefaultSpecs()[0],
		shape.Rect{Min: geom.Pt(0, 0), Max: geom.Pt(80, 48), Color: shape.Red, Thickness: 2},
		shape.Text{Pos: geom.Pt(16, 32), Text: "hi", Color: shape.White, Font: shape.FontDescriptor{Size: 16}},
	)
	snap.Toast = "Page 1/1"

	out := term.Render(snap, 80, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, lines[0], "┌")
	assert.Contains(t, lines[0], "┐")
	assert.Contains(t, lines[3], "└")
	assert.Contains(t, lines[2], "hi")
	assert.Contains(t, lines[9], "page 1/1")
	assert.Contains(t, lines[9], "Page 1/1")
}

func TestTerminalRenderMenu(t *testing.T) {
	term := NewTerminal(shape.ApproxMeasurer{})
	snap := snapshotOf(board.DefaultSpecs()[0])
	snap.Menu = &input.Menu{
		Pos:   geom.Pt(0, 0),
		Items: []input.MenuItem{{Label: "Undo", Shortcut: "Ctrl+Z"}, {Label: "Redo", Disabled: true}},
		Focus: 0,
	}
	out := term.Render(snap, 60, 12)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "Undo")
	assert.Contains(t, lines[0], "Ctrl+Z")
	assert.Contains(t, lines[2], "Redo")
}

func TestTerminalCoordinates(t *testing.T) {
	term := NewTerminal(nil)
	assert.Equal(t, geom.Pt(4, 8), term.ToCanvas(0, 0))
	assert.Equal(t, geom.Pt(84, 40), term.ToCanvas(10, 2))
	assert.Equal(t, geom.Pt(640, 384), term.Viewport(80, 24))
}

func TestLineGlyph(t *testing.T) {
	assert.Equal(t, '─', lineGlyph(geom.Pt(10, 0), 0.5))
	assert.Equal(t, '│', lineGlyph(geom.Pt(0, 10), 0.5))
	assert.Equal(t, '╲', lineGlyph(geom.Pt(10, 20), 0.5))
	assert.Equal(t, '╱', lineGlyph(geom.Pt(-10, 20), 0.5))
}
