package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchover/internal/geom"
)

func hline(x0, x1, step float64) []geom.Point {
	var pts []geom.Point
	for x := x0; x <= x1; x += step {
		pts = append(pts, geom.Pt(x, 0))
	}
	return pts
}

func TestLineHitTolerance(t *testing.T) {
	l := Line{From: geom.Pt(0, 0), To: geom.Pt(100, 0), Color: Red, Thickness: 2}
	assert.True(t, HitTest(l, geom.Pt(50, 5), DefaultTolerance, nil))
	assert.False(t, HitTest(l, geom.Pt(50, 10), DefaultTolerance, nil))
}

func TestThickStrokeWidensHitArea(t *testing.T) {
	s := Stroke{Points: hline(0, 100, 10), Thickness: 30}
	assert.True(t, HitTest(s, geom.Pt(50, 14), DefaultTolerance, nil))
	assert.False(t, HitTest(s, geom.Pt(50, 16), DefaultTolerance, nil))
}

func TestRectOutlineAndFill(t *testing.T) {
	r := Rect{Min: geom.Pt(0, 0), Max: geom.Pt(100, 100), Thickness: 2}
	assert.True(t, HitTest(r, geom.Pt(0, 50), DefaultTolerance, nil))
	assert.False(t, HitTest(r, geom.Pt(50, 50), DefaultTolerance, nil))

	r.Fill = true
	assert.True(t, HitTest(r, geom.Pt(50, 50), DefaultTolerance, nil))
	assert.False(t, HitTest(r, geom.Pt(150, 50), DefaultTolerance, nil))
}

func TestEllipseRing(t *testing.T) {
	e := Ellipse{Center: geom.Pt(0, 0), RX: 50, RY: 30, Thickness: 2}
	assert.True(t, HitTest(e, geom.Pt(50, 0), DefaultTolerance, nil))
	assert.True(t, HitTest(e, geom.Pt(0, -33), DefaultTolerance, nil))
	assert.False(t, HitTest(e, geom.Pt(0, 0), DefaultTolerance, nil))
	assert.False(t, HitTest(e, geom.Pt(70, 0), DefaultTolerance, nil))
}

func TestArrowHeadHit(t *testing.T) {
	a := Arrow{From: geom.Pt(0, 0), To: geom.Pt(100, 0), Thickness: 2, HeadLength: 20, HeadAngle: 30, HeadAtEnd: true}
	w1, w2 := a.Head()
	assert.InDelta(t, 100-20*0.866, w1.X, 0.01)
	assert.InDelta(t, 10, absf(w1.Y), 0.01)
	assert.InDelta(t, -w1.Y, w2.Y, 0.01)
	assert.True(t, HitTest(a, geom.Pt(95, 1), 1, nil))
	assert.True(t, HitTest(a, a.Tip().Lerp(w2, 0.5), 1, nil))
	assert.False(t, HitTest(a, geom.Pt(50, 20), DefaultTolerance, nil))
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestStepMarkerAndText(t *testing.T) {
	m := StepMarker{Center: geom.Pt(10, 10), Value: 1, Size: 20}
	assert.True(t, HitTest(m, geom.Pt(25, 10), DefaultTolerance, nil))
	assert.False(t, HitTest(m, geom.Pt(50, 10), DefaultTolerance, nil))

	txt := Text{Pos: geom.Pt(0, 0), Text: "hello", Font: FontDescriptor{Size: 10}}
	b := Bounds(txt, ApproxMeasurer{})
	assert.InDelta(t, 30, b.Dx(), 1e-9)
	assert.InDelta(t, 12.5, b.Dy(), 1e-9)
	assert.True(t, HitTest(txt, geom.Pt(15, 5), DefaultTolerance, nil))
}

func TestGridMatchesLinearScan(t *testing.T) {
	var pts []geom.Point
	for i := 0; i < 1000; i++ {
		pts = append(pts, geom.Pt(float64(i), float64(i%7)*3))
	}
	s := Stroke{Points: pts, Thickness: 2}
	require.True(t, NeedsIndex(s))
	g := NewSegmentGrid(pts, 32)
	for _, p := range []geom.Point{geom.Pt(500, 5), geom.Pt(500, 40), geom.Pt(-10, 0), geom.Pt(999, 18)} {
		assert.Equal(t, HitTest(s, p, DefaultTolerance, nil), HitTestIndexed(s, p, DefaultTolerance, nil, g), "point %v", p)
	}
}

func TestIntersectsRect(t *testing.T) {
	s := Stroke{Points: hline(0, 100, 10), Thickness: 2}
	assert.True(t, IntersectsRect(s, geom.R(40, -5, 60, 5), nil))
	assert.False(t, IntersectsRect(s, geom.R(40, 10, 60, 20), nil))
}

func TestDegenerate(t *testing.T) {
	assert.True(t, Degenerate(Rect{Min: geom.Pt(5, 5), Max: geom.Pt(5, 5)}))
	assert.True(t, Degenerate(Line{From: geom.Pt(1, 1), To: geom.Pt(1, 1)}))
	assert.True(t, Degenerate(Stroke{Points: []geom.Point{geom.Pt(1, 1), geom.Pt(1, 1)}}))
	assert.True(t, Degenerate(Text{Text: "  "}))
	assert.False(t, Degenerate(Ellipse{RX: 3, RY: 4}))
	assert.False(t, Degenerate(StepMarker{Value: 1}))
}

func TestTranslateDoesNotAlias(t *testing.T) {
	s := Stroke{Points: []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)}}
	moved := Translate(s, geom.Pt(10, 0)).(Stroke)
	assert.Equal(t, geom.Pt(10, 0), moved.Points[0])
	assert.Equal(t, geom.Pt(0, 0), s.Points[0])
}

func TestScaleRectStaysNormalized(t *testing.T) {
	r := Rect{Min: geom.Pt(0, 0), Max: geom.Pt(10, 10)}
	got := Scale(r, geom.Pt(10, 10), -1, 2).(Rect)
	assert.Equal(t, geom.Pt(10, -10), got.Min)
	assert.Equal(t, geom.Pt(20, 10), got.Max)
}

func TestBrushEraseSplitsStroke(t *testing.T) {
	pts := hline(0, 100, 10)
	frags, hit := ErasePolyline(pts, nil, geom.Pt(40, 0), geom.Pt(60, 0), 2)
	require.True(t, hit)
	require.Len(t, frags, 2)

	left, right := frags[0].Points, frags[1].Points
	assert.InDelta(t, 0, left[0].X, 1e-6)
	assert.InDelta(t, 38, left[len(left)-1].X, 1e-6)
	assert.InDelta(t, 62, right[0].X, 1e-6)
	assert.InDelta(t, 100, right[len(right)-1].X, 1e-6)
}

func TestBrushEraseWholeStroke(t *testing.T) {
	pts := hline(0, 100, 10)
	frags, hit := ErasePolyline(pts, nil, geom.Pt(-10, 0), geom.Pt(110, 0), 2)
	assert.True(t, hit)
	assert.Empty(t, frags)
}

func TestBrushEraseMiss(t *testing.T) {
	frags, hit := ErasePolyline(hline(0, 100, 10), nil, geom.Pt(50, 30), geom.Pt(60, 30), 2)
	assert.False(t, hit)
	assert.Nil(t, frags)
}

func TestBrushErasePressure(t *testing.T) {
	pts := hline(0, 100, 10)
	pr := make([]float64, len(pts))
	for i := range pr {
		pr[i] = float64(i) / 10
	}
	frags, hit := ErasePolyline(pts, pr, geom.Pt(45, 0), geom.Pt(45, 0), 3)
	require.True(t, hit)
	require.Len(t, frags, 2)
	require.Len(t, frags[0].Pressure, len(frags[0].Points))
	// cut at x=42 is nearest the sample at x=40
	assert.InDelta(t, 0.4, frags[0].Pressure[len(frags[0].Pressure)-1], 1e-9)
	// cut at x=48 is nearest the sample at x=50
	assert.InDelta(t, 0.5, frags[1].Pressure[0], 1e-9)
}

func TestSimplifyStrokeKeepsPressureAligned(t *testing.T) {
	pts := hline(0, 100, 1)
	pr := make([]float64, len(pts))
	pr[len(pr)-1] = 0.7
	outPts, outPr := SimplifyStroke(pts, pr, 0.5)
	require.Len(t, outPts, 2)
	assert.Equal(t, []float64{0, 0.7}, outPr)
}

func TestColorHexRoundTrip(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, "#ff8000", c.Hex())
	assert.Equal(t, Black, White.Contrast())
	assert.Equal(t, White, Black.Contrast())

	_, err = ParseHex("nope")
	assert.Error(t, err)
}

func TestLayoutWraps(t *testing.T) {
	l := ApproxMeasurer{}.Measure(FontDescriptor{Size: 10}, "aaaa bbbb cccc", 40)
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, l.Lines)
	l = ApproxMeasurer{}.Measure(FontDescriptor{Size: 10}, "one\ntwo", 0)
	assert.Equal(t, []string{"one", "two"}, l.Lines)
}
