package shape

import (
	"math"

	"sketchover/internal/geom"
)

// DefaultTolerance is the hit-test slop, in canvas pixels, for thin shapes.
const DefaultTolerance = 6.0

// LinearScanThreshold is the point count above which freehand strokes are
// hit-tested through a SegmentGrid rather than by scanning every segment.
const LinearScanThreshold = 400

// NeedsIndex reports whether s is large enough to benefit from a grid.
func NeedsIndex(s Shape) bool {
	return len(polyline(s)) > LinearScanThreshold
}

// HitTest reports whether p lands on s. Thin geometry is padded by
// max(tol, thickness/2).
func HitTest(s Shape, p geom.Point, tol float64, m TextMeasurer) bool {
	return HitTestIndexed(s, p, tol, m, nil)
}

// HitTestIndexed is HitTest with an optional segment grid built from the
// points of a freehand shape.
func HitTestIndexed(s Shape, p geom.Point, tol float64, m TextMeasurer, g *SegmentGrid) bool {
	switch v := s.(type) {
	case Stroke:
		return hitPolyline(v.Points, p, pad(tol, v.Thickness), g)
	case Marker:
		return hitPolyline(v.Points, p, pad(tol, v.Thickness), g)
	case Line:
		return geom.DistToSegment(p, v.From, v.To) <= pad(tol, v.Thickness)
	case Rect:
		padded := pad(tol, v.Thickness)
		r := geom.Rect{Min: v.Min, Max: v.Max}
		if v.Fill {
			return r.Inset(padded).Contains(p)
		}
		return hitRectOutline(r, p, padded)
	case Ellipse:
		return hitEllipse(v, p, pad(tol, v.Thickness))
	case Arrow:
		padded := pad(tol, v.Thickness)
		if geom.DistToSegment(p, v.From, v.To) <= padded {
			return true
		}
		w1, w2 := v.Head()
		tip := v.Tip()
		if geom.InTriangle(p, tip, w1, w2) ||
			geom.DistToSegment(p, tip, w1) <= padded ||
			geom.DistToSegment(p, tip, w2) <= padded {
			return true
		}
		if c, r := v.LabelCenter(); r > 0 && p.Distance(c) <= r+tol {
			return true
		}
		return false
	case Text, StickyNote:
		return Bounds(s, m).Inset(tol).Contains(p)
	case StepMarker:
		return p.Distance(v.Center) <= v.Radius()+tol
	}
	return false
}

// IntersectsRect reports whether s touches the selection rectangle r.
func IntersectsRect(s Shape, r geom.Rect, m TextMeasurer) bool {
	switch v := s.(type) {
	case Stroke:
		return polylineInRect(v.Points, r)
	case Marker:
		return polylineInRect(v.Points, r)
	case Line:
		return geom.SegmentIntersectsRect(v.From, v.To, r)
	case Arrow:
		return geom.SegmentIntersectsRect(v.From, v.To, r)
	}
	return Bounds(s, m).Intersects(r)
}

func pad(tol, thickness float64) float64 {
	return math.Max(tol, thickness/2)
}

func polyline(s Shape) []geom.Point {
	switch v := s.(type) {
	case Stroke:
		return v.Points
	case Marker:
		return v.Points
	}
	return nil
}

func hitPolyline(pts []geom.Point, p geom.Point, padded float64, g *SegmentGrid) bool {
	switch len(pts) {
	case 0:
		return false
	case 1:
		return p.Distance(pts[0]) <= padded
	}
	if g != nil {
		for _, i := range g.Near(p, padded) {
			if geom.DistToSegment(p, pts[i], pts[i+1]) <= padded {
				return true
			}
		}
		return false
	}
	for i := 0; i+1 < len(pts); i++ {
		if geom.DistToSegment(p, pts[i], pts[i+1]) <= padded {
			return true
		}
	}
	return false
}

func hitRectOutline(r geom.Rect, p geom.Point, padded float64) bool {
	tl, tr := r.Min, geom.Pt(r.Max.X, r.Min.Y)
	bl, br := geom.Pt(r.Min.X, r.Max.Y), r.Max
	return geom.DistToSegment(p, tl, tr) <= padded ||
		geom.DistToSegment(p, tr, br) <= padded ||
		geom.DistToSegment(p, br, bl) <= padded ||
		geom.DistToSegment(p, bl, tl) <= padded
}

func hitEllipse(e Ellipse, p geom.Point, padded float64) bool {
	d := p.Sub(e.Center)
	inside := func(rx, ry float64) bool {
		if rx <= 0 || ry <= 0 {
			return false
		}
		return (d.X*d.X)/(rx*rx)+(d.Y*d.Y)/(ry*ry) <= 1
	}
	if !inside(e.RX+padded, e.RY+padded) {
		return false
	}
	if e.Fill {
		return true
	}
	return !inside(e.RX-padded, e.RY-padded)
}

func polylineInRect(pts []geom.Point, r geom.Rect) bool {
	if len(pts) == 1 {
		return r.Contains(pts[0])
	}
	for i := 0; i+1 < len(pts); i++ {
		if geom.SegmentIntersectsRect(pts[i], pts[i+1], r) {
			return true
		}
	}
	return false
}

type cellKey struct{ x, y int }

// SegmentGrid buckets the segments of a polyline into square cells so a
// hit query only visits segments near the query point.
type SegmentGrid struct {
	cell  float64
	cells map[cellKey][]int
}

// NewSegmentGrid indexes the segments of pts. Segment i joins pts[i] and
// pts[i+1].
func NewSegmentGrid(pts []geom.Point, cell float64) *SegmentGrid {
	if cell <= 0 {
		cell = 32
	}
	g := &SegmentGrid{cell: cell, cells: make(map[cellKey][]int)}
	for i := 0; i+1 < len(pts); i++ {
		r := geom.RectFromPoints(pts[i], pts[i+1])
		x0, y0 := g.key(r.Min)
		x1, y1 := g.key(r.Max)
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				k := cellKey{x, y}
				g.cells[k] = append(g.cells[k], i)
			}
		}
	}
	return g
}

// Near returns the segments whose cells overlap the square of the given
// radius around p. Each segment appears at most once.
func (g *SegmentGrid) Near(p geom.Point, radius float64) []int {
	x0, y0 := g.key(geom.Pt(p.X-radius, p.Y-radius))
	x1, y1 := g.key(geom.Pt(p.X+radius, p.Y+radius))
	seen := make(map[int]struct{})
	var out []int
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for _, i := range g.cells[cellKey{x, y}] {
				if _, ok := seen[i]; ok {
					continue
				}
				seen[i] = struct{}{}
				out = append(out, i)
			}
		}
	}
	return out
}

func (g *SegmentGrid) key(p geom.Point) (int, int) {
	return int(math.Floor(p.X / g.cell)), int(math.Floor(p.Y / g.cell))
}
