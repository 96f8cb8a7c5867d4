package shape

import (
	"math"

	"sketchover/internal/geom"
)

// Fragment is one surviving piece of a partially erased polyline.
type Fragment struct {
	Points   []geom.Point
	Pressure []float64
}

// minFragmentLength drops slivers left at the edge of the brush.
const minFragmentLength = 0.5

// ErasePolyline removes from pts everything within radius of the eraser
// segment a-b and returns the surviving pieces. Points exactly on the
// brush edge survive. hit is false when the eraser did not touch the
// polyline, in which case frags is nil. A hit with no fragments means the
// polyline was erased completely.
//
// Cut points take the pressure of the nearer original sample.
func ErasePolyline(pts []geom.Point, pressure []float64, a, b geom.Point, radius float64) (frags []Fragment, hit bool) {
	if len(pts) == 0 {
		return nil, false
	}
	reach := geom.RectFromPoints(a, b).Inset(radius)
	if r, _ := geom.BoundsOf(pts); !r.Intersects(reach) {
		return nil, false
	}
	inside := func(p geom.Point) bool { return geom.DistToSegment(p, a, b) < radius }
	if len(pts) == 1 {
		if inside(pts[0]) {
			return nil, true
		}
		return nil, false
	}

	pr := func(i int) float64 {
		if pressure == nil {
			return 0
		}
		return pressure[i]
	}
	var cur Fragment
	add := func(p geom.Point, v float64) {
		cur.Points = append(cur.Points, p)
		if pressure != nil {
			cur.Pressure = append(cur.Pressure, v)
		}
	}
	emit := func() {
		if polylineLength(cur.Points) >= minFragmentLength {
			frags = append(frags, cur)
		}
		cur = Fragment{}
	}

	if !inside(pts[0]) {
		add(pts[0], pr(0))
	}
	for i := 0; i+1 < len(pts); i++ {
		p, q := pts[i], pts[i+1]
		var t0, t1 float64
		ok := geom.RectFromPoints(p, q).Intersects(reach)
		if ok {
			t0, t1, ok = capsuleInterval(p, q, a, b, radius)
		}
		if !ok {
			if len(cur.Points) == 0 {
				add(p, pr(i))
			}
			add(q, pr(i+1))
			continue
		}
		hit = true
		near := func(t float64) float64 {
			if t < 0.5 {
				return pr(i)
			}
			return pr(i + 1)
		}
		if t0 > 0 {
			if len(cur.Points) == 0 {
				add(p, pr(i))
			}
			add(p.Lerp(q, t0), near(t0))
		}
		emit()
		if t1 < 1 {
			add(p.Lerp(q, t1), near(t1))
			add(q, pr(i+1))
		}
	}
	if !hit {
		return nil, false
	}
	emit()
	return frags, true
}

// capsuleInterval returns the parameter range of segment p-q lying within
// radius of segment a-b. The distance is convex along p-q, so the range is
// a single interval found by ternary search for the minimum followed by a
// bisection on each side.
func capsuleInterval(p, q, a, b geom.Point, radius float64) (float64, float64, bool) {
	f := func(t float64) float64 { return geom.DistToSegment(p.Lerp(q, t), a, b) }
	if p.Eq(q) {
		if f(0) < radius {
			return 0, 1, true
		}
		return 0, 0, false
	}

	lo, hi := 0.0, 1.0
	for i := 0; i < 60; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if f(m1) <= f(m2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	tMin := (lo + hi) / 2
	// Grazing the brush edge is not a cut.
	if f(tMin) >= radius-1e-9 {
		return 0, 0, false
	}

	t0 := 0.0
	if f(0) > radius {
		lo, hi := 0.0, tMin
		for i := 0; i < 50; i++ {
			mid := (lo + hi) / 2
			if f(mid) > radius {
				lo = mid
			} else {
				hi = mid
			}
		}
		t0 = hi
	}
	t1 := 1.0
	if f(1) > radius {
		lo, hi := tMin, 1.0
		for i := 0; i < 50; i++ {
			mid := (lo + hi) / 2
			if f(mid) > radius {
				hi = mid
			} else {
				lo = mid
			}
		}
		t1 = lo
	}
	return t0, t1, true
}

func polylineLength(pts []geom.Point) float64 {
	var l float64
	for i := 0; i+1 < len(pts); i++ {
		l += pts[i].Distance(pts[i+1])
	}
	return l
}

// SimplifyStroke reduces a freehand polyline, keeping pressure samples
// aligned with the retained points.
func SimplifyStroke(pts []geom.Point, pressure []float64, epsilon float64) ([]geom.Point, []float64) {
	idx := geom.Simplify(pts, epsilon)
	outPts := make([]geom.Point, len(idx))
	var outPr []float64
	if pressure != nil {
		outPr = make([]float64, len(idx))
	}
	for i, j := range idx {
		outPts[i] = pts[j]
		if pressure != nil {
			outPr[i] = pressure[j]
		}
	}
	return outPts, outPr
}

// ClampPressure bounds a pressure sample to [0, 1]. NaN reads as full
// pressure.
func ClampPressure(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Max(0, math.Min(1, v))
}
