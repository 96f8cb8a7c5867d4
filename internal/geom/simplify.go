package geom

// Simplify reduces a polyline with the Ramer-Douglas-Peucker algorithm and
// returns the indices of the retained points in ascending order. The first
// and last points are always kept. No removed point lies farther than
// epsilon from the simplified line.
func Simplify(points []Point, epsilon float64) []int {
	n := len(points)
	if n <= 2 || epsilon <= 0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	// Explicit stack; long freehand strokes would otherwise recurse deeply.
	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		maxDist, maxIdx := -1.0, -1
		for i := s.lo + 1; i < s.hi; i++ {
			d := DistToSegment(points[i], points[s.lo], points[s.hi])
			if d > maxDist {
				maxDist, maxIdx = d, i
			}
		}
		if maxDist > epsilon {
			keep[maxIdx] = true
			stack = append(stack, span{s.lo, maxIdx}, span{maxIdx, s.hi})
		}
	}

	out := make([]int, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, i)
		}
	}
	return out
}
