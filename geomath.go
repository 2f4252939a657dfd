package crnqa

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// onSegmentEps bounds the collinearity slack for point-on-segment tests.
// Wide enough to absorb floating point error of intersection points on
// projected meter coordinates, narrow enough to stay far below the cluster
// tolerance.
const onSegmentEps = 1e-6

// roundCoord rounds a single coordinate value to the given decimal precision.
func roundCoord(v float64, precision int) float64 {
	pow := math.Pow(10, float64(precision))
	return math.Round(v*pow) / pow
}

// roundPoint rounds both coordinates of a point.
func roundPoint(pt orb.Point, precision int) orb.Point {
	return orb.Point{roundCoord(pt[0], precision), roundCoord(pt[1], precision)}
}

// roundLine rounds every vertex of a line. Returns a new line.
func roundLine(line orb.LineString, precision int) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, pt := range line {
		out[i] = roundPoint(pt, precision)
	}
	return out
}

// explodeGeometry splits a multi-part line geometry into its single parts.
// Single-part and non-linear geometries come back as a one-element slice.
func explodeGeometry(g orb.Geometry) []orb.Geometry {
	multi, ok := g.(orb.MultiLineString)
	if !ok {
		return []orb.Geometry{g}
	}
	parts := make([]orb.Geometry, len(multi))
	for i, part := range multi {
		parts[i] = orb.LineString(part)
	}
	return parts
}

// vertexPair is one pair of consecutive vertices within an arc.
type vertexPair [2]orb.Point

func pointLess(a, b orb.Point) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// orderedPairs returns the sorted sequence of consecutive vertex pairs of a
// line.
func orderedPairs(line orb.LineString) []vertexPair {
	if len(line) < 2 {
		return nil
	}
	pairs := make([]vertexPair, len(line)-1)
	for i := 1; i < len(line); i++ {
		pairs[i-1] = vertexPair{line[i-1], line[i]}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pointLess(pairs[i][0], pairs[j][0])
		}
		return pointLess(pairs[i][1], pairs[j][1])
	})
	return pairs
}

// lineLength returns the planar length of a geometry.
func lineLength(g orb.Geometry) float64 {
	return planar.Length(g)
}

// segmentIntersection checks whether two segments intersect in a single
// point and returns that point.
// p1, p2 - first segment
// p3, p4 - second segment
// Collinear (parallel) segments yield no intersection point.
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	r := orb.Point{p2[0] - p1[0], p2[1] - p1[1]}
	s := orb.Point{p4[0] - p3[0], p4[1] - p3[1]}
	denom := r[0]*s[1] - r[1]*s[0]
	if denom == 0 {
		return orb.Point{}, false
	}
	d := orb.Point{p3[0] - p1[0], p3[1] - p1[1]}
	t := (d[0]*s[1] - d[1]*s[0]) / denom
	u := (d[0]*r[1] - d[1]*r[0]) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return orb.Point{}, false
	}
	return orb.Point{p1[0] + t*r[0], p1[1] + t*r[1]}, true
}

// lineCrossings returns every point where the interiors of two lines
// properly cross. Contact limited to the endpoints of either line is not a
// crossing; neither is collinear overlap.
func lineCrossings(a, b orb.LineString) []orb.Point {
	if len(a) < 2 || len(b) < 2 {
		return nil
	}
	var pts []orb.Point
	seen := make(map[orb.Point]struct{})
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			pt, ok := segmentIntersection(a[i-1], a[i], b[j-1], b[j])
			if !ok {
				continue
			}
			if pt == a[0] || pt == a[len(a)-1] || pt == b[0] || pt == b[len(b)-1] {
				continue
			}
			if _, dup := seen[pt]; dup {
				continue
			}
			seen[pt] = struct{}{}
			pts = append(pts, pt)
		}
	}
	return pts
}

// pointOnSegment reports whether pt lies on the segment [a, b] and returns
// the position parameter along it.
func pointOnSegment(pt, a, b orb.Point) (float64, bool) {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := pt[0]-a[0], pt[1]-a[1]
	segLen2 := abx*abx + aby*aby
	if segLen2 == 0 {
		return 0, pt == a
	}
	cross := abx*apy - aby*apx
	if math.Abs(cross)/math.Sqrt(segLen2) > onSegmentEps {
		return 0, false
	}
	t := (apx*abx + apy*aby) / segLen2
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// splitLineAt cuts a line at every given point. Points not lying on the
// line are ignored. Returns the resulting parts in walk order; a line with
// no applicable cut points comes back whole.
func splitLineAt(line orb.LineString, pts []orb.Point) []orb.LineString {
	if len(line) < 2 || len(pts) == 0 {
		return []orb.LineString{line}
	}
	isCut := make(map[orb.Point]struct{}, len(pts))
	for _, pt := range pts {
		isCut[pt] = struct{}{}
	}
	var parts []orb.LineString
	current := orb.LineString{line[0]}
	for i := 1; i < len(line); i++ {
		segStart, segEnd := line[i-1], line[i]

		// Order the cut points lying on this segment.
		type cut struct {
			t  float64
			pt orb.Point
		}
		var cuts []cut
		for _, pt := range pts {
			if pt == segStart || pt == segEnd {
				continue
			}
			if t, on := pointOnSegment(pt, segStart, segEnd); on {
				cuts = append(cuts, cut{t, pt})
			}
		}
		sort.Slice(cuts, func(x, y int) bool { return cuts[x].t < cuts[y].t })

		for _, c := range cuts {
			current = append(current, c.pt)
			parts = append(parts, current)
			current = orb.LineString{c.pt}
		}
		current = append(current, segEnd)

		// An interior vertex may itself be a cut point.
		if i < len(line)-1 {
			if _, ok := isCut[segEnd]; ok {
				parts = append(parts, current)
				current = orb.LineString{segEnd}
			}
		}
	}
	parts = append(parts, current)
	return parts
}

// linesEqual reports exact geometric equality of two lines, walked in
// either direction.
func linesEqual(a, b orb.LineString) bool {
	if len(a) != len(b) {
		return false
	}
	forward, reverse := true, true
	n := len(a)
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			forward = false
		}
		if a[i] != b[n-1-i] {
			reverse = false
		}
		if !forward && !reverse {
			return false
		}
	}
	return forward || reverse
}

// linesOverlap reports whether two lines partially coincide: they share a
// collinear portion of positive length without either line covering the
// other. Independently digitized arcs rarely share vertices, so coincidence
// is measured geometrically, not vertex-exact.
func linesOverlap(a, b orb.LineString) bool {
	shared := sharedCollinearLength(a, b)
	if shared <= onSegmentEps {
		return false
	}
	// Full coverage either way is duplication or containment, not overlap.
	if shared >= lineLength(a)-onSegmentEps || shared >= lineLength(b)-onSegmentEps {
		return false
	}
	return true
}

// sharedCollinearLength returns the total length of the collinear portion
// of a covered by segments of b. Coincident intervals on one segment are
// merged before summing, so stacked b segments are not counted twice.
func sharedCollinearLength(a, b orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(a); i++ {
		segStart, segEnd := a[i-1], a[i]
		segLen := euclideanDistance(segStart, segEnd)
		if segLen == 0 {
			continue
		}
		var intervals [][2]float64
		for j := 1; j < len(b); j++ {
			lo, hi, ok := collinearInterval(segStart, segEnd, b[j-1], b[j])
			if ok {
				intervals = append(intervals, [2]float64{lo, hi})
			}
		}
		if len(intervals) == 0 {
			continue
		}
		sort.Slice(intervals, func(x, y int) bool { return intervals[x][0] < intervals[y][0] })
		curLo, curHi := intervals[0][0], intervals[0][1]
		for _, iv := range intervals[1:] {
			if iv[0] > curHi {
				total += (curHi - curLo) * segLen
				curLo, curHi = iv[0], iv[1]
				continue
			}
			if iv[1] > curHi {
				curHi = iv[1]
			}
		}
		total += (curHi - curLo) * segLen
	}
	return total
}

// lineParam returns the projection parameter of pt along the segment [a, b]
// and the perpendicular distance to the unbounded line through it.
func lineParam(pt, a, b orb.Point) (t float64, perp float64) {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := pt[0]-a[0], pt[1]-a[1]
	segLen2 := abx*abx + aby*aby
	if segLen2 == 0 {
		return 0, euclideanDistance(pt, a)
	}
	t = (apx*abx + apy*aby) / segLen2
	perp = math.Abs(abx*apy-aby*apx) / math.Sqrt(segLen2)
	return t, perp
}

// collinearInterval returns the positive-length parameter interval of the
// segment [p1, p2] covered by the collinear segment [q1, q2].
func collinearInterval(p1, p2, q1, q2 orb.Point) (float64, float64, bool) {
	t1, d1 := lineParam(q1, p1, p2)
	t2, d2 := lineParam(q2, p1, p2)
	if d1 > onSegmentEps || d2 > onSegmentEps {
		return 0, 0, false
	}
	lo, hi := math.Min(t1, t2), math.Max(t1, t2)
	lo, hi = math.Max(lo, 0), math.Min(hi, 1)
	if hi <= lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// isSimpleLine reports whether a line has no self-intersections. A closed
// line sharing only its start/end vertex stays simple.
func isSimpleLine(line orb.LineString) bool {
	n := len(line)
	if n < 3 {
		return true
	}
	closed := line[0] == line[n-1]
	for i := 1; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a1, a2 := line[i-1], line[i]
			b1, b2 := line[j-1], line[j]
			if j == i+1 {
				// Consecutive segments share a vertex; only backtracking
				// onto each other breaks simplicity.
				if _, on := pointOnSegment(b2, a1, a2); on && b2 != a2 {
					return false
				}
				if _, on := pointOnSegment(a1, b1, b2); on && a1 != b1 {
					return false
				}
				continue
			}
			pt, ok := segmentIntersection(a1, a2, b1, b2)
			if !ok {
				// Parallel segments may still be collinear and overlap.
				if _, on := pointOnSegment(b1, a1, a2); on {
					if _, on2 := pointOnSegment(b2, a1, a2); on2 {
						return false
					}
				}
				continue
			}
			if closed && i == 1 && j == n-1 && pt == line[0] {
				continue
			}
			return false
		}
	}
	return true
}

// distancePointToLine returns the planar distance from a point to a line.
func distancePointToLine(pt orb.Point, line orb.LineString) float64 {
	return planar.DistanceFrom(line, pt)
}

// euclideanDistance returns the planar distance between two points.
func euclideanDistance(p, q orb.Point) float64 {
	return planar.Distance(p, q)
}
