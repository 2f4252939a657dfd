package crnqa

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestRoundLine(t *testing.T) {
	line := orb.LineString{{1.23456789, 9.87654321}, {0.000000049, 2}}
	res := roundLine(line, 7)
	expected := orb.LineString{{1.2345679, 9.8765432}, {0, 2}}
	for i := range expected {
		if res[i] != expected[i] {
			t.Errorf("Vertex %d must be %v, but got %v", i, expected[i], res[i])
		}
	}
	// Rounding is idempotent.
	twice := roundLine(res, 7)
	for i := range res {
		if twice[i] != res[i] {
			t.Errorf("Second rounding changed vertex %d: %v -> %v", i, res[i], twice[i])
		}
	}
}

func TestOrderedPairs(t *testing.T) {
	line := orb.LineString{{5, 0}, {0, 0}, {3, 3}}
	pairs := orderedPairs(line)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	// Sorted by first point: ((0,0),(3,3)) before ((5,0),(0,0)).
	if pairs[0] != (vertexPair{{0, 0}, {3, 3}}) {
		t.Errorf("First pair must be ((0,0),(3,3)), but got %v", pairs[0])
	}
	if pairs[1] != (vertexPair{{5, 0}, {0, 0}}) {
		t.Errorf("Second pair must be ((5,0),(0,0)), but got %v", pairs[1])
	}
}

func TestSegmentIntersection(t *testing.T) {
	pt, ok := segmentIntersection(orb.Point{0, 0}, orb.Point{10, 10}, orb.Point{0, 10}, orb.Point{10, 0})
	if !ok {
		t.Fatal("Segments must intersect")
	}
	if pt != (orb.Point{5, 5}) {
		t.Errorf("Intersection must be (5,5), but got %v", pt)
	}
	if _, ok := segmentIntersection(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{0, 1}, orb.Point{10, 1}); ok {
		t.Error("Parallel segments must not intersect")
	}
	if _, ok := segmentIntersection(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{5, -1}, orb.Point{5, 1}); ok {
		t.Error("Disjoint segments must not intersect")
	}
}

func TestLineCrossings(t *testing.T) {
	a := orb.LineString{{0, 0}, {10, 10}}
	b := orb.LineString{{0, 10}, {10, 0}}
	pts := lineCrossings(a, b)
	if len(pts) != 1 || pts[0] != (orb.Point{5, 5}) {
		t.Errorf("Expected crossing at (5,5), got %v", pts)
	}

	// Contact at an endpoint is not a crossing.
	c := orb.LineString{{10, 10}, {20, 0}}
	if pts := lineCrossings(a, c); len(pts) != 0 {
		t.Errorf("Endpoint contact must not be a crossing, got %v", pts)
	}
}

func TestSplitLineAt(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}}
	parts := splitLineAt(line, []orb.Point{{4, 0}})
	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	if parts[0][len(parts[0])-1] != (orb.Point{4, 0}) || parts[1][0] != (orb.Point{4, 0}) {
		t.Errorf("Parts must meet at the cut point, got %v", parts)
	}

	// A cut at an interior vertex splits there without duplicating it.
	line = orb.LineString{{0, 0}, {5, 0}, {10, 0}}
	parts = splitLineAt(line, []orb.Point{{5, 0}})
	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		t.Errorf("Unexpected part shapes: %v", parts)
	}

	// Points off the line are ignored.
	parts = splitLineAt(orb.LineString{{0, 0}, {10, 0}}, []orb.Point{{5, 3}})
	if len(parts) != 1 {
		t.Errorf("Expected the line back whole, got %d parts", len(parts))
	}
}

func TestLinesEqual(t *testing.T) {
	a := orb.LineString{{0, 0}, {5, 5}, {10, 0}}
	b := orb.LineString{{10, 0}, {5, 5}, {0, 0}}
	if !linesEqual(a, b) {
		t.Error("Reversed lines must be equal")
	}
	c := orb.LineString{{0, 0}, {5, 4}, {10, 0}}
	if linesEqual(a, c) {
		t.Error("Differently shaped lines must not be equal")
	}
}

func TestLinesOverlap(t *testing.T) {
	a := orb.LineString{{0, 0}, {5, 0}, {10, 0}}
	b := orb.LineString{{5, 0}, {10, 0}, {15, 0}}
	if !linesOverlap(a, b) {
		t.Error("Lines sharing one segment must overlap")
	}
	// Full containment is duplication, not overlap.
	c := orb.LineString{{0, 0}, {5, 0}}
	if linesOverlap(a, c) {
		t.Error("A contained sub-line must not count as overlap")
	}
	d := orb.LineString{{0, 5}, {10, 5}}
	if linesOverlap(a, d) {
		t.Error("Disjoint lines must not overlap")
	}
}

func TestLinesOverlapWithoutSharedVertices(t *testing.T) {
	// Independently digitized arcs coincide geometrically without sharing
	// any vertex.
	a := orb.LineString{{0, 0}, {10, 0}}
	b := orb.LineString{{5, 0}, {15, 0}}
	if !linesOverlap(a, b) {
		t.Error("Collinear partial coincidence must overlap")
	}
	// Containment stays excluded even with misaligned vertices.
	inner := orb.LineString{{2.5, 0}, {7.5, 0}}
	if linesOverlap(a, inner) {
		t.Error("A geometrically contained line must not count as overlap")
	}
	// Collinear contact in a single point has no length.
	next := orb.LineString{{10, 0}, {20, 0}}
	if linesOverlap(a, next) {
		t.Error("Collinear end-to-end contact must not overlap")
	}
}

func TestSharedCollinearLength(t *testing.T) {
	a := orb.LineString{{0, 0}, {10, 0}}
	got := sharedCollinearLength(a, orb.LineString{{5, 0}, {15, 0}})
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("Shared length must be 5, but got %f", got)
	}
	// Stacked coincident segments are merged, not double counted.
	stacked := orb.LineString{{5, 0}, {15, 0}, {5, 0}}
	got = sharedCollinearLength(a, stacked)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("Shared length must stay 5 for stacked segments, but got %f", got)
	}
	if got := sharedCollinearLength(a, orb.LineString{{0, 5}, {10, 5}}); got != 0 {
		t.Errorf("Parallel offset lines must share nothing, but got %f", got)
	}
}

func TestIsSimpleLine(t *testing.T) {
	if !isSimpleLine(orb.LineString{{0, 0}, {10, 0}, {10, 10}}) {
		t.Error("Plain polyline must be simple")
	}
	// Self-crossing.
	if isSimpleLine(orb.LineString{{0, 0}, {10, 0}, {10, 10}, {5, -5}}) {
		t.Error("Self-crossing line must not be simple")
	}
	// Backtracking onto the previous segment.
	if isSimpleLine(orb.LineString{{0, 0}, {10, 0}, {5, 0}}) {
		t.Error("Backtracking line must not be simple")
	}
	// Closed ring sharing only the start/end vertex.
	if !isSimpleLine(orb.LineString{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}) {
		t.Error("Closed ring must be simple")
	}
}

func TestDistancePointToLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}}
	d := distancePointToLine(orb.Point{5, 3}, line)
	if math.Abs(d-3) > 1e-12 {
		t.Errorf("Distance must be 3, but got %f", d)
	}
	d = distancePointToLine(orb.Point{13, 0}, line)
	if math.Abs(d-3) > 1e-12 {
		t.Errorf("Distance past the endpoint must be 3, but got %f", d)
	}
}

func TestExplodeGeometry(t *testing.T) {
	multi := orb.MultiLineString{
		{{0, 0}, {1, 0}},
		{{2, 0}, {3, 0}},
	}
	parts := explodeGeometry(multi)
	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	for i, part := range parts {
		if _, ok := part.(orb.LineString); !ok {
			t.Errorf("Part %d must be a LineString, got %T", i, part)
		}
	}
	single := explodeGeometry(orb.LineString{{0, 0}, {1, 0}})
	if len(single) != 1 {
		t.Errorf("Single-part geometry must come back whole, got %d parts", len(single))
	}
}
