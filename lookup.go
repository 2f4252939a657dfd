package crnqa

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// rectEps pads degenerate bounding boxes: the R-tree rejects rectangles
// with non-positive extents, and a perfectly axis-aligned arc has one.
const rectEps = 1e-9

type idSet map[ArcID]struct{}

func (s idSet) add(id ArcID) {
	s[id] = struct{}{}
}

func (s idSet) has(id ArcID) bool {
	_, ok := s[id]
	return ok
}

// subtract returns the members of s not present in other.
func (s idSet) subtract(other idSet) idSet {
	out := make(idSet)
	for id := range s {
		if !other.has(id) {
			out.add(id)
		}
	}
	return out
}

// arcEntry ties a positional index into the arc collection to its bounding
// rectangle inside the R-tree.
type arcEntry struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *arcEntry) Bounds() rtreego.Rect {
	return e.rect
}

// boundToRect converts an orb bounding box to an R-tree rectangle.
func boundToRect(b orb.Bound, pad float64) rtreego.Rect {
	pad += rectEps
	point := rtreego.Point{b.Min[0] - pad, b.Min[1] - pad}
	lengths := []float64{
		b.Max[0] - b.Min[0] + 2*pad,
		b.Max[1] - b.Min[1] + 2*pad,
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// lookups holds the reusable spatial structures derived from a standardized
// road arc collection. They are a pure derivation: any geometry mutation
// requires a full rebuild.
type lookups struct {
	roads *ArcCollection

	// vertexIDs maps every vertex coordinate (endpoint or interior) to the
	// identifiers of the arcs touching it. Exact coordinate match only.
	vertexIDs map[orb.Point]idSet

	// positional translates the dense indices used by the spatial index
	// back to stable arc identifiers.
	positional []ArcID

	tree *rtreego.Rtree
}

// buildLookups derives the vertex lookup, the positional lookup and the
// spatial index from the given collection. Non-linear records are skipped;
// they carry no vertices to index and are flagged by the singlepart rule.
func buildLookups(roads *ArcCollection) *lookups {
	l := &lookups{
		roads:      roads,
		vertexIDs:  make(map[orb.Point]idSet),
		positional: make([]ArcID, roads.Len()),
		tree:       rtreego.NewTree(2, 25, 50),
	}
	for idx, a := range roads.Arcs() {
		l.positional[idx] = a.ID
		line, ok := a.Line()
		if !ok || len(line) == 0 {
			continue
		}
		for _, pt := range line {
			set, ok := l.vertexIDs[pt]
			if !ok {
				set = make(idSet)
				l.vertexIDs[pt] = set
			}
			set.add(a.ID)
		}
		l.tree.Insert(&arcEntry{idx: idx, rect: boundToRect(line.Bound(), 0)})
	}
	return l
}

// idsAt returns the identifiers of arcs touching the given vertex.
func (l *lookups) idsAt(pt orb.Point) idSet {
	return l.vertexIDs[pt]
}

// searchRect returns the positional indices of arcs whose bounding boxes
// intersect the given bound, expanded by pad on every side.
func (l *lookups) searchRect(b orb.Bound, pad float64) []int {
	matches := l.tree.SearchIntersect(boundToRect(b, pad))
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.(*arcEntry).idx)
	}
	return out
}

// queryCrosses returns the identifiers of arcs whose geometry properly
// crosses the geometry of the record at position idx. Self-exclusion is
// positional: exploded sibling parts share their source identifier but are
// distinct records, and a crossing between them counts.
func (l *lookups) queryCrosses(idx int) idSet {
	out := make(idSet)
	line, ok := l.roads.Arcs()[idx].Line()
	if !ok {
		return out
	}
	for _, otherIdx := range l.searchRect(line.Bound(), 0) {
		if otherIdx == idx {
			continue
		}
		other := l.roads.Arcs()[otherIdx]
		otherLine, ok := other.Line()
		if !ok {
			continue
		}
		if len(lineCrossings(line, otherLine)) > 0 {
			out.add(other.ID)
		}
	}
	return out
}

// queryOverlaps returns the identifiers of arcs whose geometry partially
// coincides with the geometry of the record at position idx.
func (l *lookups) queryOverlaps(idx int) idSet {
	out := make(idSet)
	line, ok := l.roads.Arcs()[idx].Line()
	if !ok {
		return out
	}
	for _, otherIdx := range l.searchRect(line.Bound(), 0) {
		if otherIdx == idx {
			continue
		}
		other := l.roads.Arcs()[otherIdx]
		otherLine, ok := other.Line()
		if !ok {
			continue
		}
		if linesOverlap(line, otherLine) {
			out.add(other.ID)
		}
	}
	return out
}

// queryBuffer returns the identifiers of arcs whose geometry comes within
// dist of the given point.
func (l *lookups) queryBuffer(pt orb.Point, dist float64) idSet {
	out := make(idSet)
	bound := orb.Bound{Min: pt, Max: pt}
	for _, idx := range l.searchRect(bound, dist) {
		other := l.roads.Arcs()[idx]
		otherLine, ok := other.Line()
		if !ok {
			continue
		}
		if distancePointToLine(pt, otherLine) <= dist {
			out.add(other.ID)
		}
	}
	return out
}
