package crnqa

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ArcID is a 32 character hexadecimal identifier of a single arc.
// The string "None" (or an empty string) denotes a null identifier.
type ArcID string

// NullArcID marks records without an assigned identifier.
const NullArcID = ArcID("None")

// NewArcID generates a fresh random 32-hex identifier.
func NewArcID() ArcID {
	id := uuid.New()
	return ArcID(hex.EncodeToString(id[:]))
}

// IsNull reports whether the identifier is a null placeholder.
func (id ArcID) IsNull() bool {
	return id == "" || id == NullArcID
}

// Valid reports whether the identifier is exactly 32 hexadecimal characters.
func (id ArcID) Valid() bool {
	if len(id) != 32 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

type SegmentType uint16

const (
	SEGMENT_ROAD = SegmentType(iota + 1)
	SEGMENT_FERRY
	SEGMENT_BOUNDARY
)

func (iotaIdx SegmentType) String() string {
	return [...]string{"road", "ferry", "boundary"}[iotaIdx-1]
}

type StructureType uint16

const (
	STRUCTURE_NONE = StructureType(iota + 1)
	STRUCTURE_UNKNOWN
	STRUCTURE_BRIDGE
	STRUCTURE_TUNNEL
	STRUCTURE_DAM
)

func (iotaIdx StructureType) String() string {
	return [...]string{"None", "Unknown", "Bridge", "Tunnel", "Dam"}[iotaIdx-1]
}

// IsReal reports whether the arc is marked as an actual structure
// (anything besides "None" and "Unknown").
func (iotaIdx StructureType) IsReal() bool {
	return iotaIdx != STRUCTURE_NONE && iotaIdx != STRUCTURE_UNKNOWN
}

// ParseStructureType maps a structure label onto its type. Unrecognized
// labels map to STRUCTURE_UNKNOWN.
func ParseStructureType(label string) StructureType {
	switch label {
	case "None", "":
		return STRUCTURE_NONE
	case "Bridge":
		return STRUCTURE_BRIDGE
	case "Tunnel":
		return STRUCTURE_TUNNEL
	case "Dam":
		return STRUCTURE_DAM
	default:
		return STRUCTURE_UNKNOWN
	}
}

// Arc is a single linear road/ferry/boundary feature.
type Arc struct {
	ID            ArcID
	Geometry      orb.Geometry
	SegmentType   SegmentType
	StructureType StructureType
}

// Line returns the arc geometry as a LineString. The second value is false
// for multi-part or non-linear geometries.
func (a *Arc) Line() (orb.LineString, bool) {
	ls, ok := a.Geometry.(orb.LineString)
	return ls, ok
}

// Nodes returns the first and the last vertex of the arc.
func (a *Arc) Nodes() (orb.Point, orb.Point, bool) {
	ls, ok := a.Line()
	if !ok || len(ls) == 0 {
		return orb.Point{}, orb.Point{}, false
	}
	return ls[0], ls[len(ls)-1], true
}

// Clone returns a deep copy of the arc.
func (a *Arc) Clone() *Arc {
	dup := *a
	if a.Geometry != nil {
		dup.Geometry = orb.Clone(a.Geometry)
	}
	return &dup
}

// ArcCollection is an ordered set of arcs attached to a known spatial
// reference system. Record order is stable: positional indices returned by
// the spatial index stay aligned with it.
type ArcCollection struct {
	arcs []*Arc
	byID map[ArcID]*Arc

	// SRID of the coordinate reference system the geometries live in.
	SRID int
}

// NewArcCollection wraps the given arcs into a collection.
func NewArcCollection(srid int, arcs ...*Arc) *ArcCollection {
	c := &ArcCollection{arcs: arcs, SRID: srid}
	c.Reindex()
	return c
}

// Len returns the number of records.
func (c *ArcCollection) Len() int {
	return len(c.arcs)
}

// Arcs returns the records in insertion order. The slice is shared, not copied.
func (c *ArcCollection) Arcs() []*Arc {
	return c.arcs
}

// Get returns the arc registered under the given identifier.
func (c *ArcCollection) Get(id ArcID) (*Arc, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Append adds records to the end of the collection.
func (c *ArcCollection) Append(arcs ...*Arc) {
	c.arcs = append(c.arcs, arcs...)
	for _, a := range arcs {
		if a.ID.IsNull() {
			continue
		}
		if _, ok := c.byID[a.ID]; !ok {
			c.byID[a.ID] = a
		}
	}
}

// Replace swaps the record at position idx for the given arcs, keeping the
// remaining order intact. Used by the segmentation repair where one arc
// becomes several.
func (c *ArcCollection) Replace(idx int, arcs ...*Arc) {
	tail := make([]*Arc, len(c.arcs[idx+1:]))
	copy(tail, c.arcs[idx+1:])
	c.arcs = append(append(c.arcs[:idx], arcs...), tail...)
	c.Reindex()
}

// IndexOf returns the position of the first record with the given identifier.
func (c *ArcCollection) IndexOf(id ArcID) int {
	for i, a := range c.arcs {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Reindex rebuilds the identifier index. Null identifiers are excluded.
func (c *ArcCollection) Reindex() {
	c.byID = make(map[ArcID]*Arc, len(c.arcs))
	for _, a := range c.arcs {
		if a.ID.IsNull() {
			continue
		}
		if _, ok := c.byID[a.ID]; !ok {
			c.byID[a.ID] = a
		}
	}
}

// Filter returns a new collection holding the records matching the
// predicate. The records themselves are shared.
func (c *ArcCollection) Filter(keep func(*Arc) bool) *ArcCollection {
	out := make([]*Arc, 0, len(c.arcs))
	for _, a := range c.arcs {
		if keep(a) {
			out = append(out, a)
		}
	}
	return NewArcCollection(c.SRID, out...)
}

// Clone returns a deep copy of the collection.
func (c *ArcCollection) Clone() *ArcCollection {
	out := make([]*Arc, len(c.arcs))
	for i, a := range c.arcs {
		out[i] = a.Clone()
	}
	return NewArcCollection(c.SRID, out...)
}
