package crnqa

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineArc(id ArcID, pts ...orb.Point) *Arc {
	return &Arc{
		ID:            id,
		Geometry:      orb.LineString(pts),
		SegmentType:   SEGMENT_ROAD,
		StructureType: STRUCTURE_NONE,
	}
}

func TestValidateIdentifiers(t *testing.T) {
	good := NewArcCollection(SRIDProjected,
		lineArc(NewArcID(), orb.Point{0, 0}, orb.Point{10, 0}),
		lineArc(NewArcID(), orb.Point{10, 0}, orb.Point{20, 0}),
	)
	assert.NoError(t, ValidateIdentifiers(good))

	bad := NewArcCollection(SRIDProjected,
		lineArc("not-32-hex", orb.Point{0, 0}, orb.Point{10, 0}),
	)
	err := ValidateIdentifiers(bad)
	require.Error(t, err)
	idErr, ok := err.(*IdentifierError)
	require.True(t, ok)
	assert.Equal(t, []ArcID{"not-32-hex"}, idErr.NonHex)
	assert.Empty(t, idErr.Duplicated)

	dupID := NewArcID()
	dup := NewArcCollection(SRIDProjected,
		lineArc(dupID, orb.Point{0, 0}, orb.Point{10, 0}),
		lineArc(dupID, orb.Point{10, 0}, orb.Point{20, 0}),
	)
	err = ValidateIdentifiers(dup)
	require.Error(t, err)
	idErr, ok = err.(*IdentifierError)
	require.True(t, ok)
	assert.Empty(t, idErr.NonHex)
	assert.Equal(t, []ArcID{dupID, dupID}, idErr.Duplicated)
}

func TestRepairIdentifiers(t *testing.T) {
	keep := NewArcID()
	dup := NewArcID()
	arcs := NewArcCollection(SRIDProjected,
		lineArc(keep, orb.Point{0, 0}, orb.Point{10, 0}),
		lineArc(dup, orb.Point{10, 0}, orb.Point{20, 0}),
		lineArc(dup, orb.Point{20, 0}, orb.Point{30, 0}),
		lineArc("not-32-hex", orb.Point{30, 0}, orb.Point{40, 0}),
	)

	repaired := RepairIdentifiers(arcs)
	require.Len(t, repaired, 2)
	assert.NoError(t, ValidateIdentifiers(arcs))

	// The first occurrence keeps its identifier.
	assert.Equal(t, keep, arcs.Arcs()[0].ID)
	assert.Equal(t, dup, arcs.Arcs()[1].ID)
	for fresh, old := range repaired {
		assert.True(t, fresh.Valid())
		assert.Contains(t, []ArcID{dup, "not-32-hex"}, old)
	}
}

func TestStandardizeExplode(t *testing.T) {
	id := NewArcID()
	arcs := NewArcCollection(SRIDProjected, &Arc{
		ID: id,
		Geometry: orb.MultiLineString{
			{{0, 0}, {10, 0}},
			{{20, 0}, {30, 0}},
		},
		SegmentType:   SEGMENT_ROAD,
		StructureType: STRUCTURE_NONE,
	})

	std, prov, err := Standardize(arcs, DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 2, std.Len())
	require.Equal(t, []ArcID{id, id}, prov)
	for _, a := range std.Arcs() {
		_, ok := a.Line()
		assert.True(t, ok)
	}
	// The source collection stays untouched.
	assert.Equal(t, 1, arcs.Len())
}

func TestStandardizeRounding(t *testing.T) {
	arcs := NewArcCollection(SRIDProjected,
		lineArc(NewArcID(), orb.Point{1.23456789, 0}, orb.Point{10.000000049, 5.5}),
	)

	std, _, err := Standardize(arcs, DefaultConfig())
	require.NoError(t, err)
	line, ok := std.Arcs()[0].Line()
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{1.2345679, 0}, {10, 5.5}}, line)

	// Standardizing a standardized collection changes nothing.
	again, _, err := Standardize(std, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, std.Arcs()[0].Geometry, again.Arcs()[0].Geometry)
}

func TestStandardizeReprojection(t *testing.T) {
	arcs := NewArcCollection(SRIDGeographic,
		lineArc(NewArcID(), orb.Point{180, 0}, orb.Point{0, 0}),
	)

	std, _, err := Standardize(arcs, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, SRIDProjected, std.SRID)

	line, ok := std.Arcs()[0].Line()
	require.True(t, ok)
	assert.InDelta(t, earthR, line[0][0], 0.01)
	assert.InDelta(t, 0, line[0][1], 0.01)
	assert.Equal(t, orb.Point{0, 0}, line[1])
}
