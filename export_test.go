package crnqa

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLoadRoundTrip(t *testing.T) {
	dst := t.TempDir()
	bridge := lineArc(NewArcID(), orb.Point{1.5, 2.5}, orb.Point{3.5, 4.5})
	bridge.StructureType = STRUCTURE_BRIDGE
	arcs := NewArcCollection(SRIDGeographic,
		lineArc(NewArcID(), orb.Point{0, 0}, orb.Point{1, 1}),
		bridge,
	)

	require.NoError(t, GeoJSONExporter{}.Export(arcs, dst, "roads"))

	loaded, err := LoadArcsFromGeoJSON(filepath.Join(dst, "roads.geojson"))
	require.NoError(t, err)
	require.Equal(t, arcs.Len(), loaded.Len())
	assert.Equal(t, SRIDGeographic, loaded.SRID)
	for i, a := range arcs.Arcs() {
		got := loaded.Arcs()[i]
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, a.SegmentType, got.SegmentType)
		assert.Equal(t, a.StructureType, got.StructureType)
		assert.Equal(t, a.Geometry, got.Geometry)
	}
}

func TestExportFlagged(t *testing.T) {
	dst := t.TempDir()
	a := NewArcID()
	b := NewArcID()
	arcs := NewArcCollection(SRIDProjected,
		lineArc(a, orb.Point{0, 0}, orb.Point{2.5, 0}),
		lineArc(b, orb.Point{100, 0}, orb.Point{110, 0}),
	)
	report := &Report{}
	report.add(102, "Arcs must be >= 3 meters in length.",
		RuleResult{IDs: []string{string(a)}, Values: []string{string(a)}})

	fname := filepath.Join(dst, "roads_flagged.geojson")
	require.NoError(t, ExportFlagged(arcs, report, fname))

	raw, err := os.ReadFile(fname)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	flagged, err := fc.Features[0].PropertyBool("E102")
	require.NoError(t, err)
	assert.True(t, flagged)
	_, err = fc.Features[1].PropertyBool("E102")
	assert.Error(t, err)
}

func TestExportCSV(t *testing.T) {
	dst := t.TempDir()
	id := NewArcID()
	arcs := NewArcCollection(SRIDProjected,
		lineArc(id, orb.Point{0, 0}, orb.Point{10, 0}),
	)

	fname := filepath.Join(dst, "roads.csv")
	require.NoError(t, ExportCSV(arcs, fname))

	file, err := os.Open(fname)
	require.NoError(t, err)
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"segment_id", "segment_type", "structure_type", "length_meters", "geom"}, records[0])
	assert.Equal(t, string(id), records[1][0])
	assert.Equal(t, "10.000000", records[1][3])
	assert.Equal(t, "LINESTRING(0 0,10 0)", records[1][4])
}
