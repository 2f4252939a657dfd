package crnqa

import (
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// LoadArcsFromGeoJSON reads an arc layer from a GeoJSON file. Coordinates
// are flattened to two dimensions (z/m values discarded); the collection is
// attached to the geographic reference system. Features without a
// segment_id property get the null identifier; unparseable geometry types
// are kept so the singlepart rule can flag them.
func LoadArcsFromGeoJSON(fname string) (*ArcCollection, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read layer file '%s'", fname)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse layer file '%s'", fname)
	}

	arcs := make([]*Arc, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, errors.Errorf("Feature %d has no geometry", i)
		}
		a := &Arc{
			ID:          NullArcID,
			SegmentType: SEGMENT_ROAD,
		}
		if id, err := f.PropertyString("segment_id"); err == nil {
			a.ID = ArcID(id)
		}
		if st, err := f.PropertyInt("segment_type"); err == nil {
			a.SegmentType = SegmentType(st)
		}
		structure, _ := f.PropertyString("structure_type")
		a.StructureType = ParseStructureType(structure)
		a.Geometry = geoJSONToOrb(f.Geometry)
		arcs = append(arcs, a)
	}
	return NewArcCollection(SRIDGeographic, arcs...), nil
}

func geoJSONToOrb(g *geojson.Geometry) orb.Geometry {
	switch g.Type {
	case geojson.GeometryPoint:
		return coordToPoint(g.Point)
	case geojson.GeometryMultiPoint:
		out := make(orb.MultiPoint, len(g.MultiPoint))
		for i, c := range g.MultiPoint {
			out[i] = coordToPoint(c)
		}
		return out
	case geojson.GeometryLineString:
		return coordsToLine(g.LineString)
	case geojson.GeometryMultiLineString:
		out := make(orb.MultiLineString, len(g.MultiLineString))
		for i, part := range g.MultiLineString {
			out[i] = coordsToLine(part)
		}
		return out
	default:
		return nil
	}
}

// coordToPoint drops any dimension beyond x/y.
func coordToPoint(c []float64) orb.Point {
	if len(c) < 2 {
		return orb.Point{}
	}
	return orb.Point{c[0], c[1]}
}

func coordsToLine(coords [][]float64) orb.LineString {
	out := make(orb.LineString, len(coords))
	for i, c := range coords {
		out[i] = coordToPoint(c)
	}
	return out
}
