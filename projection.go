package crnqa

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	earthR = 20037508.34

	// SRIDGeographic is the WGS84 geographic system source layers arrive in.
	SRIDGeographic = 4326
	// SRIDProjected is the meter-based projected system validations run in.
	SRIDProjected = 3857
)

// Projection reprojects geographic coordinates into a meter-based planar
// system. Implementations are keyed by spatial reference authority code.
type Projection interface {
	// SRID returns the authority code of the target system.
	SRID() int
	// Forward projects a single geographic point.
	Forward(pt orb.Point) orb.Point
}

// NewProjection returns the projection registered for the given authority
// code.
func NewProjection(srid int) (Projection, error) {
	switch srid {
	case SRIDProjected:
		return webMercator{}, nil
	default:
		return nil, errors.Errorf("No projection registered for SRID %d", srid)
	}
}

// webMercator implements the spherical EPSG:3857 forward transform.
type webMercator struct{}

func (webMercator) SRID() int {
	return SRIDProjected
}

func (webMercator) Forward(pt orb.Point) orb.Point {
	x := pt.Lon() * earthR / 180
	y := math.Log(math.Tan((90+pt.Lat())*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return orb.Point{x, y}
}

// projectLine projects every vertex of a line.
func projectLine(p Projection, line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, pt := range line {
		out[i] = p.Forward(pt)
	}
	return out
}

// projectGeometry projects any supported line geometry.
func projectGeometry(p Projection, g orb.Geometry) orb.Geometry {
	switch geom := g.(type) {
	case orb.Point:
		return p.Forward(geom)
	case orb.LineString:
		return projectLine(p, geom)
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(geom))
		for i, part := range geom {
			out[i] = projectLine(p, part)
		}
		return out
	default:
		return g
	}
}
