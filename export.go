package crnqa

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// GeoJSONExporter persists arc collections as GeoJSON feature collections,
// one file per layer inside the destination directory.
type GeoJSONExporter struct{}

// Export implements Exporter. The layer file is overwritten.
func (GeoJSONExporter) Export(arcs *ArcCollection, dst string, layer string) error {
	fc := arcsToFeatureCollection(arcs)
	b, err := json.Marshal(fc)
	if err != nil {
		return errors.Wrap(err, "Can't marshal feature collection")
	}
	fname := filepath.Join(dst, layer+".geojson")
	if err := os.WriteFile(fname, b, 0o644); err != nil {
		return errors.Wrapf(err, "Can't write layer file '%s'", fname)
	}
	return nil
}

func arcsToFeatureCollection(arcs *ArcCollection) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range arcs.Arcs() {
		f := geojson.NewFeature(orbToGeoJSON(a.Geometry))
		f.SetProperty("segment_id", string(a.ID))
		f.SetProperty("segment_type", int(a.SegmentType))
		f.SetProperty("structure_type", a.StructureType.String())
		fc.AddFeature(f)
	}
	return fc
}

func orbToGeoJSON(g orb.Geometry) *geojson.Geometry {
	switch geom := g.(type) {
	case orb.Point:
		return geojson.NewPointGeometry([]float64{geom[0], geom[1]})
	case orb.MultiPoint:
		coords := make([][]float64, len(geom))
		for i, pt := range geom {
			coords[i] = []float64{pt[0], pt[1]}
		}
		return geojson.NewMultiPointGeometry(coords...)
	case orb.LineString:
		return geojson.NewLineStringGeometry(lineToCoords(geom))
	case orb.MultiLineString:
		coords := make([][][]float64, len(geom))
		for i, part := range geom {
			coords[i] = lineToCoords(part)
		}
		return geojson.NewMultiLineStringGeometry(coords...)
	default:
		return nil
	}
}

func lineToCoords(line orb.LineString) [][]float64 {
	coords := make([][]float64, len(line))
	for i, pt := range line {
		coords[i] = []float64{pt[0], pt[1]}
	}
	return coords
}

// ExportFlagged writes the collection as GeoJSON with one boolean property
// per violated rule code ("E101", ...) marking membership in that rule's
// violation set.
func ExportFlagged(arcs *ArcCollection, report *Report, fname string) error {
	flags := make(map[ArcID][]int)
	for _, e := range report.Entries() {
		for _, id := range e.Result.IDs {
			flags[ArcID(id)] = append(flags[ArcID(id)], e.Code)
		}
	}

	fc := geojson.NewFeatureCollection()
	for _, a := range arcs.Arcs() {
		f := geojson.NewFeature(orbToGeoJSON(a.Geometry))
		f.SetProperty("segment_id", string(a.ID))
		f.SetProperty("segment_type", int(a.SegmentType))
		f.SetProperty("structure_type", a.StructureType.String())
		for _, code := range flags[a.ID] {
			f.SetProperty(fmt.Sprintf("E%d", code), true)
		}
		fc.AddFeature(f)
	}
	b, err := json.Marshal(fc)
	if err != nil {
		return errors.Wrap(err, "Can't marshal flagged collection")
	}
	if err := os.WriteFile(fname, b, 0o644); err != nil {
		return errors.Wrapf(err, "Can't write flagged layer '%s'", fname)
	}
	return nil
}

// ExportCSV writes the collection as a semicolon-separated CSV file with a
// WKT geometry column.
func ExportCSV(arcs *ArcCollection, fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"segment_id", "segment_type", "structure_type", "length_meters", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, a := range arcs.Arcs() {
		err = writer.Write([]string{
			string(a.ID),
			fmt.Sprintf("%d", a.SegmentType),
			fmt.Sprintf("%s", a.StructureType),
			fmt.Sprintf("%f", lineLength(a.Geometry)),
			wkt.MarshalString(a.Geometry),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write arc")
		}
	}
	return nil
}
