package crnqa

import (
	"context"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/pkg/errors"
)

// OSMImportConfig filters OSM ways by their highway tag during import.
type OSMImportConfig struct {
	Tags []string
}

// CheckTag checks if the incoming tag is represented in the configuration.
func (cfg *OSMImportConfig) CheckTag(tag string) bool {
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}

// ImportArcsFromOSMFile builds an arc collection from the road ways of an
// OSM extract in PBF format. Every way becomes one road arc with a freshly
// generated identifier; bridge/tunnel tags map onto the structure type. The
// collection comes back in geographic coordinates, ready for the
// standardization preprocessor.
func ImportArcsFromOSMFile(fileName string, cfg *OSMImportConfig) (*ArcCollection, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer f.Close()

	scannerWays := osmpbf.New(context.Background(), f, 4)

	type wayRecord struct {
		nodes     osm.WayNodes
		structure StructureType
	}
	ways := []wayRecord{}
	nodesSeen := make(map[osm.NodeID]struct{})

	for scannerWays.Scan() {
		obj := scannerWays.Object()
		if obj.ObjectID().Type() != "way" {
			continue
		}
		way := obj.(*osm.Way)
		tagMap := way.TagMap()
		tag, ok := tagMap["highway"]
		if !ok {
			continue
		}
		if !cfg.CheckTag(tag) {
			continue
		}
		if len(way.Nodes) < 2 {
			continue
		}
		structure := STRUCTURE_NONE
		if v, ok := tagMap["bridge"]; ok && v != "no" {
			structure = STRUCTURE_BRIDGE
		} else if v, ok := tagMap["tunnel"]; ok && v != "no" {
			structure = STRUCTURE_TUNNEL
		}
		rec := wayRecord{
			nodes:     make(osm.WayNodes, len(way.Nodes)),
			structure: structure,
		}
		copy(rec.nodes, way.Nodes)
		ways = append(ways, rec)
		for _, node := range way.Nodes {
			nodesSeen[node.ID] = struct{}{}
		}
	}
	if scannerWays.Err() != nil {
		scannerWays.Close()
		return nil, errors.Wrap(scannerWays.Err(), "Scanner error on Ways")
	}
	scannerWays.Close()

	// Seek file to start for the node pass.
	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking")
	}
	scannerNodes := osmpbf.New(context.Background(), f, 4)
	defer scannerNodes.Close()

	nodeGeom := make(map[osm.NodeID]orb.Point, len(nodesSeen))
	for scannerNodes.Scan() {
		obj := scannerNodes.Object()
		if obj.ObjectID().Type() != "node" {
			continue
		}
		node := obj.(*osm.Node)
		if _, ok := nodesSeen[node.ID]; ok {
			nodeGeom[node.ID] = orb.Point{node.Lon, node.Lat}
		}
	}
	if scannerNodes.Err() != nil {
		return nil, errors.Wrap(scannerNodes.Err(), "Scanner error on Nodes")
	}

	arcs := make([]*Arc, 0, len(ways))
	for _, way := range ways {
		line := make(orb.LineString, 0, len(way.nodes))
		for _, wayNode := range way.nodes {
			pt, ok := nodeGeom[wayNode.ID]
			if !ok {
				return nil, errors.Errorf("Missing node with id: %d", wayNode.ID)
			}
			line = append(line, pt)
		}
		arcs = append(arcs, &Arc{
			ID:            NewArcID(),
			Geometry:      line,
			SegmentType:   SEGMENT_ROAD,
			StructureType: way.structure,
		})
	}
	return NewArcCollection(SRIDGeographic, arcs...), nil
}
