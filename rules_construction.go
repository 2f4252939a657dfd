package crnqa

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// constructionSinglepart validates E101: arcs must be single part
// ("LineString"). Multi-part geometries are exploded during
// standardization, so anything left is a non-linear defect.
func (v *Validator) constructionSinglepart() (RuleResult, error) {
	flagged := make(idSet)
	for _, a := range v.roads.Arcs() {
		if a.Geometry == nil || a.Geometry.GeoJSONType() != "LineString" {
			flagged.add(a.ID)
		}
	}
	return compileResult(flagged), nil
}

// constructionMinLength validates E102: arcs must be >= the minimum length,
// except isolated structures (e.g. Bridges). A structure sharing an
// endpoint with another structure is presumed continuous and stays flagged.
func (v *Validator) constructionMinLength() (RuleResult, error) {
	var short []*Arc
	for _, a := range v.roads.Arcs() {
		if _, ok := a.Line(); !ok {
			continue
		}
		if lineLength(a.Geometry) < v.cfg.MinLength {
			short = append(short, a)
		}
	}
	if len(short) == 0 {
		return RuleResult{}, nil
	}

	// Compile duplicated structure nodes: endpoints shared by at least two
	// structure arcs.
	nodeCount := make(map[orb.Point]int)
	for _, a := range v.roads.Arcs() {
		if !a.StructureType.IsReal() {
			continue
		}
		start, end, ok := a.Nodes()
		if !ok {
			continue
		}
		nodeCount[start]++
		nodeCount[end]++
	}

	// Evaluated per record: exploded sibling parts share their identifier
	// but carry their own nodes.
	flagged := make(idSet)
	for _, a := range short {
		if a.StructureType.IsReal() {
			start, end, ok := a.Nodes()
			if ok && nodeCount[start] < 2 && nodeCount[end] < 2 {
				// Isolated structure stubs are tolerated.
				continue
			}
		}
		flagged.add(a.ID)
	}
	return compileResult(flagged), nil
}

// constructionSimple validates E103: arcs must not self-overlap, self-cross
// nor touch their own interior.
func (v *Validator) constructionSimple() (RuleResult, error) {
	flagged := make(idSet)
	for _, a := range v.roads.Arcs() {
		line, ok := a.Line()
		if !ok {
			continue
		}
		if !isSimpleLine(line) {
			flagged.add(a.ID)
		}
	}
	return compileResult(flagged), nil
}

// constructionClusterTolerance validates E104: adjacent vertices must be at
// least the cluster tolerance apart. Only arcs with more than two vertices
// are checked. Failing vertex pairs are additionally exported as a point
// layer for visual QA.
func (v *Validator) constructionClusterTolerance() (RuleResult, error) {
	flagged := make(idSet)
	var qa []*Arc
	for _, a := range v.roads.Arcs() {
		line, ok := a.Line()
		if !ok || len(line) <= 2 {
			continue
		}
		for _, pair := range orderedPairs(line) {
			if euclideanDistance(pair[0], pair[1]) < v.cfg.ClusterTolerance {
				flagged.add(a.ID)
				qa = append(qa, &Arc{
					ID:            a.ID,
					Geometry:      orb.MultiPoint{pair[0], pair[1]},
					SegmentType:   a.SegmentType,
					StructureType: a.StructureType,
				})
			}
		}
	}
	if len(qa) > 0 && v.exporter != nil {
		layer := fmt.Sprintf("%s_cluster_tolerance", v.layer)
		v.logger.Info("Writing cluster tolerance QA layer", "dst", v.dst, "layer", layer)
		pts := NewArcCollection(v.roads.SRID, qa...)
		if err := v.exporter.Export(pts, v.dst, layer); err != nil {
			return RuleResult{}, errors.Wrap(err, "Can't write cluster tolerance layer")
		}
	}
	return compileResult(flagged), nil
}

// compileResult renders a violating identifier set into the standard result
// shape with its selection query.
func compileResult(flagged idSet) RuleResult {
	if len(flagged) == 0 {
		return RuleResult{}
	}
	ids := sortedIDs(flagged)
	return RuleResult{IDs: ids, Values: ids, Query: selectionQuery(ids)}
}
