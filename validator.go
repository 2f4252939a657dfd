package crnqa

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Config carries the numeric thresholds and reference system settings of a
// validation run.
type Config struct {
	// MinLength is the minimum arc length in meters (rule 102).
	MinLength float64
	// MinDistance is the minimum clearance between disconnected arcs in
	// meters (rule 302).
	MinDistance float64
	// ClusterTolerance is the minimum spacing between adjacent vertices in
	// meters (rule 104).
	ClusterTolerance float64
	// Precision is the decimal precision coordinates are rounded to.
	Precision int
	// ProjectionSRID is the authority code of the meter-based system
	// validations run in.
	ProjectionSRID int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinLength:        3,
		MinDistance:      5,
		ClusterTolerance: 0.01,
		Precision:        7,
		ProjectionSRID:   SRIDProjected,
	}
}

// IdentifierMode selects how identifier defects are handled.
type IdentifierMode uint16

const (
	// IDENTIFIER_STRICT aborts the run on any invalid or duplicated
	// identifier.
	IDENTIFIER_STRICT = IdentifierMode(iota + 1)
	// IDENTIFIER_REPAIR replaces defective identifiers with fresh 32-hex
	// values and persists the repaired collection before continuing.
	IDENTIFIER_REPAIR
)

func (iotaIdx IdentifierMode) String() string {
	return [...]string{"strict", "repair"}[iotaIdx-1]
}

// Exporter persists an arc collection to a destination layer, overwriting
// it. Identifier repair and the segmentation repair write through it.
type Exporter interface {
	Export(arcs *ArcCollection, dst string, layer string) error
}

// ValidatorParams configures a Validator.
type ValidatorParams struct {
	Config Config

	// Exporter, Destination and Layer name the persistence surface the
	// repairs write back to. A nil Exporter disables write-back.
	Exporter    Exporter
	Destination string
	Layer       string

	// IdentifierMode defaults to IDENTIFIER_STRICT.
	IdentifierMode IdentifierMode

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// rule is one entry of the ordered rule battery.
type rule struct {
	code  int
	name  string
	desc  string
	check func() (RuleResult, error)
}

// Validator owns one arc collection for the lifetime of a validation run:
// it standardizes the arcs, derives the spatial lookups and executes the
// ordered rule battery. Create one per run and discard it after Run.
type Validator struct {
	cfg      Config
	exporter Exporter
	dst      string
	layer    string
	logger   *slog.Logger

	// original keeps the full-fidelity source records; the segmentation
	// repair mutates and re-exports them.
	original *ArcCollection
	// roads is the standardized road-type subset the rules read.
	roads *ArcCollection
	// provenance maps standardized record positions to source identifiers.
	provenance []ArcID

	lookups *lookups
	rules   []rule

	// repairedIDs maps fresh identifiers assigned during identifier repair
	// to the values they replaced.
	repairedIDs map[ArcID]ArcID
}

// NewValidator standardizes and indexes the given arc collection and
// prepares the rule battery. Identifier defects abort construction unless
// repair mode is requested, in which case the repaired collection is
// persisted through the exporter before validation continues.
func NewValidator(arcs *ArcCollection, p ValidatorParams) (*Validator, error) {
	if p.IdentifierMode == 0 {
		p.IdentifierMode = IDENTIFIER_STRICT
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}

	v := &Validator{
		cfg:      p.Config,
		exporter: p.Exporter,
		dst:      p.Destination,
		layer:    p.Layer,
		logger:   p.Logger,
		original: arcs,
	}

	v.logger.Info("Validating arc identifiers", "mode", p.IdentifierMode.String())
	if err := ValidateIdentifiers(arcs); err != nil {
		if p.IdentifierMode != IDENTIFIER_REPAIR {
			return nil, errors.Wrap(err, "Identifier validation failed")
		}
		v.repairedIDs = RepairIdentifiers(arcs)
		for fresh, old := range v.repairedIDs {
			v.logger.Warn("Repaired arc identifier", "old", string(old), "new", string(fresh))
		}
		if err := v.export(); err != nil {
			return nil, errors.Wrap(err, "Can't persist repaired identifiers")
		}
	}

	v.logger.Info("Standardizing arcs")
	std, prov, err := Standardize(arcs, v.cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Standardization failed")
	}
	roadIdx := make([]ArcID, 0, std.Len())
	roadArcs := make([]*Arc, 0, std.Len())
	for i, a := range std.Arcs() {
		if a.SegmentType == SEGMENT_ROAD {
			roadArcs = append(roadArcs, a)
			roadIdx = append(roadIdx, prov[i])
		}
	}
	v.roads = NewArcCollection(std.SRID, roadArcs...)
	v.provenance = roadIdx

	v.logger.Info("Generating reusable geometry attributes", "arcs", v.roads.Len())
	v.lookups = buildLookups(v.roads)

	// List validations in order. Execution order is a correctness
	// contract: segmentation runs first because its repair mutates the
	// original collection.
	v.rules = []rule{
		{303, "connectivity_segmentation",
			"Arcs must not cross (i.e. must be segmented at each intersection).", v.connectivitySegmentation},
		{101, "construction_singlepart",
			"Arcs must be single part (i.e. \"LineString\").", v.constructionSinglepart},
		{102, "construction_min_length",
			"Arcs must be >= 3 meters in length.", v.constructionMinLength},
		{103, "construction_simple",
			"Arcs must be simple (i.e. must not self-overlap, self-cross, nor touch their interior).", v.constructionSimple},
		{104, "construction_cluster_tolerance",
			"Arcs must have >= 0.01 meters distance between adjacent vertices (cluster tolerance).", v.constructionClusterTolerance},
		{201, "duplication_duplicated",
			"Arcs must not be duplicated.", v.duplicationDuplicated},
		{202, "duplication_overlap",
			"Arcs must not overlap (i.e. contain duplicated adjacent vertices).", v.duplicationOverlap},
		{301, "connectivity_node_intersection",
			"Arcs must only connect at endpoints (nodes).", v.connectivityNodeIntersection},
		{302, "connectivity_min_distance",
			"Arcs must be >= 5 meters from each other, excluding connected arcs (i.e. no dangles).", v.connectivityMinDistance},
	}

	return v, nil
}

// Roads exposes the standardized road subset the rules evaluate.
func (v *Validator) Roads() *ArcCollection {
	return v.roads
}

// RepairedIdentifiers returns the new-to-old mapping of identifiers
// replaced during repair mode, if any.
func (v *Validator) RepairedIdentifiers() map[ArcID]ArcID {
	return v.repairedIDs
}

// Run executes every rule once, in declared order, and aggregates the
// non-empty results into the error report. Any rule failure aborts the run;
// there is no partial report.
func (v *Validator) Run() (*Report, error) {
	report := &Report{}
	for _, r := range v.rules {
		v.logger.Info("Applying validation", "code", r.code, "name", r.name)
		res, err := r.check()
		if err != nil {
			return nil, errors.Wrapf(err, "Validation E%d (%s) failed", r.code, r.name)
		}
		if !res.Empty() {
			report.add(r.code, r.desc, res)
		}
	}
	return report, nil
}

// export writes the original collection back to its persistent layer.
func (v *Validator) export() error {
	if v.exporter == nil {
		return nil
	}
	v.logger.Info("Exporting arcs", "dst", v.dst, "layer", v.layer)
	return v.exporter.Export(v.original, v.dst, v.layer)
}
