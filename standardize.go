package crnqa

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// IdentifierError reports arcs whose identifiers violate the 32-hex or the
// uniqueness constraint. It is fatal outside repair mode.
type IdentifierError struct {
	NonHex     []ArcID
	Duplicated []ArcID
}

func (e *IdentifierError) Error() string {
	var b strings.Builder
	b.WriteString("invalid arc identifiers")
	if len(e.NonHex) > 0 {
		fmt.Fprintf(&b, "; not 32 digit hexadecimal: %d record(s)", len(e.NonHex))
	}
	if len(e.Duplicated) > 0 {
		fmt.Fprintf(&b, "; duplicated: %d record(s)", len(e.Duplicated))
	}
	return b.String()
}

// ValidateIdentifiers checks that every non-null identifier is a 32
// character hexadecimal string and unique within the collection. Null
// identifiers are excluded from the uniqueness check but still fail the
// hex check, since a null identifier on real geometry is a data entry
// defect.
func ValidateIdentifiers(arcs *ArcCollection) error {
	idErr := &IdentifierError{}
	counts := make(map[ArcID]int, arcs.Len())
	for _, a := range arcs.Arcs() {
		if !a.ID.Valid() {
			idErr.NonHex = append(idErr.NonHex, a.ID)
		}
		if !a.ID.IsNull() {
			counts[a.ID]++
		}
	}
	for _, a := range arcs.Arcs() {
		if !a.ID.IsNull() && counts[a.ID] > 1 {
			idErr.Duplicated = append(idErr.Duplicated, a.ID)
		}
	}
	if len(idErr.NonHex) > 0 || len(idErr.Duplicated) > 0 {
		return idErr
	}
	return nil
}

// RepairIdentifiers replaces invalid and duplicated identifiers with
// freshly generated 32-hex values, in place. The first occurrence of a
// duplicated identifier keeps it; later occurrences are reassigned.
// Returns the new-to-old mapping of every repaired record.
func RepairIdentifiers(arcs *ArcCollection) map[ArcID]ArcID {
	repaired := make(map[ArcID]ArcID)
	seen := make(map[ArcID]struct{}, arcs.Len())
	for _, a := range arcs.Arcs() {
		_, dup := seen[a.ID]
		if a.ID.Valid() && !dup {
			seen[a.ID] = struct{}{}
			continue
		}
		old := a.ID
		a.ID = NewArcID()
		seen[a.ID] = struct{}{}
		repaired[a.ID] = old
	}
	if len(repaired) > 0 {
		arcs.Reindex()
	}
	return repaired
}

// Standardize produces the standardized copy of an arc collection:
//  1. reprojection into the configured meter-based system (skipped when the
//     collection already carries the target SRID),
//  2. explosion of multi-part geometries into one record per part,
//  3. rounding of every coordinate to the configured decimal precision.
//
// The returned provenance slice maps each standardized record position back
// to its source identifier (exploded parts share the source identifier).
// Standardizing an already standardized collection is a no-op.
func Standardize(arcs *ArcCollection, cfg Config) (*ArcCollection, []ArcID, error) {
	src := arcs.Clone()

	if src.SRID != cfg.ProjectionSRID {
		proj, err := NewProjection(cfg.ProjectionSRID)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Can't reproject arcs")
		}
		for _, a := range src.Arcs() {
			a.Geometry = projectGeometry(proj, a.Geometry)
		}
		src.SRID = cfg.ProjectionSRID
	}

	out := make([]*Arc, 0, src.Len())
	prov := make([]ArcID, 0, src.Len())
	for _, a := range src.Arcs() {
		for _, part := range explodeGeometry(a.Geometry) {
			rec := a.Clone()
			rec.Geometry = part
			if line, ok := rec.Geometry.(orb.LineString); ok {
				rec.Geometry = roundLine(line, cfg.Precision)
			}
			out = append(out, rec)
			prov = append(prov, a.ID)
		}
	}

	std := NewArcCollection(src.SRID, out...)
	return std, prov, nil
}
