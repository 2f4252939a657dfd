package crnqa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// connectivityNodeIntersection validates E301: arcs must only connect at
// endpoints (nodes). A vertex coordinate that is an endpoint of one arc and
// an interior vertex of another (or the same) arc, touched by more than one
// arc, flags every arc whose interior hits it.
func (v *Validator) connectivityNodeIntersection() (RuleResult, error) {
	// Compile nodes.
	nodes := make(map[orb.Point]struct{})
	for _, a := range v.roads.Arcs() {
		start, end, ok := a.Nodes()
		if !ok {
			continue
		}
		nodes[start] = struct{}{}
		nodes[end] = struct{}{}
	}

	// Compile interior vertices (non-nodes). Only arcs with more than two
	// vertices carry an interior.
	nonNodes := make(map[orb.Point]struct{})
	for _, a := range v.roads.Arcs() {
		line, ok := a.Line()
		if !ok || len(line) <= 2 {
			continue
		}
		for _, pt := range line[1 : len(line)-1] {
			nonNodes[pt] = struct{}{}
		}
	}

	// Invalid vertices: node/interior collisions touched by multiple arcs.
	invalid := make(map[orb.Point]struct{})
	for pt := range nodes {
		if _, ok := nonNodes[pt]; !ok {
			continue
		}
		if len(v.lookups.idsAt(pt)) > 1 {
			invalid[pt] = struct{}{}
		}
	}
	if len(invalid) == 0 {
		return RuleResult{}, nil
	}

	// Violating arcs are exactly those whose interior vertices intersect
	// the invalid set. Evaluated per record, not per identifier: exploded
	// sibling parts carry their own interiors.
	flagged := make(idSet)
	for _, a := range v.roads.Arcs() {
		line, ok := a.Line()
		if !ok || len(line) <= 2 {
			continue
		}
		for _, interior := range line[1 : len(line)-1] {
			if _, hit := invalid[interior]; hit {
				flagged.add(a.ID)
				break
			}
		}
	}
	return compileResult(flagged), nil
}

// connectivityMinDistance validates E302: arcs must keep the minimum
// clearance from each other unless truly connected (no dangles). For every
// dead-end node, arcs within the buffer that do not share a vertex with
// either of the arc's own nodes are flagged together with the dead-end arc.
func (v *Validator) connectivityMinDistance() (RuleResult, error) {
	// Compile all non-duplicated nodes (dead ends).
	nodeCount := make(map[orb.Point]int)
	for _, a := range v.roads.Arcs() {
		start, end, ok := a.Nodes()
		if !ok {
			continue
		}
		nodeCount[start]++
		nodeCount[end]++
	}

	type deadend struct {
		arc *Arc
		pt  orb.Point
	}
	var deadends []deadend
	for _, a := range v.roads.Arcs() {
		start, end, ok := a.Nodes()
		if !ok {
			continue
		}
		if nodeCount[start] == 1 {
			deadends = append(deadends, deadend{a, start})
		}
		if nodeCount[end] == 1 {
			deadends = append(deadends, deadend{a, end})
		}
	}

	// Aggregate buffer hits per source record: an arc contributes twice
	// when both of its nodes are dead ends.
	intersects := make(map[*Arc]idSet)
	for _, de := range deadends {
		hits := v.lookups.queryBuffer(de.pt, v.cfg.MinDistance)
		if len(hits) <= 1 {
			// Only the dead-end arc itself is inside the buffer.
			continue
		}
		agg, ok := intersects[de.arc]
		if !ok {
			agg = make(idSet)
			intersects[de.arc] = agg
		}
		for id := range hits {
			agg.add(id)
		}
	}

	// Subtract connected arcs: anything sharing a vertex with either of
	// the dead-end arc's own nodes, from the vertex lookup.
	groups := make(map[string][]string)
	for a, hit := range intersects {
		start, end, ok := a.Nodes()
		if !ok {
			continue
		}
		connected := make(idSet)
		for cid := range v.lookups.idsAt(start) {
			connected.add(cid)
		}
		for cid := range v.lookups.idsAt(end) {
			connected.add(cid)
		}
		disconnected := hit.subtract(connected)
		if len(disconnected) == 0 {
			continue
		}
		group := make(idSet)
		group.add(a.ID)
		for did := range disconnected {
			group.add(did)
		}
		ids := sortedIDs(group)
		groups[strings.Join(ids, ",")] = ids
	}
	if len(groups) == 0 {
		return RuleResult{}, nil
	}

	// De-duplicate mirrored results and compile error logs.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	all := make(idSet)
	for _, k := range keys {
		ids := groups[k]
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = fmt.Sprintf("'%s'", id)
			all.add(ArcID(ids[i]))
		}
		values = append(values, fmt.Sprintf("Disconnected features are too close: (%s)", strings.Join(quoted, ", ")))
	}
	return RuleResult{IDs: sortedIDs(all), Values: values, Query: selectionQuery(sortedIDs(all))}, nil
}

// connectivitySegmentation validates E303: arcs must not cross. Detection
// is pure; when an exporter is configured the crossing arcs are immediately
// repaired by splitting the original geometries and the enlarged collection
// is written back before the run continues.
func (v *Validator) connectivitySegmentation() (RuleResult, error) {
	crossings := v.DetectCrossings()
	if len(crossings) == 0 {
		return RuleResult{}, nil
	}

	flagged := make(idSet)
	for id := range crossings {
		flagged.add(id)
	}

	if v.exporter != nil {
		if err := v.RepairCrossings(crossings); err != nil {
			return RuleResult{}, errors.Wrap(err, "Can't repair crossing arcs")
		}
	}
	return compileResult(flagged), nil
}

// DetectCrossings returns, for every road arc crossed by at least one other
// record, the identifiers of its crossing partners. Exploded sibling parts
// crossing each other report under their shared source identifier. Pure
// query against the standardized arcs; no side effects.
func (v *Validator) DetectCrossings() map[ArcID]idSet {
	crossings := make(map[ArcID]idSet)
	for idx, a := range v.roads.Arcs() {
		partners := v.lookups.queryCrosses(idx)
		if len(partners) == 0 {
			continue
		}
		agg, ok := crossings[a.ID]
		if !ok {
			agg = make(idSet)
			crossings[a.ID] = agg
		}
		for id := range partners {
			agg.add(id)
		}
	}
	return crossings
}

// RepairCrossings splits the original geometry of every flagged arc at its
// crossings with each partner, explodes the result into single-part
// records, re-rounds coordinates and persists the enlarged collection.
// The first part keeps the source identifier; every additional part gets a
// fresh one. Splitting happens in the source reference system so the
// write-back keeps full-fidelity coordinates.
func (v *Validator) RepairCrossings(crossings map[ArcID]idSet) error {
	ids := make([]string, 0, len(crossings))
	involved := make(idSet)
	for id, partners := range crossings {
		ids = append(ids, string(id))
		involved.add(id)
		for pid := range partners {
			involved.add(pid)
		}
	}
	sort.Strings(ids)

	// Snapshot the pre-repair geometries. Every flagged arc must be split
	// against its partners as detected: once a partner is split itself, the
	// crossing point becomes one of its endpoints and no longer counts as a
	// crossing.
	snapshot := make(map[ArcID][]orb.LineString, len(involved))
	for id := range involved {
		a, ok := v.original.Get(id)
		if !ok {
			return errors.Errorf("Arc %q not present in original collection", id)
		}
		var lines []orb.LineString
		for _, g := range explodeGeometry(a.Geometry) {
			if line, ok := g.(orb.LineString); ok {
				lines = append(lines, line)
			}
		}
		snapshot[id] = lines
	}

	mutated := false
	for _, idStr := range ids {
		id := ArcID(idStr)
		idx := v.original.IndexOf(id)
		if idx < 0 {
			return errors.Errorf("Arc %q not present in original collection", id)
		}
		arc := v.original.Arcs()[idx]

		origLines := snapshot[id]
		if len(origLines) == 0 {
			continue
		}

		// Collect the splitters of each source part: every line of every
		// crossing partner, plus the part's own multipart siblings. The
		// partner set may name the arc itself when sibling parts cross,
		// which the sibling pass already covers.
		var parts []orb.LineString
		for k, line := range origLines {
			var splitters []orb.LineString
			for k2, sibling := range origLines {
				if k2 != k {
					splitters = append(splitters, sibling)
				}
			}
			for _, partnerStr := range sortedIDs(crossings[id]) {
				if ArcID(partnerStr) == id {
					continue
				}
				splitters = append(splitters, snapshot[ArcID(partnerStr)]...)
			}

			cur := []orb.LineString{line}
			for _, splitter := range splitters {
				next := make([]orb.LineString, 0, len(cur))
				for _, part := range cur {
					next = append(next, splitLineAt(part, lineCrossings(part, splitter))...)
				}
				cur = next
			}
			parts = append(parts, cur...)
		}
		if len(parts) <= 1 {
			continue
		}

		records := make([]*Arc, len(parts))
		for i, part := range parts {
			rec := arc.Clone()
			rec.Geometry = roundLine(part, v.cfg.Precision)
			if i > 0 {
				rec.ID = NewArcID()
			}
			records[i] = rec
		}
		v.original.Replace(idx, records...)
		v.logger.Info("Segmented crossing arc", "id", idStr, "parts", len(parts))
		mutated = true
	}

	if !mutated {
		return nil
	}
	// The repaired geometry is the source of truth for any downstream
	// consumer; persist before the run continues.
	return v.export()
}
