package crnqa

import (
	"github.com/paulmach/orb"
)

// endpointKey is an unordered endpoint pair used to bucket candidate
// duplicates.
type endpointKey [2]orb.Point

func newEndpointKey(start, end orb.Point) endpointKey {
	if pointLess(end, start) {
		return endpointKey{end, start}
	}
	return endpointKey{start, end}
}

// duplicationDuplicated validates E201: arcs must not be duplicated. Three
// filters are applied in sequence, cheapest first: duplicated length, then
// duplicated unordered endpoint pair, then exact geometric equality.
func (v *Validator) duplicationDuplicated() (RuleResult, error) {
	// Filter arcs to those with duplicated lengths.
	byLength := make(map[float64][]*Arc)
	for _, a := range v.roads.Arcs() {
		if _, ok := a.Line(); !ok {
			continue
		}
		length := lineLength(a.Geometry)
		byLength[length] = append(byLength[length], a)
	}

	flagged := make(idSet)
	for _, lengthGroup := range byLength {
		if len(lengthGroup) < 2 {
			continue
		}
		// Filter arcs to those with duplicated nodes.
		byNodes := make(map[endpointKey][]*Arc)
		for _, a := range lengthGroup {
			start, end, ok := a.Nodes()
			if !ok {
				continue
			}
			key := newEndpointKey(start, end)
			byNodes[key] = append(byNodes[key], a)
		}
		for _, nodeGroup := range byNodes {
			if len(nodeGroup) < 2 {
				continue
			}
			// Flag geometrically equal arcs. Equality is the final
			// arbiter: same length and endpoints alone admit differently
			// shaped arcs.
			for _, a := range nodeGroup {
				lineA, _ := a.Line()
				equals := 0
				for _, b := range nodeGroup {
					lineB, _ := b.Line()
					if linesEqual(lineA, lineB) {
						equals++
					}
				}
				if equals > 1 {
					flagged.add(a.ID)
				}
			}
		}
	}
	return compileResult(flagged), nil
}

// duplicationOverlap validates E202: arcs must not partially coincide with
// another arc (duplicated adjacent vertices).
func (v *Validator) duplicationOverlap() (RuleResult, error) {
	flagged := make(idSet)
	for idx, a := range v.roads.Arcs() {
		if len(v.lookups.queryOverlaps(idx)) > 0 {
			flagged.add(a.ID)
		}
	}
	return compileResult(flagged), nil
}
