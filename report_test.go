package crnqa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionQuery(t *testing.T) {
	q := selectionQuery([]string{"aaa", "bbb"})
	assert.Equal(t, `"segment_id" in ('aaa','bbb')`, q)
}

func TestReportWriteLog(t *testing.T) {
	report := &Report{}
	// Entries arrive in execution order; the log is sorted by code.
	report.add(303, "Arcs must not cross (i.e. must be segmented at each intersection).",
		RuleResult{IDs: []string{"ccc"}, Values: []string{"ccc"}, Query: selectionQuery([]string{"ccc"})})
	report.add(102, "Arcs must be >= 3 meters in length.",
		RuleResult{IDs: []string{"aaa", "bbb"}, Values: []string{"aaa", "bbb"}, Query: selectionQuery([]string{"aaa", "bbb"})})

	var b strings.Builder
	require.NoError(t, report.WriteLog(&b))

	expected := "E102 - Arcs must be >= 3 meters in length.\n\n" +
		"Values:\naaa\nbbb\n\n" +
		"Query: \"segment_id\" in ('aaa','bbb')\n\n" +
		"E303 - Arcs must not cross (i.e. must be segmented at each intersection).\n\n" +
		"Values:\nccc\n\n" +
		"Query: \"segment_id\" in ('ccc')\n\n"
	assert.Equal(t, expected, b.String())
}

func TestReportEntryLookup(t *testing.T) {
	report := &Report{}
	report.add(104, "Arcs must have >= 0.01 meters distance between adjacent vertices (cluster tolerance).",
		RuleResult{IDs: []string{"aaa"}, Values: []string{"aaa"}})

	entry, ok := report.Entry(104)
	require.True(t, ok)
	assert.Equal(t, "E104 - Arcs must have >= 0.01 meters distance between adjacent vertices (cluster tolerance).", entry.Label())

	_, ok = report.Entry(999)
	assert.False(t, ok)
}
