package crnqa

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// RuleResult is the outcome of one validation rule: the violating arc
// identifiers plus an optional ready-to-use selection predicate for
// external tooling. Values beyond plain identifiers (e.g. grouped
// proximity findings) are preformatted strings.
type RuleResult struct {
	// IDs is the sorted set of violating arc identifiers.
	IDs []string
	// Values is what the error log prints; identical to IDs except for
	// rules that report formatted findings.
	Values []string
	Query  string
}

// Empty reports whether the rule produced no violations.
func (r RuleResult) Empty() bool {
	return len(r.Values) == 0
}

// ReportEntry couples a rule with its non-empty result.
type ReportEntry struct {
	Code        int
	Description string
	Result      RuleResult
}

// Label renders the rule heading used in error logs.
func (e ReportEntry) Label() string {
	return fmt.Sprintf("E%d - %s", e.Code, e.Description)
}

// Report is the immutable error report of one validation run. Only rules
// that produced at least one violation appear; entries keep the execution
// order of the rules that produced them.
type Report struct {
	entries []ReportEntry
}

func (r *Report) add(code int, desc string, res RuleResult) {
	r.entries = append(r.entries, ReportEntry{Code: code, Description: desc, Result: res})
}

// Entries returns a copy of the report entries.
func (r *Report) Entries() []ReportEntry {
	out := make([]ReportEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of rules with violations.
func (r *Report) Len() int {
	return len(r.entries)
}

// Entry returns the entry for the given rule code.
func (r *Report) Entry(code int) (ReportEntry, bool) {
	for _, e := range r.entries {
		if e.Code == code {
			return e, true
		}
	}
	return ReportEntry{}, false
}

// WriteLog serializes the report sorted by rule code: rule label, the
// newline-joined violating values and, when present, the selection query.
func (r *Report) WriteLog(w io.Writer) error {
	entries := r.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	for _, e := range entries {
		values := strings.Join(e.Result.Values, "\n")
		var err error
		if e.Result.Query != "" {
			_, err = fmt.Fprintf(w, "%s\n\nValues:\n%s\n\nQuery: %s\n\n", e.Label(), values, e.Result.Query)
		} else {
			_, err = fmt.Fprintf(w, "%s\n\nValues:\n%s\n\n", e.Label(), values)
		}
		if err != nil {
			return errors.Wrap(err, "Can't write error log")
		}
	}
	return nil
}

// selectionQuery builds the `"segment_id" in (...)` predicate selecting the
// given identifiers.
func selectionQuery(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("'%s'", id)
	}
	return fmt.Sprintf("\"segment_id\" in (%s)", strings.Join(quoted, ","))
}

// sortedIDs renders an identifier set as a sorted string slice.
func sortedIDs(set idSet) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, string(id))
	}
	sort.Strings(out)
	return out
}
