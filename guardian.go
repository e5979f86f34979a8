package dataflow

import (
	"fmt"
	"sort"
)

// The guardian is the acceptance gate between the file reader and the
// coercion engine. It never mutates the table, so it can be re-run on
// the same input and return the same verdict.

// IntegrityReport summarizes row completeness: a row counts as invalid
// when any of its cells is null.
type IntegrityReport struct {
	TotalRows    int     `json:"total_rows"`
	ValidRows    int     `json:"valid_rows"`
	InvalidRows  int     `json:"invalid_rows"`
	IntegrityPct float64 `json:"integrity_pct"`
}

// Inspect computes the integrity report for a table.
func Inspect(t *Table) IntegrityReport {
	total := t.NumRows()
	bad := 0
	for i := 0; i < total; i++ {
		for _, name := range t.Names() {
			if t.Column(name).Value(i).IsNull() {
				bad++
				break
			}
		}
	}
	rep := IntegrityReport{TotalRows: total, ValidRows: total - bad, InvalidRows: bad}
	if total > 0 {
		rep.IntegrityPct = float64(total-bad) / float64(total) * 100
	}
	return rep
}

// missingColumns returns the required columns absent from the table,
// sorted for stable diagnostics.
func missingColumns(t *Table, c *Contract) []string {
	var missing []string
	for _, name := range c.Required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Validate gates a raw table against the contract. The diagnostic
// carries the integrity percentage on acceptance and on an
// integrity-driven rejection; a schema rejection names the exact
// missing columns instead.
//
// The threshold comparison is inclusive: a table exactly at the
// contract minimum passes.
func Validate(t *Table, c *Contract) (bool, string) {
	if missing := missingColumns(t, c); len(missing) > 0 {
		return false, (&SchemaError{Missing: missing}).Error()
	}
	if t.NumRows() == 0 {
		return false, (&IntegrityError{Empty: true}).Error()
	}
	rep := Inspect(t)
	if rep.IntegrityPct < c.MinIntegrity {
		return false, (&IntegrityError{Report: rep, Min: c.MinIntegrity}).Error()
	}
	return true, fmt.Sprintf("approved: %.2f%% complete rows", rep.IntegrityPct)
}
