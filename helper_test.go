package dataflow

import (
	"testing"
	"time"
)

// textTable builds a raw table the way the readers produce them: text
// cells only, with the missing-value tokens mapped to null.
func textTable(t *testing.T, headers []string, rows [][]string) *Table {
	t.Helper()
	table := NewTable()
	for i, name := range headers {
		cells := make([]Value, len(rows))
		for j, row := range rows {
			if i < len(row) {
				cells[j] = cellValue(row[i])
			} else {
				cells[j] = NullValue(Text)
			}
		}
		table.AddColumn(name, cells)
	}
	return table
}

// testContract builds a checked contract for tests.
func testContract(t *testing.T, c Contract) *Contract {
	t.Helper()
	if err := c.Check(); err != nil {
		t.Fatalf("invalid test contract: %v", err)
	}
	return &c
}

// mustDate parses an ISO date for expectations.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	on, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return on
}
