package dataflow

// Table is an ordered collection of named, equally sized columns.
//
// Readers produce tables of text cells only; the coercion engine and
// the enrichment step derive new tables from them, so a table handed to
// the validator is never mutated.
type Table struct {
	cols  []*Column
	index map[string]int
}

// Column is an ordered sequence of cells under a name.
type Column struct {
	name  string
	cells []Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// AddColumn appends a column. Adding a duplicate name panics: readers
// and derivation steps control the names they produce.
func (t *Table) AddColumn(name string, cells []Value) *Column {
	if _, ok := t.index[name]; ok {
		panic("duplicate column " + name)
	}
	c := &Column{name: name, cells: cells}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, c)
	return c
}

// NumRows returns the number of rows, 0 for a table with no columns.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Column returns the named column, or nil when absent.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Filter returns a new table holding only the rows for which keep
// returns true. Column order is preserved.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := NewTable()
	kept := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if keep(i) {
			kept = append(kept, i)
		}
	}
	for _, c := range t.cols {
		cells := make([]Value, 0, len(kept))
		for _, i := range kept {
			cells = append(cells, c.cells[i])
		}
		out.AddColumn(c.name, cells)
	}
	return out
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// Value returns the cell at row i.
func (c *Column) Value(i int) Value { return c.cells[i] }

// Set replaces the cell at row i.
func (c *Column) Set(i int, v Value) { c.cells[i] = v }

// FirstNonNull returns the first non-null cell, or a null cell and
// false when the column is entirely null.
func (c *Column) FirstNonNull() (Value, bool) {
	for _, v := range c.cells {
		if !v.IsNull() {
			return v, true
		}
	}
	return Value{}, false
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.cells {
		if v.IsNull() {
			n++
		}
	}
	return n
}
