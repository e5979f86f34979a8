package dataflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Enrich adds the derived columns declared by the contract plus the
// calendar decomposition of every temporal column. Derivations are pure
// row functions except quartile binning, which depends on the full
// column distribution; aggregates and ratios are computed before the
// binning that may consume them. Enrich never fails: degenerate inputs
// degrade to zeros, nulls or the catch-all quartile label.
func Enrich(t *Table, c *Contract) *Table {
	if spec := c.Derive.CostTotal; spec != nil {
		addCostTotal(t, spec)
	}
	if spec := c.Derive.PerUnit; spec != nil {
		addPerUnit(t, spec)
	}
	if spec := c.Derive.Quartile; spec != nil {
		addQuartile(t, spec)
	}
	addCalendar(t, c.Labels)
	return t
}

// numericDecimal reads an integer or float cell as a decimal.
func numericDecimal(v Value) (decimal.Decimal, bool) {
	if v.IsNull() {
		return decimal.Zero, false
	}
	switch v.Kind() {
	case Integer:
		return decimal.NewFromInt(v.Int()), true
	case Float:
		return v.Decimal(), true
	default:
		return decimal.Zero, false
	}
}

// addCostTotal sums the primary charge column with every declared extra
// charge column present in this schema variant. A null contribution
// makes the row's total null, mirroring the completeness rules.
func addCostTotal(t *Table, spec *CostSpec) {
	primary := t.Column(spec.Primary)
	if primary == nil {
		return
	}
	var extras []*Column
	for _, name := range spec.Extras {
		if col := t.Column(name); col != nil {
			extras = append(extras, col)
		}
	}
	cells := make([]Value, t.NumRows())
	for i := range cells {
		total, ok := numericDecimal(primary.Value(i))
		for _, col := range extras {
			if !ok {
				break
			}
			d, valid := numericDecimal(col.Value(i))
			if !valid {
				ok = false
				break
			}
			total = total.Add(d)
		}
		if ok {
			cells[i] = FloatValue(total)
		} else {
			cells[i] = NullValue(Float)
		}
	}
	t.AddColumn(spec.Target, cells)
}

// addPerUnit divides the value column by the size column, guarded to 0
// whenever the divisor is null or not positive.
func addPerUnit(t *Table, spec *RatioSpec) {
	value := t.Column(spec.Value)
	by := t.Column(spec.By)
	if value == nil || by == nil {
		return
	}
	cells := make([]Value, t.NumRows())
	for i := range cells {
		div, ok := numericDecimal(by.Value(i))
		if !ok || !div.IsPositive() {
			cells[i] = FloatValue(decimal.Zero)
			continue
		}
		num, ok := numericDecimal(value.Value(i))
		if !ok {
			cells[i] = NullValue(Float)
			continue
		}
		cells[i] = FloatValue(num.Div(div))
	}
	t.AddColumn(spec.Target, cells)
}

// addQuartile bins a monetary column into the four labeled buckets
// using data-driven boundaries. When the distribution cannot produce
// four distinct boundaries, every row gets the catch-all label instead
// of failing the run.
func addQuartile(t *Table, spec *QuartileSpec) {
	col := t.Column(spec.Column)
	if col == nil {
		return
	}
	var values []decimal.Decimal
	for i := 0; i < col.Len(); i++ {
		if d, ok := numericDecimal(col.Value(i)); ok {
			values = append(values, d)
		}
	}
	cells := make([]Value, t.NumRows())
	if len(values) == 0 {
		for i := range cells {
			cells[i] = TextValue(spec.Fallback)
		}
		t.AddColumn(spec.Target, cells)
		return
	}
	edges, distinct := quartileEdges(values)
	for i := range cells {
		if !distinct {
			cells[i] = TextValue(spec.Fallback)
			continue
		}
		d, ok := numericDecimal(col.Value(i))
		if !ok {
			cells[i] = NullValue(Text)
			continue
		}
		cells[i] = TextValue(quartileLabel(d, edges, spec.Labels))
	}
	t.AddColumn(spec.Target, cells)
}

// addCalendar decomposes every temporal column into weekday, month,
// year and quarter columns, plus the hour of day for datetime columns.
func addCalendar(t *Table, labels Labels) {
	for _, name := range t.Names() {
		col := t.Column(name)
		kind := columnKind(col)
		if kind != Date && kind != Datetime {
			continue
		}
		rows := t.NumRows()
		weekday := make([]Value, rows)
		month := make([]Value, rows)
		year := make([]Value, rows)
		quarter := make([]Value, rows)
		hour := make([]Value, rows)
		for i := 0; i < rows; i++ {
			v := col.Value(i)
			if v.IsNull() {
				weekday[i] = NullValue(Text)
				month[i] = NullValue(Text)
				year[i] = NullValue(Integer)
				quarter[i] = NullValue(Text)
				hour[i] = NullValue(Integer)
				continue
			}
			on := v.Time()
			weekday[i] = TextValue(labels.Weekdays[isoWeekday(on)-1])
			m := int(on.Month())
			month[i] = TextValue(fmt.Sprintf("%02d-%s", m, labels.Months[m-1]))
			year[i] = IntValue(int64(on.Year()))
			quarter[i] = TextValue(fmt.Sprintf("Q%d", (m-1)/3+1))
			hour[i] = IntValue(int64(on.Hour()))
		}
		t.AddColumn(name+"_dia_sem", weekday)
		t.AddColumn(name+"_mes", month)
		t.AddColumn(name+"_ano", year)
		t.AddColumn(name+"_trimestre", quarter)
		if kind == Datetime {
			t.AddColumn(name+"_hora", hour)
		}
	}
}

// columnKind returns the kind of the first non-null cell; a fully null
// column reports its declared cell kind.
func columnKind(col *Column) Kind {
	if v, ok := col.FirstNonNull(); ok {
		return v.Kind()
	}
	if col.Len() > 0 {
		return col.Value(0).Kind()
	}
	return Text
}

// isoWeekday maps time.Weekday (Sunday=0) to the ISO numbering
// Monday=1..Sunday=7 used by the labels.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
