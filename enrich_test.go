package dataflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

// typedTable builds a table directly from typed cells, column by column.
func typedTable(t *testing.T, names []string, cols ...[]Value) *Table {
	t.Helper()
	table := NewTable()
	for i, name := range names {
		table.AddColumn(name, cols[i])
	}
	return table
}

func floats(vs ...float64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = FloatValue(decimal.NewFromFloat(v))
	}
	return out
}

func TestEnrichCostTotal(t *testing.T) {
	contract := testContract(t, Contract{
		Derive: Derivations{CostTotal: &CostSpec{
			Target:  "Custo_Mensal",
			Primary: "Aluguel",
			Extras:  []string{"Condominio", "IPTU", "Seguro"},
		}},
	})

	// The Seguro extra is absent from this upload and is skipped.
	table := typedTable(t, []string{"Aluguel", "Condominio", "IPTU"},
		floats(1000, 1500, 2000),
		floats(300, 400, 500),
		[]Value{FloatValue(decimal.NewFromInt(50)), NullValue(Float), FloatValue(decimal.NewFromInt(70))},
	)

	Enrich(table, contract)
	col := table.Column("Custo_Mensal")
	if col == nil {
		t.Fatal("cost total column not added")
	}
	if got := col.Value(0).Decimal(); !got.Equal(decimal.NewFromInt(1350)) {
		t.Errorf("row 0 total = %s, want 1350", got)
	}
	if !col.Value(1).IsNull() {
		t.Error("row with a null extra should have a null total")
	}
	if got := col.Value(2).Decimal(); !got.Equal(decimal.NewFromInt(2570)) {
		t.Errorf("row 2 total = %s, want 2570", got)
	}
}

func TestEnrichCostTotalWithoutPrimary(t *testing.T) {
	contract := testContract(t, Contract{
		Derive: Derivations{CostTotal: &CostSpec{Target: "Total", Primary: "Valor"}},
	})
	table := typedTable(t, []string{"Outra"}, floats(1))

	Enrich(table, contract)
	if table.HasColumn("Total") {
		t.Error("cost total should not be added when the primary column is absent")
	}
}

func TestEnrichPerUnit(t *testing.T) {
	contract := testContract(t, Contract{
		Derive: Derivations{PerUnit: &RatioSpec{Target: "Preco_m2", Value: "Aluguel", By: "Area"}},
	})
	table := typedTable(t, []string{"Aluguel", "Area"},
		[]Value{
			FloatValue(decimal.NewFromInt(1000)),
			FloatValue(decimal.NewFromInt(900)),
			NullValue(Float),
			FloatValue(decimal.NewFromInt(800)),
		},
		[]Value{
			FloatValue(decimal.NewFromInt(50)),
			FloatValue(decimal.Zero),
			FloatValue(decimal.NewFromInt(60)),
			NullValue(Float),
		},
	)

	Enrich(table, contract)
	col := table.Column("Preco_m2")

	if got := col.Value(0).Decimal(); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("ratio = %s, want 20", got)
	}
	if got := col.Value(1).Decimal(); !got.IsZero() {
		t.Errorf("zero divisor ratio = %s, want 0", got)
	}
	if !col.Value(2).IsNull() {
		t.Error("null numerator should stay null")
	}
	if got := col.Value(3).Decimal(); !got.IsZero() {
		t.Errorf("null divisor ratio = %s, want 0", got)
	}
}

func TestEnrichQuartile(t *testing.T) {
	contract := testContract(t, Contract{
		Derive: Derivations{Quartile: &QuartileSpec{Target: "Categoria", Column: "Valor"}},
	})
	table := typedTable(t, []string{"Valor"}, floats(1, 2, 3, 4, 5, 6, 7, 8))

	Enrich(table, contract)
	col := table.Column("Categoria")

	wants := []string{
		"Economic", "Economic",
		"Standard", "Standard",
		"Premium", "Premium",
		"Luxury", "Luxury",
	}
	for i, want := range wants {
		if got := col.Value(i).Text(); got != want {
			t.Errorf("row %d label = %q, want %q", i, got, want)
		}
	}
}

func TestEnrichQuartileFallback(t *testing.T) {
	contract := testContract(t, Contract{
		Derive: Derivations{Quartile: &QuartileSpec{Target: "Categoria", Column: "Valor"}},
	})

	t.Run("constant distribution", func(t *testing.T) {
		table := typedTable(t, []string{"Valor"}, floats(5, 5, 5, 5))
		Enrich(table, contract)
		for i := 0; i < 4; i++ {
			if got := table.Column("Categoria").Value(i).Text(); got != "General" {
				t.Errorf("row %d label = %q, want fallback", i, got)
			}
		}
	})

	t.Run("all null column", func(t *testing.T) {
		table := typedTable(t, []string{"Valor"},
			[]Value{NullValue(Float), NullValue(Float)})
		Enrich(table, contract)
		for i := 0; i < 2; i++ {
			if got := table.Column("Categoria").Value(i).Text(); got != "General" {
				t.Errorf("row %d label = %q, want fallback", i, got)
			}
		}
	})

	t.Run("null cell in a labeled distribution", func(t *testing.T) {
		table := typedTable(t, []string{"Valor"},
			[]Value{
				FloatValue(decimal.NewFromInt(1)),
				NullValue(Float),
				FloatValue(decimal.NewFromInt(2)),
				FloatValue(decimal.NewFromInt(3)),
				FloatValue(decimal.NewFromInt(4)),
			})
		Enrich(table, contract)
		if !table.Column("Categoria").Value(1).IsNull() {
			t.Error("null value should get a null label")
		}
	})
}

func TestEnrichCalendar(t *testing.T) {
	contract := testContract(t, Contract{})
	table := typedTable(t, []string{"quando"},
		[]Value{
			DateValue(mustDate(t, "2025-03-02")), // a Sunday
			DateValue(mustDate(t, "2025-03-03")), // a Monday
			DateValue(mustDate(t, "2025-12-25")),
			NullValue(Date),
		})

	Enrich(table, contract)

	checks := []struct {
		col  string
		row  int
		want string
	}{
		{"quando_dia_sem", 0, "Domingo"},
		{"quando_dia_sem", 1, "Segunda"},
		{"quando_dia_sem", 2, "Quinta"},
		{"quando_mes", 0, "03-Mar"},
		{"quando_mes", 2, "12-Dez"},
		{"quando_trimestre", 0, "Q1"},
		{"quando_trimestre", 2, "Q4"},
	}
	for _, tc := range checks {
		col := table.Column(tc.col)
		if col == nil {
			t.Fatalf("column %s not added", tc.col)
		}
		if got := col.Value(tc.row).Text(); got != tc.want {
			t.Errorf("%s row %d = %q, want %q", tc.col, tc.row, got, tc.want)
		}
	}

	if got := table.Column("quando_ano").Value(0).Int(); got != 2025 {
		t.Errorf("year = %d, want 2025", got)
	}
	for _, name := range []string{"quando_dia_sem", "quando_mes", "quando_ano", "quando_trimestre"} {
		if !table.Column(name).Value(3).IsNull() {
			t.Errorf("%s for a null date should be null", name)
		}
	}
	if table.HasColumn("quando_hora") {
		t.Error("date column should not get an hour decomposition")
	}
}

func TestEnrichCalendarDatetime(t *testing.T) {
	contract := testContract(t, Contract{})
	v, err := ParseValue("2025-06-15 18:30:00", Datetime)
	if err != nil {
		t.Fatal(err)
	}
	table := typedTable(t, []string{"pedido"}, []Value{v})

	Enrich(table, contract)

	if got := table.Column("pedido_hora").Value(0).Int(); got != 18 {
		t.Errorf("hour = %d, want 18", got)
	}
	if got := table.Column("pedido_dia_sem").Value(0).Text(); got != "Domingo" {
		t.Errorf("weekday = %q, want Domingo", got)
	}
}

func TestEnrichCustomLabels(t *testing.T) {
	contract := testContract(t, Contract{
		Labels: Labels{
			Weekdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
			Months:   []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		},
	})
	table := typedTable(t, []string{"d"}, []Value{DateValue(mustDate(t, "2025-03-03"))})

	Enrich(table, contract)
	if got := table.Column("d_dia_sem").Value(0).Text(); got != "Mon" {
		t.Errorf("weekday = %q, want Mon", got)
	}
	if got := table.Column("d_mes").Value(0).Text(); got != "03-Mar" {
		t.Errorf("month = %q, want 03-Mar", got)
	}
}
