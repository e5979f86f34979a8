package dataflow

import (
	"regexp"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// The coercion engine converts the reader's text cells into the kinds
// the contract declares. It never aborts: a cell that does not parse
// degrades to zero (integer columns) or null (float and temporal
// columns), and incomplete rows are dropped afterwards and only
// counted.

// nonNumeric matches everything the plain normalization strips before
// parsing a number.
var nonNumeric = regexp.MustCompile(`[^0-9,.]`)

// Coerce returns the typed table and the number of rows dropped by the
// completeness rules.
//
// The strict-rows family (point-of-sale exports) drops rows with any
// null before conversion; the essential-columns family (listing
// exports) converts first and then drops rows null in an essential
// column. A contract may use both.
func Coerce(t *Table, c *Contract) (*Table, int) {
	dropped := 0

	cur := t
	if c.StrictRows {
		// Pre-filter completeness check, independent of the guardian's.
		before := cur.NumRows()
		cur = cur.Filter(func(row int) bool {
			for _, name := range cur.Names() {
				if cur.Column(name).Value(row).IsNull() {
					return false
				}
			}
			return true
		})
		dropped += before - cur.NumRows()
	}

	title := cases.Title(language.BrazilianPortuguese)
	out := NewTable()
	for _, name := range cur.Names() {
		col := cur.Column(name)
		cells := cleanCells(col)
		kind, hinted := c.TypeOf(name)
		if !hinted {
			var skip bool
			kind, skip = detectKind(cells)
			if skip {
				out.AddColumn(name, cells)
				continue
			}
		}
		switch kind {
		case Integer, Float:
			cells = coerceNumeric(cells, kind, hinted, c)
		case Date, Datetime:
			cells = coerceTemporal(cells, kind)
		default:
			cells = coerceText(cells, title)
		}
		out.AddColumn(name, cells)
	}

	if len(c.Essential) > 0 {
		before := out.NumRows()
		out = out.Filter(func(row int) bool {
			for _, name := range c.Essential {
				col := out.Column(name)
				if col != nil && col.Value(row).IsNull() {
					return false
				}
			}
			return true
		})
		dropped += before - out.NumRows()
	}
	return out, dropped
}

// cleanCells strips the literal quote characters some upstream exports
// wrap values in, and surrounding whitespace. Cells left empty become
// null.
func cleanCells(col *Column) []Value {
	cells := make([]Value, col.Len())
	for i := range cells {
		v := col.Value(i)
		if v.IsNull() || v.Kind() != Text {
			cells[i] = v
			continue
		}
		s := strings.TrimSpace(strings.ReplaceAll(v.Text(), `"`, ""))
		cells[i] = cellValue(s)
	}
	return cells
}

// detectKind samples the first non-null cell of a column without a
// contract type hint. Best effort only: a time-of-day value is left
// untouched (skip), a value with date separators is treated as
// temporal, anything else with a digit as numeric.
func detectKind(cells []Value) (kind Kind, skip bool) {
	var sample string
	for _, v := range cells {
		if !v.IsNull() {
			sample = v.Text()
			break
		}
	}
	if sample == "" {
		return Text, true
	}
	hasSep := strings.ContainsAny(sample, "/-")
	switch {
	case strings.Contains(sample, ":") && len(sample) <= 8 && !hasSep:
		return Text, true
	case hasSep:
		if strings.Contains(sample, ":") {
			return Datetime, false
		}
		return Date, false
	case strings.ContainsAny(sample, "0123456789"):
		return Float, false
	default:
		return Text, false
	}
}

// coerceNumeric converts a column to integers or decimal floats.
// Integer cells that are null or fail to parse become 0; float cells
// become null and are left to the drop step. Heuristically detected
// numeric columns (hinted == false) also fill to zero, matching the
// point-of-sale pipeline they were lifted from.
func coerceNumeric(cells []Value, k Kind, hinted bool, c *Contract) []Value {
	symbol := currencySymbol(c.Currency)
	out := make([]Value, len(cells))
	for i, v := range cells {
		zeroFill := k == Integer || !hinted
		if v.IsNull() {
			if zeroFill {
				out[i] = numericZero(k)
			} else {
				out[i] = NullValue(k)
			}
			continue
		}
		d, err := parseNumber(v.Text(), c.NumberStyle, symbol)
		if err != nil {
			if zeroFill {
				out[i] = numericZero(k)
			} else {
				out[i] = NullValue(k)
			}
			continue
		}
		if k == Integer {
			out[i] = IntValue(d.IntPart())
		} else {
			out[i] = FloatValue(d)
		}
	}
	return out
}

func numericZero(k Kind) Value {
	if k == Integer {
		return IntValue(0)
	}
	return FloatValue(decimal.Zero)
}

// parseNumber normalizes raw numeric text per the contract style and
// parses it as an exact decimal.
func parseNumber(s string, style NumberStyle, symbol string) (decimal.Decimal, error) {
	switch style {
	case Currency:
		// "R$ 1.234,56" -> "1234.56"
		if symbol != "" {
			s = strings.ReplaceAll(s, symbol, "")
		}
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	default:
		// "1234,56 m²" -> "1234.56"
		s = nonNumeric.ReplaceAllString(s, "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

// currencySymbol resolves the display symbol for a contract currency
// code ("BRL" -> "R$"). Unknown or empty codes strip nothing.
func currencySymbol(code string) string {
	if code == "" {
		return ""
	}
	cur := money.GetCurrency(code)
	if cur == nil {
		return ""
	}
	return cur.Grapheme
}

// coerceTemporal converts a column to dates or datetimes. The ISO form
// is tried first, the day/month/year form second, and the two parses
// merge cell-wise so mixed exports keep every parseable value.
func coerceTemporal(cells []Value, k Kind) []Value {
	formats := []string{DateFormat, AltDateFormat}
	if k == Datetime {
		formats = []string{DatetimeFormat, AltDatetimeFormat, DateFormat, AltDateFormat}
	}
	out := make([]Value, len(cells))
	for i, v := range cells {
		if v.IsNull() {
			out[i] = NullValue(k)
			continue
		}
		out[i] = parseTemporal(v.Text(), k, formats)
	}
	return out
}

func parseTemporal(s string, k Kind, formats []string) Value {
	for _, f := range formats {
		t, err := time.ParseInLocation(f, s, time.UTC)
		if err != nil {
			continue
		}
		if k == Datetime {
			return DatetimeValue(t)
		}
		return DateValue(t)
	}
	return NullValue(k)
}

// coerceText canonicalizes text cells: surrounding whitespace is
// trimmed and words are title-cased for display consistency. Distinct
// raw casings deliberately collapse to one form.
func coerceText(cells []Value, title cases.Caser) []Value {
	out := make([]Value, len(cells))
	for i, v := range cells {
		if v.IsNull() {
			out[i] = NullValue(Text)
			continue
		}
		out[i] = TextValue(title.String(strings.TrimSpace(v.Text())))
	}
	return out
}
