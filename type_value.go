package dataflow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical written form for date cells (ISO-8601).
const DateFormat = "2006-01-02"

// DatetimeFormat is the canonical written form for datetime cells.
const DatetimeFormat = "2006-01-02 15:04:05"

// Day/month/year forms found in uploads from Brazilian sources. They
// are the fallback when the canonical form does not parse.
const (
	AltDateFormat     = "02/01/2006"
	AltDatetimeFormat = "02/01/2006 15:04:05"
)

// Kind is the semantic type of a column as declared by a contract or
// detected by the coercion engine.
type Kind int

const (
	Text Kind = iota
	Integer
	Float
	Date
	Datetime
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "date"
	case Datetime:
		return "datetime"
	default:
		panic(fmt.Sprintf("unknown kind %d", int(k)))
	}
}

// ParseKind parses the textual form used in contracts and status records.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text":
		return Text, nil
	case "integer", "int":
		return Integer, nil
	case "float":
		return Float, nil
	case "date":
		return Date, nil
	case "datetime":
		return Datetime, nil
	default:
		return Text, fmt.Errorf("unknown column type %q", s)
	}
}

// Value is a single typed cell. The zero value is a null text cell.
//
// Float cells are decimal-backed so monetary normalization and the
// derived aggregates stay exact.
type Value struct {
	kind Kind
	set  bool
	s    string
	i    int64
	d    decimal.Decimal
	t    time.Time
}

// NullValue returns a null cell of the given kind.
func NullValue(k Kind) Value { return Value{kind: k} }

// TextValue returns a text cell.
func TextValue(s string) Value { return Value{kind: Text, set: true, s: s} }

// IntValue returns an integer cell.
func IntValue(i int64) Value { return Value{kind: Integer, set: true, i: i} }

// FloatValue returns a decimal-backed float cell.
func FloatValue(d decimal.Decimal) Value { return Value{kind: Float, set: true, d: d} }

// DateValue returns a date cell, truncated to day granularity.
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: Date, set: true, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DatetimeValue returns a datetime cell.
func DatetimeValue(t time.Time) Value { return Value{kind: Datetime, set: true, t: t} }

// Kind returns the semantic type of the cell.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell holds no value.
func (v Value) IsNull() bool { return !v.set }

// Text returns the text content, "" when null or not a text cell.
func (v Value) Text() string { return v.s }

// Int returns the integer content, 0 when null or not an integer cell.
func (v Value) Int() int64 { return v.i }

// Decimal returns the float content, zero when null or not a float cell.
func (v Value) Decimal() decimal.Decimal { return v.d }

// Time returns the temporal content, the zero time when null or not a
// date/datetime cell.
func (v Value) Time() time.Time { return v.t }

// String renders the cell in its persisted form. Null cells render as
// the empty string.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.kind {
	case Text:
		return v.s
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return v.d.String()
	case Date:
		return v.t.Format(DateFormat)
	case Datetime:
		return v.t.Format(DatetimeFormat)
	default:
		panic(fmt.Sprintf("unknown kind %d", int(v.kind)))
	}
}

// ParseValue parses the persisted form back into a typed cell. It is
// the inverse of [Value.String] and is used by the loader to re-hydrate
// artifact cells.
func ParseValue(s string, k Kind) (Value, error) {
	if s == "" {
		return NullValue(k), nil
	}
	switch k {
	case Text:
		return TextValue(s), nil
	case Integer:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return NullValue(k), fmt.Errorf("invalid integer %q: %w", s, err)
		}
		return IntValue(i), nil
	case Float:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return NullValue(k), fmt.Errorf("invalid float %q: %w", s, err)
		}
		return FloatValue(d), nil
	case Date:
		t, err := time.ParseInLocation(DateFormat, s, time.UTC)
		if err != nil {
			return NullValue(k), fmt.Errorf("invalid date %q: %w", s, err)
		}
		return DateValue(t), nil
	case Datetime:
		t, err := time.ParseInLocation(DatetimeFormat, s, time.UTC)
		if err != nil {
			return NullValue(k), fmt.Errorf("invalid datetime %q: %w", s, err)
		}
		return DatetimeValue(t), nil
	default:
		return NullValue(k), fmt.Errorf("unknown kind %d", int(k))
	}
}
