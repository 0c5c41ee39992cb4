// Package table provides a small column-named table used to move the energy
// dataset between the fetch, backfill, transform and write stages.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrColumnExists is returned when adding a column that is already present
	ErrColumnExists = errors.New("column already exists")
	// ErrColumnNotFound is returned when a named column is not present
	ErrColumnNotFound = errors.New("column not found")
	// ErrRowWidth is returned when a row does not match the table width
	ErrRowWidth = errors.New("row width does not match column count")
)

// Kind identifies what a Value holds
type Kind int

const (
	// Null is an empty cell
	Null Kind = iota
	// Number is a numeric cell
	Number
	// Text is a non-numeric cell
	Text
)

// Value is a single cell. The zero Value is null.
type Value struct {
	Kind   Kind
	Number float64
	Text   string
}

// NullValue returns an empty cell
func NullValue() Value {
	return Value{}
}

// NumberValue returns a numeric cell
func NumberValue(f float64) Value {
	return Value{Kind: Number, Number: f}
}

// TextValue returns a text cell
func TextValue(s string) Value {
	return Value{Kind: Text, Text: s}
}

// ParseValue interprets a raw CSV field
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue()
	}

	f, err := strconv.ParseFloat(s, 64)
	switch {
	case err != nil:
		return TextValue(s)
	case math.IsNaN(f):
		return NullValue()
	case math.IsInf(f, 0):
		return TextValue(s)
	}

	return NumberValue(f)
}

// IsNull reports whether the cell is empty
func (v Value) IsNull() bool {
	return v.Kind == Null
}

// Float returns the numeric value and whether the cell is numeric
func (v Value) Float() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	return v.Number, true
}

// String returns the cell as text. Numbers are rendered by the output package.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case Text:
		return v.Text
	default:
		return ""
	}
}

// Table is an ordered set of named columns with rows of Values
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given columns
func New(columns ...string) *Table {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for _, c := range columns {
		if _, exists := t.index[c]; exists {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}

	return t
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the column exists
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Append adds a row. Values must match the column order.
func (t *Table) Append(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(values), len(t.columns))
	}

	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)

	return nil
}

// Row returns an accessor for row i
func (t *Table) Row(i int) Row {
	return Row{table: t, idx: i}
}

// Get returns the value at row i for column. Missing columns read as null.
func (t *Table) Get(i int, column string) Value {
	c, ok := t.index[column]
	if !ok {
		return NullValue()
	}
	return t.rows[i][c]
}

// Set replaces the value at row i for column
func (t *Table) Set(i int, column string, v Value) error {
	c, ok := t.index[column]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	t.rows[i][c] = v
	return nil
}

// AddColumn appends a null-filled column
func (t *Table) AddColumn(column string) error {
	if t.Has(column) {
		return fmt.Errorf("%w: %s", ErrColumnExists, column)
	}

	t.index[column] = len(t.columns)
	t.columns = append(t.columns, column)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], NullValue())
	}

	return nil
}

// Filter returns a new table holding the rows for which keep returns true
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.columns...)
	for i := range t.rows {
		if keep(t.Row(i)) {
			row := make([]Value, len(t.rows[i]))
			copy(row, t.rows[i])
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Records renders the table as CSV records, header first
func (t *Table) Records(format func(column string, v Value) string) [][]string {
	records := make([][]string, 0, len(t.rows)+1)
	records = append(records, t.Columns())

	for _, row := range t.rows {
		record := make([]string, len(row))
		for c, v := range row {
			record[c] = format(t.columns[c], v)
		}
		records = append(records, record)
	}

	return records
}

// Row is a read-only view of a single table row
type Row struct {
	table *Table
	idx   int
}

// Index returns the row position in its table
func (r Row) Index() int {
	return r.idx
}

// Get returns the value for column
func (r Row) Get(column string) Value {
	return r.table.Get(r.idx, column)
}

// Text returns the value for column as text
func (r Row) Text(column string) string {
	return r.Get(column).String()
}
