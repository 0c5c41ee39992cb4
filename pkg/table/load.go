package table

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ErrEmptyInput is returned when a CSV document has no header row
var ErrEmptyInput = errors.New("csv input is empty")

// utf8BOM prefixes CSV files saved by spreadsheet tools
//
//nolint:gochecknoglobals // byte order mark
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader over r without a leading UTF-8 byte order mark
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// ReadCSV loads a delimited document with a header row. When columns are given,
// only those present in the header are kept, in the order they appear in columns.
func ReadCSV(r io.Reader, columns ...string) (*Table, error) {
	records, err := ReadRecords(r, columns...)
	if err != nil {
		return nil, err
	}

	return FromRecords(records)
}

// ReadRecords is ReadCSV without cell interpretation: fields are returned exactly as
// written, header first.
func ReadRecords(r io.Reader, columns ...string) ([][]string, error) {
	// Everything is read as text so that mixed upstream columns never fail type
	// detection; ReadCSV interprets cells with ParseValue.
	df := dataframe.ReadCSV(SkipBOM(r),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}

	if len(columns) > 0 {
		present := make(map[string]struct{}, df.Ncol())
		for _, name := range df.Names() {
			present[name] = struct{}{}
		}

		selected := make([]string, 0, len(columns))
		seen := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			if _, ok := present[c]; !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			selected = append(selected, c)
		}

		if len(selected) == 0 {
			return nil, fmt.Errorf("%w: none of %v", ErrColumnNotFound, columns)
		}

		df = df.Select(selected)
		if df.Err != nil {
			return nil, fmt.Errorf("failed to select columns: %w", df.Err)
		}
	}

	return df.Records(), nil
}

// FromRecords builds a table from CSV records, header first
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	t := New(records[0]...)
	if len(t.columns) != len(records[0]) {
		return nil, fmt.Errorf("duplicate column names in header: %v", records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(t.columns) {
			return nil, fmt.Errorf("record %d: %w", i+1, ErrRowWidth)
		}

		row := make([]Value, len(record))
		for c, field := range record {
			row[c] = ParseValue(field)
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}
