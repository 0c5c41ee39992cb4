// Package codebook holds the metric codebook that documents each data column
package codebook

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethpandaops/energy-etl/pkg/table"
)

// Codebook CSV header names
const (
	FieldColumn      = "column"
	FieldDescription = "description"
	FieldUnit        = "unit"
	FieldSource      = "source"
)

var (
	// ErrMissingField is returned when a codebook document lacks a required header
	ErrMissingField = errors.New("codebook is missing required field")
)

// Entry documents one data column
type Entry struct {
	Column      string
	Description string
	Unit        string
	Source      string
}

// Codebook is an ordered list of entries
type Codebook []Entry

// Lookup returns the entry documenting column
func (c Codebook) Lookup(column string) (Entry, bool) {
	for _, e := range c {
		if e.Column == column {
			return e, true
		}
	}
	return Entry{}, false
}

// Index maps column names to entries. The first entry wins on duplicates.
func (c Codebook) Index() map[string]Entry {
	idx := make(map[string]Entry, len(c))
	for _, e := range c {
		if _, exists := idx[e.Column]; !exists {
			idx[e.Column] = e
		}
	}
	return idx
}

// Columns returns the documented column names in order
func (c Codebook) Columns() []string {
	out := make([]string, 0, len(c))
	for _, e := range c {
		out = append(out, e.Column)
	}
	return out
}

// Read parses a codebook CSV with column, description, unit and source fields.
// Field text is kept as written; only the column name is trimmed.
func Read(r io.Reader) (Codebook, error) {
	records, err := table.ReadRecords(r, FieldColumn, FieldDescription, FieldUnit, FieldSource)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldColumn)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	if _, ok := index[FieldColumn]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, FieldColumn)
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	cb := make(Codebook, 0, len(records)-1)
	for _, record := range records[1:] {
		name := strings.TrimSpace(field(record, FieldColumn))
		if name == "" {
			continue
		}

		cb = append(cb, Entry{
			Column:      name,
			Description: field(record, FieldDescription),
			Unit:        field(record, FieldUnit),
			Source:      field(record, FieldSource),
		})
	}

	return cb, nil
}

// Records renders the codebook as CSV records, header first
func (c Codebook) Records() [][]string {
	records := make([][]string, 0, len(c)+1)
	records = append(records, []string{FieldColumn, FieldDescription, FieldUnit, FieldSource})
	for _, e := range c {
		records = append(records, []string{e.Column, e.Description, e.Unit, e.Source})
	}
	return records
}
