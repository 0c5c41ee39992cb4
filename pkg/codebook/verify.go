package codebook

import "fmt"

// MismatchKind classifies a disagreement between codebook and dataset
type MismatchKind string

const (
	// Orphan is a codebook entry describing a column absent from the dataset
	Orphan MismatchKind = "orphan"
	// Undocumented is a dataset column with no codebook entry
	Undocumented MismatchKind = "undocumented"
	// Duplicate is a column documented more than once
	Duplicate MismatchKind = "duplicate"
)

// Mismatch is a single integrity violation
type Mismatch struct {
	Kind   MismatchKind
	Column string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s", m.Kind, m.Column)
}

// Verify checks that every data column has exactly one codebook entry and every
// entry describes a data column. Identifier columns are excluded from both sides.
func Verify(columns []string, cb Codebook, identifiers ...string) []Mismatch {
	skip := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		skip[id] = struct{}{}
	}

	data := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := skip[c]; ok {
			continue
		}
		data[c] = struct{}{}
	}

	var mismatches []Mismatch

	counts := make(map[string]int, len(cb))
	for _, e := range cb {
		if _, ok := skip[e.Column]; ok {
			continue
		}
		counts[e.Column]++
		if counts[e.Column] == 2 {
			mismatches = append(mismatches, Mismatch{Kind: Duplicate, Column: e.Column})
		}
		if _, ok := data[e.Column]; !ok && counts[e.Column] == 1 {
			mismatches = append(mismatches, Mismatch{Kind: Orphan, Column: e.Column})
		}
	}

	for _, c := range columns {
		if _, ok := data[c]; !ok {
			continue
		}
		if counts[c] == 0 {
			mismatches = append(mismatches, Mismatch{Kind: Undocumented, Column: c})
		}
	}

	return mismatches
}
