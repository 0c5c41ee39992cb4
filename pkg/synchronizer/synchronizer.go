// Package synchronizer derives the published codebook from the upstream codebook and
// a column plan, so that every published metric column is documented exactly once in
// the units it is published in.
package synchronizer

import (
	"strings"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/sirupsen/logrus"
)

// Generated entry text
const (
	PlaceholderDescription = "Derived metric"
	PlaceholderSource      = "Calculated"

	latestDescription = "Year of the latest data available for the country"
	latestUnit        = "Year"
	latestSource      = "Data processing"
)

// Result is the synchronized codebook plus the columns that needed a placeholder
type Result struct {
	Codebook codebook.Codebook
	// Placeholders are planned columns with no upstream documentation
	Placeholders []string
}

// Synchronizer builds published codebooks
type Synchronizer struct {
	log logrus.FieldLogger
}

// New creates a synchronizer
func New(logger logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{log: logger.WithField("component", "synchronizer")}
}

// Synchronize returns one entry per non-identifier plan column, in plan order. The raw
// codebook may be the upstream document or a previously synchronized one.
func (s *Synchronizer) Synchronize(raw codebook.Codebook, p *plan.Plan) *Result {
	byColumn := raw.Index()
	result := &Result{Codebook: make(codebook.Codebook, 0, len(p.Columns))}

	for _, col := range p.Columns {
		if col.Role == plan.RoleIdentifier {
			continue
		}

		var entry codebook.Entry
		switch {
		case col.Role == plan.RoleDerived:
			entry = derivedEntry(col)
		case hasEntry(byColumn, col.Raw):
			entry = rewrite(byColumn[col.Raw], col)
		case hasEntry(byColumn, col.Name):
			entry = byColumn[col.Name]
		default:
			s.log.WithFields(logrus.Fields{
				"column": col.Raw,
				"name":   col.Name,
			}).Warn("Column has no codebook entry upstream, writing placeholder")

			result.Placeholders = append(result.Placeholders, col.Name)
			entry = codebook.Entry{
				Column:      col.Name,
				Description: PlaceholderDescription,
				Source:      PlaceholderSource,
			}
		}

		if col.Raw == plan.ColumnGDP && p.GDPBackfill && p.GDPSource != "" {
			entry.Source = withGDPSource(entry.Source, p.GDPSource)
		}

		result.Codebook = append(result.Codebook, entry)
	}

	s.log.WithFields(logrus.Fields{
		"upstream_entries": len(raw),
		"entries":          len(result.Codebook),
		"placeholders":     len(result.Placeholders),
	}).Info("Synchronized codebook")

	return result
}

func hasEntry(idx map[string]codebook.Entry, column string) bool {
	_, ok := idx[column]
	return ok
}

func rewrite(e codebook.Entry, col plan.Column) codebook.Entry {
	out := codebook.Entry{
		Column:      col.Name,
		Description: e.Description,
		Unit:        e.Unit,
		Source:      e.Source,
	}

	if col.Family != nil {
		out.Unit = col.Family.RewriteUnit(out.Unit)
		out.Description = col.Family.RewriteDescription(out.Description)
	}

	return out
}

func derivedEntry(col plan.Column) codebook.Entry {
	if col.Raw == plan.ColumnLatestDataYear {
		return codebook.Entry{
			Column:      col.Name,
			Description: latestDescription,
			Unit:        latestUnit,
			Source:      latestSource,
		}
	}

	return codebook.Entry{
		Column:      col.Name,
		Description: PlaceholderDescription,
		Unit:        col.Unit,
		Source:      PlaceholderSource,
	}
}

// withGDPSource appends the backfill source once
func withGDPSource(source, gdpSource string) string {
	note := "missing values filled from " + gdpSource
	if strings.Contains(source, note) {
		return source
	}

	if source == "" {
		return note
	}

	return source + "; " + note
}
