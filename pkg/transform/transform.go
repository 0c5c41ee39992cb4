// Package transform turns the raw upstream energy table into the published dataset:
// rows are restricted to the year window, columns are converted, rounded and renamed
// according to a plan.Plan.
package transform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoYearColumn is returned when the input has neither a raw nor a published year column
	ErrNoYearColumn = errors.New("input has no year column")
)

// Report summarizes a transform
type Report struct {
	InputRows       int
	OutputRows      int
	OutsideWindow   int
	MissingRequired int
	NonNumericYear  int
	// MissingColumns are planned upstream columns absent from the input
	MissingColumns []string
	// Converted maps published column names to the unit family applied
	Converted map[string]string
}

// source records where a planned column is read from
type source struct {
	column  plan.Column
	input   string
	convert bool
	present bool
}

// Transformer applies a plan to tables
type Transformer struct {
	plan *plan.Plan
	log  logrus.FieldLogger
}

// New creates a transformer for p
func New(p *plan.Plan, logger logrus.FieldLogger) *Transformer {
	return &Transformer{
		plan: p,
		log:  logger.WithField("component", "transform"),
	}
}

// Apply produces the published table. The input may be the raw upstream table or a
// table previously produced by Apply; columns already carrying their published name
// are not converted again.
func (t *Transformer) Apply(in *table.Table) (*table.Table, *Report, error) {
	report := &Report{
		InputRows: in.Len(),
		Converted: make(map[string]string),
	}

	sources := t.resolve(in, report)

	year, ok := t.resolveInput(in, plan.ColumnYear)
	if !ok {
		return nil, report, ErrNoYearColumn
	}

	required := make([]string, 0, len(t.plan.Required))
	for _, raw := range t.plan.Required {
		col, ok := t.resolveInput(in, raw)
		if !ok {
			t.log.WithField("column", raw).Warn("Required column missing from input, not filtering on it")
			continue
		}
		required = append(required, col)
	}

	out := table.New(t.plan.Names()...)

	for i := 0; i < in.Len(); i++ {
		row := in.Row(i)

		y, isNumber := row.Get(year).Float()
		if !isNumber {
			report.NonNumericYear++
			continue
		}

		if !t.plan.Window.ContainsValue(y) {
			report.OutsideWindow++
			continue
		}

		if missingAny(row, required) {
			report.MissingRequired++
			continue
		}

		values := make([]table.Value, 0, len(sources))
		for _, src := range sources {
			values = append(values, t.value(row, src))
		}

		if err := out.Append(values...); err != nil {
			return nil, report, fmt.Errorf("failed to append row %d: %w", i, err)
		}
	}

	if t.plan.LatestPerCountry {
		var err error
		out, err = t.latestPerCountry(out)
		if err != nil {
			return nil, report, err
		}
	}

	report.OutputRows = out.Len()

	t.log.WithFields(logrus.Fields{
		"input_rows":       report.InputRows,
		"output_rows":      report.OutputRows,
		"outside_window":   report.OutsideWindow,
		"missing_required": report.MissingRequired,
		"window":           t.plan.Window.String(),
	}).Info("Transformed dataset")

	return out, report, nil
}

// resolve maps every planned column to its input column
func (t *Transformer) resolve(in *table.Table, report *Report) []source {
	sources := make([]source, 0, len(t.plan.Columns))

	for _, col := range t.plan.Columns {
		src := source{column: col}

		switch {
		case col.Role == plan.RoleDerived:
			// Filled after row selection; an input already carrying it passes through.
			if in.Has(col.Name) {
				src.input, src.present = col.Name, true
			}
		case in.Has(col.Raw):
			src.input, src.present, src.convert = col.Raw, true, true
			if col.Family != nil && col.Family.Converts() {
				report.Converted[col.Name] = col.Family.Name
				t.log.WithFields(logrus.Fields{
					"column": col.Raw,
					"family": col.Family.Name,
					"factor": col.Family.Factor,
				}).Debug("Converting column")
			}
		case in.Has(col.Name):
			src.input, src.present = col.Name, true
		default:
			report.MissingColumns = append(report.MissingColumns, col.Raw)
			t.log.WithField("column", col.Raw).Warn("Planned column missing from input, emitting empty values")
		}

		sources = append(sources, src)
	}

	return sources
}

// resolveInput finds the input column holding raw, by raw or published name
func (t *Transformer) resolveInput(in *table.Table, raw string) (string, bool) {
	if in.Has(raw) {
		return raw, true
	}

	if col, ok := t.plan.ByRaw(raw); ok && in.Has(col.Name) {
		return col.Name, true
	}

	return "", false
}

func (t *Transformer) value(row table.Row, src source) table.Value {
	if !src.present {
		return table.NullValue()
	}

	v := row.Get(src.input)
	f, ok := v.Float()
	if !ok {
		return v
	}

	if src.convert {
		f = src.column.Convert(f)
	}

	return table.NumberValue(Round(f, src.column.Precision))
}

// latestPerCountry keeps the most recent row per country and ISO code
func (t *Transformer) latestPerCountry(in *table.Table) (*table.Table, error) {
	country := plan.ColumnName(plan.ColumnCountry, nil)
	iso := plan.ColumnName(plan.ColumnISOCode, nil)
	year := plan.ColumnName(plan.ColumnYear, nil)
	latest := plan.ColumnName(plan.ColumnLatestDataYear, nil)

	type key struct{ country, iso string }

	best := make(map[key]int)
	order := make([]key, 0)

	for i := 0; i < in.Len(); i++ {
		row := in.Row(i)
		k := key{country: row.Text(country), iso: row.Text(iso)}

		current, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}

		y, _ := row.Get(year).Float()
		cy, _ := in.Get(current, year).Float()
		if y > cy {
			best[k] = i
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		if order[a].country != order[b].country {
			return order[a].country < order[b].country
		}
		return order[a].iso < order[b].iso
	})

	out := table.New(in.Columns()...)
	columns := in.Columns()
	for _, k := range order {
		i := best[k]
		values := make([]table.Value, 0, len(columns))
		for _, c := range columns {
			values = append(values, in.Get(i, c))
		}
		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}

	if out.Has(latest) {
		for i := 0; i < out.Len(); i++ {
			if !out.Get(i, latest).IsNull() {
				continue
			}
			if err := out.Set(i, latest, out.Get(i, year)); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// Round rounds f half away from zero to precision decimals. NoRounding returns f.
func Round(f float64, precision int) float64 {
	if precision < 0 {
		return f
	}

	rounded, _ := decimal.NewFromFloat(f).Round(int32(precision)).Float64() //nolint:gosec // precision is small
	return rounded
}

func missingAny(row table.Row, columns []string) bool {
	for _, c := range columns {
		if row.Get(c).IsNull() {
			return true
		}
	}
	return false
}
