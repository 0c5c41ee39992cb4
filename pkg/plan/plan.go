// Package plan decides, for every retained upstream column, what it is called in the
// published dataset, which unit conversion applies and how it is rounded. The dataset
// transform and the codebook synchronizer both read the same Plan, so the two outputs
// agree on names and units without depending on each other.
package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
)

// Role describes how a column participates in the output
type Role string

const (
	// RoleIdentifier columns key rows and are not documented in the codebook
	RoleIdentifier Role = "identifier"
	// RoleMetric columns carry upstream data
	RoleMetric Role = "metric"
	// RoleDerived columns are produced by processing
	RoleDerived Role = "derived"
)

// NoRounding marks columns whose values are passed through untouched
const NoRounding = -1

// fixedPrecision rounds specific raw columns regardless of unit
//
//nolint:gochecknoglobals // fixed rounding table
var fixedPrecision = map[string]int{
	ColumnPopulation: 0,
	ColumnGDP:        0,
}

// Column is the decision for one output column
type Column struct {
	// Raw is the upstream column name
	Raw string
	// Name is the published column name
	Name string
	// Role is the column role
	Role Role
	// Unit is the upstream codebook unit, empty when undocumented
	Unit string
	// Family is the matched unit family, nil when none applies
	Family *Family
	// Precision is the number of decimals kept, or NoRounding
	Precision int
	// Documented is false when the raw codebook had no entry for the column
	Documented bool
}

// Convert applies this column's unit conversion to a raw value
func (c Column) Convert(v float64) float64 {
	if c.Family == nil {
		return v
	}
	return c.Family.Convert(v)
}

var (
	// ErrNameCollision is returned when two upstream columns publish under the same name
	ErrNameCollision = errors.New("columns publish under the same name")
)

// Window is an inclusive year range
type Window struct {
	From int
	To   int
}

// NewWindow returns the range [activeYear-previousYears, activeYear]
func NewWindow(activeYear, previousYears int) Window {
	return Window{From: activeYear - previousYears, To: activeYear}
}

// Contains reports whether year lies inside the window
func (w Window) Contains(year int) bool {
	return year >= w.From && year <= w.To
}

// ContainsValue reports whether a numeric cell is a whole year inside the window.
// Fractional years are never inside.
func (w Window) ContainsValue(year float64) bool {
	if year != math.Trunc(year) {
		return false
	}
	return year >= float64(w.From) && year <= float64(w.To)
}

func (w Window) String() string {
	return fmt.Sprintf("%d-%d", w.From, w.To)
}

// Options are the inputs to Build
type Options struct {
	// Columns are the raw columns to keep, in output order
	Columns []string
	// Required raw columns; rows missing any of them are dropped
	Required []string
	// ActiveYear is the most recent year of interest
	ActiveYear int
	// PreviousYearRange is how many years before ActiveYear to keep
	PreviousYearRange int
	// DefaultPrecision rounds numeric columns without a unit family
	DefaultPrecision int
	// LatestPerCountry keeps only the most recent row per country
	LatestPerCountry bool
	// GDPBackfill is set when missing GDP is filled from an external source
	GDPBackfill bool
	// GDPSource describes the external GDP source for the codebook
	GDPSource string
}

// Plan is the complete set of column and row decisions for a run
type Plan struct {
	Columns          []Column
	Window           Window
	Required         []string
	LatestPerCountry bool
	GDPBackfill      bool
	GDPSource        string

	byRaw  map[string]int
	byName map[string]int
}

// Build derives the plan from options and the raw upstream codebook. Two columns
// whose published names collide are rejected.
func Build(opts Options, cb codebook.Codebook) (*Plan, error) {
	p := &Plan{
		Window:           NewWindow(opts.ActiveYear, opts.PreviousYearRange),
		Required:         append([]string(nil), opts.Required...),
		LatestPerCountry: opts.LatestPerCountry,
		GDPBackfill:      opts.GDPBackfill,
		GDPSource:        opts.GDPSource,
		byRaw:            make(map[string]int),
		byName:           make(map[string]int),
	}

	entries := cb.Index()

	raw := make([]string, 0, len(opts.Columns)+2)
	for _, id := range []string{ColumnCountry, ColumnYear} {
		if !contains(opts.Columns, id) {
			raw = append(raw, id)
		}
	}
	raw = append(raw, opts.Columns...)

	for _, name := range raw {
		if _, dup := p.byRaw[name]; dup || name == ColumnLatestDataYear {
			continue
		}

		entry, documented := entries[name]
		if err := p.add(newColumn(name, entry, documented, opts.DefaultPrecision)); err != nil {
			return nil, err
		}
	}

	if opts.LatestPerCountry {
		err := p.add(Column{
			Raw:        ColumnLatestDataYear,
			Name:       ColumnName(ColumnLatestDataYear, nil),
			Role:       RoleDerived,
			Unit:       "Year",
			Precision:  0,
			Documented: true,
		})
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func newColumn(raw string, entry codebook.Entry, documented bool, defaultPrecision int) Column {
	if isIdentifier(raw) {
		precision := NoRounding
		if raw == ColumnYear {
			precision = 0
		}
		return Column{
			Raw:        raw,
			Name:       ColumnName(raw, nil),
			Role:       RoleIdentifier,
			Unit:       entry.Unit,
			Precision:  precision,
			Documented: documented,
		}
	}

	family := FamilyFor(entry.Unit)

	precision := defaultPrecision
	if family != nil {
		precision = family.Precision
	}
	if fixed, ok := fixedPrecision[raw]; ok {
		precision = fixed
	}

	return Column{
		Raw:        raw,
		Name:       ColumnName(raw, family),
		Role:       RoleMetric,
		Unit:       entry.Unit,
		Family:     family,
		Precision:  precision,
		Documented: documented,
	}
}

func (p *Plan) add(c Column) error {
	if i, taken := p.byName[c.Name]; taken {
		return fmt.Errorf("%w: %s and %s both map to %q", ErrNameCollision, p.Columns[i].Raw, c.Raw, c.Name)
	}

	p.byRaw[c.Raw] = len(p.Columns)
	p.byName[c.Name] = len(p.Columns)
	p.Columns = append(p.Columns, c)

	return nil
}

// ByRaw returns the decision for an upstream column
func (p *Plan) ByRaw(raw string) (Column, bool) {
	i, ok := p.byRaw[raw]
	if !ok {
		return Column{}, false
	}
	return p.Columns[i], true
}

// ByName returns the decision for a published column
func (p *Plan) ByName(name string) (Column, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Column{}, false
	}
	return p.Columns[i], true
}

// Names returns the published column names in order
func (p *Plan) Names() []string {
	out := make([]string, 0, len(p.Columns))
	for _, c := range p.Columns {
		out = append(out, c.Name)
	}
	return out
}

// RawColumns returns the upstream columns a run needs to read
func (p *Plan) RawColumns() []string {
	out := make([]string, 0, len(p.Columns)+len(p.Required)+1)
	seen := make(map[string]struct{}, cap(out))
	appendOnce := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, c := range p.Columns {
		if c.Role != RoleDerived {
			appendOnce(c.Raw)
		}
	}
	for _, c := range p.Required {
		appendOnce(c)
	}
	if p.GDPBackfill || p.LatestPerCountry {
		appendOnce(ColumnISOCode)
	}

	return out
}

// IdentifierNames returns the published names of identifier columns
func (p *Plan) IdentifierNames() []string {
	var out []string
	for _, c := range p.Columns {
		if c.Role == RoleIdentifier {
			out = append(out, c.Name)
		}
	}
	return out
}

// Has reports whether the plan keeps the upstream column
func (p *Plan) Has(raw string) bool {
	_, ok := p.byRaw[raw]
	return ok
}

func isIdentifier(raw string) bool {
	return raw == ColumnCountry || raw == ColumnISOCode || raw == ColumnYear
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
