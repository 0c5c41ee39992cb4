package plan

import (
	"regexp"
	"strings"
)

// percentNote is appended to descriptions of percentage columns once values are fractions
const percentNote = "(Measured as a percentage fraction of 1, e.g., 0.32 = 32%)"

var percentPhrase = regexp.MustCompile(`(?i)measured as a percentage`)

// replacement rewrites unit labels in codebook text
type replacement struct {
	pattern *regexp.Regexp
	with    string
}

// Family groups codebook units that share a conversion, name suffix and precision
type Family struct {
	// Name identifies the family in logs and metrics
	Name string
	// Factor scales raw values. 1 means no conversion.
	Factor float64
	// Suffix is appended to the renamed column
	Suffix string
	// Precision is the number of decimal places kept after conversion
	Precision int

	matches      []string
	replacements []replacement
	percent      bool
}

// Converts reports whether the family changes raw values
func (f *Family) Converts() bool {
	return f.Factor != 1
}

// Convert applies the family scale factor
func (f *Family) Convert(v float64) float64 {
	if !f.Converts() {
		return v
	}
	return v * f.Factor
}

// RewriteUnit rewrites a codebook unit label to the converted unit
func (f *Family) RewriteUnit(unit string) string {
	for _, r := range f.replacements {
		unit = r.pattern.ReplaceAllString(unit, r.with)
	}
	return unit
}

// RewriteDescription rewrites a codebook description to the converted unit
func (f *Family) RewriteDescription(desc string) string {
	for _, r := range f.replacements {
		desc = r.pattern.ReplaceAllString(desc, r.with)
	}

	if f.percent && !strings.Contains(desc, percentNote) {
		desc = strings.Join(strings.Fields(percentPhrase.ReplaceAllString(desc, "")), " ")
		if desc == "" {
			return percentNote
		}
		desc += " " + percentNote
	}

	return desc
}

func (f *Family) matchesUnit(normalized string) bool {
	for _, m := range f.matches {
		if strings.Contains(normalized, m) {
			return true
		}
	}
	return false
}

// Families are checked in order; the first match wins.
//
//nolint:gochecknoglobals // fixed conversion table
var Families = []*Family{
	{
		Name:      "energy",
		Factor:    1e9,
		Suffix:    "kWh",
		Precision: 0,
		matches:   []string{"terawatt-hour", "twh"},
		replacements: []replacement{
			{pattern: regexp.MustCompile(`(?i)terawatt-hour`), with: "kilowatt-hour"},
			{pattern: regexp.MustCompile(`\bTWh\b`), with: "kWh"},
		},
	},
	{
		Name:      "mass",
		Factor:    1e6,
		Suffix:    "tonnes",
		Precision: 0,
		matches:   []string{"milliontonne"},
		replacements: []replacement{
			{pattern: regexp.MustCompile(`(?i)million\s+tonne`), with: "tonne"},
		},
	},
	{
		Name:      "percent",
		Factor:    0.01,
		Suffix:    "%",
		Precision: 2,
		matches:   []string{"%"},
		percent:   true,
	},
	{
		Name:      "carbon-intensity",
		Factor:    1,
		Suffix:    "gCO₂e/kWh",
		Precision: 0,
		matches:   []string{"gco2e/kwh", "gramsofco2equivalentsperkilowatt-hour"},
	},
	{
		Name:      "kilowatt-hours",
		Factor:    1,
		Suffix:    "kWh",
		Precision: 0,
		matches:   []string{"kilowatt-hours"},
	},
	{
		Name:      "currency",
		Factor:    1,
		Suffix:    "ISD",
		Precision: 0,
		matches:   []string{"international-$"},
	},
	{
		Name:      "tonnes",
		Factor:    1,
		Suffix:    "tonnes",
		Precision: 0,
		matches:   []string{"tonnes"},
	},
}

// NormalizeUnit lowercases a unit, strips whitespace and folds CO₂ to co2
func NormalizeUnit(unit string) string {
	u := strings.ToLower(unit)
	u = strings.Join(strings.Fields(u), "")
	return strings.ReplaceAll(u, "co₂", "co2")
}

// FamilyFor returns the family matching a codebook unit, or nil
func FamilyFor(unit string) *Family {
	normalized := NormalizeUnit(unit)
	if normalized == "" {
		return nil
	}

	for _, f := range Families {
		if f.matchesUnit(normalized) {
			return f
		}
	}

	return nil
}
