package plan

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Raw identifier column names in the upstream dataset
const (
	ColumnCountry        = "country"
	ColumnISOCode        = "iso_code"
	ColumnYear           = "year"
	ColumnGDP            = "gdp"
	ColumnPopulation     = "population"
	ColumnLatestDataYear = "latest_data_year"
)

// fixedNames overrides the generated name for identifier and derived columns
//
//nolint:gochecknoglobals // fixed name mapping
var fixedNames = map[string]string{
	ColumnCountry:        "Country",
	ColumnISOCode:        "ISO Code",
	ColumnYear:           "Year",
	ColumnLatestDataYear: "Latest Data Year",
}

// wordReplacements are applied in order after title casing
//
//nolint:gochecknoglobals // fixed name mapping
var wordReplacements = []struct{ from, to string }{
	{"Iso Code", "ISO Code"},
	{"Gdp", "GDP"},
	{"Co2e", "CO₂e"},
	{"Co2", "CO₂"},
	{"Kwh", "kWh"},
}

// ColumnName maps a raw upstream column and its family to the published header
func ColumnName(raw string, family *Family) string {
	if fixed, ok := fixedNames[raw]; ok {
		return fixed
	}

	caser := cases.Title(language.Und)
	words := strings.FieldsFunc(raw, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = caser.String(w)
	}

	name := strings.Join(words, " ")
	for _, r := range wordReplacements {
		name = strings.ReplaceAll(name, r.from, r.to)
	}

	if family != nil && family.Suffix != "" {
		name += " " + family.Suffix
	}

	return name
}
