package transform

import (
	"os"
	"strings"
	"testing"

	"github.com/ethpandaops/energy-etl/internal/testutil"
	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/output"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPlan(t *testing.T, mutate func(*plan.Options)) *plan.Plan {
	t.Helper()

	cb, err := codebook.Read(strings.NewReader(testutil.CodebookCSV))
	require.NoError(t, err)

	opts := plan.Options{
		Columns:           testutil.EnergyColumns,
		Required:          []string{"population"},
		ActiveYear:        2022,
		PreviousYearRange: 5,
		DefaultPrecision:  2,
	}
	if mutate != nil {
		mutate(&opts)
	}

	p, err := plan.Build(opts, cb)
	require.NoError(t, err)

	return p
}

func loadRaw(t *testing.T, p *plan.Plan) *table.Table {
	t.Helper()

	raw, err := table.ReadCSV(strings.NewReader(testutil.EnergyCSV), p.RawColumns()...)
	require.NoError(t, err)

	return raw
}

func column(t *testing.T, tbl *table.Table, name string) []table.Value {
	t.Helper()

	require.True(t, tbl.Has(name), "missing column %s", name)

	out := make([]table.Value, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		out = append(out, tbl.Get(i, name))
	}
	return out
}

func TestApply(t *testing.T) {
	p := buildPlan(t, nil)
	out, report, err := New(p, testutil.NewLogger()).Apply(loadRaw(t, p))
	require.NoError(t, err)

	assert.Equal(t, p.Names(), out.Columns())
	assert.Equal(t, 4, out.Len())

	assert.Equal(t, 6, report.InputRows)
	assert.Equal(t, 4, report.OutputRows)
	assert.Equal(t, 1, report.OutsideWindow)
	assert.Equal(t, 1, report.MissingRequired)
	assert.Empty(t, report.MissingColumns)
	assert.Equal(t, map[string]string{
		"Coal Electricity kWh":    "energy",
		"Electricity Demand kWh":  "energy",
		"Renewables Share Elec %": "percent",
	}, report.Converted)

	assert.Equal(t, []table.Value{
		table.TextValue("Germany"),
		table.TextValue("Germany"),
		table.TextValue("France"),
		table.TextValue("World"),
	}, column(t, out, "Country"))

	assert.Equal(t, []table.Value{
		table.NumberValue(2021),
		table.NumberValue(2022),
		table.NumberValue(2022),
		table.NumberValue(2022),
	}, column(t, out, "Year"))

	assert.Equal(t, []table.Value{
		table.NumberValue(1.5e9),
		table.NumberValue(1.25e9),
		table.NumberValue(3e6),
		table.NumberValue(1.00005e13),
	}, column(t, out, "Coal Electricity kWh"))

	assert.Equal(t, []table.Value{
		table.NumberValue(350),
		table.NumberValue(385),
		table.NumberValue(57),
		table.NumberValue(436),
	}, column(t, out, "Carbon Intensity Elec gCO₂e/kWh"))

	assert.Equal(t, []table.Value{
		table.NumberValue(0.41),
		table.NumberValue(0.44),
		table.NumberValue(0.25),
		table.NumberValue(0.3),
	}, column(t, out, "Renewables Share Elec %"))

	assert.Equal(t, []table.Value{
		table.NullValue(),
		table.NullValue(),
		table.NumberValue(2.9e12),
		table.NullValue(),
	}, column(t, out, "GDP ISD"))
}

func TestApply_RowsInsideWindow(t *testing.T) {
	for _, years := range []int{0, 1, 5, 10} {
		p := buildPlan(t, func(o *plan.Options) { o.PreviousYearRange = years })
		out, _, err := New(p, testutil.NewLogger()).Apply(loadRaw(t, p))
		require.NoError(t, err)

		for _, v := range column(t, out, "Year") {
			y, ok := v.Float()
			require.True(t, ok)
			assert.True(t, p.Window.Contains(int(y)), "year %v outside %s", y, p.Window)
		}
	}
}

func TestApply_Idempotent(t *testing.T) {
	for _, latest := range []bool{false, true} {
		p := buildPlan(t, func(o *plan.Options) { o.LatestPerCountry = latest })
		tr := New(p, testutil.NewLogger())

		once, _, err := tr.Apply(loadRaw(t, p))
		require.NoError(t, err)

		twice, report, err := tr.Apply(once)
		require.NoError(t, err)

		format := func(_ string, v table.Value) string { return v.String() }
		assert.Equal(t, once.Records(format), twice.Records(format))
		assert.Empty(t, report.Converted, "published columns are not converted again")
	}
}

func TestApply_RereadsOwnOutputWithBOM(t *testing.T) {
	p := buildPlan(t, nil)
	tr := New(p, testutil.NewLogger())

	once, _, err := tr.Apply(loadRaw(t, p))
	require.NoError(t, err)

	w, err := output.NewWriter(&output.Config{Dir: t.TempDir(), BOM: true}, testutil.NewLogger())
	require.NoError(t, err)

	path, err := w.WriteDataset(once)
	require.NoError(t, err)

	f, err := os.Open(path) //nolint:gosec // test path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	reread, err := table.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, p.Names(), reread.Columns())

	twice, _, err := tr.Apply(reread)
	require.NoError(t, err)

	format := func(_ string, v table.Value) string { return v.String() }
	assert.Equal(t, once.Records(format), twice.Records(format))
}

func TestApply_MissingPlannedColumn(t *testing.T) {
	p := buildPlan(t, func(o *plan.Options) {
		o.Columns = append([]string{}, testutil.EnergyColumns...)
		o.Columns = append(o.Columns, "wind_electricity")
	})

	out, report, err := New(p, testutil.NewLogger()).Apply(loadRaw(t, p))
	require.NoError(t, err)

	assert.Equal(t, []string{"wind_electricity"}, report.MissingColumns)
	assert.Equal(t, p.Names(), out.Columns())
	for _, v := range column(t, out, "Wind Electricity") {
		assert.True(t, v.IsNull())
	}
}

func TestApply_NoYearColumn(t *testing.T) {
	p := buildPlan(t, nil)

	_, _, err := New(p, testutil.NewLogger()).Apply(table.New("country"))
	require.ErrorIs(t, err, ErrNoYearColumn)
}

func TestApply_NonNumericYear(t *testing.T) {
	p := buildPlan(t, func(o *plan.Options) { o.Required = nil })

	in := table.New("country", "year")
	require.NoError(t, in.Append(table.TextValue("Germany"), table.TextValue("unknown")))
	require.NoError(t, in.Append(table.TextValue("Germany"), table.NumberValue(2020)))

	out, report, err := New(p, testutil.NewLogger()).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, 1, report.NonNumericYear)
}

func TestApply_FractionalYear(t *testing.T) {
	p := buildPlan(t, func(o *plan.Options) { o.Required = nil })

	in := table.New("country", "year")
	require.NoError(t, in.Append(table.TextValue("Germany"), table.NumberValue(2022.5)))
	require.NoError(t, in.Append(table.TextValue("Germany"), table.NumberValue(2022)))

	out, report, err := New(p, testutil.NewLogger()).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, []table.Value{table.NumberValue(2022)}, column(t, out, "Year"))
	assert.Equal(t, 1, report.OutsideWindow)
}

func TestApply_LatestPerCountry(t *testing.T) {
	p := buildPlan(t, func(o *plan.Options) { o.LatestPerCountry = true })

	out, _, err := New(p, testutil.NewLogger()).Apply(loadRaw(t, p))
	require.NoError(t, err)

	assert.Equal(t, []table.Value{
		table.TextValue("France"),
		table.TextValue("Germany"),
		table.TextValue("World"),
	}, column(t, out, "Country"))

	assert.Equal(t, []table.Value{
		table.NumberValue(2022),
		table.NumberValue(2022),
		table.NumberValue(2022),
	}, column(t, out, "Latest Data Year"))
}

func TestRound(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		expected  float64
	}{
		{name: "half away from zero", value: 2.345, precision: 2, expected: 2.35},
		{name: "negative half", value: -1.5, precision: 0, expected: -2},
		{name: "integer precision", value: 385.2, precision: 0, expected: 385},
		{name: "no rounding", value: 1.23456, precision: plan.NoRounding, expected: 1.23456},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(tt.value, tt.precision))
		})
	}
}
