package table

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Value
	}{
		{name: "empty", raw: "", expected: NullValue()},
		{name: "whitespace", raw: "   ", expected: NullValue()},
		{name: "integer", raw: "2022", expected: NumberValue(2022)},
		{name: "decimal", raw: " 1.25 ", expected: NumberValue(1.25)},
		{name: "exponent", raw: "3.5e12", expected: NumberValue(3.5e12)},
		{name: "nan", raw: "NaN", expected: NullValue()},
		{name: "infinity stays text", raw: "Inf", expected: TextValue("Inf")},
		{name: "text", raw: "Germany", expected: TextValue("Germany")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseValue(tt.raw))
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", NullValue().String())
	assert.Equal(t, "1250000000", NumberValue(1.25e9).String())
	assert.Equal(t, "0.44", NumberValue(0.44).String())
	assert.Equal(t, "DEU", TextValue("DEU").String())
}

func TestTable_Operations(t *testing.T) {
	tbl := New("country", "year", "country")
	assert.Equal(t, []string{"country", "year"}, tbl.Columns())

	require.NoError(t, tbl.Append(TextValue("Germany"), NumberValue(2022)))
	require.NoError(t, tbl.Append(TextValue("France"), NumberValue(2021)))

	err := tbl.Append(TextValue("Spain"))
	require.ErrorIs(t, err, ErrRowWidth)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Germany", tbl.Row(0).Text("country"))
	assert.True(t, tbl.Get(0, "missing").IsNull())

	require.NoError(t, tbl.AddColumn("gdp"))
	require.ErrorIs(t, tbl.AddColumn("gdp"), ErrColumnExists)
	assert.True(t, tbl.Get(1, "gdp").IsNull())

	require.NoError(t, tbl.Set(1, "gdp", NumberValue(3)))
	require.ErrorIs(t, tbl.Set(1, "nope", NumberValue(3)), ErrColumnNotFound)

	filtered := tbl.Filter(func(r Row) bool {
		y, _ := r.Get("year").Float()
		return y == 2021
	})
	require.Equal(t, 1, filtered.Len())
	assert.Equal(t, "France", filtered.Row(0).Text("country"))

	// Filtered rows are copies
	require.NoError(t, filtered.Set(0, "country", TextValue("Italy")))
	assert.Equal(t, "France", tbl.Row(1).Text("country"))

	records := tbl.Records(func(_ string, v Value) string { return v.String() })
	assert.Equal(t, [][]string{
		{"country", "year", "gdp"},
		{"Germany", "2022", ""},
		{"France", "2021", "3"},
	}, records)
}

func TestReadCSV(t *testing.T) {
	doc := "country,year,gdp,extra\nGermany,2022,,x\nFrance,2021,2.5,y\n"

	t.Run("all columns", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader(doc))
		require.NoError(t, err)

		assert.Equal(t, []string{"country", "year", "gdp", "extra"}, tbl.Columns())
		assert.Equal(t, 2, tbl.Len())
		assert.True(t, tbl.Get(0, "gdp").IsNull())
		assert.Equal(t, NumberValue(2.5), tbl.Get(1, "gdp"))
	})

	t.Run("selected columns skip absent ones", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader(doc), "year", "country", "missing")
		require.NoError(t, err)

		assert.Equal(t, []string{"year", "country"}, tbl.Columns())
		assert.Equal(t, NumberValue(2021), tbl.Get(1, "year"))
	})

	t.Run("no selected column present", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(doc), "missing")
		require.ErrorIs(t, err, ErrColumnNotFound)
	})

	t.Run("leading byte order mark", func(t *testing.T) {
		tbl, err := ReadCSV(strings.NewReader("\xEF\xBB\xBF"+doc), "country", "year")
		require.NoError(t, err)

		assert.Equal(t, []string{"country", "year"}, tbl.Columns())
		assert.Equal(t, TextValue("Germany"), tbl.Get(0, "country"))
	})
}

func TestReadRecords(t *testing.T) {
	doc := "\xEF\xBB\xBFcolumn,description,unit\ngdp,1.50,1e3\npop,  spaced  ,NaN\n"

	records, err := ReadRecords(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"column", "description", "unit"},
		{"gdp", "1.50", "1e3"},
		{"pop", "  spaced  ", "NaN"},
	}, records)
}

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "with mark", input: "\xEF\xBB\xBFa,b\n", expected: "a,b\n"},
		{name: "without mark", input: "a,b\n", expected: "a,b\n"},
		{name: "shorter than mark", input: "a", expected: "a"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := io.ReadAll(SkipBOM(strings.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestFromRecords(t *testing.T) {
	_, err := FromRecords(nil)
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = FromRecords([][]string{{"a", "a"}})
	require.Error(t, err)

	_, err = FromRecords([][]string{{"a", "b"}, {"1"}})
	require.ErrorIs(t, err, ErrRowWidth)

	tbl, err := FromRecords([][]string{{"a", "b"}, {"1", "x"}})
	require.NoError(t, err)
	assert.Equal(t, NumberValue(1), tbl.Get(0, "a"))
	assert.Equal(t, TextValue("x"), tbl.Get(0, "b"))
}
