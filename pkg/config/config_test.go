package config

import (
	"path/filepath"
	"testing"

	"github.com/ethpandaops/energy-etl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging)
	assert.Equal(t, DefaultColumns, cfg.ColumnsToKeep)
	assert.Equal(t, DefaultRequiredColumns, cfg.RequiredColumns)
	assert.Equal(t, 2022, cfg.ActiveYear)
	assert.Equal(t, 5, cfg.PreviousYearRange)
	assert.Equal(t, 2, cfg.DefaultPrecision)
	assert.Equal(t, "@weekly", cfg.Schedule)
	assert.True(t, cfg.GDP.Enabled)
	assert.Equal(t, "output", cfg.Output.Dir)
	require.NoError(t, cfg.Validate())

	// Defaults are copies
	cfg.ColumnsToKeep[0] = "changed"
	assert.Equal(t, "country", DefaultColumns[0])
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError error
		expectAny   bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing country column", mutate: func(c *Config) { c.ColumnsToKeep = []string{"year", "gdp"} }, expectError: ErrNoCountryColumn},
		{name: "invalid schedule", mutate: func(c *Config) { c.Schedule = "every tuesday" }, expectError: ErrInvalidSchedule},
		{name: "standard cron schedule", mutate: func(c *Config) { c.Schedule = "0 3 * * 1" }},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging = "loud" }, expectAny: true},
		{name: "empty columns", mutate: func(c *Config) { c.ColumnsToKeep = []string{} }, expectAny: true},
		{name: "active year out of range", mutate: func(c *Config) { c.ActiveYear = 1500 }, expectAny: true},
		{name: "negative range", mutate: func(c *Config) { c.PreviousYearRange = -1 }, expectAny: true},
		{name: "invalid output section", mutate: func(c *Config) { c.Output.DatasetFile = "nested/data.csv" }, expectAny: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			switch {
			case tt.expectError != nil:
				require.ErrorIs(t, err, tt.expectError)
			case tt.expectAny:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path, testutil.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns, cfg.ColumnsToKeep)

	// The written file loads back to the same configuration
	written := testutil.ReadFile(t, path)
	assert.Contains(t, written, "columns_to_keep:")
	assert.Contains(t, written, "previous_year_range: 5")

	again, err := Load(path, testutil.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_File(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		check      func(t *testing.T, cfg *Config)
		untouched  bool
		usesDefault bool
	}{
		{
			name: "values override defaults",
			content: `
columns_to_keep: [country, year, coal_electricity]
active_year: 2020
previous_year_range: 2
latest_per_country: true
gdp:
  enabled: false
output:
  dir: out
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, []string{"country", "year", "coal_electricity"}, cfg.ColumnsToKeep)
				assert.Equal(t, 2020, cfg.ActiveYear)
				assert.Equal(t, 2, cfg.PreviousYearRange)
				assert.True(t, cfg.LatestPerCountry)
				assert.False(t, cfg.GDP.Enabled)
				assert.Equal(t, "out", cfg.Output.Dir)
				assert.Equal(t, "codebook.csv", cfg.Output.CodebookFile)
				assert.Equal(t, DefaultRequiredColumns, cfg.RequiredColumns)
			},
		},
		{
			name:    "legacy range key",
			content: "previousYearRange: 3\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 3, cfg.PreviousYearRange)
			},
		},
		{
			name:    "current range key wins over legacy",
			content: "previousYearRange: 3\nprevious_year_range: 7\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 7, cfg.PreviousYearRange)
			},
		},
		{
			name:       "malformed file falls back to defaults",
			content:    "columns_to_keep: [country\n",
			untouched:  true,
			usesDefault: true,
		},
		{
			name:       "invalid file falls back to defaults",
			content:    "active_year: 1500\n",
			untouched:  true,
			usesDefault: true,
		},
		{
			name:       "missing country falls back to defaults",
			content:    "columns_to_keep: [year]\n",
			untouched:  true,
			usesDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "config.yaml", tt.content)

			cfg, err := Load(path, testutil.NewLogger())
			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, cfg)
			}

			if tt.usesDefault {
				expected, err := Default()
				require.NoError(t, err)
				assert.Equal(t, expected, cfg)
			}

			if tt.untouched {
				assert.Equal(t, tt.content, testutil.ReadFile(t, path))
			}
		})
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", "active_year: 2020\n")

	t.Setenv("ENERGY_ACTIVE_YEAR", "2019")
	t.Setenv("ENERGY_COLUMNS_TO_KEEP", "country,year,gdp")
	t.Setenv("ENERGY_GDP_ENABLED", "false")
	t.Setenv("ENERGY_OUTPUT_DIR", "/tmp/energy")
	t.Setenv("ENERGY_LOGGING", "debug")

	cfg, err := Load(path, testutil.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 2019, cfg.ActiveYear)
	assert.Equal(t, []string{"country", "year", "gdp"}, cfg.ColumnsToKeep)
	assert.False(t, cfg.GDP.Enabled)
	assert.Equal(t, "/tmp/energy", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Logging)
	assert.Equal(t, 5, cfg.PreviousYearRange, "unset variables leave values alone")
}

func TestLoad_RejectedEnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unparseable value", env: map[string]string{"ENERGY_ACTIVE_YEAR": "next year"}},
		{name: "invalid schedule", env: map[string]string{"ENERGY_SCHEDULE": "whenever"}},
		{name: "columns without country", env: map[string]string{"ENERGY_COLUMNS_TO_KEEP": "year,gdp"}},
		{
			name: "one bad value discards all overrides",
			env:  map[string]string{"ENERGY_OUTPUT_DIR": "/tmp/energy", "ENERGY_SCHEDULE": "whenever"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "config.yaml", "active_year: 2020\n")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(path, testutil.NewLogger())
			require.NoError(t, err)

			assert.Equal(t, 2020, cfg.ActiveYear)
			assert.Equal(t, "@weekly", cfg.Schedule)
			assert.Equal(t, "output", cfg.Output.Dir)
			assert.Equal(t, DefaultColumns, cfg.ColumnsToKeep)
		})
	}
}

func TestPlanOptions(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	opts := cfg.PlanOptions()
	assert.Equal(t, cfg.ColumnsToKeep, opts.Columns)
	assert.Equal(t, cfg.RequiredColumns, opts.Required)
	assert.Equal(t, 2022, opts.ActiveYear)
	assert.Equal(t, 5, opts.PreviousYearRange)
	assert.True(t, opts.GDPBackfill)
	assert.Equal(t, cfg.GDP.Source, opts.GDPSource)
}
