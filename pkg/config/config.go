// Package config loads the pipeline configuration from YAML with environment overrides
package config

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/energy-etl/pkg/gdp"
	"github.com/ethpandaops/energy-etl/pkg/output"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/source"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	// ErrInvalidSchedule is returned when the schedule is not a cron expression
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrNoCountryColumn is returned when columns_to_keep omits country
	ErrNoCountryColumn = errors.New("columns_to_keep must include country")
)

// DefaultColumns are the upstream columns kept when none are configured
//
//nolint:gochecknoglobals // default column selection
var DefaultColumns = []string{
	"country",
	"year",
	"iso_code",
	"population",
	"gdp",
	"biofuel_electricity",
	"carbon_intensity_elec",
	"coal_electricity",
	"electricity_demand",
	"electricity_generation",
	"fossil_electricity",
	"low_carbon_electricity",
	"nuclear_electricity",
	"oil_electricity",
	"renewables_electricity",
	"solar_electricity",
	"wind_electricity",
}

// DefaultRequiredColumns drop rows without a population
//
//nolint:gochecknoglobals // default required columns
var DefaultRequiredColumns = []string{"population"}

// Config is the complete pipeline configuration
type Config struct {
	Logging string `yaml:"logging" default:"info" validate:"oneof=panic fatal error warn warning info debug trace"`

	// ColumnsToKeep are the upstream columns published, in order
	ColumnsToKeep []string `yaml:"columns_to_keep" validate:"min=1,dive,required"`
	// RequiredColumns drop rows where any of them is empty
	RequiredColumns []string `yaml:"required_columns" validate:"dive,required"`

	ActiveYear        int `yaml:"active_year" default:"2022" validate:"gte=1800,lte=2200"`
	PreviousYearRange int `yaml:"previous_year_range" default:"5" validate:"gte=0,lte=200"`
	DefaultPrecision  int `yaml:"default_precision" default:"2" validate:"gte=0,lte=12"`
	// LatestPerCountry keeps only the most recent row per country
	LatestPerCountry bool `yaml:"latest_per_country"`

	Sources source.Config `yaml:"sources"`
	GDP     gdp.Config    `yaml:"gdp"`
	Output  output.Config `yaml:"output"`

	// Schedule is the cron expression used by the schedule command
	Schedule    string `yaml:"schedule" default:"@weekly" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr" default:":9090"`
	UserAgent   string `yaml:"user_agent" default:"energy-etl"`
}

// SetDefaults fills list settings that have no tag default
func (c *Config) SetDefaults() {
	if c.ColumnsToKeep == nil {
		c.ColumnsToKeep = append([]string(nil), DefaultColumns...)
	}

	if c.RequiredColumns == nil {
		c.RequiredColumns = append([]string(nil), DefaultRequiredColumns...)
	}
}

// Validate checks the configuration and every section
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if !contains(c.ColumnsToKeep, plan.ColumnCountry) {
		return ErrNoCountryColumn
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, c.Schedule, err)
	}

	if err := c.Sources.Validate(); err != nil {
		return fmt.Errorf("invalid sources config: %w", err)
	}

	if err := c.GDP.Validate(); err != nil {
		return fmt.Errorf("invalid gdp config: %w", err)
	}

	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("invalid output config: %w", err)
	}

	return nil
}

// PlanOptions returns the plan inputs for this configuration
func (c *Config) PlanOptions() plan.Options {
	return plan.Options{
		Columns:           c.ColumnsToKeep,
		Required:          c.RequiredColumns,
		ActiveYear:        c.ActiveYear,
		PreviousYearRange: c.PreviousYearRange,
		DefaultPrecision:  c.DefaultPrecision,
		LatestPerCountry:  c.LatestPerCountry,
		GDPBackfill:       c.GDP.Enabled,
		GDPSource:         c.GDP.Source,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
