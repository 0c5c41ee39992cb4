// Package gdp fills missing GDP values in the energy table from the World Bank
// indicator API, one lookup per (country, year) per run.
package gdp

import (
	"errors"
	"time"
)

var (
	// ErrBaseURLRequired is returned when backfill is enabled without an API base URL
	ErrBaseURLRequired = errors.New("gdp base URL is required")
	// ErrURLTemplateRequired is returned when backfill is enabled without a URL template
	ErrURLTemplateRequired = errors.New("gdp url template is required")
	// ErrInvalidRate is returned when the request rate is negative
	ErrInvalidRate = errors.New("gdp requests per second must not be negative")
)

// DefaultSource is recorded in the codebook for backfilled GDP values
const DefaultSource = "World Bank World Development Indicators (NY.GDP.MKTP.CD)"

// Config controls GDP backfill
type Config struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// BaseURL is the World Bank API root
	BaseURL string `yaml:"base_url" default:"https://api.worldbank.org/v2"`
	// URLTemplate is rendered with BaseURL, ISO, Indicator and Year; sprig functions are available
	URLTemplate string `yaml:"url_template" default:"{{ .BaseURL | trimSuffix \"/\" }}/country/{{ .ISO }}/indicator/{{ .Indicator }}?date={{ .Year }}&format=json"`
	Indicator   string `yaml:"indicator" default:"NY.GDP.MKTP.CD"`
	// Source is written to the codebook GDP entry when backfill is enabled
	Source            string        `yaml:"source" default:"World Bank World Development Indicators (NY.GDP.MKTP.CD)"`
	Timeout           time.Duration `yaml:"timeout" default:"15s"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"5"`
}

// Validate checks the configuration when backfill is enabled
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}

	if c.URLTemplate == "" {
		return ErrURLTemplateRequired
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}

	return nil
}

// SetDefaults fills zero values
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}

	if c.Indicator == "" {
		c.Indicator = "NY.GDP.MKTP.CD"
	}

	if c.Source == "" {
		c.Source = DefaultSource
	}
}
