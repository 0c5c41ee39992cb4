// Package source fetches the upstream energy dataset and codebook, either over
// HTTP or from a local path.
package source

import (
	"errors"
	"time"
)

// Static errors for configuration validation
var (
	ErrEnergyURLRequired   = errors.New("energy data location is required")
	ErrCodebookURLRequired = errors.New("codebook location is required")
)

const (
	// DefaultEnergyURL is the upstream energy dataset
	DefaultEnergyURL = "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv"
	// DefaultCodebookURL is the upstream codebook
	DefaultCodebookURL = "https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-codebook.csv"
)

// Config locates the upstream files. Locations are http(s) URLs, file:// URLs or plain paths.
type Config struct {
	EnergyURL   string `yaml:"energy_url" default:"https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-data.csv"`
	CodebookURL string `yaml:"codebook_url" default:"https://raw.githubusercontent.com/owid/energy-data/master/owid-energy-codebook.csv"`
	// BundledCodebook is a local codebook used instead of CodebookURL when the file exists
	BundledCodebook string        `yaml:"bundled_codebook"`
	Timeout         time.Duration `yaml:"timeout" default:"2m"`
	KeepAlive       time.Duration `yaml:"keep_alive" default:"30s"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.EnergyURL == "" {
		return ErrEnergyURLRequired
	}

	if c.CodebookURL == "" {
		return ErrCodebookURLRequired
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}

	if c.KeepAlive == 0 {
		c.KeepAlive = 30 * time.Second
	}
}
