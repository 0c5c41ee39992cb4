package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/creasty/defaults"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "ENERGY"

// legacyKeys reads keys accepted for older configuration files
type legacyKeys struct {
	PreviousYearRange       *int `yaml:"previous_year_range"`
	LegacyPreviousYearRange *int `yaml:"previousYearRange"`
}

// overrides are applied from the environment after the file. Only variables that are
// set change the configuration.
type overrides struct {
	Logging           *string  `envconfig:"LOGGING"`
	ColumnsToKeep     []string `envconfig:"COLUMNS_TO_KEEP"`
	ActiveYear        *int     `envconfig:"ACTIVE_YEAR"`
	PreviousYearRange *int     `envconfig:"PREVIOUS_YEAR_RANGE"`
	LatestPerCountry  *bool    `envconfig:"LATEST_PER_COUNTRY"`
	EnergyURL         *string  `envconfig:"ENERGY_URL"`
	CodebookURL       *string  `envconfig:"CODEBOOK_URL"`
	GDPEnabled        *bool    `envconfig:"GDP_ENABLED"`
	OutputDir         *string  `envconfig:"OUTPUT_DIR"`
	Schedule          *string  `envconfig:"SCHEDULE"`
	MetricsAddr       *string  `envconfig:"METRICS_ADDR"`
}

// Default returns the configuration used when no usable file exists
func Default() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to set defaults: %w", err)
	}

	cfg.SetDefaults()

	return cfg, nil
}

// Load reads the configuration at path. A missing file is created with defaults; a
// malformed or invalid file is left untouched and defaults are used instead. Environment
// overrides apply on top; overrides that cannot be parsed or leave the configuration
// invalid are ignored with a warning.
func Load(path string, logger logrus.FieldLogger) (*Config, error) {
	log := logger.WithFields(logrus.Fields{"component": "config", "path": path})

	cfg, err := loadFile(path, log)
	if err != nil {
		return nil, err
	}

	overridden, err := applyOverrides(cfg)
	if err != nil {
		log.WithError(err).Warn("Environment overrides are malformed, ignoring them")
		return cfg, nil
	}

	if err := overridden.Validate(); err != nil {
		log.WithError(err).Warn("Environment overrides make the config invalid, ignoring them")
		return cfg, nil
	}

	return overridden, nil
}

func loadFile(path string, log logrus.FieldLogger) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if errors.Is(err, os.ErrNotExist) {
		cfg, derr := Default()
		if derr != nil {
			return nil, derr
		}

		if werr := Write(path, cfg); werr != nil {
			log.WithError(werr).Warn("Config file not found and defaults could not be written")
		} else {
			log.Info("Config file not found, wrote defaults")
		}

		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		log.WithError(err).Warn("Config file is malformed, using defaults")
		return Default()
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Warn("Config file is invalid, using defaults")
		return Default()
	}

	return cfg, nil
}

// parse decodes data on top of the defaults
func parse(data []byte) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var legacy legacyKeys
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if legacy.PreviousYearRange == nil && legacy.LegacyPreviousYearRange != nil {
		cfg.PreviousYearRange = *legacy.LegacyPreviousYearRange
	}

	return cfg, nil
}

// applyOverrides returns a copy of cfg with the environment overrides applied
func applyOverrides(cfg *Config) (*Config, error) {
	var o overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	out := *cfg

	setString(&out.Logging, o.Logging)
	setString(&out.Sources.EnergyURL, o.EnergyURL)
	setString(&out.Sources.CodebookURL, o.CodebookURL)
	setString(&out.Output.Dir, o.OutputDir)
	setString(&out.Schedule, o.Schedule)
	setString(&out.MetricsAddr, o.MetricsAddr)

	if len(o.ColumnsToKeep) > 0 {
		out.ColumnsToKeep = o.ColumnsToKeep
	}
	if o.ActiveYear != nil {
		out.ActiveYear = *o.ActiveYear
	}
	if o.PreviousYearRange != nil {
		out.PreviousYearRange = *o.PreviousYearRange
	}
	if o.LatestPerCountry != nil {
		out.LatestPerCountry = *o.LatestPerCountry
	}
	if o.GDPEnabled != nil {
		out.GDP.Enabled = *o.GDPEnabled
	}

	return &out, nil
}

func setString(dst, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Write stores cfg as YAML at path
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
