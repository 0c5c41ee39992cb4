// Package output writes the processed dataset and codebook to disk
package output

import (
	"errors"
	"path/filepath"
)

// Static errors for configuration validation
var (
	ErrDirRequired      = errors.New("output directory is required")
	ErrFileNameRequired = errors.New("output file names are required")
	ErrFileNameHasPath  = errors.New("output file names must not contain a directory")
)

// Config controls where and how outputs are written
type Config struct {
	Dir          string `yaml:"dir" default:"output"`
	DatasetFile  string `yaml:"dataset_file" default:"processed_energy_data.csv"`
	CodebookFile string `yaml:"codebook_file" default:"codebook.csv"`
	// BOM prefixes CSV files with a UTF-8 byte order mark for spreadsheet tools
	BOM bool `yaml:"bom"`
	// XLSX additionally writes a workbook with dataset and codebook sheets
	XLSX     bool   `yaml:"xlsx"`
	XLSXFile string `yaml:"xlsx_file" default:"energy_data.xlsx"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Dir == "" {
		return ErrDirRequired
	}

	names := []string{c.DatasetFile, c.CodebookFile}
	if c.XLSX {
		names = append(names, c.XLSXFile)
	}

	for _, name := range names {
		if name == "" {
			return ErrFileNameRequired
		}
		if filepath.Base(name) != name {
			return ErrFileNameHasPath
		}
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "output"
	}

	if c.DatasetFile == "" {
		c.DatasetFile = "processed_energy_data.csv"
	}

	if c.CodebookFile == "" {
		c.CodebookFile = "codebook.csv"
	}

	if c.XLSXFile == "" {
		c.XLSXFile = "energy_data.xlsx"
	}
}

// DatasetPath is the full path of the processed dataset
func (c *Config) DatasetPath() string {
	return filepath.Join(c.Dir, c.DatasetFile)
}

// CodebookPath is the full path of the codebook
func (c *Config) CodebookPath() string {
	return filepath.Join(c.Dir, c.CodebookFile)
}

// XLSXPath is the full path of the workbook
func (c *Config) XLSXPath() string {
	return filepath.Join(c.Dir, c.XLSXFile)
}
