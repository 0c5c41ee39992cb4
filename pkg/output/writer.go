package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals // byte order mark
var bom = []byte{0xEF, 0xBB, 0xBF}

// Sheet names used in the workbook
const (
	DatasetSheet  = "Data"
	CodebookSheet = "Codebook"
)

// Writer writes outputs under the configured directory
type Writer struct {
	cfg *Config
	log logrus.FieldLogger
}

// NewWriter creates a writer
func NewWriter(cfg *Config, logger logrus.FieldLogger) (*Writer, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Writer{
		cfg: cfg,
		log: logger.WithField("component", "output"),
	}, nil
}

// Config returns the writer configuration
func (w *Writer) Config() *Config {
	return w.cfg
}

// WriteDataset writes the processed dataset CSV and, when enabled, its workbook sheet
func (w *Writer) WriteDataset(t *table.Table) (string, error) {
	path := w.cfg.DatasetPath()

	if err := w.writeCSV(path, t.Records(FormatValue)); err != nil {
		return "", err
	}

	w.log.WithFields(logrus.Fields{
		"path":    path,
		"rows":    t.Len(),
		"columns": len(t.Columns()),
	}).Info("Wrote processed dataset")

	if w.cfg.XLSX {
		if err := writeSheet(w.cfg.XLSXPath(), DatasetSheet, datasetRows(t)); err != nil {
			return "", err
		}
		w.log.WithField("path", w.cfg.XLSXPath()).Info("Wrote dataset sheet")
	}

	return path, nil
}

// WriteCodebook writes the codebook CSV and, when enabled, its workbook sheet
func (w *Writer) WriteCodebook(cb codebook.Codebook) (string, error) {
	path := w.cfg.CodebookPath()
	records := cb.Records()

	if err := w.writeCSV(path, records); err != nil {
		return "", err
	}

	w.log.WithFields(logrus.Fields{
		"path":    path,
		"entries": len(cb),
	}).Info("Wrote codebook")

	if w.cfg.XLSX {
		if err := writeSheet(w.cfg.XLSXPath(), CodebookSheet, textRows(records)); err != nil {
			return "", err
		}
		w.log.WithField("path", w.cfg.XLSXPath()).Info("Wrote codebook sheet")
	}

	return path, nil
}

// DatasetHeader returns the header of an existing processed dataset. A missing file
// returns nil without error.
func (w *Writer) DatasetHeader() ([]string, error) {
	f, err := os.Open(w.cfg.DatasetPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readHeader(f)
}

// writeCSV replaces path atomically with records
func (w *Writer) writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // operator configured path
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := writeRecords(file, records, w.cfg.BOM); err != nil {
		_ = file.Close()
		_ = os.Remove(tmp)
		return err
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func writeRecords(out io.Writer, records [][]string, withBOM bool) error {
	if withBOM {
		if _, err := out.Write(bom); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()

	return writer.Error()
}

func readHeader(r io.Reader) ([]string, error) {
	header, err := csv.NewReader(table.SkipBOM(r)).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return header, nil
}

// FormatValue renders a cell for CSV output. Numbers are written in plain decimal
// notation without exponent; nulls are empty.
func FormatValue(_ string, v table.Value) string {
	if f, ok := v.Float(); ok {
		return decimal.NewFromFloat(f).String()
	}
	return v.String()
}
