package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates in a new workbook
const defaultSheet = "Sheet1"

// writeSheet replaces sheet in the workbook at path, creating the workbook when absent
func writeSheet(path, sheet string, rows [][]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := openWorkbook(path, sheet)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("invalid row %d: %w", i+1, err)
		}

		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of sheet %s: %w", i+1, sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

// openWorkbook returns a workbook with an empty sheet named sheet
func openWorkbook(path, sheet string) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to name sheet: %w", err)
		}
		return f, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if _, err := f.NewSheet(sheet + "_tmp"); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := f.DeleteSheet(sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to clear sheet: %w", err)
		}
		if err := f.SetSheetName(sheet+"_tmp", sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to name sheet: %w", err)
		}
		return f, nil
	}

	if _, err := f.NewSheet(sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	return f, nil
}

// datasetRows converts a table to sheet rows, keeping numbers numeric
func datasetRows(t *table.Table) [][]interface{} {
	columns := t.Columns()
	rows := make([][]interface{}, 0, t.Len()+1)

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	rows = append(rows, header)

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(columns))
		for c, name := range columns {
			v := t.Get(i, name)
			switch v.Kind {
			case table.Number:
				row[c] = v.Number
			case table.Text:
				row[c] = v.Text
			default:
				row[c] = nil
			}
		}
		rows = append(rows, row)
	}

	return rows
}

func textRows(records [][]string) [][]interface{} {
	rows := make([][]interface{}, len(records))
	for i, record := range records {
		row := make([]interface{}, len(record))
		for c, s := range record {
			row[c] = s
		}
		rows[i] = row
	}
	return rows
}
