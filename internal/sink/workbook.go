package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Workbook writes output rows to a single-sheet xlsx file. Nothing reaches
// disk until Close.
type Workbook struct {
	file  *excelize.File
	path  string
	sheet string
}

// NewWorkbook creates a workbook with header in row 1
func NewWorkbook(path, sheet string, header []string) (*Workbook, error) {
	f := excelize.NewFile()

	defaultSheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	wb := &Workbook{file: f, path: path, sheet: sheet}
	if len(header) > 0 {
		if err := wb.WriteRow(1, header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return wb, nil
}

// Path returns the destination file path
func (w *Workbook) Path() string {
	return w.path
}

// WriteRow writes fields starting at column A of the 1-based row
func (w *Workbook) WriteRow(row int, fields []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}

	values := make([]interface{}, len(fields))
	for i, f := range fields {
		values[i] = f
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	return nil
}

// Close saves the workbook to its path
func (w *Workbook) Close() error {
	defer func() { _ = w.file.Close() }()

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
