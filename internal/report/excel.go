package report

import (
	"fmt"
	"os"
	"path/filepath"

	"crmsync/internal/harvest"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Students"

var headers = []any{"ID", "Full Name", "Contact", "Program/University"}

// column widths by column name, the id column keeps the default width
var columnWidths = map[string]float64{
	"B": 30,
	"C": 45,
	"D": 80,
}

// WriteExcel writes every record to a single sheet workbook at `path`, overwriting it.
func WriteExcel(path string, records []harvest.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", SheetName)
	if err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	err = f.SetSheetRow(SheetName, "A1", &headers)
	if err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	err = f.SetCellStyle(SheetName, "A1", "D1", bold)
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		err = f.SetSheetRow(SheetName, cell, &[]any{
			r.ID,
			r.Name,
			r.Contact,
			r.ProgramUniversity,
		})
		if err != nil {
			return fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}

	lastCell, err := excelize.CoordinatesToCellName(len(headers), max(len(records)+1, 2))
	if err != nil {
		return err
	}
	err = f.AutoFilter(SheetName, "A1:"+lastCell, nil)
	if err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}

	for col, width := range columnWidths {
		err = f.SetColWidth(SheetName, col, col, width)
		if err != nil {
			return fmt.Errorf("column width %s: %w", col, err)
		}
	}

	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	err = f.SaveAs(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
