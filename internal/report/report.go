// Package report renders XLSX workbooks for review outside the CLI:
// the combined domain inventory and per-zone DNS record exports.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/certops/dcvkit/internal/store"
)

// ZoneRecord is one row of a zone record export.
type ZoneRecord struct {
	Zone  string
	Name  string
	Type  string
	TTL   int
	Value string
}

// WriteCombined writes the combined domain inventory to an XLSX file.
func WriteCombined(path string, records []store.CombinedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Domains"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"CA", "ID", "Domain", "Active", "DCV Method", "Expiration", "NS Provider", "Value", "Token"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}

	for i, r := range records {
		row := i + 2
		cells := []interface{}{r.CA, r.ID, r.Name, r.Active, r.Method, r.Expiration, r.NSProvider, r.Value, r.Token}
		if err := setRow(f, sheet, row, cells); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "I", 22); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteZoneRecords writes DNS record exports to an XLSX file, one sheet
// per zone. Zones are written in the order given.
func WriteZoneRecords(path string, zones []string, records map[string][]ZoneRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Name", "Type", "TTL", "Value"}
	for i, zone := range zones {
		sheet := sheetName(zone)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
			}
		}

		if err := writeHeader(f, sheet, headers); err != nil {
			return err
		}
		for j, r := range records[zone] {
			row := j + 2
			if err := setRow(f, sheet, row, []interface{}{r.Name, r.Type, r.TTL, r.Value}); err != nil {
				return err
			}
		}
		if err := f.SetColWidth(sheet, "A", "D", 30); err != nil {
			return fmt.Errorf("failed to set column widths: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteTable writes a single-sheet workbook of string rows. Used for
// ad hoc reports like the domain validation check.
func WriteTable(path, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}
	for i, r := range rows {
		cells := make([]interface{}, len(r))
		for j, v := range r {
			cells[j] = v
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("failed to build column name: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 24); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

// sheetName truncates a zone name to Excel's 31-character sheet limit.
func sheetName(zone string) string {
	if len(zone) <= 31 {
		return zone
	}
	return zone[:31]
}
