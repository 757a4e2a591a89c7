package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the record set as a styled spreadsheet, for people who
// live in Excel rather than CSV.
func (s *TransferService) ExportXLSX(ctx context.Context, path, start, end string) error {
	recs, err := s.materialize(ctx, start, end)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const sheetName = "DailyMetrics"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for col, name := range ExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, rec := range recs {
		values := []any{
			rec.Day,
			rec.SugarIntakeG,
			rec.WaterML,
			rec.EventCount,
			rec.ProductiveHours,
			nil, // weight, set below only when measured
			rec.Notes,
		}
		if rec.WeightKg != nil {
			values[5] = *rec.WeightKg
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "G", "G", 32); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}
