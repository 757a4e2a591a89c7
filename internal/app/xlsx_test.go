package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"habits/internal/app"
)

func TestExportXLSX(t *testing.T) {
	_, transfer := seededServices(t)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := transfer.ExportXLSX(context.Background(), path, "", ""); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("DailyMetrics")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d", len(rows))
	}
	for i, want := range app.ExportHeaders {
		if i >= len(rows[0]) || rows[0][i] != want {
			t.Fatalf("header mismatch at column %d: %v", i, rows[0])
		}
	}
	if rows[1][0] != "2025-09-22" {
		t.Errorf("expected first data row 2025-09-22, got %q", rows[1][0])
	}
	// 2025-09-23 has no weight measurement; its cell must be blank
	if len(rows[2]) > 5 && rows[2][5] != "" {
		t.Errorf("missing weight must stay blank, got %q", rows[2][5])
	}
}
