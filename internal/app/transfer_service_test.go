package app_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habits/internal/adapter/memory"
	"habits/internal/app"
	"habits/internal/domain"
)

func seededServices(t *testing.T) (*app.RecordService, *app.TransferService) {
	t.Helper()
	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, t.TempDir())

	ctx := context.Background()
	days := []domain.RecordPatch{
		{Day: "2025-09-22", SugarIntakeG: intPtr(20), WaterML: intPtr(2100), EventCount: intPtr(0), ProductiveHours: floatPtr(4.5), WeightKg: floatPtr(71.0)},
		{Day: "2025-09-23", SugarIntakeG: intPtr(55), WaterML: intPtr(1800), EventCount: intPtr(1), ProductiveHours: floatPtr(2.0)},
	}
	for _, p := range days {
		if err := records.Upsert(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.Day, err)
		}
	}
	return records, transfer
}

func TestExportImportRoundTrip(t *testing.T) {
	records, transfer := seededServices(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := transfer.ExportCSV(ctx, path, "", ""); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	before, _ := records.Materialize(ctx)

	// import into a fresh store and compare
	records2 := app.NewRecordService(memory.New(), horizon)
	transfer2 := app.NewTransferService(records2, t.TempDir())
	imported, skipped, err := transfer2.ImportCSV(ctx, path, app.ImportSkip)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if imported != 2 || skipped != 0 {
		t.Fatalf("expected 2 imported / 0 skipped, got %d / %d", imported, skipped)
	}

	after, _ := records2.Materialize(ctx)
	if len(after) != len(before) {
		t.Fatalf("expected %d records, got %d", len(before), len(after))
	}
	for i := range before {
		a, b := before[i], after[i]
		if a.Day != b.Day || a.SugarIntakeG != b.SugarIntakeG || a.WaterML != b.WaterML ||
			a.EventCount != b.EventCount || a.ProductiveHours != b.ProductiveHours || a.Notes != b.Notes {
			t.Errorf("row %d differs: %+v vs %+v", i, a, b)
		}
		switch {
		case a.WeightKg == nil && b.WeightKg == nil:
		case a.WeightKg != nil && b.WeightKg != nil && *a.WeightKg == *b.WeightKg:
		default:
			t.Errorf("row %d weight differs: %v vs %v", i, a.WeightKg, b.WeightKg)
		}
	}
}

func TestExportCSV_MissingWeightIsEmptyCell(t *testing.T) {
	_, transfer := seededServices(t)

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := transfer.ExportCSV(context.Background(), path, "", ""); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(rows[0], ","); got != strings.Join(app.ExportHeaders, ",") {
		t.Errorf("unexpected header: %s", got)
	}
	// 2025-09-23 has no weight measurement
	if rows[2][5] != "" {
		t.Errorf("missing weight must be an empty cell, got %q", rows[2][5])
	}
	if rows[1][5] != "71" {
		t.Errorf("expected weight 71, got %q", rows[1][5])
	}
}

func TestExportJSON_Shape(t *testing.T) {
	_, transfer := seededServices(t)

	path := filepath.Join(t.TempDir(), "out.json")
	if err := transfer.ExportJSON(context.Background(), path, "", ""); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var out []map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(out))
	}
	if out[0]["date"] != "2025-09-22" {
		t.Errorf("expected ISO date, got %v", out[0]["date"])
	}
	if out[1]["weight_kg"] != nil {
		t.Errorf("missing weight must be null, got %v", out[1]["weight_kg"])
	}
}

func TestImportCSV_SkipPolicyCountsFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "date,sugar_intake_g,water_ml,fap_count,productive_hours,weight_kg\n" +
		"2025-09-22,10,2000,0,4.0,70.0\n" +
		"2026-01-01,10,2000,0,4.0,70.0\n" // past horizon
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, t.TempDir())

	imported, skipped, err := transfer.ImportCSV(context.Background(), path, app.ImportSkip)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if imported != 1 || skipped != 1 {
		t.Errorf("expected 1 imported / 1 skipped, got %d / %d", imported, skipped)
	}
}

func TestImportCSV_FractionalIntegerRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "date,sugar_intake_g,water_ml,fap_count,productive_hours\n" +
		"2025-09-22,10,2000.0,0,4.0\n" + // float-ified whole number is fine
		"2025-09-23,10,2000.5,0,4.0\n" // fractional water must not truncate
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, t.TempDir())

	imported, skipped, err := transfer.ImportCSV(context.Background(), path, app.ImportSkip)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if imported != 1 || skipped != 1 {
		t.Errorf("expected 1 imported / 1 skipped, got %d / %d", imported, skipped)
	}
	rec, _ := records.Get(context.Background(), "2025-09-22")
	if rec == nil || rec.WaterML != 2000 {
		t.Errorf("expected water 2000, got %+v", rec)
	}
	if rec2, _ := records.Get(context.Background(), "2025-09-23"); rec2 != nil {
		t.Errorf("fractional row must not be written, got %+v", rec2)
	}
}

func TestImportCSV_DuplicateColumnRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "date,water_ml,water_ml\n" +
		"2025-09-22,1000,2000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, t.TempDir())

	imported, _, err := transfer.ImportCSV(context.Background(), path, app.ImportSkip)
	if err == nil {
		t.Fatal("expected error for duplicate header column")
	}
	if imported != 0 {
		t.Errorf("no rows may be written from a malformed header, got %d", imported)
	}
	if rec, _ := records.Get(context.Background(), "2025-09-22"); rec != nil {
		t.Errorf("no rows may be written from a malformed header, got %+v", rec)
	}
}

func TestImportCSV_FailPolicyKeepsCommittedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	content := "date,sugar_intake_g,water_ml,fap_count,productive_hours,weight_kg\n" +
		"2025-09-22,10,2000,0,4.0,70.0\n" +
		"2026-01-01,10,2000,0,4.0,70.0\n" +
		"2025-09-24,10,2000,0,4.0,70.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, t.TempDir())

	imported, _, err := transfer.ImportCSV(context.Background(), path, app.ImportFail)
	if err == nil {
		t.Fatal("expected abort on invalid row")
	}
	if imported != 1 {
		t.Errorf("expected 1 row committed before abort, got %d", imported)
	}
	// rows before the failure stay committed
	rec, _ := records.Get(context.Background(), "2025-09-22")
	if rec == nil {
		t.Error("committed row should survive the abort")
	}
	// rows after the failure were never reached
	rec, _ = records.Get(context.Background(), "2025-09-24")
	if rec != nil {
		t.Error("rows after the failure must not be written")
	}
}

func TestBackup_WritesTimestampedSnapshot(t *testing.T) {
	backupDir := t.TempDir()
	records := app.NewRecordService(memory.New(), horizon)
	transfer := app.NewTransferService(records, backupDir)
	ctx := context.Background()

	if err := records.Upsert(ctx, domain.RecordPatch{Day: "2025-09-22", WaterML: intPtr(1000)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	path, err := transfer.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "backup-") || !strings.HasSuffix(base, ".csv") {
		t.Errorf("unexpected backup name: %s", base)
	}
	if filepath.Dir(path) != backupDir {
		t.Errorf("backup written outside backup dir: %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestExportCSV_RangeSubset(t *testing.T) {
	_, transfer := seededServices(t)

	path := filepath.Join(t.TempDir(), "subset.csv")
	if err := transfer.ExportCSV(context.Background(), path, "2025-09-23", "2025-09-23"); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2025-09-23" {
		t.Errorf("expected only 2025-09-23, got %v", rows)
	}
}
