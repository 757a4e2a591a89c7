package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"habits/internal/domain"
)

// ExportHeaders is the column order for CSV, JSON and XLSX export. The
// store-managed timestamps are not exported; they are re-derived on import.
var ExportHeaders = []string{
	"date",
	"sugar_intake_g",
	"water_ml",
	"fap_count",
	"productive_hours",
	"weight_kg",
	"notes",
}

// ImportPolicy decides what a failed row does to the rest of a bulk import.
type ImportPolicy string

const (
	// ImportFail aborts on the first row whose validation or write fails.
	// Rows committed before it stay committed.
	ImportFail ImportPolicy = "fail"
	// ImportSkip drops failing rows silently and counts them out.
	ImportSkip ImportPolicy = "skip"
)

// TransferService round-trips the record set through flat files and writes
// backups.
type TransferService struct {
	records   *RecordService
	backupDir string
}

// NewTransferService creates a TransferService over the record facade.
func NewTransferService(records *RecordService, backupDir string) *TransferService {
	return &TransferService{records: records, backupDir: backupDir}
}

// materialize loads the export set; start/end empty means everything.
func (s *TransferService) materialize(ctx context.Context, start, end string) ([]domain.DailyRecord, error) {
	if start == "" && end == "" {
		return s.records.Materialize(ctx)
	}
	return s.records.QueryRange(ctx, start, end)
}

// ExportCSV writes the record set as CSV, the canonical interchange and
// backup format.
func (s *TransferService) ExportCSV(ctx context.Context, path, start, end string) error {
	recs, err := s.materialize(ctx, start, end)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(ExportHeaders); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(csvRow(rec)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(rec domain.DailyRecord) []string {
	weight := ""
	if rec.WeightKg != nil {
		weight = strconv.FormatFloat(*rec.WeightKg, 'f', -1, 64)
	}
	return []string{
		rec.Day,
		strconv.Itoa(rec.SugarIntakeG),
		strconv.Itoa(rec.WaterML),
		strconv.Itoa(rec.EventCount),
		strconv.FormatFloat(rec.ProductiveHours, 'f', -1, 64),
		weight,
		rec.Notes,
	}
}

// ExportJSON writes the record set as an array of objects with ISO-8601
// dates and the CSV field names.
func (s *TransferService) ExportJSON(ctx context.Context, path, start, end string) error {
	recs, err := s.materialize(ctx, start, end)
	if err != nil {
		return err
	}
	type jsonRecord struct {
		Date            string   `json:"date"`
		SugarIntakeG    int      `json:"sugar_intake_g"`
		WaterML         int      `json:"water_ml"`
		EventCount      int      `json:"fap_count"`
		ProductiveHours float64  `json:"productive_hours"`
		WeightKg        *float64 `json:"weight_kg"`
		Notes           string   `json:"notes"`
	}
	out := make([]jsonRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, jsonRecord{
			Date:            rec.Day,
			SugarIntakeG:    rec.SugarIntakeG,
			WaterML:         rec.WaterML,
			EventCount:      rec.EventCount,
			ProductiveHours: rec.ProductiveHours,
			WeightKg:        rec.WeightKg,
			Notes:           rec.Notes,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ImportCSV reads a CSV and upserts each row. A header row without duplicate
// column names is required; timestamp columns, if present, are ignored.
// Returns how many rows were imported and, under ImportSkip, how many were
// dropped.
func (s *TransferService) ImportCSV(ctx context.Context, path string, policy ImportPolicy) (imported, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return 0, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("empty csv: %s", path)
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		if _, dup := cols[name]; dup {
			return 0, 0, fmt.Errorf("duplicate csv column %q: %s", name, path)
		}
		cols[name] = i
	}
	if _, ok := cols["date"]; !ok {
		return 0, 0, fmt.Errorf("csv missing date column: %s", path)
	}

	for n, row := range rows[1:] {
		patch, perr := patchFromRow(cols, row)
		if perr == nil {
			perr = s.records.Upsert(ctx, patch)
		}
		if perr != nil {
			if policy == ImportSkip {
				skipped++
				continue
			}
			return imported, skipped, fmt.Errorf("row %d: %w", n+2, perr)
		}
		imported++
	}
	return imported, skipped, nil
}

func patchFromRow(cols map[string]int, row []string) (domain.RecordPatch, error) {
	cell := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], row[i] != ""
	}

	patch := domain.RecordPatch{}
	day, _ := cell("date")
	patch.Day = day

	if v, ok := cell("sugar_intake_g"); ok {
		n, err := parseCSVInt(v)
		if err != nil {
			return patch, fmt.Errorf("sugar_intake_g: %w", err)
		}
		patch.SugarIntakeG = &n
	}
	if v, ok := cell("water_ml"); ok {
		n, err := parseCSVInt(v)
		if err != nil {
			return patch, fmt.Errorf("water_ml: %w", err)
		}
		patch.WaterML = &n
	}
	if v, ok := cell("fap_count"); ok {
		n, err := parseCSVInt(v)
		if err != nil {
			return patch, fmt.Errorf("fap_count: %w", err)
		}
		patch.EventCount = &n
	}
	if v, ok := cell("productive_hours"); ok {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return patch, fmt.Errorf("productive_hours: %w", err)
		}
		patch.ProductiveHours = &x
	}
	if v, ok := cell("weight_kg"); ok {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return patch, fmt.Errorf("weight_kg: %w", err)
		}
		patch.WeightKg = &x
	}
	if v, ok := cell("notes"); ok {
		patch.Notes = &v
	}
	return patch, nil
}

// parseCSVInt accepts "2000" and "2000.0"; spreadsheet round trips tend to
// float-ify integer columns. Fractional values are rejected, not truncated.
func parseCSVInt(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if x != math.Trunc(x) {
		return 0, fmt.Errorf("not an integer: %s", v)
	}
	return int(x), nil
}

// Backup writes a timestamped CSV snapshot of the full record set to the
// backup directory and returns its path.
func (s *TransferService) Backup(ctx context.Context) (string, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(s.backupDir, fmt.Sprintf("backup-%s.csv", stamp))
	if err := s.ExportCSV(ctx, path, "", ""); err != nil {
		return "", err
	}
	return path, nil
}
