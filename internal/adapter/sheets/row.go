package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"habits/internal/domain"
)

// Headers is the worksheet column contract, in record field order. Row 1
// must match it exactly; Init rewrites it when it doesn't.
var Headers = []string{
	"date",
	"sugar_intake_g",
	"water_ml",
	"fap_count",
	"productive_hours",
	"weight_kg",
	"notes",
	"created_at",
	"updated_at",
}

// lastColumn is the letter of the final header column ("I" for 9 columns).
var lastColumn = string(rune('A' + len(Headers) - 1))

func rowRange(row int) string {
	return fmt.Sprintf("A%d:%s%d", row, lastColumn, row)
}

// recordToRow serializes a record into one worksheet row. An unmeasured
// weight becomes the empty string, never 0.
func recordToRow(rec domain.DailyRecord, createdAt, updatedAt string) []any {
	weight := any("")
	if rec.WeightKg != nil {
		weight = *rec.WeightKg
	}
	return []any{
		rec.Day,
		rec.SugarIntakeG,
		rec.WaterML,
		rec.EventCount,
		rec.ProductiveHours,
		weight,
		rec.Notes,
		createdAt,
		updatedAt,
	}
}

// rowToRecord decodes one worksheet row. Cells arrive as strings or JSON
// numbers depending on how the sheet was edited, so every field goes through
// a tolerant coercion. Unparseable timestamps (hand-edited cells) are left
// zero rather than failing the whole read.
func rowToRecord(row []any) (domain.DailyRecord, error) {
	get := func(i int) any {
		if i < len(row) {
			return row[i]
		}
		return ""
	}

	day := cellString(get(0))
	if _, err := time.Parse(domain.DayFormat, day); err != nil {
		return domain.DailyRecord{}, fmt.Errorf("bad date cell %q: %w", day, err)
	}

	sugar, err := cellInt(get(1))
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("row %s: sugar_intake_g: %w", day, err)
	}
	water, err := cellInt(get(2))
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("row %s: water_ml: %w", day, err)
	}
	count, err := cellInt(get(3))
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("row %s: fap_count: %w", day, err)
	}
	hours, err := cellFloat(get(4))
	if err != nil {
		return domain.DailyRecord{}, fmt.Errorf("row %s: productive_hours: %w", day, err)
	}

	rec := domain.DailyRecord{
		Day:             day,
		SugarIntakeG:    sugar,
		WaterML:         water,
		EventCount:      count,
		ProductiveHours: hours,
		Notes:           cellString(get(6)),
	}
	if raw := cellString(get(5)); raw != "" {
		w, err := cellFloat(get(5))
		if err != nil {
			return domain.DailyRecord{}, fmt.Errorf("row %s: weight_kg: %w", day, err)
		}
		rec.WeightKg = &w
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, cellString(get(7)))
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, cellString(get(8)))
	return rec, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func cellFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unexpected cell type %T", v)
	}
}

// cellInt accepts "2000" and "2000.0" but rejects fractional values rather
// than truncating them; a hand-edited cell must not quietly lose data.
func cellInt(v any) (int, error) {
	f, err := cellFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(f), nil
}
