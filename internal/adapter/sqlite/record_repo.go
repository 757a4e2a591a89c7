package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"habits/internal/domain"
)

const recordColumns = "day, sugar_intake_g, water_ml, fap_count, productive_hours, weight_kg, notes, created_at, updated_at"

// Upsert inserts the record, or rewrites an existing day in place keeping
// its created_at. The single statement runs in one implicit transaction, so
// a failed write leaves the prior row untouched.
func (d *DB) Upsert(ctx context.Context, rec domain.DailyRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)
	var weight sql.NullFloat64
	if rec.WeightKg != nil {
		weight = sql.NullFloat64{Float64: *rec.WeightKg, Valid: true}
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO daily_metrics(`+recordColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET
			sugar_intake_g=excluded.sugar_intake_g,
			water_ml=excluded.water_ml,
			fap_count=excluded.fap_count,
			productive_hours=excluded.productive_hours,
			weight_kg=excluded.weight_kg,
			notes=excluded.notes,
			updated_at=excluded.updated_at;`,
		rec.Day, rec.SugarIntakeG, rec.WaterML, rec.EventCount, rec.ProductiveHours,
		weight, rec.Notes, now, now,
	)
	return err
}

// Get returns the record for a day, or nil when absent.
func (d *DB) Get(ctx context.Context, day string) (*domain.DailyRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM daily_metrics WHERE day=?;`, day)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes the record for a day, reporting whether one existed.
func (d *DB) Delete(ctx context.Context, day string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM daily_metrics WHERE day=?;`, day)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Range returns records with start <= day <= end, ascending by day.
func (d *DB) Range(ctx context.Context, start, end string) ([]domain.DailyRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM daily_metrics WHERE day BETWEEN ? AND ? ORDER BY day ASC;`,
		start, end)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// All returns every record ascending by day.
func (d *DB) All(ctx context.Context) ([]domain.DailyRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM daily_metrics ORDER BY day ASC;`)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dst ...any) error
}

func scanRecord(row rowScanner) (*domain.DailyRecord, error) {
	var (
		rec                  domain.DailyRecord
		weight               sql.NullFloat64
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.Day, &rec.SugarIntakeG, &rec.WaterML, &rec.EventCount,
		&rec.ProductiveHours, &weight, &rec.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if weight.Valid {
		w := weight.Float64
		rec.WeightKg = &w
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]domain.DailyRecord, error) {
	defer rows.Close() //nolint:errcheck

	var out []domain.DailyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
