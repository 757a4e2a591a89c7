package sheets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"habits/internal/domain"
)

var _ domain.RecordStore = (*Store)(nil)

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Init verifies the worksheet exists (creating it if not) and that row 1
// matches the header contract, rewriting it when it doesn't. Safe to call
// repeatedly.
func (s *Store) Init(ctx context.Context) error {
	meta, err := s.metadata(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, sh := range meta.Sheets {
		if sh.Properties.Title == s.worksheet {
			s.sheetID = sh.Properties.SheetID
			found = true
			break
		}
	}
	if !found {
		s.logger.Info("creating worksheet", zap.String("worksheet", s.worksheet))
		err := s.batchUpdate(ctx, []map[string]any{
			{"addSheet": map[string]any{"properties": map[string]any{
				"title": s.worksheet,
				"gridProperties": map[string]any{
					"rowCount":    2000,
					"columnCount": len(Headers),
				},
			}}},
		})
		if err != nil {
			return err
		}
		meta, err = s.metadata(ctx)
		if err != nil {
			return err
		}
		for _, sh := range meta.Sheets {
			if sh.Properties.Title == s.worksheet {
				s.sheetID = sh.Properties.SheetID
			}
		}
	}
	return s.ensureHeaders(ctx)
}

func (s *Store) ensureHeaders(ctx context.Context) error {
	rows, err := s.getValues(ctx, rowRange(1))
	if err != nil {
		return err
	}
	if len(rows) > 0 && headerMatches(rows[0]) {
		return nil
	}
	s.logger.Info("rewriting header row", zap.String("worksheet", s.worksheet))
	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	return s.updateValues(ctx, rowRange(1), [][]any{header})
}

func headerMatches(row []any) bool {
	if len(row) != len(Headers) {
		return false
	}
	for i, h := range Headers {
		if cellString(row[i]) != h {
			return false
		}
	}
	return true
}

// findRow returns the 1-based worksheet row holding the given day, or 0.
// Lookup is always by value, never by a cached index, so rows shifting up
// after a delete cannot go stale.
func (s *Store) findRow(ctx context.Context, day string) (int, error) {
	col, err := s.getValues(ctx, "A:A")
	if err != nil {
		return 0, err
	}
	for i := 1; i < len(col); i++ { // row 1 is the header
		if len(col[i]) > 0 && cellString(col[i][0]) == day {
			return i + 1, nil
		}
	}
	return 0, nil
}

// Upsert overwrites the day's row in place when it exists, reading back the
// original created_at first, and appends a new row otherwise.
func (s *Store) Upsert(ctx context.Context, rec domain.DailyRecord) error {
	rowIdx, err := s.findRow(ctx, rec.Day)
	if err != nil {
		return err
	}
	now := nowStamp()
	if rowIdx == 0 {
		return s.appendValues(ctx, recordToRow(rec, now, now))
	}

	createdAt := now
	existing, err := s.getValues(ctx, rowRange(rowIdx))
	if err != nil {
		return err
	}
	if len(existing) > 0 && len(existing[0]) >= len(Headers) {
		if v := cellString(existing[0][7]); v != "" {
			createdAt = v
		}
	}
	return s.updateValues(ctx, rowRange(rowIdx), [][]any{recordToRow(rec, createdAt, now)})
}

// Get returns the record for a day, or nil when absent.
func (s *Store) Get(ctx context.Context, day string) (*domain.DailyRecord, error) {
	rowIdx, err := s.findRow(ctx, day)
	if err != nil {
		return nil, err
	}
	if rowIdx == 0 {
		return nil, nil
	}
	rows, err := s.getValues(ctx, rowRange(rowIdx))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec, err := rowToRecord(rows[0])
	if err != nil {
		return nil, fmt.Errorf("decode row %d: %w", rowIdx, err)
	}
	return &rec, nil
}

// Delete removes the day's row, shifting later rows up by one.
func (s *Store) Delete(ctx context.Context, day string) (bool, error) {
	rowIdx, err := s.findRow(ctx, day)
	if err != nil {
		return false, err
	}
	if rowIdx == 0 {
		return false, nil
	}
	err = s.batchUpdate(ctx, []map[string]any{
		{"deleteDimension": map[string]any{"range": map[string]any{
			"sheetId":    s.sheetID,
			"dimension":  "ROWS",
			"startIndex": rowIdx - 1, // deleteDimension is 0-based
			"endIndex":   rowIdx,
		}}},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// All returns every record ascending by day. The sheet is not required to
// be sorted; ordering happens here.
func (s *Store) All(ctx context.Context) ([]domain.DailyRecord, error) {
	rows, err := s.getValues(ctx, fmt.Sprintf("A2:%s", lastColumn))
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || cellString(row[0]) == "" {
			continue
		}
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// Range returns records with start <= day <= end, ascending by day.
func (s *Store) Range(ctx context.Context, start, end string) ([]domain.DailyRecord, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyRecord, 0, len(all))
	for _, rec := range all {
		if rec.Day >= start && rec.Day <= end {
			out = append(out, rec)
		}
	}
	return out, nil
}
