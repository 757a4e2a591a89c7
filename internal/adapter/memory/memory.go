// Package memory implements an in-memory record store for development and
// testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"habits/internal/domain"
)

// Store implements domain.RecordStore backed by a map.
type Store struct {
	mu      sync.Mutex
	records map[string]domain.DailyRecord
}

// Ensure interface is met.
var _ domain.RecordStore = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{records: make(map[string]domain.DailyRecord)}
}

// Init is a no-op; the map is ready on construction.
func (s *Store) Init(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Upsert stores the record, preserving CreatedAt for an existing day.
func (s *Store) Upsert(ctx context.Context, rec domain.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if prev, ok := s.records[rec.Day]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.WeightKg != nil {
		w := *rec.WeightKg
		rec.WeightKg = &w
	}
	s.records[rec.Day] = rec
	return nil
}

// Get returns the record for a day, or nil when absent.
func (s *Store) Get(ctx context.Context, day string) (*domain.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[day]
	if !ok {
		return nil, nil
	}
	// return a copy so callers can't mutate stored state
	ret := rec
	if rec.WeightKg != nil {
		w := *rec.WeightKg
		ret.WeightKg = &w
	}
	return &ret, nil
}

// Delete removes the record for a day, reporting whether one existed.
func (s *Store) Delete(ctx context.Context, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[day]; !ok {
		return false, nil
	}
	delete(s.records, day)
	return true, nil
}

// Range returns records with start <= day <= end, ascending by day.
func (s *Store) Range(ctx context.Context, start, end string) ([]domain.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.DailyRecord
	for day, rec := range s.records {
		// ISO day keys order lexically
		if day >= start && day <= end {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// All returns every record ascending by day.
func (s *Store) All(ctx context.Context) ([]domain.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.DailyRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}
