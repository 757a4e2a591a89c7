// Package app contains the use-case services over the record store port.
package app

import (
	"context"

	"habits/internal/domain"
)

// RecordService is the storage-agnostic repository facade: it owns
// validation and merge semantics and delegates persistence to whichever
// backend was injected at construction.
type RecordService struct {
	store   domain.RecordStore
	horizon string
}

// NewRecordService creates a RecordService over the given backend. The
// horizon is the last day new records may carry.
func NewRecordService(store domain.RecordStore, horizon string) *RecordService {
	return &RecordService{store: store, horizon: horizon}
}

// Init prepares the active backend. Idempotent.
func (s *RecordService) Init(ctx context.Context) error {
	return s.store.Init(ctx)
}

// Upsert validates the patch and writes the merged record for its day.
// Validation failures reject the whole write before storage is touched;
// fields absent from the patch keep their stored values.
func (s *RecordService) Upsert(ctx context.Context, patch domain.RecordPatch) error {
	if err := domain.ValidateDay(patch.Day, s.horizon); err != nil {
		return err
	}
	if err := domain.ValidatePatch(patch); err != nil {
		return err
	}

	existing, err := s.store.Get(ctx, patch.Day)
	if err != nil {
		return err
	}
	base := domain.DailyRecord{Day: patch.Day}
	if existing != nil {
		base = *existing
	}
	return s.store.Upsert(ctx, patch.Apply(base))
}

// Get returns the record for a day, or nil when none exists.
func (s *RecordService) Get(ctx context.Context, day string) (*domain.DailyRecord, error) {
	return s.store.Get(ctx, day)
}

// Delete removes the record for a day, reporting whether one existed.
func (s *RecordService) Delete(ctx context.Context, day string) (bool, error) {
	return s.store.Delete(ctx, day)
}

// QueryRange returns records between start and end inclusive, ascending by
// day.
func (s *RecordService) QueryRange(ctx context.Context, start, end string) ([]domain.DailyRecord, error) {
	return s.store.Range(ctx, start, end)
}

// Materialize loads the full record set, ascending by day. This is the
// table the analytics functions and the export layer consume.
func (s *RecordService) Materialize(ctx context.Context) ([]domain.DailyRecord, error) {
	return s.store.All(ctx)
}
