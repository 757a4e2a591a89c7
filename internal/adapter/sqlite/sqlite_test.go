package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"habits/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "habits.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return db
}

func TestInit_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	w := 71.5
	rec := domain.DailyRecord{
		Day:             "2025-09-22",
		SugarIntakeG:    20,
		WaterML:         2100,
		EventCount:      1,
		ProductiveHours: 4.5,
		WeightKg:        &w,
		Notes:           "long run",
	}
	if err := db.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.Get(ctx, "2025-09-22")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.SugarIntakeG != 20 || got.WaterML != 2100 || got.EventCount != 1 ||
		got.ProductiveHours != 4.5 || got.Notes != "long run" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.WeightKg == nil || *got.WeightKg != 71.5 {
		t.Errorf("expected weight 71.5, got %v", got.WeightKg)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestUpsert_NilWeightRoundTripsAsMissing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, domain.DailyRecord{Day: "2025-09-22", WaterML: 1000}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := db.Get(ctx, "2025-09-22")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.WeightKg != nil {
		t.Errorf("missing weight must stay missing, got %v", *got.WeightKg)
	}
}

func TestUpsert_PreservesCreatedAt(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, domain.DailyRecord{Day: "2025-09-22", WaterML: 1000}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	first, _ := db.Get(ctx, "2025-09-22")

	if err := db.Upsert(ctx, domain.DailyRecord{Day: "2025-09-22", WaterML: 2000}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	second, _ := db.Get(ctx, "2025-09-22")

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.WaterML != 2000 {
		t.Errorf("expected rewritten water, got %d", second.WaterML)
	}
}

func TestGet_Absent(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.Get(context.Background(), "1999-01-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil for absent day, got %+v", rec)
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Upsert(ctx, domain.DailyRecord{Day: "2025-09-22"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ok, err := db.Delete(ctx, "2025-09-22")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	ok, err = db.Delete(ctx, "2025-09-22")
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if ok {
		t.Error("second delete must report false")
	}
}

func TestRangeAndAll_Ascending(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, day := range []string{"2025-09-24", "2025-09-22", "2025-09-23"} {
		if err := db.Upsert(ctx, domain.DailyRecord{Day: day}); err != nil {
			t.Fatalf("Upsert %s: %v", day, err)
		}
	}

	recs, err := db.Range(ctx, "2025-09-22", "2025-09-23")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(recs) != 2 || recs[0].Day != "2025-09-22" || recs[1].Day != "2025-09-23" {
		t.Errorf("unexpected range result: %+v", recs)
	}

	all, err := db.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 || all[0].Day != "2025-09-22" || all[2].Day != "2025-09-24" {
		t.Errorf("unexpected order: %+v", all)
	}
}
