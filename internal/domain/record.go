// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// DayFormat is the canonical layout for record day keys.
const DayFormat = "2006-01-02"

// DailyRecord is the single per-day row of tracked metrics. Day is the
// natural key; no two records may share one.
type DailyRecord struct {
	Day             string    `json:"date"`
	SugarIntakeG    int       `json:"sugar_intake_g"`
	WaterML         int       `json:"water_ml"`
	EventCount      int       `json:"fap_count"`
	ProductiveHours float64   `json:"productive_hours"`
	WeightKg        *float64  `json:"weight_kg"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Date parses the record's day key. The key is validated on the way in, so
// a stored record always parses.
func (r DailyRecord) Date() time.Time {
	t, _ := time.Parse(DayFormat, r.Day)
	return t
}

// RecordPatch is a partial update for one day. Nil fields are "not provided"
// and retain whatever the stored record already holds; for WeightKg that
// includes staying unmeasured.
type RecordPatch struct {
	Day             string
	SugarIntakeG    *int
	WaterML         *int
	EventCount      *int
	ProductiveHours *float64
	WeightKg        *float64
	Notes           *string
}

// Apply merges the patch onto base and returns the result. Base is the
// previously stored record, or a zero record carrying the patch's day when
// none exists yet.
func (p RecordPatch) Apply(base DailyRecord) DailyRecord {
	out := base
	out.Day = p.Day
	if p.SugarIntakeG != nil {
		out.SugarIntakeG = *p.SugarIntakeG
	}
	if p.WaterML != nil {
		out.WaterML = *p.WaterML
	}
	if p.EventCount != nil {
		out.EventCount = *p.EventCount
	}
	if p.ProductiveHours != nil {
		out.ProductiveHours = *p.ProductiveHours
	}
	if p.WeightKg != nil {
		w := *p.WeightKg
		out.WeightKg = &w
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	return out
}

// RecordStore is the port for per-day record persistence. Both the embedded
// sqlite backend and the Google Sheets backend implement it; callers never
// see which one is active.
//
// Get and Delete model "not found" as (nil, nil) and (false, nil), never as
// an error. Upsert preserves CreatedAt across rewrites of the same day and
// refreshes UpdatedAt on every write; timestamps are owned by the store,
// values on the incoming record are ignored.
type RecordStore interface {
	Init(ctx context.Context) error
	Upsert(ctx context.Context, rec DailyRecord) error
	Get(ctx context.Context, day string) (*DailyRecord, error)
	Delete(ctx context.Context, day string) (bool, error)
	Range(ctx context.Context, start, end string) ([]DailyRecord, error)
	All(ctx context.Context) ([]DailyRecord, error)
	Close() error
}
