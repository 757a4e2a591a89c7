package domain

import (
	"fmt"
	"time"
)

// Closed ranges for the bounded metrics. Values at either bound are valid.
const (
	SugarMinG = 0
	SugarMaxG = 1000

	WaterMinML = 0
	WaterMaxML = 5000

	EventCountMin = 0
	EventCountMax = 10

	ProductiveHoursMin = 0.0
	ProductiveHoursMax = 24.0

	WeightMinKg = 50.0
	WeightMaxKg = 100.0
)

// FutureDateError rejects writes dated past the configured horizon.
type FutureDateError struct {
	Day     string
	Horizon string
}

func (e *FutureDateError) Error() string {
	return fmt.Sprintf("no dates beyond %s allowed: %s", e.Horizon, e.Day)
}

// RangeError reports a bounded field outside its closed range.
type RangeError struct {
	Field     string
	Value     float64
	Low, High float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of bounds [%g, %g]: %g", e.Field, e.Low, e.High, e.Value)
}

// ValidateDay checks the day key's format and that it does not exceed the
// horizon (the tracking period's last day).
func ValidateDay(day, horizon string) error {
	if _, err := time.Parse(DayFormat, day); err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}
	if day > horizon {
		return &FutureDateError{Day: day, Horizon: horizon}
	}
	return nil
}

// ValidatePatch checks every bounded field present in the patch against its
// range. Absent fields are skipped, not defaulted. The first violation
// aborts: validation is all-or-nothing per record.
func ValidatePatch(p RecordPatch) error {
	if p.SugarIntakeG != nil {
		if err := checkRange("sugar_intake_g", float64(*p.SugarIntakeG), SugarMinG, SugarMaxG); err != nil {
			return err
		}
	}
	if p.WaterML != nil {
		if err := checkRange("water_ml", float64(*p.WaterML), WaterMinML, WaterMaxML); err != nil {
			return err
		}
	}
	if p.EventCount != nil {
		if err := checkRange("fap_count", float64(*p.EventCount), EventCountMin, EventCountMax); err != nil {
			return err
		}
	}
	if p.ProductiveHours != nil {
		if err := checkRange("productive_hours", *p.ProductiveHours, ProductiveHoursMin, ProductiveHoursMax); err != nil {
			return err
		}
	}
	if p.WeightKg != nil {
		if err := checkRange("weight_kg", *p.WeightKg, WeightMinKg, WeightMaxKg); err != nil {
			return err
		}
	}
	return nil
}

func checkRange(field string, v, low, high float64) error {
	if v < low || v > high {
		return &RangeError{Field: field, Value: v, Low: low, High: high}
	}
	return nil
}
