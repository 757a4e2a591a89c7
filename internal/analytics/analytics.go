// Package analytics derives rolling, aggregate and scored series from a
// materialized record set. Every function is pure: input slices are never
// mutated and nothing here touches storage.
package analytics

import (
	"math"
	"sort"
	"time"

	"habits/internal/domain"
)

// Default goal thresholds for streak counting.
const (
	DefaultGoalHours   = 4.0
	DefaultGoalWaterML = 2000
)

// byDay returns a copy of recs sorted ascending by day. Analytics callers
// normally pass an already-materialized (sorted) set, but order is an
// invariant here, not an assumption.
func byDay(recs []domain.DailyRecord) []domain.DailyRecord {
	out := make([]domain.DailyRecord, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// Rolling returns, per window, the trailing mean of productive hours over
// the last w rows. Partial windows at the start use all available rows
// (minimum period 1). Windows count rows, not calendar days: a gap day
// shrinks the effective window rather than being backfilled.
func Rolling(recs []domain.DailyRecord, windows ...int) map[int][]float64 {
	if len(windows) == 0 {
		windows = []int{7, 30}
	}
	x := byDay(recs)
	out := make(map[int][]float64, len(windows))
	for _, w := range windows {
		if w < 1 {
			continue
		}
		series := make([]float64, len(x))
		sum := 0.0
		for i := range x {
			sum += x[i].ProductiveHours
			if i >= w {
				sum -= x[i-w].ProductiveHours
			}
			n := i + 1
			if n > w {
				n = w
			}
			series[i] = sum / float64(n)
		}
		out[w] = series
	}
	return out
}

// Week is one bucket of WeeklyBreakdown.
type Week struct {
	Start           time.Time
	SugarIntakeG    int
	WaterML         int
	EventCount      int
	ProductiveHours float64
}

// WeeklyBreakdown sums the metrics per week, week starting Monday. Weeks
// with no observed days are omitted, not zero-filled.
func WeeklyBreakdown(recs []domain.DailyRecord) []Week {
	buckets := make(map[time.Time]*Week)
	for _, rec := range recs {
		start := weekStart(rec.Date())
		wk, ok := buckets[start]
		if !ok {
			wk = &Week{Start: start}
			buckets[start] = wk
		}
		wk.SugarIntakeG += rec.SugarIntakeG
		wk.WaterML += rec.WaterML
		wk.EventCount += rec.EventCount
		wk.ProductiveHours += rec.ProductiveHours
	}
	out := make([]Week, 0, len(buckets))
	for _, wk := range buckets {
		out = append(out, *wk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func weekStart(t time.Time) time.Time {
	// Monday = 0 offset
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// WeekdayAverages returns the mean productive hours per weekday, for
// weekdays that have at least one observation.
func WeekdayAverages(recs []domain.DailyRecord) map[time.Weekday]float64 {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, rec := range recs {
		wd := rec.Date().Weekday()
		sums[wd] += rec.ProductiveHours
		counts[wd]++
	}
	out := make(map[time.Weekday]float64, len(sums))
	for wd, sum := range sums {
		out[wd] = sum / float64(counts[wd])
	}
	return out
}

// Streak counts consecutive goal-meeting days ending at the most recent
// record. A day meets goal iff productive hours and water intake both reach
// their thresholds; the scan runs backward and stops at the first miss.
func Streak(recs []domain.DailyRecord, goalHours float64, goalWaterML int) int {
	x := byDay(recs)
	streak := 0
	for i := len(x) - 1; i >= 0; i-- {
		if x[i].ProductiveHours >= goalHours && x[i].WaterML >= goalWaterML {
			streak++
		} else {
			break
		}
	}
	return streak
}

// Normalization bands for the composite score.
const (
	scoreHoursHi = 12.0
	scoreWaterHi = 4000.0
	scoreSugarHi = 150.0
)

// CompositeScore returns the per-row daily score in [0, 1]: a weighted
// blend of productivity (0.5), hydration (0.35) and inverted sugar intake
// (0.15). Each metric is clamped to its band before normalization, so
// out-of-band values saturate instead of distorting the scale.
func CompositeScore(recs []domain.DailyRecord) []float64 {
	x := byDay(recs)
	out := make([]float64, len(x))
	for i := range x {
		prod := normalize(x[i].ProductiveHours, 0, scoreHoursHi)
		water := normalize(float64(x[i].WaterML), 0, scoreWaterHi)
		sugar := 1 - normalize(float64(x[i].SugarIntakeG), 0, scoreSugarHi)
		out[i] = clamp(0.5*prod+0.35*water+0.15*sugar, 0, 1)
	}
	return out
}

func normalize(v, lo, hi float64) float64 {
	return (clamp(v, lo, hi) - lo) / (hi - lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
