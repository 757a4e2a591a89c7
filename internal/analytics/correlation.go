package analytics

import (
	"math"

	"habits/internal/domain"
)

// CorrelationFields are the metric columns entering the correlation matrix,
// in output order.
var CorrelationFields = []string{
	"sugar_intake_g",
	"water_ml",
	"fap_count",
	"productive_hours",
	"weight_kg",
}

// Matrix is a symmetric Pearson correlation matrix over CorrelationFields.
// Undefined entries (no overlapping rows, zero variance) are NaN.
type Matrix struct {
	Fields []string
	Values [][]float64
}

// At returns the coefficient for a field pair by name.
func (m Matrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, f := range m.Fields {
		if f == a {
			ai = i
		}
		if f == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return m.Values[ai][bi], true
}

// fieldValue extracts one metric from a record; ok is false for an
// unmeasured weight, which excludes the row from any pair involving it.
func fieldValue(rec domain.DailyRecord, field string) (float64, bool) {
	switch field {
	case "sugar_intake_g":
		return float64(rec.SugarIntakeG), true
	case "water_ml":
		return float64(rec.WaterML), true
	case "fap_count":
		return float64(rec.EventCount), true
	case "productive_hours":
		return rec.ProductiveHours, true
	case "weight_kg":
		if rec.WeightKg == nil {
			return 0, false
		}
		return *rec.WeightKg, true
	}
	return 0, false
}

// CorrelationMatrix computes pairwise Pearson correlation across the metric
// columns. Missing weights are handled by pairwise deletion: a row drops
// out only of pairs that involve the missing value. Empty input yields an
// empty matrix.
func CorrelationMatrix(recs []domain.DailyRecord) Matrix {
	if len(recs) == 0 {
		return Matrix{}
	}
	n := len(CorrelationFields)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		for j := range values[i] {
			values[i][j] = pearson(recs, CorrelationFields[i], CorrelationFields[j])
		}
	}
	fields := make([]string, n)
	copy(fields, CorrelationFields)
	return Matrix{Fields: fields, Values: values}
}

func pearson(recs []domain.DailyRecord, fa, fb string) float64 {
	var xs, ys []float64
	for _, rec := range recs {
		x, okx := fieldValue(rec, fa)
		y, oky := fieldValue(rec, fb)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(len(xs))
	meanY := sumY / float64(len(ys))

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
