// Package stats computes the descriptive statistics shown next to a filtered keyword table.
// Every function tolerates empty input and never returns NaN, so results can be
// encoded as JSON directly.
package stats

import (
	"math"
	"sort"

	"kwcluster/pkg/keyword"
)

// Summary mirrors a describe() row: count, mean, sample standard deviation,
// min, quartiles and max over the numeric (non-NaN) values.
type Summary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
}

// ColumnSummary pairs a column name with its summary.
type ColumnSummary struct {
	Column  string  `json:"column" yaml:"column"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Describe summarizes values, ignoring NaN and infinities.
// Std is 0 for fewer than two values.
func Describe(values []float64) Summary {
	sorted := finiteSorted(values)
	n := len(sorted)
	if n == 0 {
		return Summary{}
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var std float64
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(n-1))
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// DescribeTable summarizes the numeric columns of t in canonical order.
// The position column is included only when t carries one.
func DescribeTable(t *keyword.Table) []ColumnSummary {
	fields := []keyword.Field{keyword.FieldVolume, keyword.FieldDifficulty, keyword.FieldCPC}
	if t.HasPosition {
		fields = append(fields, keyword.FieldPosition)
	}
	out := make([]ColumnSummary, 0, len(fields))
	for _, f := range fields {
		out = append(out, ColumnSummary{Column: string(f), Summary: Describe(t.Values(f))})
	}
	return out
}

// Quantile interpolates linearly between the closest ranks of an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Max returns the largest finite value, or 0 when there is none.
func Max(values []float64) float64 {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)-1]
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
