package stats

import (
	"math"
	"sort"

	"kwcluster/pkg/keyword"
)

// DefaultTopN is the number of bars in the volume chart.
const DefaultTopN = 20

// TopByVolume returns up to n rows with the largest volume, largest first.
// Rows without a numeric volume are skipped; ties keep their table order.
func TopByVolume(t *keyword.Table, n int) []keyword.Record {
	rows := make([]keyword.Record, 0, len(t.Records))
	for _, r := range t.Records {
		if !math.IsNaN(r.Volume) {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Volume > rows[j].Volume })
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
