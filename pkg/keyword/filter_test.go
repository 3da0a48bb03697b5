package keyword

import (
	"errors"
	"math"
	"testing"
)

func filterTable() *Table {
	nan := math.NaN()
	return &Table{
		HasPosition: true,
		Records: []Record{
			{Keyword: "k1", Volume: 500, Difficulty: 10, CPC: 1.0, CurrentPosition: 5},
			{Keyword: "k2", Volume: 1500, Difficulty: 30, CPC: 0.2, CurrentPosition: 50},
			{Keyword: "k3", Volume: 2400, Difficulty: 12, CPC: 0.9, CurrentPosition: 3},
			{Keyword: "k4", Volume: nan, Difficulty: 5, CPC: 2.0, CurrentPosition: 1},
			{Keyword: "k5", Volume: 9000, Difficulty: nan, CPC: 2.0, CurrentPosition: 1},
			{Keyword: "k6", Volume: 1000, Difficulty: 20, CPC: 0.5, CurrentPosition: 100},
			{Keyword: "k7", Volume: 3000, Difficulty: 15, CPC: 0.7, CurrentPosition: 101},
			{Keyword: "k8", Volume: 1200, Difficulty: 18, CPC: 0.6, CurrentPosition: nan},
			{Keyword: "k9", Volume: 5000, Difficulty: 2, CPC: 3.1, CurrentPosition: 0},
		},
	}
}

func keywordsOf(t *Table) []string {
	out := make([]string, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Keyword
	}
	return out
}

func TestFilter_Conjunction(t *testing.T) {
	table := &Table{
		HasPosition: true,
		Records: []Record{
			{Keyword: "a", Volume: 500, Difficulty: 10, CPC: 1.0, CurrentPosition: 5},
			{Keyword: "b", Volume: 1500, Difficulty: 30, CPC: 0.2, CurrentPosition: 50},
		},
	}
	c := Criteria{MinVolume: 1000, MaxDifficulty: 20, MinCPC: 0.5, Position: &PositionRange{Lower: 0, Upper: 100}}

	if got := Filter(table, c); got.Len() != 0 {
		t.Errorf("Expected no rows, got %v", keywordsOf(got))
	}
}

func TestFilter_InclusiveBoundsAndNaN(t *testing.T) {
	got := Filter(filterTable(), DefaultCriteria())

	want := []string{"k3", "k6", "k9"}
	if len(got.Records) != len(want) {
		t.Fatalf("Expected %v, got %v", want, keywordsOf(got))
	}
	for i, kw := range want {
		if got.Records[i].Keyword != kw {
			t.Errorf("Row %d: expected %s, got %s", i, kw, got.Records[i].Keyword)
		}
	}
}

func TestFilter_PositionGate(t *testing.T) {
	c := DefaultCriteria()

	noRange := c
	noRange.Position = nil
	got := Filter(filterTable(), noRange)
	if len(got.Records) != 5 {
		t.Errorf("Expected 5 rows without position predicate, got %v", keywordsOf(got))
	}

	withoutColumn := filterTable()
	withoutColumn.HasPosition = false
	got = Filter(withoutColumn, c)
	if len(got.Records) != 5 {
		t.Errorf("Expected position predicate to be omitted for tables without the column, got %v", keywordsOf(got))
	}
}

func TestFilter_StableOrder(t *testing.T) {
	table := filterTable()
	c := Criteria{MinVolume: 0, MaxDifficulty: 100, MinCPC: 0}

	got := Filter(table, c)
	last := -1
	for _, r := range got.Records {
		idx := -1
		for i, src := range table.Records {
			if src.Keyword == r.Keyword {
				idx = i
			}
		}
		if idx <= last {
			t.Fatalf("Row %s out of order", r.Keyword)
		}
		last = idx
	}
}

func TestFilter_Monotonicity(t *testing.T) {
	table := filterTable()
	base := Criteria{MinVolume: 0, MaxDifficulty: 100, MinCPC: 0, Position: &PositionRange{Lower: 0, Upper: 200}}

	prev := math.MaxInt
	for _, v := range []float64{0, 500, 1000, 1500, 3000, 10000} {
		c := base
		c.MinVolume = v
		n := Filter(table, c).Len()
		if n > prev {
			t.Errorf("Raising min volume to %v increased rows from %d to %d", v, prev, n)
		}
		prev = n
	}

	prev = math.MaxInt
	for _, d := range []float64{100, 30, 20, 12, 5, 0} {
		c := base
		c.MaxDifficulty = d
		n := Filter(table, c).Len()
		if n > prev {
			t.Errorf("Lowering max difficulty to %v increased rows from %d to %d", d, prev, n)
		}
		prev = n
	}
}

func TestCriteria_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr bool
	}{
		{"defaults", DefaultCriteria(), false},
		{"no position", Criteria{MinVolume: 1}, false},
		{"inverted position", Criteria{Position: &PositionRange{Lower: 10, Upper: 1}}, true},
		{"nan volume", Criteria{MinVolume: math.NaN()}, true},
		{"nan position", Criteria{Position: &PositionRange{Lower: math.NaN(), Upper: 1}}, true},
		{"inf difficulty", Criteria{MaxDifficulty: math.Inf(1)}, true},
		{"negative inf cpc", Criteria{MinCPC: math.Inf(-1)}, true},
		{"inf position upper", Criteria{Position: &PositionRange{Lower: 0, Upper: math.Inf(1)}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, ErrInvalidCriteria) {
				t.Errorf("Expected ErrInvalidCriteria, got %v", err)
			}
		})
	}
}
