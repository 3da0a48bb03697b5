package keyword

import (
	"math"
	"strings"
	"testing"
)

func tableOf(keywords ...string) *Table {
	t := &Table{}
	for _, kw := range keywords {
		t.Records = append(t.Records, Record{Keyword: kw, Volume: 1, Difficulty: 1, CurrentPosition: math.NaN()})
	}
	return t
}

func TestParseCluster(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"trim and dedupe", "a, b ,b,a", []string{"a", "b"}},
		{"single", "karton", []string{"karton"}},
		{"empty token kept", "a,,b", []string{"", "a", "b"}},
		{"empty input", "", []string{""}},
		{"whitespace only", "  \t ", []string{""}},
		{"inner whitespace preserved", " karton  kaufen ,Karton kaufen", []string{"Karton kaufen", "karton  kaufen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseCluster(tt.input)
			if q.Len() != len(tt.want) {
				t.Fatalf("Expected %d members, got %d (%q)", len(tt.want), q.Len(), q.Keywords())
			}
			if got := strings.Join(q.Keywords(), "|"); got != strings.Join(tt.want, "|") {
				t.Errorf("Expected members %q, got %q", tt.want, q.Keywords())
			}
		})
	}
}

func TestResolve_ExactCaseSensitiveMatch(t *testing.T) {
	table := tableOf("karton", "Karton", "karton kaufen", "versand", "karton")
	q := ParseCluster("karton, versand")

	got := Resolve(table, q)
	if got.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", got.Len())
	}
	want := []string{"karton", "versand", "karton"}
	for i, r := range got.Records {
		if r.Keyword != want[i] {
			t.Errorf("Row %d: expected %q, got %q", i, want[i], r.Keyword)
		}
	}
}

func TestResolve_EmptyInputMatchesNothing(t *testing.T) {
	table := tableOf("a", "b")

	for _, input := range []string{"", "   ", ", ,"} {
		if got := Resolve(table, ParseCluster(input)); got.Len() != 0 {
			t.Errorf("Input %q: expected 0 matches, got %d", input, got.Len())
		}
	}
}

func TestResolve_PreservesColumns(t *testing.T) {
	table := &Table{
		Passthrough: []string{"Current URL"},
		HasPosition: true,
		Records: []Record{
			{Keyword: "a", Extra: map[string]string{"Current URL": "u1"}},
			{Keyword: "b", Extra: map[string]string{"Current URL": "u2"}},
		},
	}

	got := Resolve(table, ParseCluster("b"))
	if !got.HasPosition || len(got.Passthrough) != 1 {
		t.Errorf("Expected columns to be preserved, got %v", got.Columns())
	}
	if got.Records[0].Extra["Current URL"] != "u2" {
		t.Errorf("Expected passthrough value u2, got %q", got.Records[0].Extra["Current URL"])
	}
	if table.Len() != 2 {
		t.Error("Expected source table to be left untouched")
	}
}

func TestUnmatched(t *testing.T) {
	table := tableOf("a", "b")

	got := Unmatched(table, ParseCluster("b, c, a, d"))
	if strings.Join(got, ",") != "c,d" {
		t.Errorf("Expected unmatched c,d, got %v", got)
	}
}
