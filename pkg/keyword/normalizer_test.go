package keyword

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func spreadsheetRaw() RawTable {
	return RawTable{
		Header: []string{"Keyword", "Volume", "KD", "CPC", "Current position", "Current URL", "Updated"},
		Rows: [][]string{
			{"karton kaufen", "2400", "12", "0.85", "4", "https://example.com/karton", "2024-05-01"},
			{"kartons zuschnitt", "880", "n/a", "", "17", "https://example.com/zuschnitt", "2024-05-01"},
			{"versandkarton", "-", "35", "abc", "", "", "2024-05-02"},
			{"", "", "", "", "", "", ""},
			{"umzugskarton", " 5400 ", "28", "1.20"},
		},
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func sameTable(t *testing.T, want, got *Table) {
	t.Helper()
	if want.HasPosition != got.HasPosition {
		t.Fatalf("Expected HasPosition %v, got %v", want.HasPosition, got.HasPosition)
	}
	if strings.Join(want.Columns(), "|") != strings.Join(got.Columns(), "|") {
		t.Fatalf("Expected columns %v, got %v", want.Columns(), got.Columns())
	}
	if len(want.Records) != len(got.Records) {
		t.Fatalf("Expected %d records, got %d", len(want.Records), len(got.Records))
	}
	for i := range want.Records {
		w, g := want.Records[i], got.Records[i]
		if w.Keyword != g.Keyword || !sameFloat(w.Volume, g.Volume) || !sameFloat(w.Difficulty, g.Difficulty) ||
			!sameFloat(w.CPC, g.CPC) || !sameFloat(w.CurrentPosition, g.CurrentPosition) {
			t.Errorf("Row %d differs: want %+v, got %+v", i, w, g)
		}
		for _, col := range want.Passthrough {
			if w.Extra[col] != g.Extra[col] {
				t.Errorf("Row %d column %q: want %q, got %q", i, col, w.Extra[col], g.Extra[col])
			}
		}
	}
}

func TestNormalize_Spreadsheet(t *testing.T) {
	table, err := Normalize(spreadsheetRaw(), SpreadsheetSchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if table.Len() != 4 {
		t.Fatalf("Expected 4 rows (blank row skipped), got %d", table.Len())
	}
	if !table.HasPosition {
		t.Error("Expected position capability")
	}
	if got := strings.Join(table.Passthrough, ","); got != "Current URL,Updated" {
		t.Errorf("Expected passthrough columns 'Current URL,Updated', got %q", got)
	}

	first := table.Records[0]
	if first.Keyword != "karton kaufen" || first.Volume != 2400 || first.Difficulty != 12 ||
		first.CPC != 0.85 || first.CurrentPosition != 4 {
		t.Errorf("Unexpected first record: %+v", first)
	}
	if first.Extra["Current URL"] != "https://example.com/karton" {
		t.Errorf("Expected passthrough URL, got %q", first.Extra["Current URL"])
	}

	second := table.Records[1]
	if !math.IsNaN(second.Difficulty) {
		t.Errorf("Expected NaN difficulty for 'n/a', got %v", second.Difficulty)
	}
	if second.CPC != 0 {
		t.Errorf("Expected blank CPC to become 0, got %v", second.CPC)
	}

	third := table.Records[2]
	if !math.IsNaN(third.Volume) || !math.IsNaN(third.CurrentPosition) {
		t.Errorf("Expected NaN volume and position, got %+v", third)
	}
	if third.CPC != 0 {
		t.Errorf("Expected unparseable CPC to become 0, got %v", third.CPC)
	}

	short := table.Records[3]
	if short.Volume != 5400 {
		t.Errorf("Expected trimmed volume 5400, got %v", short.Volume)
	}
	if !math.IsNaN(short.CurrentPosition) || short.Extra["Updated"] != "" {
		t.Errorf("Expected missing trailing cells to read blank, got %+v", short)
	}
}

func TestNormalize_MissingColumns(t *testing.T) {
	raw := RawTable{
		Header: []string{"Keyword", "Volume"},
		Rows:   [][]string{{"a", "1"}},
	}

	_, err := Normalize(raw, SpreadsheetSchema)
	if err == nil {
		t.Fatal("Expected schema error, got nil")
	}
	if !errors.Is(err, ErrSchema) {
		t.Errorf("Expected ErrSchema, got %v", err)
	}
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected *SchemaError, got %T", err)
	}
	if got := strings.Join(schemaErr.Missing, ","); got != "KD,CPC" {
		t.Errorf("Expected missing KD,CPC, got %q", got)
	}
}

func TestNormalize_ColumnNamesAreCaseSensitive(t *testing.T) {
	raw := RawTable{
		Header: []string{"keyword", "Volume", "KD", "CPC"},
		Rows:   [][]string{{"a", "1", "2", "3"}},
	}

	if _, err := Normalize(raw, SpreadsheetSchema); !errors.Is(err, ErrSchema) {
		t.Errorf("Expected ErrSchema for lowercase header, got %v", err)
	}
}

func TestNormalize_WithoutPosition(t *testing.T) {
	raw := RawTable{
		Header: []string{"Keyword", "Volume", "KD", "CPC", ""},
		Rows:   [][]string{{"a", "100", "5", "1", "note"}},
	}

	table, err := Normalize(raw, SpreadsheetSchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if table.HasPosition {
		t.Error("Expected no position capability")
	}
	if table.Records[0].Extra["Unnamed: 4"] != "note" {
		t.Errorf("Expected unnamed passthrough column, got %v", table.Records[0].Extra)
	}
	rows, cols := table.Shape()
	if rows != 1 || cols != 5 {
		t.Errorf("Expected shape (1, 5), got (%d, %d)", rows, cols)
	}
}

func TestNormalize_APISchema(t *testing.T) {
	raw := RawTable{
		Header: []string{"keyword", "keyword_difficulty", "volume", "cpc", "best_position", "best_position_url"},
		Rows:   [][]string{{"box", "14", "3200", "", "2", "https://example.com"}},
	}

	table, err := Normalize(raw, APISchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	r := table.Records[0]
	if r.Difficulty != 14 || r.Volume != 3200 || r.CPC != 0 || r.CurrentPosition != 2 {
		t.Errorf("Unexpected record: %+v", r)
	}
	if r.Extra["best_position_url"] != "https://example.com" {
		t.Errorf("Expected passthrough URL, got %v", r.Extra)
	}
}

func TestNormalize_FixedPoint(t *testing.T) {
	first, err := Normalize(spreadsheetRaw(), SpreadsheetSchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	second, err := Normalize(first.Raw(), CanonicalSchema)
	if err != nil {
		t.Fatalf("Expected no error on renormalization, got: %v", err)
	}
	sameTable(t, first, second)

	third, err := Normalize(second.Raw(), CanonicalSchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	sameTable(t, second, third)
}

func TestNormalize_CPCNeverNaN(t *testing.T) {
	cells := []string{"", " ", "abc", "NaN", "Inf", "-Inf", "-3", "1e400", "0.45", "12", "0"}
	raw := RawTable{Header: []string{"Keyword", "Volume", "KD", "CPC"}}
	for i, c := range cells {
		raw.Rows = append(raw.Rows, []string{string(rune('a' + i)), "1", "1", c})
	}

	table, err := Normalize(raw, SpreadsheetSchema)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for i, r := range table.Records {
		if math.IsNaN(r.CPC) || math.IsInf(r.CPC, 0) || r.CPC < 0 {
			t.Errorf("Row %d (%q): CPC %v is not a finite non-negative number", i, cells[i], r.CPC)
		}
	}
	if table.Records[8].CPC != 0.45 || table.Records[9].CPC != 12 {
		t.Errorf("Expected valid CPC values to survive, got %v and %v", table.Records[8].CPC, table.Records[9].CPC)
	}
}
