package keyword

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize converts a raw source table into a canonical Table using schema.
//
// A missing required column fails with a *SchemaError. Cell coercion never fails:
// an unparseable CPC becomes 0.0, while unparseable volume, difficulty and
// position values become NaN and therefore drop out of threshold comparisons.
func Normalize(raw RawTable, schema Schema) (*Table, error) {
	index := make(map[string]int, len(raw.Header))
	for i, name := range raw.Header {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	cols := make(map[Field]int, len(schema.Columns))
	for _, f := range requiredFields {
		i, ok := index[schema.Columns[f]]
		if !ok {
			missing = append(missing, schema.Columns[f])
			continue
		}
		cols[f] = i
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Profile: schema.Name, Missing: missing}
	}

	posCol, hasPosition := -1, false
	if name := schema.Columns[FieldPosition]; name != "" {
		posCol, hasPosition = index[name]
	}

	mapped := make(map[int]bool, len(cols)+1)
	for _, i := range cols {
		mapped[i] = true
	}
	if hasPosition {
		mapped[posCol] = true
	}

	type passCol struct {
		name  string
		index int
	}
	var passthrough []passCol
	seen := make(map[string]bool)
	for i, name := range raw.Header {
		if mapped[i] {
			continue
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] || isCoreName(name) {
			continue
		}
		seen[name] = true
		passthrough = append(passthrough, passCol{name: name, index: i})
	}

	t := &Table{HasPosition: hasPosition, Records: make([]Record, 0, len(raw.Rows))}
	for _, p := range passthrough {
		t.Passthrough = append(t.Passthrough, p.name)
	}

	for _, row := range raw.Rows {
		if blankRow(row) {
			continue
		}
		rec := Record{
			Keyword:         cell(row, cols[FieldKeyword]),
			Volume:          parseNumber(cell(row, cols[FieldVolume])),
			Difficulty:      parseNumber(cell(row, cols[FieldDifficulty])),
			CPC:             parseCPC(cell(row, cols[FieldCPC])),
			CurrentPosition: math.NaN(),
		}
		if hasPosition {
			rec.CurrentPosition = parseNumber(cell(row, posCol))
		}
		if len(passthrough) > 0 {
			rec.Extra = make(map[string]string, len(passthrough))
			for _, p := range passthrough {
				rec.Extra[p.name] = cell(row, p.index)
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// isCoreName reports whether a passthrough column would shadow a canonical column.
func isCoreName(name string) bool {
	switch Field(name) {
	case FieldKeyword, FieldVolume, FieldDifficulty, FieldCPC, FieldPosition:
		return true
	}
	return false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber returns NaN for anything strconv cannot parse.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseCPC never returns NaN: unparseable, non-finite or negative values become 0.0.
func parseCPC(s string) float64 {
	v := parseNumber(s)
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0.0
	}
	return v
}
