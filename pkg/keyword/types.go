// Package keyword holds the keyword table model and the pure pipeline stages
// that operate on it: normalization, cluster resolution and range filtering.
package keyword

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field identifies a canonical column of a keyword table.
type Field string

const (
	FieldKeyword    Field = "keyword"
	FieldVolume     Field = "volume"
	FieldDifficulty Field = "difficulty"
	FieldCPC        Field = "cpc"
	FieldPosition   Field = "current_position"
)

// ParseField resolves a numeric column name. Blank input selects volume.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.TrimSpace(s)); f {
	case "":
		return FieldVolume, nil
	case FieldVolume, FieldDifficulty, FieldCPC, FieldPosition:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (want volume, difficulty, cpc or current_position)", ErrUnknownField, s)
}

// requiredFields must be present in every source table.
var requiredFields = []Field{FieldKeyword, FieldVolume, FieldDifficulty, FieldCPC}

// RawTable is an untyped table as delivered by a data source adapter.
// Rows may be shorter than Header; missing cells read as blank.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Record is one normalized keyword row.
// Volume, Difficulty and CurrentPosition are NaN when the source cell was not numeric.
// CPC is always a finite, non-negative number.
type Record struct {
	Keyword         string
	Volume          float64
	Difficulty      float64
	CPC             float64
	CurrentPosition float64
	Extra           map[string]string
}

// Table is a canonical keyword table. Records are never mutated after
// normalization; every pipeline stage returns a new Table.
type Table struct {
	// Passthrough lists the non-core source columns in source order.
	Passthrough []string
	// HasPosition reports whether the source carried a position column.
	HasPosition bool
	Records     []Record
}

// Columns returns the canonical column order: core fields first, then passthrough columns.
func (t *Table) Columns() []string {
	cols := []string{string(FieldKeyword), string(FieldVolume), string(FieldDifficulty), string(FieldCPC)}
	if t.HasPosition {
		cols = append(cols, string(FieldPosition))
	}
	return append(cols, t.Passthrough...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Shape returns (rows, columns), mirroring what the dashboard reports after each stage.
func (t *Table) Shape() (int, int) {
	if t == nil {
		return 0, 0
	}
	return len(t.Records), len(t.Columns())
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	if n < 0 {
		n = 0
	}
	return t.derive(t.Records[:n:n])
}

// Select returns the rows for which keep returns true, in input order.
func (t *Table) Select(keep func(Record) bool) *Table {
	out := make([]Record, 0, len(t.Records))
	for _, r := range t.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return t.derive(out)
}

// Values returns the numeric column for f. Non-numeric fields return nil.
func (t *Table) Values(f Field) []float64 {
	get := numericGetter(f)
	if get == nil {
		return nil
	}
	out := make([]float64, len(t.Records))
	for i, r := range t.Records {
		out[i] = get(r)
	}
	return out
}

// Cell returns the textual value of column col for record r.
func (t *Table) Cell(r Record, col string) string {
	switch Field(col) {
	case FieldKeyword:
		return r.Keyword
	case FieldVolume:
		return FormatNumber(r.Volume)
	case FieldDifficulty:
		return FormatNumber(r.Difficulty)
	case FieldCPC:
		return FormatNumber(r.CPC)
	case FieldPosition:
		if t.HasPosition {
			return FormatNumber(r.CurrentPosition)
		}
	}
	return r.Extra[col]
}

// Raw converts the table back into an untyped table using canonical column names.
// Normalizing the result with CanonicalSchema yields an equal table.
func (t *Table) Raw() RawTable {
	cols := t.Columns()
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = t.Cell(r, c)
		}
		rows[i] = row
	}
	return RawTable{Header: cols, Rows: rows}
}

func (t *Table) derive(records []Record) *Table {
	return &Table{
		Passthrough: t.Passthrough,
		HasPosition: t.HasPosition,
		Records:     records,
	}
}

// FormatNumber renders a parsed cell. NaN renders as a blank cell.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numericGetter(f Field) func(Record) float64 {
	switch f {
	case FieldVolume:
		return func(r Record) float64 { return r.Volume }
	case FieldDifficulty:
		return func(r Record) float64 { return r.Difficulty }
	case FieldCPC:
		return func(r Record) float64 { return r.CPC }
	case FieldPosition:
		return func(r Record) float64 { return r.CurrentPosition }
	}
	return nil
}
