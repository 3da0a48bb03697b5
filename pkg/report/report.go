// Package report renders an analysis run for the console, markdown, JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/stats"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat and Write for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatMarkdown, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Shape is the (rows, columns) size of a table at one pipeline stage.
type Shape struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

// ShapeOf returns the shape of t.
func ShapeOf(t *keyword.Table) Shape {
	rows, cols := t.Shape()
	return Shape{Rows: rows, Columns: cols}
}

// Row is one table row keyed by column name. Non-numeric cells are nil.
type Row map[string]any

// Rows converts table records to rows; NaN numbers become nil so the result encodes cleanly.
func Rows(t *keyword.Table, records []keyword.Record) []Row {
	out := make([]Row, len(records))
	for i, r := range records {
		row := Row{
			string(keyword.FieldKeyword):    r.Keyword,
			string(keyword.FieldVolume):     number(r.Volume),
			string(keyword.FieldDifficulty): number(r.Difficulty),
			string(keyword.FieldCPC):        number(r.CPC),
		}
		if t.HasPosition {
			row[string(keyword.FieldPosition)] = number(r.CurrentPosition)
		}
		for _, col := range t.Passthrough {
			row[col] = r.Extra[col]
		}
		out[i] = row
	}
	return out
}

func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Cluster describes the resolved keyword cluster.
type Cluster struct {
	Size      int      `json:"size" yaml:"size"`
	Keywords  []string `json:"keywords" yaml:"keywords"`
	Unmatched []string `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
	Shape     Shape    `json:"shape" yaml:"shape"`
}

// Bounds are the control ranges derived from the loaded table.
type Bounds struct {
	MaxVolume   float64 `json:"max_volume" yaml:"max_volume"`
	MaxCPC      float64 `json:"max_cpc" yaml:"max_cpc"`
	MaxPosition float64 `json:"max_position" yaml:"max_position"`
}

// Report is the complete outcome of one pipeline run.
type Report struct {
	Source          string                `json:"source" yaml:"source"`
	Profile         string                `json:"profile" yaml:"profile"`
	Columns         []string              `json:"columns" yaml:"columns"`
	Loaded          Shape                 `json:"loaded" yaml:"loaded"`
	Preview         []Row                 `json:"preview" yaml:"preview"`
	Bounds          Bounds                `json:"bounds" yaml:"bounds"`
	Cluster         *Cluster              `json:"cluster,omitempty" yaml:"cluster,omitempty"`
	Criteria        keyword.Criteria      `json:"criteria" yaml:"criteria"`
	PositionApplied bool                  `json:"position_applied" yaml:"position_applied"`
	Filtered        Shape                 `json:"filtered" yaml:"filtered"`
	Summary         []stats.ColumnSummary `json:"summary" yaml:"summary"`
	Top             []Row                 `json:"top" yaml:"top"`
	Rows            []Row                 `json:"rows" yaml:"rows"`
}

// Write encodes r in the given format.
func Write(w io.Writer, format Format, r *Report) error {
	switch format {
	case FormatTable:
		return WriteText(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
