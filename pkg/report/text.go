package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"kwcluster/pkg/stats"
)

// WriteText prints the run as aligned console tables.
func WriteText(w io.Writer, r *Report) error {
	var sb strings.Builder
	section := func(title string) {
		sb.WriteString("\n=== " + title + " ===\n")
	}

	section("Data Loaded")
	fmt.Fprintf(&sb, "Source: %s (profile %s)\n", r.Source, r.Profile)
	writeLines(&sb, alignTable(r.Columns, cells(r.Columns, r.Preview), false))
	fmt.Fprintf(&sb, "Original shape: (%d, %d)\n", r.Loaded.Rows, r.Loaded.Columns)

	if r.Cluster != nil {
		section("Cluster")
		fmt.Fprintf(&sb, "Cleaned cluster length: %d\n", r.Cluster.Size)
		if len(r.Cluster.Unmatched) > 0 {
			fmt.Fprintf(&sb, "Not found in data: %s\n", strings.Join(r.Cluster.Unmatched, ", "))
		}
		fmt.Fprintf(&sb, "Cluster shape: (%d, %d)\n", r.Cluster.Shape.Rows, r.Cluster.Shape.Columns)
	}

	section("Filtered")
	fmt.Fprintf(&sb, "Criteria: %s\n", describeCriteria(r))
	if len(r.Rows) == 0 {
		sb.WriteString("No keywords match the current filters.\n")
	} else {
		writeLines(&sb, alignTable(r.Columns, cells(r.Columns, r.Rows), false))
	}
	fmt.Fprintf(&sb, "Filtered shape: (%d, %d)\n", r.Filtered.Rows, r.Filtered.Columns)

	section("Statistics")
	writeLines(&sb, alignTable(summaryHeader, summaryCells(r.Summary), false))

	if len(r.Top) > 0 {
		section(fmt.Sprintf("Top %d by volume", len(r.Top)))
		cols := []string{"keyword", "volume"}
		writeLines(&sb, alignTable(cols, cells(cols, r.Top), false))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMarkdown prints the run as a markdown document.
func WriteMarkdown(w io.Writer, r *Report) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Keyword cluster report\n\n")
	fmt.Fprintf(&sb, "- Source: `%s` (profile `%s`)\n", r.Source, r.Profile)
	fmt.Fprintf(&sb, "- Original shape: (%d, %d)\n", r.Loaded.Rows, r.Loaded.Columns)
	if r.Cluster != nil {
		fmt.Fprintf(&sb, "- Cluster: %d keywords, shape (%d, %d)\n", r.Cluster.Size, r.Cluster.Shape.Rows, r.Cluster.Shape.Columns)
	}
	fmt.Fprintf(&sb, "- Criteria: %s\n", describeCriteria(r))
	fmt.Fprintf(&sb, "- Filtered shape: (%d, %d)\n", r.Filtered.Rows, r.Filtered.Columns)

	sb.WriteString("\n## Keywords\n\n")
	if len(r.Rows) == 0 {
		sb.WriteString("_No keywords match the current filters._\n")
	} else {
		writeLines(&sb, alignTable(r.Columns, cells(r.Columns, r.Rows), true))
	}

	sb.WriteString("\n## Statistics\n\n")
	writeLines(&sb, alignTable(summaryHeader, summaryCells(r.Summary), true))

	_, err := io.WriteString(w, sb.String())
	return err
}

var summaryHeader = []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func summaryCells(summaries []stats.ColumnSummary) [][]string {
	out := make([][]string, len(summaries))
	for i, cs := range summaries {
		s := cs.Summary
		out[i] = []string{
			cs.Column, strconv.Itoa(s.Count),
			formatFloat(s.Mean), formatFloat(s.Std), formatFloat(s.Min),
			formatFloat(s.Q1), formatFloat(s.Median), formatFloat(s.Q3), formatFloat(s.Max),
		}
	}
	return out
}

func describeCriteria(r *Report) string {
	c := r.Criteria
	s := fmt.Sprintf("volume >= %s, KD <= %s, CPC >= %s",
		formatFloat(c.MinVolume), formatFloat(c.MaxDifficulty), formatFloat(c.MinCPC))
	if r.PositionApplied && c.Position != nil {
		s += fmt.Sprintf(", position %s..%s", formatFloat(c.Position.Lower), formatFloat(c.Position.Upper))
	}
	return s
}

func cells(cols []string, rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(cols))
		for j, c := range cols {
			line[j] = cellText(row[c])
		}
		out[i] = line
	}
	return out
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	}
	return fmt.Sprint(v)
}

func formatFloat(v float64) string {
	if math.Abs(v) < 1e15 && v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// alignTable pads every column to its widest display width.
// Markdown output gets pipes and a separator row.
func alignTable(header []string, rows [][]string, markdown bool) []string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			content := row[i]
			if markdown {
				content = strings.ReplaceAll(content, "|", `\|`)
			}
			if w := runewidth.StringWidth(content); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if markdown {
		for i := range widths {
			if widths[i] < 3 {
				widths[i] = 3
			}
		}
	}

	render := func(row []string) string {
		var sb strings.Builder
		if markdown {
			sb.WriteString("| ")
		}
		for i := range widths {
			content := ""
			if i < len(row) {
				content = row[i]
			}
			if markdown {
				content = strings.ReplaceAll(content, "|", `\|`)
			}
			sb.WriteString(runewidth.FillRight(content, widths[i]))
			if i < len(widths)-1 {
				if markdown {
					sb.WriteString(" | ")
				} else {
					sb.WriteString("  ")
				}
			}
		}
		if markdown {
			sb.WriteString(" |")
		}
		return strings.TrimRight(sb.String(), " ")
	}

	lines := []string{render(header)}
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	lines = append(lines, render(sep))
	for _, row := range rows {
		lines = append(lines, render(row))
	}
	return lines
}

func writeLines(sb *strings.Builder, lines []string) {
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
}
