package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/report"
)

const testExport = `Keyword;Volume;KD;CPC;Current position
karton kaufen;2400;12;0,85;4
faltkarton;3000;15;1.1;9
versandkarton;900;5;0.7;15
`

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keywords.csv")
	if err := os.WriteFile(path, []byte(testExport), 0644); err != nil {
		t.Fatalf("Failed to write export: %v", err)
	}
	return path
}

func TestRun_JSONReport(t *testing.T) {
	opts := cliOptions{
		file:     writeExport(t),
		profile:  keyword.ProfileSpreadsheet,
		cluster:  "faltkarton, karton kaufen",
		criteria: keyword.DefaultCriteria(),
		format:   "json",
	}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var r report.Report
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	// "0,85" is not a number, so that row's CPC becomes 0 and fails min CPC
	if r.Filtered.Rows != 1 || r.Rows[0]["keyword"] != "faltkarton" {
		t.Errorf("Expected only faltkarton, got %+v", r.Rows)
	}
	if r.Cluster == nil || r.Cluster.Size != 2 {
		t.Errorf("Unexpected cluster %+v", r.Cluster)
	}
}

func TestRun_TableReportAndChart(t *testing.T) {
	chartPath := filepath.Join(t.TempDir(), "top.svg")
	opts := cliOptions{
		file:       writeExport(t),
		criteria:   keyword.Criteria{MaxDifficulty: 100},
		format:     "table",
		chartPath:  chartPath,
		chartKind:  "top",
		chartField: "volume",
	}

	var out bytes.Buffer
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Original shape: (3, 5)") {
		t.Errorf("Expected shape line, got:\n%s", out.String())
	}

	svg, err := os.ReadFile(chartPath)
	if err != nil {
		t.Fatalf("Expected chart file: %v", err)
	}
	if !strings.HasPrefix(string(svg), "<svg") || !strings.Contains(string(svg), "faltkarton") {
		t.Error("Expected SVG bar chart with keyword labels")
	}
}

func TestRun_Errors(t *testing.T) {
	export := writeExport(t)

	tests := []struct {
		name   string
		opts   cliOptions
		target error
	}{
		{"bad format", cliOptions{file: export, format: "xml"}, report.ErrUnknownFormat},
		{"bad profile", cliOptions{file: export, format: "table", profile: "nope"}, keyword.ErrUnknownProfile},
		{"schema mismatch", cliOptions{file: export, format: "table", profile: keyword.ProfileAPI}, keyword.ErrSchema},
		{"missing file", cliOptions{file: filepath.Join(t.TempDir(), "absent.csv"), format: "table"}, os.ErrNotExist},
		{"chart field typo", cliOptions{file: export, format: "table", chartPath: filepath.Join(t.TempDir(), "c.svg"), chartKind: "histogram", chartField: "vol"}, keyword.ErrUnknownField},
		{"infinite threshold", cliOptions{file: export, format: "json", criteria: keyword.Criteria{MaxDifficulty: math.Inf(1)}}, keyword.ErrInvalidCriteria},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, &bytes.Buffer{})
			if !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("KWCLUSTER_TEST_INT", "42")
	t.Setenv("KWCLUSTER_TEST_FLOAT", "0.75")
	t.Setenv("KWCLUSTER_TEST_BOOL", "true")
	t.Setenv("KWCLUSTER_TEST_BAD", "abc")

	if got := getEnvIntOrDefault("KWCLUSTER_TEST_INT", 1); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := getEnvFloatOrDefault("KWCLUSTER_TEST_FLOAT", 1); got != 0.75 {
		t.Errorf("Expected 0.75, got %v", got)
	}
	if got := getEnvBoolOrDefault("KWCLUSTER_TEST_BOOL", false); !got {
		t.Error("Expected true")
	}
	if got := getEnvFloatOrDefault("KWCLUSTER_TEST_BAD", 3); got != 3 {
		t.Errorf("Expected fallback 3, got %v", got)
	}
	if got := getEnvOrDefault("KWCLUSTER_TEST_UNSET", "x"); got != "x" {
		t.Errorf("Expected fallback x, got %s", got)
	}
}
