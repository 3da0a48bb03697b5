package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"kwcluster/pkg/api"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/parser"
	"kwcluster/pkg/storage"
)

const exportCSV = `Keyword,Volume,KD,CPC,Current position,Current URL
karton kaufen,2400,12,0.85,4,https://example.de/a
umzugskarton,5400,25,1.2,8,https://example.de/b
karton klein,1300,10,,2,https://example.de/c
versandkarton,900,5,0.7,15,https://example.de/d
`

type fakeSource struct {
	table *keyword.RawTable
	err   error
	calls int
	last  api.OrganicKeywordsRequest
}

func (f *fakeSource) FetchOrganicKeywords(ctx context.Context, req api.OrganicKeywordsRequest) (*keyword.RawTable, error) {
	f.calls++
	f.last = req
	return f.table, f.err
}

func uploadCSV() UploadSource {
	return UploadSource{Filename: "keywords.csv", Content: []byte(exportCSV)}
}

func TestAnalyzer_AnalyzeUpload(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil, nil)

	result, err := a.AnalyzeUpload(context.Background(), uploadCSV(), AnalysisRequest{Criteria: keyword.DefaultCriteria()})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	r := result.Report
	if r.Loaded.Rows != 4 || r.Loaded.Columns != 6 {
		t.Errorf("Expected loaded shape (4, 6), got %+v", r.Loaded)
	}
	if len(r.Preview) != 4 {
		t.Errorf("Expected 4 preview rows, got %d", len(r.Preview))
	}
	if r.Cluster != nil {
		t.Error("Expected no cluster section without cluster input")
	}
	if !r.PositionApplied {
		t.Error("Expected position predicate to be applied")
	}
	if r.Filtered.Rows != 1 || result.Filtered.Records[0].Keyword != "karton kaufen" {
		t.Errorf("Expected only 'karton kaufen' to pass, got %+v", result.Filtered.Records)
	}
	if r.Bounds.MaxVolume != 5400 || r.Bounds.MaxCPC != 1.2 || r.Bounds.MaxPosition != 15 {
		t.Errorf("Unexpected bounds %+v", r.Bounds)
	}
	if len(r.Top) != 1 || len(r.Rows) != 1 {
		t.Errorf("Expected one top row and one result row, got %d and %d", len(r.Top), len(r.Rows))
	}
}

func TestAnalyzer_Cluster(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil, nil)

	req := AnalysisRequest{
		Cluster:      "karton kaufen, karton klein ,unbekannt,karton kaufen",
		ApplyCluster: true,
		Criteria:     keyword.DefaultCriteria(),
	}
	result, err := a.AnalyzeUpload(context.Background(), uploadCSV(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	c := result.Report.Cluster
	if c == nil {
		t.Fatal("Expected cluster section")
	}
	if c.Size != 3 {
		t.Errorf("Expected cleaned cluster length 3, got %d", c.Size)
	}
	if c.Shape.Rows != 2 {
		t.Errorf("Expected 2 cluster rows, got %d", c.Shape.Rows)
	}
	if !reflect.DeepEqual(c.Unmatched, []string{"unbekannt"}) {
		t.Errorf("Expected unmatched [unbekannt], got %v", c.Unmatched)
	}
	if result.Report.Filtered.Rows != 1 {
		t.Errorf("Expected 1 filtered row, got %d", result.Report.Filtered.Rows)
	}
}

func TestAnalyzer_BlankClusterMatchesNothing(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil, nil)

	req := AnalysisRequest{Cluster: "  ", ApplyCluster: true, Criteria: keyword.Criteria{}}
	result, err := a.AnalyzeUpload(context.Background(), uploadCSV(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Report.Cluster.Size != 1 || result.Report.Cluster.Shape.Rows != 0 {
		t.Errorf("Expected one blank token and no rows, got %+v", result.Report.Cluster)
	}
	if result.Report.Filtered.Rows != 0 {
		t.Errorf("Expected empty result, got %d rows", result.Report.Filtered.Rows)
	}
	if result.Report.Summary[0].Summary.Count != 0 {
		t.Errorf("Expected empty summary, got %+v", result.Report.Summary[0])
	}
}

func TestAnalyzer_Errors(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		src    UploadSource
		req    AnalysisRequest
		target error
	}{
		{
			name:   "missing columns",
			src:    UploadSource{Filename: "k.csv", Content: []byte("Keyword,Volume\na,1\n")},
			req:    AnalysisRequest{Criteria: keyword.DefaultCriteria()},
			target: keyword.ErrSchema,
		},
		{
			name:   "unknown profile",
			src:    UploadSource{Filename: "k.csv", Content: []byte(exportCSV), Profile: "nope"},
			req:    AnalysisRequest{Criteria: keyword.DefaultCriteria()},
			target: keyword.ErrUnknownProfile,
		},
		{
			name: "inverted position range",
			src:  uploadCSV(),
			req: AnalysisRequest{Criteria: keyword.Criteria{
				Position: &keyword.PositionRange{Lower: 10, Upper: 1},
			}},
			target: keyword.ErrInvalidCriteria,
		},
		{
			name:   "NaN threshold",
			src:    uploadCSV(),
			req:    AnalysisRequest{Criteria: keyword.Criteria{MinVolume: math.NaN()}},
			target: keyword.ErrInvalidCriteria,
		},
		{
			name:   "unsupported format",
			src:    UploadSource{Filename: "k.pdf", Content: []byte("%PDF")},
			req:    AnalysisRequest{Criteria: keyword.DefaultCriteria()},
			target: parser.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.AnalyzeUpload(ctx, tt.src, tt.req)
			if !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestAnalyzer_XLSXSheetAndCache(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", parser.DefaultSheet); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Keyword", "Volume", "KD", "CPC", "Current position"},
		{"karton kaufen", 2400, 12, 0.85, 4},
		{"faltkarton", 3000, 15, 1.1, 120},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := row
		if err := f.SetSheetRow(parser.DefaultSheet, cell, &row); err != nil {
			t.Fatalf("Failed to write row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to write workbook: %v", err)
	}
	f.Close()

	cache := storage.NewMemoryCache(4)
	a := NewAnalyzer(AnalyzerConfig{}, nil, cache)
	src := UploadSource{Filename: "keywords.xlsx", Content: buf.Bytes(), Sheet: parser.DefaultSheet}
	req := AnalysisRequest{Criteria: keyword.DefaultCriteria()}

	first, err := a.AnalyzeUpload(context.Background(), src, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := a.AnalyzeUpload(context.Background(), src, req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats := cache.Stats(); stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected one miss then one hit, got %+v", stats)
	}
	if !reflect.DeepEqual(first.Report, second.Report) {
		t.Error("Expected cached run to produce the same report")
	}
	// position 120 is outside 0..100
	if first.Report.Filtered.Rows != 1 {
		t.Errorf("Expected 1 filtered row, got %d", first.Report.Filtered.Rows)
	}

	src.Sheet = "Missing"
	if _, err := a.AnalyzeUpload(context.Background(), src, req); !errors.Is(err, parser.ErrSheetNotFound) {
		t.Errorf("Expected ErrSheetNotFound, got %v", err)
	}
}

func TestAnalyzer_AnalyzeRemote(t *testing.T) {
	source := &fakeSource{table: &keyword.RawTable{
		Header: api.DefaultSelect,
		Rows: [][]string{
			{"karton kaufen", "2400", "12", "0.85", "3", "https://example.de/a"},
			{"karton gross", "1800", "18", "", "", ""},
		},
	}}
	a := NewAnalyzer(AnalyzerConfig{}, source, nil)

	criteria := keyword.DefaultCriteria()
	criteria.MinCPC = 0
	result, err := a.AnalyzeRemote(context.Background(), api.OrganicKeywordsRequest{Target: "example.de"},
		AnalysisRequest{Criteria: criteria})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if source.calls != 1 || source.last.Target != "example.de" {
		t.Errorf("Unexpected fetch calls %d with %+v", source.calls, source.last)
	}
	if result.Report.Profile != keyword.ProfileAPI {
		t.Errorf("Expected api profile, got %q", result.Report.Profile)
	}
	// blank best_position is NaN and drops out of the position range
	if result.Report.Filtered.Rows != 1 {
		t.Errorf("Expected 1 filtered row, got %d", result.Report.Filtered.Rows)
	}
	if got := result.Loaded.Records[1].CPC; got != 0 {
		t.Errorf("Expected blank CPC to become 0, got %v", got)
	}
}

func TestAnalyzer_AnalyzeRemoteFailure(t *testing.T) {
	source := &fakeSource{err: &api.RemoteFetchError{StatusCode: 503}}
	a := NewAnalyzer(AnalyzerConfig{}, source, nil)

	_, err := a.AnalyzeRemote(context.Background(), api.OrganicKeywordsRequest{Target: "example.de"},
		AnalysisRequest{Criteria: keyword.DefaultCriteria()})
	if !errors.Is(err, api.ErrRemoteFetch) {
		t.Errorf("Expected ErrRemoteFetch, got %v", err)
	}

	noRemote := NewAnalyzer(AnalyzerConfig{}, nil, nil)
	_, err = noRemote.AnalyzeRemote(context.Background(), api.OrganicKeywordsRequest{Target: "example.de"},
		AnalysisRequest{Criteria: keyword.DefaultCriteria()})
	if !errors.Is(err, api.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestAnalyzer_Profiles(t *testing.T) {
	a := NewAnalyzer(AnalyzerConfig{}, nil, nil)
	want := []string{"api", "canonical", "semrush", "spreadsheet"}
	if got := a.Profiles(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected profiles %v, got %v", want, got)
	}
}
