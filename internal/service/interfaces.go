package service

import (
	"context"

	"kwcluster/pkg/api"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/report"
)

// UploadSource is a spreadsheet export sent by the user.
type UploadSource struct {
	Filename string
	Content  []byte
	// Sheet is used as given; empty selects the first sheet.
	Sheet string
	// Profile names the column mapping; empty selects the configured default.
	Profile string
}

// AnalysisRequest carries the interactive controls of one run.
type AnalysisRequest struct {
	Cluster      string
	ApplyCluster bool
	Criteria     keyword.Criteria
}

// Result is the outcome of one pipeline run.
type Result struct {
	Report   *report.Report
	Loaded   *keyword.Table
	Filtered *keyword.Table
}

type AnalyzerService interface {
	AnalyzeUpload(ctx context.Context, src UploadSource, req AnalysisRequest) (*Result, error)
	AnalyzeRemote(ctx context.Context, src api.OrganicKeywordsRequest, req AnalysisRequest) (*Result, error)
	Profiles() []string
}
