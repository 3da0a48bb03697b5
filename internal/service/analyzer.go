package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kwcluster/internal/metrics"
	"kwcluster/pkg/api"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
	"kwcluster/pkg/parser"
	"kwcluster/pkg/report"
	"kwcluster/pkg/stats"
	"kwcluster/pkg/storage"
	"kwcluster/pkg/utils"
)

// PreviewRows is the number of loaded rows shown before filtering.
const PreviewRows = 5

// AnalyzerConfig selects the schemas used to normalize sources.
type AnalyzerConfig struct {
	Profiles       keyword.Profiles
	DefaultProfile string
}

// Analyzer runs Source -> Normalize -> Resolve -> Filter -> Statistics.
// It keeps no state between runs except the optional table cache, which
// memoizes pure normalization results.
type Analyzer struct {
	config AnalyzerConfig
	remote api.KeywordSource
	cache  storage.TableCache
	hasher *utils.ContentHasher
	log    *logger.Logger
}

// NewAnalyzer creates an analyzer. remote may be nil when no API is configured
// and cache may be nil to disable memoization.
func NewAnalyzer(config AnalyzerConfig, remote api.KeywordSource, cache storage.TableCache) *Analyzer {
	if config.Profiles == nil {
		config.Profiles = keyword.DefaultProfiles()
	}
	if config.DefaultProfile == "" {
		config.DefaultProfile = keyword.ProfileSpreadsheet
	}
	if cache == nil {
		cache = storage.NoopCache{}
	}
	return &Analyzer{
		config: config,
		remote: remote,
		cache:  cache,
		hasher: utils.NewContentHasher(),
		log:    logger.GetLogger().WithComponent("analyzer"),
	}
}

// Profiles lists the schema profile names accepted by AnalyzeUpload.
func (a *Analyzer) Profiles() []string {
	return a.config.Profiles.Names()
}

// AnalyzeUpload parses an uploaded export and runs the pipeline over it.
func (a *Analyzer) AnalyzeUpload(ctx context.Context, src UploadSource, req AnalysisRequest) (result *Result, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAnalysis("upload", err, started) }()

	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}

	profile := src.Profile
	if profile == "" {
		profile = a.config.DefaultProfile
	}
	schema, err := a.config.Profiles.Lookup(profile)
	if err != nil {
		return nil, err
	}

	loaded, err := a.loadUpload(ctx, src, schema)
	if err != nil {
		return nil, err
	}

	return a.run(loaded, src.Filename, schema.Name, req), nil
}

// AnalyzeRemote fetches organic keywords from the remote API and runs the pipeline over them.
func (a *Analyzer) AnalyzeRemote(ctx context.Context, src api.OrganicKeywordsRequest, req AnalysisRequest) (result *Result, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAnalysis("remote", err, started) }()

	if a.remote == nil {
		return nil, fmt.Errorf("%w: no remote source configured", api.ErrInvalidRequest)
	}
	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	raw, err := a.remote.FetchOrganicKeywords(ctx, src)
	metrics.RemoteFetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		metrics.RemoteFetchErrorsTotal.WithLabelValues(fetchStatus(err)).Inc()
		return nil, fmt.Errorf("failed to fetch keywords for %s: %w", logger.GetSecurityLogger().MaskTarget(src.Target), err)
	}

	loaded, err := keyword.Normalize(*raw, keyword.APISchema)
	if err != nil {
		return nil, err
	}

	return a.run(loaded, "api:"+src.Target, keyword.APISchema.Name, req), nil
}

func (a *Analyzer) loadUpload(ctx context.Context, src UploadSource, schema keyword.Schema) (*keyword.Table, error) {
	key := storage.TableKey{
		ContentHash: a.hasher.CalculateContentHash(src.Content),
		Schema:      schema.Name,
		Sheet:       parser.FormatFromFilename(src.Filename) + ":" + src.Sheet,
	}
	if table, ok := a.cache.Get(key); ok {
		metrics.ObserveCache(true)
		return table, nil
	}
	metrics.ObserveCache(false)

	raw, err := parser.ParseUpload(ctx, src.Filename, bytes.NewReader(src.Content), parser.Options{Sheet: src.Sheet})
	if err != nil {
		return nil, err
	}

	table, err := keyword.Normalize(*raw, schema)
	if err != nil {
		return nil, err
	}

	a.cache.Set(key, table)
	return table, nil
}

func (a *Analyzer) run(loaded *keyword.Table, source, profile string, req AnalysisRequest) *Result {
	metrics.ObserveRows("loaded", loaded.Len())

	r := &report.Report{
		Source:  source,
		Profile: profile,
		Columns: loaded.Columns(),
		Loaded:  report.ShapeOf(loaded),
		Preview: report.Rows(loaded, loaded.Head(PreviewRows).Records),
		Bounds: report.Bounds{
			MaxVolume:   stats.Max(loaded.Values(keyword.FieldVolume)),
			MaxCPC:      stats.Max(loaded.Values(keyword.FieldCPC)),
			MaxPosition: stats.Max(loaded.Values(keyword.FieldPosition)),
		},
		Criteria:        req.Criteria,
		PositionApplied: req.Criteria.Position != nil && loaded.HasPosition,
	}

	subset := loaded
	if req.ApplyCluster {
		query := keyword.ParseCluster(req.Cluster)
		subset = keyword.Resolve(loaded, query)
		r.Cluster = &report.Cluster{
			Size:      query.Len(),
			Keywords:  query.Keywords(),
			Unmatched: keyword.Unmatched(loaded, query),
			Shape:     report.ShapeOf(subset),
		}
		metrics.ObserveRows("cluster", subset.Len())
	}

	filtered := keyword.Filter(subset, req.Criteria)
	metrics.ObserveRows("filtered", filtered.Len())

	r.Filtered = report.ShapeOf(filtered)
	r.Summary = stats.DescribeTable(filtered)
	r.Top = report.Rows(filtered, stats.TopByVolume(filtered, stats.DefaultTopN))
	r.Rows = report.Rows(filtered, filtered.Records)

	fields := map[string]interface{}{
		"profile":  profile,
		"loaded":   loaded.Len(),
		"filtered": filtered.Len(),
	}
	if r.Cluster != nil {
		fields["cluster_size"] = r.Cluster.Size
		fields["cluster_rows"] = r.Cluster.Shape.Rows
	}
	a.log.WithFields(fields).Info("Analysis completed")

	return &Result{Report: r, Loaded: loaded, Filtered: filtered}
}

func fetchStatus(err error) string {
	var fetchErr *api.RemoteFetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.StatusCode == 0 {
			return "transport"
		}
		return strconv.Itoa(fetchErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "invalid"
}
