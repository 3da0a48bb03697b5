package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
)

// DefaultEndpoint is the organic-keywords endpoint of the Ahrefs v3 API.
const DefaultEndpoint = "https://api.ahrefs.com/v3/site-explorer/organic-keywords"

// ClientConfig configures the remote keyword source.
type ClientConfig struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	UserAgent  string
	// MaxConcurrent caps in-flight queries across all callers of the client.
	MaxConcurrent int
}

// DefaultClientConfig returns conservative defaults: 30s per attempt, 2 retries.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint:      DefaultEndpoint,
		Timeout:       30 * time.Second,
		MaxRetries:    2,
		RetryDelay:    1 * time.Second,
		UserAgent:     "kwcluster/1.0",
		MaxConcurrent: 2,
	}
}

type httpAPIClient struct {
	config  ClientConfig
	client  *fasthttp.Client
	retry   *SimpleRetry
	limiter *QueryLimiter
	parser  *OrganicKeywordsParser
	now     func() time.Time
	log     *logger.Logger
	secure  *logger.SecurityLogger
}

// NewHTTPAPIClient creates a client backed by a dedicated fasthttp client.
func NewHTTPAPIClient(config ClientConfig) KeywordSource {
	return NewHTTPAPIClientWithTransport(config, &fasthttp.Client{
		Name:                config.UserAgent,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 90 * time.Second,
	})
}

// NewHTTPAPIClientWithTransport creates a client that sends requests through hc.
func NewHTTPAPIClientWithTransport(config ClientConfig, hc *fasthttp.Client) KeywordSource {
	defaults := DefaultClientConfig()
	if config.Endpoint == "" {
		config.Endpoint = defaults.Endpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = defaults.MaxConcurrent
	}
	log := logger.GetLogger().WithComponent("api_client")
	return &httpAPIClient{
		config:  config,
		client:  hc,
		retry:   NewSimpleRetry(config.MaxRetries, config.RetryDelay),
		limiter: NewQueryLimiter(config.MaxConcurrent, config.Timeout),
		parser:  NewOrganicKeywordsParser(),
		now:     time.Now,
		log:     log,
		secure:  logger.NewSecurityLoggerFor(log),
	}
}

// FetchOrganicKeywords issues one read-only query, retrying transient failures.
func (c *httpAPIClient) FetchOrganicKeywords(ctx context.Context, req OrganicKeywordsRequest) (*keyword.RawTable, error) {
	req = c.withDefaults(req)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if c.config.Token == "" {
		return nil, fmt.Errorf("%w: API token is required", ErrInvalidRequest)
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for query slot: %w", err)
	}
	defer c.limiter.Release()

	start := time.Now()
	var table *keyword.RawTable
	attempts := 0
	err := c.retry.Execute(ctx, func() error {
		attempts++
		var err error
		table, err = c.doQuery(ctx, req)
		return err
	})
	if err != nil {
		c.secure.SafeError("Organic keywords query failed", err, map[string]interface{}{
			"endpoint": c.config.Endpoint,
			"target":   req.Target,
			"attempts": attempts,
		})
		return nil, err
	}

	c.log.WithFields(map[string]interface{}{
		"rows":        len(table.Rows),
		"attempts":    attempts,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Organic keywords query completed")
	return table, nil
}

func (c *httpAPIClient) doQuery(ctx context.Context, q OrganicKeywordsRequest) (*keyword.RawTable, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.buildURL(q))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Authorization", "Bearer "+c.config.Token)

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RemoteFetchError{Err: fmt.Errorf("request failed: %w", err)}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &RemoteFetchError{StatusCode: status, Message: errorMessage(resp.Body())}
	}

	table, err := c.parser.ParseResponse(resp.Body(), q.Select)
	if err != nil {
		return nil, &RemoteFetchError{StatusCode: 0, Err: err}
	}
	return table, nil
}

func (c *httpAPIClient) buildURL(q OrganicKeywordsRequest) string {
	params := url.Values{}
	params.Set("target", q.Target)
	params.Set("country", q.Country)
	params.Set("date", q.Date)
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("order_by", q.OrderBy)
	params.Set("mode", q.Mode)
	params.Set("select", strings.Join(q.Select, ","))
	params.Set("output", "json")

	sep := "?"
	if strings.Contains(c.config.Endpoint, "?") {
		sep = "&"
	}
	return c.config.Endpoint + sep + params.Encode()
}

func (c *httpAPIClient) withDefaults(q OrganicKeywordsRequest) OrganicKeywordsRequest {
	if q.Country == "" {
		q.Country = "de"
	}
	if q.Date == "" {
		q.Date = c.now().Format("2006-01-02")
	}
	if q.Limit <= 0 {
		q.Limit = 1000
	}
	if q.OrderBy == "" {
		q.OrderBy = "volume:desc"
	}
	if q.Mode == "" {
		q.Mode = "subdomains"
	}
	if len(q.Select) == 0 {
		q.Select = DefaultSelect
	}
	return q
}

func validateRequest(q OrganicKeywordsRequest) error {
	if strings.TrimSpace(q.Target) == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", q.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidRequest, q.Date)
	}
	return nil
}
