package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kwcluster/internal/metrics"
	"kwcluster/internal/service"
	"kwcluster/pkg/api"
	"kwcluster/pkg/chart"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
	"kwcluster/pkg/parser"
	"kwcluster/pkg/report"
	"kwcluster/pkg/storage"
)

// errBadRequest marks malformed form or JSON input.
var errBadRequest = errors.New("bad request")

type Controller struct {
	analyzer service.AnalyzerService
	cache    storage.TableCache
	config   ControllerConfig
	started  time.Time
	log      *logger.Logger
}

// ControllerConfig holds the initial dashboard controls and request limits.
type ControllerConfig struct {
	DefaultSheet   string
	DefaultProfile string
	Criteria       keyword.Criteria
	MaxUploadBytes int64
	RemoteDefaults api.OrganicKeywordsRequest
}

type StatusResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics"`
	Health    map[string]bool        `json:"health"`
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Status  int      `json:"status"`
	Missing []string `json:"missing,omitempty"`
}

func NewController(analyzer service.AnalyzerService, cache storage.TableCache, config ControllerConfig) *Controller {
	if cache == nil {
		cache = storage.NoopCache{}
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 32 << 20
	}
	return &Controller{
		analyzer: analyzer,
		cache:    cache,
		config:   config,
		started:  time.Now(),
		log:      logger.GetLogger().WithComponent("controller"),
	}
}

// NewApp builds the fiber application with every dashboard route registered.
func NewApp(ctrl *Controller, readTimeout, writeTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "kwcluster",
		BodyLimit:             int(ctrl.config.MaxUploadBytes) + 1<<20,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          ctrl.handleError,
	})
	ctrl.Register(app)
	return app
}

// Register mounts middleware and routes on app.
func (ctrl *Controller) Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(metrics.Middleware())
	app.Use(ctrl.requestLogger)

	app.Get("/", ctrl.Index)
	app.Post("/", ctrl.Dashboard)
	app.Get("/healthz", ctrl.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiGroup := app.Group("/api")
	apiGroup.Post("/analyze", ctrl.Analyze)
	apiGroup.Post("/fetch", ctrl.Fetch)
	apiGroup.Post("/chart/:kind", ctrl.Chart)
}

// Analyze runs the pipeline over an uploaded export and returns the report.
// The format query parameter selects json (default), yaml, markdown or table.
func (ctrl *Controller) Analyze(c *fiber.Ctx) error {
	format, err := ctrl.reportFormat(c)
	if err != nil {
		return err
	}

	src, req, err := ctrl.uploadForm(c)
	if err != nil {
		return err
	}

	result, err := ctrl.analyzer.AnalyzeUpload(c.UserContext(), src, req)
	if err != nil {
		return err
	}
	return ctrl.writeReport(c, format, result.Report)
}

// fetchRequest is the JSON body of /api/fetch. Criteria fields present in
// the body override the configured ones; "position": null turns the
// position predicate off.
type fetchRequest struct {
	api.OrganicKeywordsRequest
	Cluster  *string         `json:"cluster"`
	Criteria json.RawMessage `json:"criteria"`
}

// Fetch runs the pipeline over organic keywords pulled from the remote API.
func (ctrl *Controller) Fetch(c *fiber.Ctx) error {
	format, err := ctrl.reportFormat(c)
	if err != nil {
		return err
	}

	var body fetchRequest
	if err := c.BodyParser(&body); err != nil {
		return wrapBadRequest("invalid JSON body", err)
	}

	req := service.AnalysisRequest{Criteria: ctrl.configCriteria()}
	if len(body.Criteria) > 0 {
		if err := json.Unmarshal(body.Criteria, &req.Criteria); err != nil {
			return wrapBadRequest("invalid criteria", err)
		}
	}
	if body.Cluster != nil {
		req.Cluster, req.ApplyCluster = *body.Cluster, true
	}

	result, err := ctrl.analyzer.AnalyzeRemote(c.UserContext(), ctrl.withRemoteDefaults(body.OrganicKeywordsRequest), req)
	if err != nil {
		return err
	}
	return ctrl.writeReport(c, format, result.Report)
}

// configCriteria copies the configured criteria so request overrides never
// write through the shared position range.
func (ctrl *Controller) configCriteria() keyword.Criteria {
	crit := ctrl.config.Criteria
	if crit.Position != nil {
		p := *crit.Position
		crit.Position = &p
	}
	return crit
}

// Chart renders one chart of the filtered upload as SVG.
func (ctrl *Controller) Chart(c *fiber.Ctx) error {
	kind, err := chart.ParseKind(c.Params("kind"))
	if err != nil {
		return err
	}

	src, req, err := ctrl.uploadForm(c)
	if err != nil {
		return err
	}
	field, err := keyword.ParseField(c.FormValue("field"))
	if err != nil {
		return err
	}

	result, err := ctrl.analyzer.AnalyzeUpload(c.UserContext(), src, req)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return chart.Render(c.Response().BodyWriter(), kind, result.Filtered, field)
}

// Health reports liveness plus cache statistics.
func (ctrl *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(ctrl.GetStatus(c.UserContext()))
}

func (ctrl *Controller) GetStatus(ctx context.Context) *StatusResponse {
	stats := ctrl.cache.Stats()
	return &StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Metrics: map[string]interface{}{
			"uptime_seconds": int(time.Since(ctrl.started).Seconds()),
			"cache_size":     stats.Size,
			"cache_hits":     stats.Hits,
			"cache_misses":   stats.Misses,
			"profiles":       ctrl.analyzer.Profiles(),
		},
		Health: map[string]bool{
			"analyzer": ctrl.analyzer != nil,
			"cache":    stats.MaxSize > 0,
		},
	}
}

func (ctrl *Controller) reportFormat(c *fiber.Ctx) (report.Format, error) {
	name := c.Query("format", string(report.FormatJSON))
	return report.ParseFormat(name)
}

func (ctrl *Controller) writeReport(c *fiber.Ctx, format report.Format, r *report.Report) error {
	switch format {
	case report.FormatJSON:
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	case report.FormatYAML:
		c.Set(fiber.HeaderContentType, "application/yaml; charset=utf-8")
	case report.FormatMarkdown:
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	}
	return report.Write(c.Response().BodyWriter(), format, r)
}

func (ctrl *Controller) withRemoteDefaults(req api.OrganicKeywordsRequest) api.OrganicKeywordsRequest {
	d := ctrl.config.RemoteDefaults
	if req.Country == "" {
		req.Country = d.Country
	}
	if req.Mode == "" {
		req.Mode = d.Mode
	}
	if req.Limit <= 0 {
		req.Limit = d.Limit
	}
	if req.OrderBy == "" {
		req.OrderBy = d.OrderBy
	}
	return req
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, keyword.ErrSchema):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, api.ErrRemoteFetch):
		return fiber.StatusBadGateway
	case errors.Is(err, errBadRequest),
		errors.Is(err, keyword.ErrInvalidCriteria),
		errors.Is(err, keyword.ErrUnknownProfile),
		errors.Is(err, keyword.ErrUnknownField),
		errors.Is(err, parser.ErrSheetNotFound),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrEmptyInput),
		errors.Is(err, parser.ErrMalformedInput),
		errors.Is(err, api.ErrInvalidRequest),
		errors.Is(err, report.ErrUnknownFormat),
		errors.Is(err, chart.ErrUnknownKind):
		return fiber.StatusBadRequest
	case errors.Is(err, api.ErrLimiterTimeout):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func (ctrl *Controller) handleError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error(), Status: status}

	var schemaErr *keyword.SchemaError
	if errors.As(err, &schemaErr) {
		resp.Missing = schemaErr.Missing
	}

	l := ctrl.log.WithFields(map[string]interface{}{
		"path":   c.Path(),
		"status": status,
	})
	if status >= fiber.StatusInternalServerError {
		l.WithError(err).Error("Request failed")
	} else {
		l.WithField("reason", err.Error()).Debug("Request rejected")
	}

	if c.Method() == fiber.MethodPost && c.Path() == "/" {
		return ctrl.renderIndex(c.Status(status), &pageData{Error: err.Error()})
	}
	return c.Status(status).JSON(resp)
}

func (ctrl *Controller) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	requestID := c.Get(fiber.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, requestID)
	err := c.Next()

	ctrl.log.WithFields(map[string]interface{}{
		"request_id":  requestID,
		"method":      c.Method(),
		"path":        c.Path(),
		"status":      c.Response().StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Request handled")

	return err
}
