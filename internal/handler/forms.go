package handler

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"kwcluster/internal/service"
	"kwcluster/pkg/keyword"
)

func wrapBadRequest(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", errBadRequest, msg)
	}
	return fmt.Errorf("%w: %s: %v", errBadRequest, msg, err)
}

// uploadForm reads the multipart upload and the dashboard controls.
//
// Fields: file (required), sheet, profile, cluster, min_volume, max_difficulty,
// min_cpc, position_lower, position_upper, apply_position. An absent sheet field
// selects the configured sheet; a present but empty one selects the first sheet.
func (ctrl *Controller) uploadForm(c *fiber.Ctx) (service.UploadSource, service.AnalysisRequest, error) {
	var src service.UploadSource

	form, err := c.MultipartForm()
	if err != nil {
		return src, service.AnalysisRequest{}, wrapBadRequest("expected multipart form", err)
	}

	files := form.File["file"]
	if len(files) == 0 {
		return src, service.AnalysisRequest{}, wrapBadRequest("missing file field", nil)
	}
	header := files[0]
	if header.Size > ctrl.config.MaxUploadBytes {
		return src, service.AnalysisRequest{}, wrapBadRequest(
			fmt.Sprintf("file exceeds %d bytes", ctrl.config.MaxUploadBytes), nil)
	}

	f, err := header.Open()
	if err != nil {
		return src, service.AnalysisRequest{}, wrapBadRequest("unreadable file", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, ctrl.config.MaxUploadBytes))
	if err != nil {
		return src, service.AnalysisRequest{}, wrapBadRequest("unreadable file", err)
	}

	src = service.UploadSource{
		Filename: header.Filename,
		Content:  content,
		Sheet:    ctrl.config.DefaultSheet,
		Profile:  formValue(form.Value, "profile"),
	}
	if values, ok := form.Value["sheet"]; ok && len(values) > 0 {
		src.Sheet = strings.TrimSpace(values[0])
	}

	req, err := ctrl.controls(form.Value)
	return src, req, err
}

// controls parses cluster and threshold fields, falling back to the configured criteria.
func (ctrl *Controller) controls(values map[string][]string) (service.AnalysisRequest, error) {
	req := service.AnalysisRequest{Criteria: ctrl.configCriteria()}

	if cluster := formValue(values, "cluster"); cluster != "" {
		req.Cluster, req.ApplyCluster = cluster, true
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_volume", &req.Criteria.MinVolume},
		{"max_difficulty", &req.Criteria.MaxDifficulty},
		{"min_cpc", &req.Criteria.MinCPC},
	}
	for _, f := range fields {
		if err := parseFloatField(values, f.name, f.dst); err != nil {
			return req, err
		}
	}

	if raw := formValue(values, "apply_position"); raw != "" {
		apply, err := strconv.ParseBool(normalizeBool(raw))
		if err != nil {
			return req, wrapBadRequest("apply_position must be a boolean", err)
		}
		if !apply {
			req.Criteria.Position = nil
		} else if req.Criteria.Position == nil {
			req.Criteria.Position = &keyword.PositionRange{}
		}
	}
	if req.Criteria.Position != nil {
		if err := parseFloatField(values, "position_lower", &req.Criteria.Position.Lower); err != nil {
			return req, err
		}
		if err := parseFloatField(values, "position_upper", &req.Criteria.Position.Upper); err != nil {
			return req, err
		}
	}

	return req, nil
}

func parseFloatField(values map[string][]string, name string, dst *float64) error {
	raw := strings.TrimSpace(formValue(values, name))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number, got %q", keyword.ErrInvalidCriteria, name, raw)
	}
	*dst = v
	return nil
}

func formValue(values map[string][]string, name string) string {
	if v := values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// normalizeBool accepts HTML checkbox values.
func normalizeBool(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return "true"
	case "off", "no":
		return "false"
	}
	return s
}
