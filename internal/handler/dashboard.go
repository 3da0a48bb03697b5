package handler

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"kwcluster/pkg/chart"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/report"
)

// pageData feeds the dashboard template.
type pageData struct {
	Error    string
	Profiles []string
	Profile  string
	Sheet    string
	Cluster  string
	Criteria keyword.Criteria
	Position keyword.PositionRange
	Report   *report.Report
	Charts   []template.HTML
}

var dashboardCharts = []struct {
	kind  chart.Kind
	field keyword.Field
}{
	{chart.KindTop, keyword.FieldVolume},
	{chart.KindHistogram, keyword.FieldVolume},
	{chart.KindDensity, keyword.FieldVolume},
	{chart.KindBoxPlot, keyword.FieldDifficulty},
}

// Index serves the empty dashboard form.
func (ctrl *Controller) Index(c *fiber.Ctx) error {
	return ctrl.renderIndex(c, &pageData{})
}

// Dashboard handles the form submission and renders the report page with charts.
func (ctrl *Controller) Dashboard(c *fiber.Ctx) error {
	src, req, err := ctrl.uploadForm(c)
	if err != nil {
		return err
	}

	result, err := ctrl.analyzer.AnalyzeUpload(c.UserContext(), src, req)
	if err != nil {
		return err
	}

	data := &pageData{
		Profile:  src.Profile,
		Sheet:    src.Sheet,
		Cluster:  req.Cluster,
		Criteria: req.Criteria,
		Report:   result.Report,
	}
	for _, dc := range dashboardCharts {
		var buf bytes.Buffer
		if err := chart.Render(&buf, dc.kind, result.Filtered, dc.field); err != nil {
			return err
		}
		// chart output escapes all text content
		data.Charts = append(data.Charts, template.HTML(buf.String()))
	}
	return ctrl.renderIndex(c, data)
}

func (ctrl *Controller) renderIndex(c *fiber.Ctx, data *pageData) error {
	data.Profiles = ctrl.analyzer.Profiles()
	if data.Profile == "" {
		data.Profile = ctrl.config.DefaultProfile
	}
	if data.Report == nil && data.Sheet == "" {
		data.Sheet = ctrl.config.DefaultSheet
	}
	if data.Report == nil {
		data.Criteria = ctrl.config.Criteria
	}
	if data.Criteria.Position != nil {
		data.Position = *data.Criteria.Position
	} else {
		data.Position = keyword.PositionRange{Lower: 0, Upper: 100}
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return keyword.FormatNumber(x)
	case string:
		return x
	}
	return ""
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"cell": func(row report.Row, col string) string { return formatCell(row[col]) },
	"stat": formatStat,
	"num":  keyword.FormatNumber,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Keyword Cluster Analyzer</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin: 0.5rem 0 1rem; font-size: 0.9rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
th { background: #f3f3f3; }
label { display: block; margin-top: 0.5rem; }
.error { color: #b00020; font-weight: bold; }
.charts svg { max-width: 100%; height: auto; margin-bottom: 1rem; }
</style>
</head>
<body>
<h1>Keyword Cluster Analyzer</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/" enctype="multipart/form-data">
<label>Keyword export (xlsx, csv, tsv) <input type="file" name="file" required></label>
<label>Sheet <input type="text" name="sheet" value="{{.Sheet}}"></label>
<label>Column profile <select name="profile">{{range .Profiles}}<option value="{{.}}"{{if eq . $.Profile}} selected{{end}}>{{.}}</option>{{end}}</select></label>
<label>Keyword cluster (comma-separated)<br><textarea name="cluster" rows="4" cols="80">{{.Cluster}}</textarea></label>
<label>Minimum volume <input type="number" step="any" name="min_volume" value="{{num .Criteria.MinVolume}}"{{with .Report}} max="{{num .Bounds.MaxVolume}}"{{end}}></label>
<label>Maximum KD <input type="number" step="any" min="0" max="100" name="max_difficulty" value="{{num .Criteria.MaxDifficulty}}"></label>
<label>Minimum CPC <input type="number" step="any" name="min_cpc" value="{{num .Criteria.MinCPC}}"{{with .Report}} max="{{num .Bounds.MaxCPC}}"{{end}}></label>
<label>Position filter <select name="apply_position"><option value="true"{{if .Criteria.Position}} selected{{end}}>on</option><option value="false"{{if not .Criteria.Position}} selected{{end}}>off</option></select></label>
<label>Current position range
<input type="number" step="any" name="position_lower" value="{{num .Position.Lower}}">
<input type="number" step="any" name="position_upper" value="{{num .Position.Upper}}"></label>
<p><button type="submit">Analyze</button></p>
</form>
{{with .Report}}
<h2>Data Loaded</h2>
<p>Source: {{.Source}} (profile {{.Profile}})</p>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range $row := .Preview}}<tr>{{range $.Report.Columns}}<td>{{cell $row .}}</td>{{end}}</tr>
{{end}}</table>
<p>Original shape: ({{.Loaded.Rows}}, {{.Loaded.Columns}})</p>
{{with .Cluster}}
<h2>Cluster</h2>
<p>Cleaned cluster length: {{.Size}}</p>
{{if .Unmatched}}<p>Not found in data: {{range $i, $k := .Unmatched}}{{if $i}}, {{end}}{{$k}}{{end}}</p>{{end}}
<p>Cluster shape: ({{.Shape.Rows}}, {{.Shape.Columns}})</p>
{{end}}
<h2>Filtered</h2>
{{if .Rows}}
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range $row := .Rows}}<tr>{{range $.Report.Columns}}<td>{{cell $row .}}</td>{{end}}</tr>
{{end}}</table>
{{else}}<p>No keywords match the current filters.</p>{{end}}
<p>Filtered shape: ({{.Filtered.Rows}}, {{.Filtered.Columns}})</p>
<h2>Statistics</h2>
<table>
<tr><th>column</th><th>count</th><th>mean</th><th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr>
{{range .Summary}}<tr><td>{{.Column}}</td><td>{{.Summary.Count}}</td><td>{{stat .Summary.Mean}}</td><td>{{stat .Summary.Std}}</td><td>{{stat .Summary.Min}}</td><td>{{stat .Summary.Q1}}</td><td>{{stat .Summary.Median}}</td><td>{{stat .Summary.Q3}}</td><td>{{stat .Summary.Max}}</td></tr>
{{end}}</table>
{{end}}
{{if .Charts}}<h2>Visualization</h2>
<div class="charts">{{range .Charts}}{{.}}{{end}}</div>{{end}}
</body>
</html>
`))
