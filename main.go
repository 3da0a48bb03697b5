package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"kwcluster/internal/service"
	"kwcluster/pkg/api"
	"kwcluster/pkg/chart"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
	"kwcluster/pkg/parser"
	"kwcluster/pkg/report"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloatOrDefault returns environment variable as float64 or default
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// cliOptions collects every command line setting of one run.
type cliOptions struct {
	file         string
	sheet        string
	profile      string
	profilesFile string

	target      string
	apiToken    string
	apiEndpoint string
	country     string
	date        string
	limit       int
	timeout     time.Duration

	cluster    string
	criteria   keyword.Criteria
	noPosition bool

	format     string
	chartPath  string
	chartKind  string
	chartField string
}

func main() {
	defaults := keyword.DefaultCriteria()
	opts := cliOptions{}

	flag.StringVar(&opts.file, "file", getEnvOrDefault("KWCLUSTER_FILE", ""), "Keyword export to analyze: xlsx, csv or tsv (env: KWCLUSTER_FILE)")
	flag.StringVar(&opts.sheet, "sheet", getEnvOrDefault("KWCLUSTER_SHEET", parser.DefaultSheet), "Workbook sheet; empty selects the first sheet (env: KWCLUSTER_SHEET)")
	flag.StringVar(&opts.profile, "profile", getEnvOrDefault("KWCLUSTER_PROFILE", keyword.ProfileSpreadsheet), "Column profile of the export (env: KWCLUSTER_PROFILE)")
	flag.StringVar(&opts.profilesFile, "profiles-file", getEnvOrDefault("KWCLUSTER_PROFILES_FILE", ""), "YAML file with extra column profiles (env: KWCLUSTER_PROFILES_FILE)")

	flag.StringVar(&opts.target, "target", getEnvOrDefault("KWCLUSTER_TARGET", ""), "Domain to fetch organic keywords for instead of reading a file (env: KWCLUSTER_TARGET)")
	flag.StringVar(&opts.apiToken, "api-token", getEnvOrDefault("KWCLUSTER_API_TOKEN", ""), "Keyword API token (env: KWCLUSTER_API_TOKEN)")
	flag.StringVar(&opts.apiEndpoint, "api-endpoint", getEnvOrDefault("KWCLUSTER_API_ENDPOINT", api.DefaultEndpoint), "Organic keywords endpoint (env: KWCLUSTER_API_ENDPOINT)")
	flag.StringVar(&opts.country, "country", getEnvOrDefault("KWCLUSTER_COUNTRY", "de"), "Country code for remote data (env: KWCLUSTER_COUNTRY)")
	flag.StringVar(&opts.date, "date", getEnvOrDefault("KWCLUSTER_DATE", ""), "Snapshot date YYYY-MM-DD, default today (env: KWCLUSTER_DATE)")
	flag.IntVar(&opts.limit, "limit", getEnvIntOrDefault("KWCLUSTER_LIMIT", 1000), "Maximum remote rows (env: KWCLUSTER_LIMIT)")
	flag.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall run timeout")

	flag.StringVar(&opts.cluster, "cluster", getEnvOrDefault("KWCLUSTER_CLUSTER", ""), "Comma-separated keyword cluster; empty analyzes every row (env: KWCLUSTER_CLUSTER)")
	clusterFile := flag.String("cluster-file", getEnvOrDefault("KWCLUSTER_CLUSTER_FILE", ""), "File holding the comma-separated cluster (env: KWCLUSTER_CLUSTER_FILE)")
	flag.Float64Var(&opts.criteria.MinVolume, "min-volume", getEnvFloatOrDefault("KWCLUSTER_MIN_VOLUME", defaults.MinVolume), "Minimum search volume (env: KWCLUSTER_MIN_VOLUME)")
	flag.Float64Var(&opts.criteria.MaxDifficulty, "max-kd", getEnvFloatOrDefault("KWCLUSTER_MAX_KD", defaults.MaxDifficulty), "Maximum keyword difficulty (env: KWCLUSTER_MAX_KD)")
	flag.Float64Var(&opts.criteria.MinCPC, "min-cpc", getEnvFloatOrDefault("KWCLUSTER_MIN_CPC", defaults.MinCPC), "Minimum cost per click (env: KWCLUSTER_MIN_CPC)")
	positionMin := flag.Float64("position-min", getEnvFloatOrDefault("KWCLUSTER_POSITION_MIN", defaults.Position.Lower), "Lowest current position (env: KWCLUSTER_POSITION_MIN)")
	positionMax := flag.Float64("position-max", getEnvFloatOrDefault("KWCLUSTER_POSITION_MAX", defaults.Position.Upper), "Highest current position (env: KWCLUSTER_POSITION_MAX)")
	flag.BoolVar(&opts.noPosition, "no-position", getEnvBoolOrDefault("KWCLUSTER_NO_POSITION", false), "Disable the position range filter (env: KWCLUSTER_NO_POSITION)")

	flag.StringVar(&opts.format, "format", getEnvOrDefault("KWCLUSTER_FORMAT", string(report.FormatTable)), "Output format: table, markdown, json or yaml (env: KWCLUSTER_FORMAT)")
	flag.StringVar(&opts.chartPath, "chart", getEnvOrDefault("KWCLUSTER_CHART", ""), "Write an SVG chart to this path (env: KWCLUSTER_CHART)")
	flag.StringVar(&opts.chartKind, "chart-kind", getEnvOrDefault("KWCLUSTER_CHART_KIND", string(chart.KindTop)), "Chart: top, histogram, density or boxplot (env: KWCLUSTER_CHART_KIND)")
	flag.StringVar(&opts.chartField, "chart-field", getEnvOrDefault("KWCLUSTER_CHART_FIELD", string(keyword.FieldVolume)), "Column for distribution charts (env: KWCLUSTER_CHART_FIELD)")

	debug := flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
	help := flag.Bool("help", false, "Show help message")

	flag.Parse()

	if *help {
		printUsage()
		return
	}

	if *debug {
		logger.SetLogger(logger.New(logger.Config{Level: "debug", Format: "console"}))
	}

	if opts.file == "" && opts.target == "" {
		fmt.Fprintln(os.Stderr, "ERROR: either -file or -target is required.")
		fmt.Fprintln(os.Stderr, "")
		printUsage()
		os.Exit(1)
	}

	if *clusterFile != "" {
		b, err := os.ReadFile(*clusterFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to read cluster file: %v\n", err)
			os.Exit(1)
		}
		opts.cluster = string(b)
	}

	if !opts.noPosition {
		opts.criteria.Position = &keyword.PositionRange{Lower: *positionMin, Upper: *positionMax}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		var schemaErr *keyword.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintf(os.Stderr, "Check -profile (available profiles are listed with -help).\n")
		}
		os.Exit(1)
	}
}

// run executes one analysis and writes the report to out.
func run(ctx context.Context, opts cliOptions, out io.Writer) error {
	log := logger.GetLogger().WithComponent("main")

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	var kind chart.Kind
	var field keyword.Field
	if opts.chartPath != "" {
		if kind, err = chart.ParseKind(opts.chartKind); err != nil {
			return err
		}
		if field, err = keyword.ParseField(opts.chartField); err != nil {
			return err
		}
	}

	profiles, err := keyword.LoadProfilesFile(opts.profilesFile)
	if err != nil {
		return err
	}

	var remote api.KeywordSource
	if opts.target != "" {
		remote = api.NewHTTPAPIClient(api.ClientConfig{
			Endpoint:   opts.apiEndpoint,
			Token:      opts.apiToken,
			Timeout:    30 * time.Second,
			MaxRetries: 2,
			RetryDelay: time.Second,
		})
	}

	analyzer := service.NewAnalyzer(service.AnalyzerConfig{
		Profiles:       profiles,
		DefaultProfile: opts.profile,
	}, remote, nil)

	req := service.AnalysisRequest{
		Cluster:      opts.cluster,
		ApplyCluster: opts.cluster != "",
		Criteria:     opts.criteria,
	}

	var result *service.Result
	if opts.target != "" {
		logger.GetSecurityLogger().SafeInfo("Fetching organic keywords", map[string]interface{}{
			"target":    opts.target,
			"endpoint":  opts.apiEndpoint,
			"api_token": opts.apiToken,
		})
		result, err = analyzer.AnalyzeRemote(ctx, api.OrganicKeywordsRequest{
			Target:  opts.target,
			Country: opts.country,
			Date:    opts.date,
			Limit:   opts.limit,
		}, req)
	} else {
		var content []byte
		content, err = os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", opts.file, err)
		}
		log.WithField("file", filepath.Base(opts.file)).Debug("Analyzing keyword export")
		result, err = analyzer.AnalyzeUpload(ctx, service.UploadSource{
			Filename: filepath.Base(opts.file),
			Content:  content,
			Sheet:    opts.sheet,
			Profile:  opts.profile,
		}, req)
	}
	if err != nil {
		return err
	}

	if err := report.Write(out, format, result.Report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if opts.chartPath != "" {
		if err := writeChart(opts.chartPath, kind, result.Filtered, field); err != nil {
			return err
		}
		log.WithField("path", opts.chartPath).Info("Chart written")
	}
	return nil
}

func writeChart(path string, kind chart.Kind, t *keyword.Table, field keyword.Field) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := chart.Render(f, kind, t, field); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return f.Close()
}

func printUsage() {
	fmt.Println("kwcluster - Keyword Cluster Analyzer")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./kwcluster -file <export.xlsx> [OPTIONS]")
	fmt.Println("    ./kwcluster -target <domain> -api-token <token> [OPTIONS]")
	fmt.Println("")
	fmt.Println("SOURCE:")
	fmt.Println("    -file string           Keyword export: xlsx, csv or tsv (env: KWCLUSTER_FILE)")
	fmt.Println("    -sheet string          Workbook sheet (default: \"" + parser.DefaultSheet + "\", env: KWCLUSTER_SHEET)")
	fmt.Println("    -profile string        Column profile (default: spreadsheet, env: KWCLUSTER_PROFILE)")
	fmt.Println("    -profiles-file string  YAML with extra profiles (env: KWCLUSTER_PROFILES_FILE)")
	fmt.Println("    -target string         Domain for the organic keywords API (env: KWCLUSTER_TARGET)")
	fmt.Println("    -api-token string      API token (env: KWCLUSTER_API_TOKEN)")
	fmt.Println("    -country string        Country code (default: de, env: KWCLUSTER_COUNTRY)")
	fmt.Println("    -date string           Snapshot date YYYY-MM-DD (default: today, env: KWCLUSTER_DATE)")
	fmt.Println("    -limit int             Maximum remote rows (default: 1000, env: KWCLUSTER_LIMIT)")
	fmt.Println("")
	fmt.Println("FILTERS:")
	fmt.Println("    -cluster string        Comma-separated keyword cluster (env: KWCLUSTER_CLUSTER)")
	fmt.Println("    -cluster-file string   File with the cluster (env: KWCLUSTER_CLUSTER_FILE)")
	fmt.Println("    -min-volume float      Minimum volume (default: 1000, env: KWCLUSTER_MIN_VOLUME)")
	fmt.Println("    -max-kd float          Maximum KD (default: 20, env: KWCLUSTER_MAX_KD)")
	fmt.Println("    -min-cpc float         Minimum CPC (default: 0.5, env: KWCLUSTER_MIN_CPC)")
	fmt.Println("    -position-min float    Lowest position (default: 0, env: KWCLUSTER_POSITION_MIN)")
	fmt.Println("    -position-max float    Highest position (default: 100, env: KWCLUSTER_POSITION_MAX)")
	fmt.Println("    -no-position           Ignore the position range (env: KWCLUSTER_NO_POSITION)")
	fmt.Println("")
	fmt.Println("OUTPUT:")
	fmt.Println("    -format string         table, markdown, json or yaml (default: table, env: KWCLUSTER_FORMAT)")
	fmt.Println("    -chart string          SVG chart output path (env: KWCLUSTER_CHART)")
	fmt.Println("    -chart-kind string     top, histogram, density or boxplot (default: top)")
	fmt.Println("    -chart-field string    volume, difficulty, cpc or current_position (default: volume)")
	fmt.Println("    -debug                 Enable debug logging (env: DEBUG)")
	fmt.Println("    -help                  Show this help message")
	fmt.Println("")
	fmt.Println("PROFILES:")
	for _, name := range keyword.DefaultProfiles().Names() {
		fmt.Println("    " + name)
	}
	fmt.Println("")
	fmt.Println("EXAMPLES:")
	fmt.Println("    ./kwcluster -file keywords.xlsx -cluster \"karton kaufen, faltkarton\"")
	fmt.Println("    ./kwcluster -file export.csv -profile semrush -min-volume 0 -format markdown")
	fmt.Println("    KWCLUSTER_API_TOKEN=... ./kwcluster -target example.de -format json -chart top.svg")
}
