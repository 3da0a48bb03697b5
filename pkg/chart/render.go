package chart

import (
	"errors"
	"fmt"
	"io"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/stats"
)

// Kind names a chart the dashboard can draw.
type Kind string

const (
	KindTop       Kind = "top"
	KindHistogram Kind = "histogram"
	KindDensity   Kind = "density"
	KindBoxPlot   Kind = "boxplot"
)

// densityPoints is the sampling resolution of density curves.
const densityPoints = 200

// ErrUnknownKind is returned for chart kinds other than the ones above.
var ErrUnknownKind = errors.New("unknown chart kind")

// ParseKind validates a chart kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTop, KindHistogram, KindDensity, KindBoxPlot:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Render draws chart kind for table t. field selects the column for the
// distribution charts and is ignored by the top-volume chart.
// Empty tables produce a "No data" chart.
func Render(w io.Writer, kind Kind, t *keyword.Table, field keyword.Field) error {
	switch kind {
	case KindTop:
		top := stats.TopByVolume(t, stats.DefaultTopN)
		bars := make([]Bar, len(top))
		for i, r := range top {
			bars[i] = Bar{Label: r.Keyword, Value: r.Volume}
		}
		return RenderBars(w, bars, Options{
			Title:  fmt.Sprintf("Top %d keywords by search volume", stats.DefaultTopN),
			XLabel: "Search volume",
			YLabel: "Keyword",
		})
	case KindHistogram:
		return RenderHistogram(w, stats.Histogram(t.Values(field), stats.DefaultBins), Options{
			Title:  "Histogram of " + string(field),
			XLabel: string(field),
			YLabel: "Count",
		})
	case KindDensity:
		return RenderDensity(w, stats.Density(t.Values(field), densityPoints), Options{
			Title:  "Density of " + string(field),
			XLabel: string(field),
			YLabel: "Density",
		})
	case KindBoxPlot:
		return RenderBoxPlot(w, stats.BoxPlot(t.Values(field)), Options{
			Title:  "Boxplot of " + string(field),
			YLabel: string(field),
		})
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
