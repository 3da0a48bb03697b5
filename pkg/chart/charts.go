package chart

import (
	"io"
	"math"

	"kwcluster/pkg/stats"
)

// Bar is one labelled value of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
}

// RenderBars draws horizontal bars, first bar on top.
func RenderBars(w io.Writer, bars []Bar, opt Options) error {
	if len(bars) == 0 {
		return renderEmpty(w, opt)
	}
	c := newCanvas(opt)
	p := plot{left: 260, top: 50, width: float64(c.width) - 300, height: float64(c.height) - 110}

	maxV := 0.0
	for _, b := range bars {
		maxV = math.Max(maxV, b.Value)
	}
	if maxV <= 0 {
		maxV = 1
	}

	slot := p.height / float64(len(bars))
	for i, b := range bars {
		y := p.top + float64(i)*slot
		width := p.width * math.Max(b.Value, 0) / maxV
		c.rect(p.left, y+slot*0.1, width, slot*0.8, barColor)
		c.text(p.left-8, y+slot/2+4, truncate(b.Label, 36), "end", 12, "")
	}
	c.axes(p, opt)
	c.xTicks(p, 0, maxV, 5)
	return c.flush(w)
}

// RenderHistogram draws vertical bars for each bin.
func RenderHistogram(w io.Writer, bins []stats.Bin, opt Options) error {
	if len(bins) == 0 {
		return renderEmpty(w, opt)
	}
	c := newCanvas(opt)
	p := plot{left: 80, top: 50, width: float64(c.width) - 120, height: float64(c.height) - 110}

	maxCount := 0
	for _, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	lo, hi := bins[0].Lower, bins[len(bins)-1].Upper
	slot := p.width / float64(len(bins))
	for i, b := range bins {
		h := p.height * float64(b.Count) / float64(maxCount)
		c.rect(p.left+float64(i)*slot, p.top+p.height-h, slot-1, h, barColor)
	}
	c.axes(p, opt)
	c.xTicks(p, lo, hi, 5)
	c.yTicks(p, 0, float64(maxCount), 4)
	return c.flush(w)
}

// RenderDensity draws an estimated density curve.
func RenderDensity(w io.Writer, points []stats.Point, opt Options) error {
	if len(points) < 2 {
		return renderEmpty(w, opt)
	}
	c := newCanvas(opt)
	p := plot{left: 80, top: 50, width: float64(c.width) - 120, height: float64(c.height) - 110}

	lo, hi := points[0].X, points[len(points)-1].X
	maxY := 0.0
	for _, pt := range points {
		maxY = math.Max(maxY, pt.Y)
	}
	if maxY <= 0 || hi <= lo {
		return renderEmpty(w, opt)
	}

	coords := make([][2]float64, len(points))
	for i, pt := range points {
		coords[i] = [2]float64{
			p.left + p.width*(pt.X-lo)/(hi-lo),
			p.top + p.height - p.height*pt.Y/maxY,
		}
	}
	c.polyline(coords, lineColor)
	c.axes(p, opt)
	c.xTicks(p, lo, hi, 5)
	c.yTicks(p, 0, maxY, 4)
	return c.flush(w)
}

// RenderBoxPlot draws a single vertical box with whiskers and outliers.
func RenderBoxPlot(w io.Writer, box stats.Box, opt Options) error {
	if box.Count == 0 {
		return renderEmpty(w, opt)
	}
	c := newCanvas(opt)
	p := plot{left: 80, top: 50, width: float64(c.width) - 120, height: float64(c.height) - 110}

	lo, hi := box.WhiskerLow, box.WhiskerHigh
	for _, o := range box.Outliers {
		lo, hi = math.Min(lo, o), math.Max(hi, o)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	y := func(v float64) float64 { return p.top + p.height - p.height*(v-lo)/(hi-lo) }

	cx := p.left + p.width/2
	half := p.width / 8
	c.line(cx, y(box.WhiskerLow), cx, y(box.Q1), "black")
	c.line(cx, y(box.Q3), cx, y(box.WhiskerHigh), "black")
	c.line(cx-half/2, y(box.WhiskerLow), cx+half/2, y(box.WhiskerLow), "black")
	c.line(cx-half/2, y(box.WhiskerHigh), cx+half/2, y(box.WhiskerHigh), "black")
	c.rect(cx-half, y(box.Q3), 2*half, math.Max(y(box.Q1)-y(box.Q3), 1), barColor)
	c.line(cx-half, y(box.Median), cx+half, y(box.Median), "orange")
	for _, o := range box.Outliers {
		c.circle(cx, y(o), 4, "black")
	}
	c.axes(p, opt)
	c.yTicks(p, lo, hi, 5)
	return c.flush(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
