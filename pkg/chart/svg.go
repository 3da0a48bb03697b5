// Package chart renders the dashboard charts as standalone SVG documents.
package chart

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	defaultWidth  = 960
	defaultHeight = 640
	fontFamily    = "Helvetica, Arial, sans-serif"
	barColor      = "skyblue"
	lineColor     = "steelblue"
)

// Options sets titles and canvas size. Zero sizes fall back to 960x640.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// plot is the drawing area inside the margins.
type plot struct {
	left, top, width, height float64
}

// canvas accumulates SVG elements.
type canvas struct {
	sb     strings.Builder
	width  int
	height int
}

func newCanvas(opt Options) *canvas {
	w, h := opt.size()
	c := &canvas{width: w, height: h}
	fmt.Fprintf(&c.sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="%s">`,
		w, h, w, h, fontFamily)
	c.sb.WriteString("\n")
	fmt.Fprintf(&c.sb, `<rect width="%d" height="%d" fill="white"/>`+"\n", w, h)
	if opt.Title != "" {
		c.text(float64(w)/2, 28, opt.Title, "middle", 18, "")
	}
	return c
}

func (c *canvas) text(x, y float64, s, anchor string, size int, extra string) {
	fmt.Fprintf(&c.sb, `<text x="%s" y="%s" text-anchor="%s" font-size="%d"%s>%s</text>`+"\n",
		num(x), num(y), anchor, size, extra, html.EscapeString(s))
}

func (c *canvas) rect(x, y, w, h float64, fill string) {
	fmt.Fprintf(&c.sb, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(x), num(y), num(w), num(h), fill)
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string) {
	fmt.Fprintf(&c.sb, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`+"\n",
		num(x1), num(y1), num(x2), num(y2), stroke)
}

func (c *canvas) polyline(points [][2]float64, stroke string) {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = num(p[0]) + "," + num(p[1])
	}
	fmt.Fprintf(&c.sb, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		strings.Join(parts, " "), stroke)
}

func (c *canvas) circle(x, y, r float64, stroke string) {
	fmt.Fprintf(&c.sb, `<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s"/>`+"\n",
		num(x), num(y), num(r), stroke)
}

// axes draws the frame and the axis labels around p.
func (c *canvas) axes(p plot, opt Options) {
	c.line(p.left, p.top+p.height, p.left+p.width, p.top+p.height, "black")
	c.line(p.left, p.top, p.left, p.top+p.height, "black")
	if opt.XLabel != "" {
		c.text(p.left+p.width/2, float64(c.height)-12, opt.XLabel, "middle", 14, "")
	}
	if opt.YLabel != "" {
		y := p.top + p.height/2
		c.text(16, y, opt.YLabel, "middle", 14, fmt.Sprintf(` transform="rotate(-90 16 %s)"`, num(y)))
	}
}

// xTicks labels a horizontal value axis from lo to hi.
func (c *canvas) xTicks(p plot, lo, hi float64, n int) {
	for i := 0; i <= n; i++ {
		v := lo + (hi-lo)*float64(i)/float64(n)
		x := p.left + p.width*float64(i)/float64(n)
		c.line(x, p.top+p.height, x, p.top+p.height+5, "black")
		c.text(x, p.top+p.height+20, tickLabel(v), "middle", 11, "")
	}
}

// yTicks labels a vertical value axis from lo (bottom) to hi (top).
func (c *canvas) yTicks(p plot, lo, hi float64, n int) {
	for i := 0; i <= n; i++ {
		v := lo + (hi-lo)*float64(i)/float64(n)
		y := p.top + p.height - p.height*float64(i)/float64(n)
		c.line(p.left-5, y, p.left, y, "black")
		c.text(p.left-8, y+4, tickLabel(v), "end", 11, "")
	}
}

func (c *canvas) flush(w io.Writer) error {
	c.sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, c.sb.String())
	return err
}

// renderEmpty draws the placeholder used whenever a chart has nothing to show.
func renderEmpty(w io.Writer, opt Options) error {
	c := newCanvas(opt)
	c.text(float64(c.width)/2, float64(c.height)/2, "No data", "middle", 16, ` fill="gray"`)
	return c.flush(w)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func tickLabel(v float64) string {
	switch {
	case math.Abs(v) >= 1000:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case math.Abs(v) >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}
