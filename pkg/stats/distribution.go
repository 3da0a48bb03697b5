package stats

import "math"

// DefaultBins matches the usual histogram default.
const DefaultBins = 10

// Bin is one histogram bucket covering [Lower, Upper); the last bucket includes Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits the finite values into equal-width bins.
// A constant series yields one bin of width 1 centered on the value.
func Histogram(values []float64, bins int) []Bin {
	sorted := finiteSorted(values)
	if len(sorted) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range sorted {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}

// Point is one sample of an estimated density curve.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Density estimates the probability density with a Gaussian kernel and
// Scott's bandwidth rule, sampled at points evenly spaced positions spanning
// three bandwidths beyond the data. Fewer than two distinct values yield nil.
func Density(values []float64, points int) []Point {
	sorted := finiteSorted(values)
	s := Describe(sorted)
	if s.Count < 2 || s.Std == 0 || points < 2 {
		return nil
	}

	bw := s.Std * math.Pow(float64(s.Count), -1.0/5.0)
	lo := s.Min - 3*bw
	hi := s.Max + 3*bw
	step := (hi - lo) / float64(points-1)
	norm := 1 / (float64(s.Count) * bw * math.Sqrt(2*math.Pi))

	out := make([]Point, points)
	for i := range out {
		x := lo + float64(i)*step
		var sum float64
		for _, v := range sorted {
			u := (x - v) / bw
			sum += math.Exp(-0.5 * u * u)
		}
		out[i] = Point{X: x, Y: sum * norm}
	}
	return out
}

// Box holds the five-number summary used by a box plot with 1.5 IQR whiskers.
type Box struct {
	Count       int       `json:"count"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	WhiskerLow  float64   `json:"whisker_low"`
	WhiskerHigh float64   `json:"whisker_high"`
	Outliers    []float64 `json:"outliers,omitempty"`
}

// BoxPlot computes quartiles, whiskers at the furthest values within 1.5 IQR
// of the box, and the outliers beyond them.
func BoxPlot(values []float64) Box {
	sorted := finiteSorted(values)
	if len(sorted) == 0 {
		return Box{}
	}
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	lowFence, highFence := q1-1.5*iqr, q3+1.5*iqr

	b := Box{
		Count:       len(sorted),
		Q1:          q1,
		Median:      Quantile(sorted, 0.5),
		Q3:          q3,
		WhiskerLow:  q1,
		WhiskerHigh: q3,
	}
	lowSet := false
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers = append(b.Outliers, v)
			continue
		}
		if !lowSet {
			b.WhiskerLow = v
			lowSet = true
		}
		b.WhiskerHigh = v
	}
	return b
}
