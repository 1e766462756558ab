package sweep

import "math"

// Func computes the value at x for the series parameter s. It returns false
// when (x, s) lies outside the formula's physical domain. For sweeps without
// a series axis s is always zero.
type Func func(x, s float64) (float64, bool)

// Filter reports whether (x, s) belongs to the formula's domain. Rejected
// points are left out of the table without calling the formula.
type Filter func(x, s float64) bool

// Single adapts a formula of x alone.
func Single(f func(x float64) (float64, bool)) Func {
	return func(x, _ float64) (float64, bool) {
		return f(x)
	}
}

// Defined adapts a formula that is defined everywhere.
func Defined(f func(x, s float64) float64) Func {
	return func(x, s float64) (float64, bool) {
		return f(x, s), true
	}
}

// Record holds the values of all series at one x sample. A series index
// missing from Values was out of domain at X.
type Record struct {
	X      float64         `json:"x"`
	Values map[int]float64 `json:"values"`
}

// Value returns the value of series idx, if defined.
func (r Record) Value(idx int) (float64, bool) {
	v, ok := r.Values[idx]
	return v, ok
}

// Table is the result of a sweep: one record per x sample in sample order.
type Table struct {
	Records []Record `json:"records"`
	// Series holds the series parameter values; nil for single-series sweeps.
	Series Samples `json:"series,omitempty"`
}

// Evaluate samples f over xs and, when series is non-nil, over every series
// value at each x. Points rejected by filter, points for which f reports no
// value, and NaN results are left out.
func Evaluate(xs, series Samples, f Func, filter Filter) Table {
	t := Table{
		Records: make([]Record, 0, len(xs)),
		Series:  series,
	}

	eval := func(x, s float64) (float64, bool) {
		if filter != nil && !filter(x, s) {
			return 0, false
		}
		v, ok := f(x, s)
		if !ok || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}

	for _, x := range xs {
		rec := Record{X: x, Values: make(map[int]float64)}
		if series == nil {
			if v, ok := eval(x, 0); ok {
				rec.Values[0] = v
			}
		} else {
			for idx, s := range series {
				if v, ok := eval(x, s); ok {
					rec.Values[idx] = v
				}
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

// SeriesCount returns the number of series slots per record.
func (t Table) SeriesCount() int {
	if t.Series == nil {
		return 1
	}
	return len(t.Series)
}

// MaxX returns the largest x sample, or zero if all samples are negative.
func (t Table) MaxX() float64 {
	m := 0.0
	for _, r := range t.Records {
		m = math.Max(m, r.X)
	}
	return m
}

// MaxY returns the largest defined value over all series, or zero if there
// is no positive value.
func (t Table) MaxY() float64 {
	m := 0.0
	for _, r := range t.Records {
		for _, v := range r.Values {
			m = math.Max(m, v)
		}
	}
	return m
}

// Point is a defined (x, y) pair of one series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Points returns the defined points of series idx in x order.
func (t Table) Points(idx int) []Point {
	var pts []Point
	for _, r := range t.Records {
		if v, ok := r.Values[idx]; ok {
			pts = append(pts, Point{X: r.X, Y: v})
		}
	}
	return pts
}

// Segments splits series idx into runs of consecutive defined points.
func (t Table) Segments(idx int) [][]Point {
	var (
		segs [][]Point
		cur  []Point
	)
	for _, r := range t.Records {
		v, ok := r.Values[idx]
		if !ok {
			if len(cur) > 0 {
				segs = append(segs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, Point{X: r.X, Y: v})
	}
	if len(cur) > 0 {
		segs = append(segs, cur)
	}
	return segs
}
