// Package sweep samples formulas over one or two independent variables and
// collects the results into plot-ready series tables.
package sweep

// Samples is an ordered, non-empty sequence of sample points.
type Samples []float64

// Sample returns count evenly spaced points from start to stop, both
// included. A count of one or less yields the single midpoint. Descending
// ranges produce descending samples.
func Sample(start, stop float64, count int) Samples {
	if count <= 1 {
		return Samples{(start + stop) / 2}
	}

	out := make(Samples, count)
	span := stop - start
	last := float64(count - 1)
	for i := range out {
		out[i] = start + float64(i)*span/last
	}
	// start + (count-1)*span/(count-1) can miss stop by one ulp
	out[count-1] = stop
	return out
}

// Max returns the largest sample.
func (s Samples) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	m := s[0]
	for _, v := range s[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
