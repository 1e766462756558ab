package rangeeval

// Indicator is a range with optional advice shown when a value falls below
// or above it.
type Indicator struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Log        bool    `json:"log,omitempty"`
	MinWarning string  `json:"min_warning,omitempty"`
	MaxWarning string  `json:"max_warning,omitempty"`
}

// Report is the evaluated state of an Indicator for one value.
type Report struct {
	Assessment
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Log     bool    `json:"log,omitempty"`
	Percent float64 `json:"percent"` // bar fill, clamped to [0, 100]
	Warning string  `json:"warning,omitempty"`
}

// Evaluate assesses value against the indicator's range.
func (in Indicator) Evaluate(value float64) (Report, error) {
	a, err := Assess(value, in.Min, in.Max, in.Log)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Assessment: a,
		Min:        in.Min,
		Max:        in.Max,
		Log:        in.Log,
		Percent:    clamp(100*a.Position, 0, 100),
	}
	switch {
	case a.BelowMin:
		r.Warning = in.MinWarning
	case a.AboveMax:
		r.Warning = in.MaxWarning
	}
	return r, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
