// Package rangeeval positions a value between a lower and an upper bound
// and flags values outside of that range.
package rangeeval

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned for bounds or values that cannot be
// evaluated: an empty range, NaN bounds, or non-positive inputs on a
// logarithmic scale.
var ErrInvalidRange = errors.New("rangeeval: invalid range")

// InvalidRangeError describes why a range could not be evaluated.
type InvalidRangeError struct {
	Value, Min, Max float64
	Log             bool
	Reason          string
}

func (e *InvalidRangeError) Error() string {
	scale := "linear"
	if e.Log {
		scale = "logarithmic"
	}
	return fmt.Sprintf("rangeeval: invalid %s range [%g, %g] for value %g: %s", scale, e.Min, e.Max, e.Value, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// Assessment is the position of a value relative to [min, max]. Position is
// 0 at min and 1 at max and is not clamped.
type Assessment struct {
	Position float64 `json:"position"`
	BelowMin bool    `json:"below_min"`
	AboveMax bool    `json:"above_max"`
}

// Within reports whether the value lies inside the range.
func (a Assessment) Within() bool {
	return !a.BelowMin && !a.AboveMax
}

// Assess computes the normalized position of value between min and max,
// on a linear or a natural-log scale.
func Assess(value, min, max float64, logarithmic bool) (Assessment, error) {
	invalid := func(reason string) (Assessment, error) {
		return Assessment{}, &InvalidRangeError{Value: value, Min: min, Max: max, Log: logarithmic, Reason: reason}
	}

	if math.IsNaN(min) || math.IsNaN(max) {
		return invalid("bound is NaN")
	}
	if max == min {
		return invalid("min equals max")
	}

	var pos float64
	if logarithmic {
		if value <= 0 || min <= 0 || max <= 0 {
			return invalid("logarithmic scale needs positive value and bounds")
		}
		pos = (math.Log(value) - math.Log(min)) / (math.Log(max) - math.Log(min))
	} else {
		pos = (value - min) / (max - min)
	}

	return Assessment{
		Position: pos,
		BelowMin: pos < 0,
		AboveMax: pos > 1,
	}, nil
}
