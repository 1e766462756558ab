package rangeeval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessLinear(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		wantPos   float64
		wantBelow bool
		wantAbove bool
	}{
		{name: "at min", value: 1e-3, wantPos: 0},
		{name: "at max", value: 1, wantPos: 1},
		{name: "middle", value: 0.5005, wantPos: 0.5},
		{name: "below", value: 0, wantPos: -1e-3 / 0.999, wantBelow: true},
		{name: "above", value: 2, wantPos: 1.999 / 0.999, wantAbove: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Assess(tt.value, 1e-3, 1, false)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantPos, a.Position, 1e-12)
			assert.Equal(t, tt.wantBelow, a.BelowMin)
			assert.Equal(t, tt.wantAbove, a.AboveMax)
			assert.False(t, a.BelowMin && a.AboveMax)
		})
	}
}

func TestAssessBoundariesAreExact(t *testing.T) {
	a, err := Assess(5, 5, 12, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.Position)

	a, err = Assess(12, 5, 12, false)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Position)
	assert.True(t, a.Within())
}

func TestAssessLog(t *testing.T) {
	a, err := Assess(math.Sqrt(1e-6*1e-3), 1e-6, 1e-3, true)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, a.Position, 1e-12)

	a, err = Assess(1e-7, 1e-6, 1e-3, true)
	require.NoError(t, err)
	assert.True(t, a.BelowMin)
	assert.InDelta(t, -1.0/3, a.Position, 1e-12)

	a, err = Assess(1e6, 5e3, 200e3, true)
	require.NoError(t, err)
	assert.True(t, a.AboveMax)
}

func TestAssessInvalid(t *testing.T) {
	tests := []struct {
		name            string
		value, min, max float64
		log             bool
	}{
		{name: "empty linear range", value: 1, min: 2, max: 2},
		{name: "empty log range", value: 1, min: 2, max: 2, log: true},
		{name: "zero value on log scale", value: 0, min: 1, max: 10, log: true},
		{name: "negative min on log scale", value: 1, min: -1, max: 10, log: true},
		{name: "zero max on log scale", value: 1, min: 1, max: 0, log: true},
		{name: "nan bound", value: 1, min: math.NaN(), max: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assess(tt.value, tt.min, tt.max, tt.log)
			require.ErrorIs(t, err, ErrInvalidRange)

			var rangeErr *InvalidRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.log, rangeErr.Log)
			assert.NotEmpty(t, rangeErr.Reason)
		})
	}
}

func TestIndicatorEvaluate(t *testing.T) {
	in := Indicator{
		Min:        1e-6,
		Max:        1e-3,
		Log:        true,
		MinWarning: "Try to use a larger inductor",
		MaxWarning: "Try to use a smaller inductor",
	}

	r, err := in.Evaluate(1e-7)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Percent)
	assert.Equal(t, in.MinWarning, r.Warning)

	r, err = in.Evaluate(1e-2)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Percent)
	assert.Equal(t, in.MaxWarning, r.Warning)

	r, err = in.Evaluate(1e-5)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/3, r.Percent, 1e-9)
	assert.Empty(t, r.Warning)

	_, err = Indicator{Min: 0, Max: 1, Log: true}.Evaluate(0.5)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
