package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitude(t *testing.T) {
	tests := []struct {
		name string
		v    []float64
		want float64
	}{
		{"zero vector", []float64{0, 0, 0}, 0},
		{"unit x", []float64{1, 0, 0}, 1},
		{"unit z", []float64{0, 0, 1}, 1},
		{"pythagorean", []float64{3, 4, 0}, 5},
		{"gravity", []float64{0, 0, 9.81}, 9.81},
		{"negative components", []float64{-3, -4, 0}, 5},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Magnitude(tt.v), 1e-12)
		})
	}
}

func TestMagnitudeNonNegative(t *testing.T) {
	vectors := [][]float64{
		{0.1, -0.2, 0.3},
		{-9.8, 0, 0},
		{1e-9, -1e-9, 1e-9},
	}
	for _, v := range vectors {
		m := Magnitude(v)
		assert.GreaterOrEqual(t, m, 0.0)
		assert.False(t, math.IsNaN(m))
	}
}

func TestMagnitudeZeroOnlyForZeroVector(t *testing.T) {
	assert.Zero(t, Magnitude([]float64{0, 0, 0}))
	assert.NotZero(t, Magnitude([]float64{0, 1e-12, 0}))
}

func TestComponentAverage(t *testing.T) {
	window := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	avg, err := ComponentAverage(window, 3)
	require.NoError(t, err)
	require.Len(t, avg, 3)
	for i := range avg {
		assert.InDelta(t, 1.0/3.0, avg[i], 1e-3)
	}
}

func TestComponentAverageExactWindow(t *testing.T) {
	// The mean covers exactly the vectors handed in, no stale data.
	window := [][]float64{
		{2, 4, 6},
		{4, 8, 12},
	}
	avg, err := ComponentAverage(window, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6, 9}, avg)
}

func TestComponentAverageEmptyWindow(t *testing.T) {
	avg, err := ComponentAverage(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, avg)
}

func TestComponentAverageDimensionMismatch(t *testing.T) {
	window := [][]float64{
		{1, 2, 3},
		{1, 2},
	}
	_, err := ComponentAverage(window, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector 1")
}

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}
