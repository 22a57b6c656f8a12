package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Magnitude returns the Euclidean norm of v. The zero vector (and the empty
// vector) has magnitude 0.
func Magnitude(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Mean returns the arithmetic mean of xs, or 0 when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// ComponentAverage returns the elementwise mean of the vectors in window.
// Every vector must have exactly dim components; a mismatched vector is a
// contract violation and fails immediately rather than being truncated.
// An empty window yields the zero vector.
func ComponentAverage(window [][]float64, dim int) ([]float64, error) {
	for i, v := range window {
		if len(v) != dim {
			return nil, fmt.Errorf("component average: vector %d has %d components, want %d", i, len(v), dim)
		}
	}

	avg := make([]float64, dim)
	if len(window) == 0 {
		return avg, nil
	}

	column := make([]float64, len(window))
	for i := 0; i < dim; i++ {
		for j, v := range window {
			column[j] = v[i]
		}
		avg[i] = stat.Mean(column, nil)
	}
	return avg, nil
}
