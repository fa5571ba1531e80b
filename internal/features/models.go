package features

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Classifier is the capability a churn model must provide. Feature
// preparation stays testable independent of the algorithm behind it.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Predict(x [][]float64) ([]int, error)
}

// Clusterer assigns each row to a cluster.
type Clusterer interface {
	Fit(x [][]float64) ([]int, error)
}

// ErrNotFitted is returned when predicting before fitting.
var ErrNotFitted = errors.New("model has not been fitted")

// ErrEmptyMatrix is returned for empty training input.
var ErrEmptyMatrix = errors.New("empty feature matrix")

// StandardScaler centers features to zero mean and unit variance,
// column-wise. Zero-variance columns pass through unscaled.
type StandardScaler struct {
	means []float64
	stds  []float64
}

// Fit learns per-column means and standard deviations.
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 || len(x[0]) == 0 {
		return ErrEmptyMatrix
	}
	cols := len(x[0])
	s.means = make([]float64, cols)
	s.stds = make([]float64, cols)

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		s.means[j] = stat.Mean(col, nil)
		std := stat.StdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.stds[j] = std
	}
	return nil
}

// Transform scales a matrix with the fitted parameters.
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	if s.means == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.means[j]) / s.stds[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits the scaler and returns the scaled matrix.
func (s *StandardScaler) FitTransform(x [][]float64) ([][]float64, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
