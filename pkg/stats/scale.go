package stats

import (
	"errors"
	"fmt"
	"math"
)

var errNotFitted = errors.New("scaler: not fitted")

// StandardScaler standardizes each column to zero mean and unit variance.
// Statistics ignore NaN cells and NaN passes through Transform untouched.
// A constant column keeps a scale of 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit learns per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("scaler: empty X")
	}
	c := len(X[0])
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, 0, len(X))
	for j := 0; j < c; j++ {
		col = col[:0]
		for i, row := range X {
			if len(row) != c {
				return fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), c)
			}
			if !math.IsNaN(row[j]) {
				col = append(col, row[j])
			}
		}
		if len(col) == 0 {
			s.Mean[j], s.Scale[j] = 0, 1
			continue
		}
		s.Mean[j] = Mean(col)
		s.Scale[j] = Std(col)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
	return nil
}

// Transform returns a standardized copy of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, errNotFitted
	}
	c := len(s.Mean)
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != c {
			return nil, fmt.Errorf("scaler: row %d has %d columns, want %d", i, len(row), c)
		}
		r := make([]float64, c)
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
