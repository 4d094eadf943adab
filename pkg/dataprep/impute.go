package dataprep

import (
	"fmt"
	"math"

	"frauddetect/pkg/stats"
)

// Strategy names how missing numeric values are filled.
type Strategy string

const (
	Mean         Strategy = "mean"
	Median       Strategy = "median"
	MostFrequent Strategy = "most_frequent"
)

// FillValue computes the value Impute would use for col. An all-missing column fills with 0.
func FillValue(col []float64, strategy Strategy) (float64, error) {
	var v float64
	switch strategy {
	case Mean:
		v = stats.NanMean(col)
	case Median:
		v = stats.NanMedian(col)
	case MostFrequent:
		v = stats.NanMode(col)
	default:
		return 0, fmt.Errorf("impute: unknown strategy %q", strategy)
	}
	if math.IsNaN(v) {
		v = 0
	}
	return v, nil
}

// Impute returns a copy of col with NaN replaced by the strategy's fill value.
func Impute(col []float64, strategy Strategy) ([]float64, float64, error) {
	fill, err := FillValue(col, strategy)
	if err != nil {
		return nil, 0, err
	}
	return fillNaN(col, fill), fill, nil
}

func fillNaN(col []float64, fill float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			v = fill
		}
		out[i] = v
	}
	return out
}
