package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Std computes the population standard deviation of a slice.
func Std(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(x, nil)
	return std
}



// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// Mode returns the most frequent value in the slice. Ties go to the smallest value.
func Mode(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	counts := make(map[float64]int, len(x))
	for _, v := range x {
		counts[v]++
	}
	mode, maxCount := 0.0, 0
	for v, c := range counts {
		if c > maxCount || (c == maxCount && v < mode) {
			mode, maxCount = v, c
		}
	}
	return mode
}


// DropNaN returns the non-NaN values of x in order.
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// NanMean is Mean over the non-NaN values. An all-NaN slice gives NaN.
func NanMean(x []float64) float64 { return nanReduce(x, Mean) }

// NanMedian is Median over the non-NaN values. An all-NaN slice gives NaN.
func NanMedian(x []float64) float64 { return nanReduce(x, Median) }

// NanMode is Mode over the non-NaN values. An all-NaN slice gives NaN.
func NanMode(x []float64) float64 { return nanReduce(x, Mode) }

func nanReduce(x []float64, f func([]float64) float64) float64 {
	v := DropNaN(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return f(v)
}
