// Package stats provides the moment and quantile helpers shared by every
// detection rule, so that all rules use one consistent set of statistical
// definitions.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the sample (n-1) standard deviation. Populations of fewer
// than two values have no spread to measure and return 0, which callers use
// as their skip condition.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Quantile returns the p-quantile (p in [0,1]) using linear interpolation
// between order statistics: rank = p*(n-1), interpolating the two
// neighboring sorted values. This is the single interpolation rule used
// everywhere in the pipeline. Returns NaN for an empty slice.
func Quantile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)

	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[len(s)-1]
	}
	rank := p * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	frac := rank - float64(lo)
	return s[lo] + frac*(s[hi]-s[lo])
}

// Median returns the 0.5-quantile.
func Median(xs []float64) float64 {
	return Quantile(xs, 0.5)
}

// Round rounds x to the given number of decimal places. Detection flags
// embed rounded statistics so descriptions and feature values agree.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
