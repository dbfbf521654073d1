package analysis

import (
	"math"

	"github.com/montanaflynn/stats"
)

// populationMeanSD returns the mean and the population standard deviation
// (denominator n) of data. Empty input yields NaN for both.
func populationMeanSD(data []float64) (float64, float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return mean, math.NaN()
	}
	return mean, sd
}

// coefficientOfVariation returns sd/|mean|*100. A zero spread gives 0; a zero
// mean with a non-zero spread is undefined and gives NaN.
func coefficientOfVariation(mean, sd float64) float64 {
	if sd == 0 {
		return 0
	}
	if mean == 0 || math.IsNaN(mean) {
		return math.NaN()
	}
	return sd / math.Abs(mean) * 100
}

// valueRange returns the minimum and maximum of data, NaN for empty input.
func valueRange(data []float64) (float64, float64) {
	if len(data) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, err := stats.Min(data)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	hi, _ := stats.Max(data)
	return lo, hi
}

// percentDiff returns (val-ref)/|ref|*100, NaN when ref is zero or either side is NaN.
func percentDiff(ref, val float64) float64 {
	if ref == 0 || math.IsNaN(ref) || math.IsNaN(val) {
		return math.NaN()
	}
	return (val - ref) / math.Abs(ref) * 100
}

// closeRel reports whether a and b agree within a relative tolerance.
func closeRel(a, b, rtol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rtol*math.Max(math.Abs(a), math.Abs(b))+1e-12
}
