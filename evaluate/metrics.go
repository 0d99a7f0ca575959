// Package evaluate provides regression metrics for time-series model
// benchmarking. All metrics skip NaN terms instead of propagating them, so
// gappy sensor series can be scored directly.
package evaluate

import "math"

// epsilon is the double-precision machine epsilon, used to guard the R2
// denominator against a constant actual series.
var epsilon = math.Nextafter(1, 2) - 1

// TrainMeanR2 computes R2 against a mean estimated on the training set
// instead of the mean of the evaluated series. Scoring a test set against
// its own mean leaks information into the baseline, which matters when the
// test set is small; passing the training mean keeps the baseline honest.
func TrainMeanR2(actual, predicted []float64, trainMean float64) float64 {
	num := 0.0
	denom := 0.0
	for i := range actual {
		if d := actual[i] - predicted[i]; !math.IsNaN(d) {
			num += d * d
		}
		if d := actual[i] - trainMean; !math.IsNaN(d) {
			denom += d * d
		}
	}
	return 1 - num/(denom+epsilon)
}

// MeanSquaredError averages squared errors over pairs where both values
// are defined. Returns NaN when no pair is defined.
func MeanSquaredError(actual, predicted []float64) float64 {
	sum, n := 0.0, 0
	for i := range actual {
		d := actual[i] - predicted[i]
		if math.IsNaN(d) {
			continue
		}
		sum += d * d
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// MeanAbsoluteError averages absolute errors over pairs where both values
// are defined. Returns NaN when no pair is defined.
func MeanAbsoluteError(actual, predicted []float64) float64 {
	sum, n := 0.0, 0
	for i := range actual {
		d := actual[i] - predicted[i]
		if math.IsNaN(d) {
			continue
		}
		sum += math.Abs(d)
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
