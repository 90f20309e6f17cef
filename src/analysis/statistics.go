package analysis

import "math"

// -----------------------------------------------------------------------------

// MeanStd computes mean and population standard deviation (N denominator).
func MeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// SigmaNumber returns the 1-based sigma band that value falls into relative
// to the sample: floor(|value-mean|/std) + 1. A value inside one standard
// deviation is band 1.
//
// With zero deviation in the sample the division is undefined; a value equal
// to the mean counts as band 1 and anything else is treated as maximally
// deviant so the caller always rejects it.
func SigmaNumber(data []float64, value float64) int {
	mean, std := MeanStd(data)

	diff := math.Abs(value - mean)
	if std == 0 {
		if diff == 0 {
			return 1
		}
		return math.MaxInt32
	}

	return int(math.Trunc(diff/std)) + 1
}
