package signals

import "math"

// =============================================================================
// Statistics utilities shared by the signal engines
// =============================================================================

// Mean returns the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// RollingMean returns the windowed means of values. Only positions where
// the window is full are returned, so the result has
// len(values)-window+1 entries (empty when values is shorter than window).
func RollingMean(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	out := make([]float64, 0, len(values)-window+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// RollingStdDev returns the windowed sample standard deviations of values,
// aligned the same way as RollingMean.
func RollingStdDev(values []float64, window int) []float64 {
	if window <= 1 || len(values) < window {
		return nil
	}

	out := make([]float64, 0, len(values)-window+1)
	for i := window - 1; i < len(values); i++ {
		out = append(out, StdDev(values[i-window+1:i+1]))
	}
	return out
}

// SlopeLeastSquares returns the least-squares linear regression slope of
// values against x = 0, 1, ..., n-1.
func SlopeLeastSquares(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	xMean := float64(n-1) / 2
	yMean := Mean(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}

	if den == 0 {
		return 0
	}
	return num / den
}

// NormCDF is the standard normal cumulative distribution function
func NormCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
