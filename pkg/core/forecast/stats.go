package forecast

import (
	"slices"
)

// median returns the middle value of the data (mean of the two middle values
// for even counts). Returns 0 for empty input; callers guard emptiness.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// minSamplesForWinsorize is the history size below which clipping would be
// driven by too few order statistics to be meaningful.
const minSamplesForWinsorize = 10

// Winsorize clips extreme values to percentile bounds instead of discarding
// them: everything below the tail-quantile is raised to it and everything
// above the (1-tail)-quantile is lowered to it. Inputs with fewer than ten
// samples are returned unchanged (as a copy). Order of the input is
// preserved, and applying the same tail twice yields the same result as once.
func Winsorize(values []float64, tail float64) []float64 {
	out := slices.Clone(values)
	n := len(out)
	if n < minSamplesForWinsorize || tail <= 0 {
		return out
	}

	sorted := slices.Clone(out)
	slices.Sort(sorted)

	// Index-based quantiles: the bound is an order statistic of the data,
	// so re-clipping moves nothing.
	lowIdx := int(tail * float64(n))
	if lowIdx > n-1 {
		lowIdx = n - 1
	}
	highIdx := n - 1 - lowIdx

	low := sorted[lowIdx]
	high := sorted[highIdx]

	for i, v := range out {
		if v < low {
			out[i] = low
		} else if v > high {
			out[i] = high
		}
	}
	return out
}
