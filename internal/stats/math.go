package stats

import (
	"slices"

	mstats "github.com/montanaflynn/stats"
)

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	// Work on a copy to avoid mutating the chronological sequence
	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)
	return temp
}

// Quantile returns the p-quantile (0 <= p <= 1) of an ascending slice using
// linear interpolation at rank p*(n-1).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	rank := p * float64(n-1)
	lo := int(rank)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := rank - float64(lo)

	// Weighted form keeps the midpoint bit-identical to (a+b)/2.
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// FirstMode returns the most frequent value. When several values share the
// highest frequency the one that occurs first in values wins.
func FirstMode(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	counts := make(map[float64]int, len(values))
	top := 0
	for _, v := range values {
		counts[v]++
		top = max(top, counts[v])
	}

	for _, v := range values {
		if counts[v] == top {
			return v
		}
	}
	return values[0]
}

// TrimmedMean drops floor(n*fraction) values from each end of the sorted
// slice and averages the rest. If nothing remains the untrimmed mean is used.
func TrimmedMean(sorted []float64, fraction float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	k := int(float64(n) * fraction)
	kept := sorted
	if n-2*k > 0 {
		kept = sorted[k : n-k]
	}
	m, _ := mstats.Mean(kept)
	return m
}
