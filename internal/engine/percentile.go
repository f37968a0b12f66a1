package engine

import (
	"cmp"
	"math"
	"slices"
)

// Percentile returns the nearest-rank percentile p (0,1] of values. The input
// is not modified.
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySample
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, p), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// weighted is a value repeated count times in a distribution.
type weighted struct {
	value float64
	count int
}

// weightedPercentile is the nearest-rank percentile of the distribution in
// which every entry appears count times, without expanding it.
func weightedPercentile(dist []weighted, p float64) (float64, error) {
	total := 0
	for _, w := range dist {
		total += w.count
	}
	if total == 0 {
		return 0, ErrEmptySample
	}
	sorted := slices.Clone(dist)
	slices.SortStableFunc(sorted, func(a, b weighted) int { return cmp.Compare(a.value, b.value) })
	rank := min(max(int(math.Ceil(float64(total)*p)), 1), total)
	seen := 0
	for _, w := range sorted {
		seen += w.count
		if seen >= rank {
			return w.value, nil
		}
	}
	return sorted[len(sorted)-1].value, nil
}
