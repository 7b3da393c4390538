package bbo

import (
	"errors"
	"sort"

	"golang.org/x/exp/maps"
)

//////
// Helper functions.
//////

// joinErrors folds a violation list into one error, nil when empty. Used by
// the validation passes so that every violation surfaces at once instead of
// only the first.
func joinErrors(errs []error) error {
	return errors.Join(errs...)
}

// ones returns a slice of n ones.
func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}

	return out
}

// cloneFixed copies a fixed-feature assignment. A nil input yields an empty
// non-nil map so callers can overlay pins without checks.
func cloneFixed(fixed map[int]float64) map[int]float64 {
	if fixed == nil {
		return make(map[int]float64)
	}

	return maps.Clone(fixed)
}

// nearestIndex returns the index of the value in the sorted slice closest to
// v, ties broken toward the lower value.
func nearestIndex(sorted []float64, v float64) int {
	i := sort.SearchFloat64s(sorted, v)

	if i == 0 {
		return 0
	}
	if i == len(sorted) {
		return len(sorted) - 1
	}

	if sorted[i]-v < v-sorted[i-1] {
		return i
	}

	return i - 1
}
