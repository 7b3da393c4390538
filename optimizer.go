package bbo

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Acquisition optimizer boundary.
//
// The strategy supplies bounds, resolved linear constraint systems and the
// fixed-feature assignments; the optimizer maximizes the acquisition over
// the remaining free columns. RandomSearchOptimizer is the reference
// implementation, built on the same candidate-screening loop the rest of the
// package uses for sampling.
//////

// Point is one candidate in the transformed numeric tensor.
type Point []float64

// ObjectiveFunc scores a transformed point; lower values are better.
type ObjectiveFunc func(x []float64) float64

// Bounds holds the per-column lower and upper bounds of the transformed
// tensor.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// OptimizeParams carries one optimization request across the optimizer
// boundary.
type OptimizeParams struct {
	// Objective is the scalarized acquisition; the optimizer minimizes it.
	Objective ObjectiveFunc

	// Bounds is the search box over all transformed columns.
	Bounds Bounds

	// CandidateCount is the number of candidates to return.
	CandidateCount int

	// NumRestarts and NumRawSamples control the screening budget: every
	// restart draws NumRawSamples points.
	NumRestarts   int
	NumRawSamples int

	// Equalities and Inequalities are the resolved linear constraint
	// systems: sum(coefficients*x) == rhs and <= rhs respectively.
	Equalities   []LinearSystem
	Inequalities []LinearSystem

	// Fixed pins columns for a single continuous run.
	Fixed map[int]float64

	// FixedList replaces Fixed for mixed optimization: one continuous run
	// per assignment, best overall wins.
	FixedList []map[int]float64

	// Rand is the generator for all draws. Must be set.
	Rand *rand.Rand
}

// ContinuousOptimizer optimizes the acquisition over the bounded box with a
// single fixed-feature assignment.
type ContinuousOptimizer interface {
	Optimize(params OptimizeParams) ([]Point, float64, error)
}

// MixedOptimizer optimizes the acquisition once per assignment in
// params.FixedList and returns the best result overall.
type MixedOptimizer interface {
	OptimizeMixed(params OptimizeParams) ([]Point, float64, error)
}

// RandomSearchOptimizer is the reference acquisition optimizer: multi-start
// uniform screening inside the bounds, with pinned columns overwritten,
// points projected onto equality hyperplanes and inequality violations
// rejected. It implements both ContinuousOptimizer and MixedOptimizer.
type RandomSearchOptimizer struct{}

// scored pairs a point with its objective value during screening.
type scored struct {
	point Point
	value float64
}

// Optimize screens NumRestarts*NumRawSamples feasible points and returns the
// CandidateCount best ones, ordered best first, together with the best
// objective value.
func (RandomSearchOptimizer) Optimize(params OptimizeParams) ([]Point, float64, error) {
	if err := validateOptimizeParams(params); err != nil {
		return nil, 0, err
	}

	width := len(params.Bounds.Lower)

	var best []scored

	for restart := 0; restart < params.NumRestarts; restart++ {
		for i := 0; i < params.NumRawSamples; i++ {
			x := drawPoint(params.Bounds, params.Fixed, params.Rand)

			if len(params.Equalities) > 0 {
				projectEqualities(x, params)
			}

			if !feasible(x, params) {
				continue
			}

			candidate := scored{point: append(Point(nil), x[:width]...), value: params.Objective(x)}

			best = insertScored(best, candidate, params.CandidateCount)
		}
	}

	if len(best) < params.CandidateCount {
		return nil, 0, fmt.Errorf(
			"%w: found %d feasible points, need %d",
			ErrOptimizerFailed, len(best), params.CandidateCount,
		)
	}

	points := make([]Point, len(best))
	for i, s := range best {
		points[i] = s.point
	}

	return points, best[0].value, nil
}

// OptimizeMixed runs one continuous optimization per fixed-feature
// assignment and returns the best result across all of them.
func (o RandomSearchOptimizer) OptimizeMixed(params OptimizeParams) ([]Point, float64, error) {
	if len(params.FixedList) == 0 {
		return nil, 0, fmt.Errorf(
			"%w: mixed optimization needs at least one fixed-feature assignment",
			ErrEmptyEnumeration,
		)
	}

	var (
		bestPoints []Point
		bestValue  = math.MaxFloat64
		lastErr    error
		succeeded  bool
	)

	for _, fixed := range params.FixedList {
		sub := params
		sub.Fixed = fixed
		sub.FixedList = nil

		points, value, err := o.Optimize(sub)
		if err != nil {
			lastErr = err
			continue
		}

		if !succeeded || value < bestValue {
			bestPoints, bestValue = points, value
			succeeded = true
		}
	}

	if !succeeded {
		return nil, 0, fmt.Errorf("%w: every fixed-feature assignment failed: %v", ErrOptimizerFailed, lastErr)
	}

	return bestPoints, bestValue, nil
}

func validateOptimizeParams(params OptimizeParams) error {
	if params.Objective == nil || params.Rand == nil {
		return fmt.Errorf("%w: objective and generator must be set", ErrOptimizerFailed)
	}

	if params.CandidateCount < 1 {
		return fmt.Errorf("%w: candidate count must be at least 1", ErrOptimizerFailed)
	}

	if len(params.Bounds.Lower) != len(params.Bounds.Upper) {
		return fmt.Errorf(
			"%w: %d lower bounds but %d upper bounds",
			ErrDimensionMismatch, len(params.Bounds.Lower), len(params.Bounds.Upper),
		)
	}

	if params.NumRestarts < 1 || params.NumRawSamples < 1 {
		return fmt.Errorf("%w: restarts and raw samples must be at least 1", ErrOptimizerFailed)
	}

	return nil
}

// drawPoint samples uniform within the bounds, then overwrites pinned
// columns with their fixed values.
func drawPoint(b Bounds, fixed map[int]float64, rng *rand.Rand) []float64 {
	x := make([]float64, len(b.Lower))

	for i := range x {
		if b.Lower[i] == b.Upper[i] {
			x[i] = b.Lower[i]
			continue
		}

		x[i] = distuv.Uniform{Min: b.Lower[i], Max: b.Upper[i], Src: rng}.Rand()
	}

	for idx, v := range fixed {
		if idx >= 0 && idx < len(x) {
			x[idx] = v
		}
	}

	return x
}

// projectEqualities moves the free coordinates of x onto each equality
// hyperplane in turn, then clamps back into the bounds. Pinned columns are
// never moved.
func projectEqualities(x []float64, params OptimizeParams) {
	for _, sys := range params.Equalities {
		residual := -sys.RHS
		for i, idx := range sys.Indices {
			residual += sys.Coefficients[i] * x[idx]
		}

		var denom float64
		for i, idx := range sys.Indices {
			if _, pinned := params.Fixed[idx]; pinned {
				continue
			}
			denom += sys.Coefficients[i] * sys.Coefficients[i]
		}

		if denom == 0 {
			continue
		}

		for i, idx := range sys.Indices {
			if _, pinned := params.Fixed[idx]; pinned {
				continue
			}
			x[idx] -= sys.Coefficients[i] * residual / denom
			x[idx] = math.Min(math.Max(x[idx], params.Bounds.Lower[idx]), params.Bounds.Upper[idx])
		}
	}
}

// feasible checks the linear constraint systems at x.
func feasible(x []float64, params OptimizeParams) bool {
	const tol = 1e-6

	for _, sys := range params.Equalities {
		v := -sys.RHS
		for i, idx := range sys.Indices {
			v += sys.Coefficients[i] * x[idx]
		}
		if math.Abs(v) > tol {
			return false
		}
	}

	for _, sys := range params.Inequalities {
		v := -sys.RHS
		for i, idx := range sys.Indices {
			v += sys.Coefficients[i] * x[idx]
		}
		if v > tol {
			return false
		}
	}

	return true
}

// insertScored keeps the best q entries sorted ascending by value.
func insertScored(best []scored, candidate scored, q int) []scored {
	i := sort.Search(len(best), func(i int) bool { return best[i].value > candidate.value })

	best = append(best, scored{})
	copy(best[i+1:], best[i:])
	best[i] = candidate

	if len(best) > q {
		best = best[:q]
	}

	return best
}
