package bbo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func quadratic(center []float64) ObjectiveFunc {
	return func(x []float64) float64 {
		var v float64
		for i := range center {
			d := x[i] - center[i]
			v += d * d
		}
		return v
	}
}

func TestRandomSearchOptimize(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{0.3, 0.7}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 2,
		NumRestarts:    4,
		NumRawSamples:  512,
		Rand:           rand.New(rand.NewSource(1)),
	}

	points, value, err := RandomSearchOptimizer{}.Optimize(params)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.LessOrEqual(t, value, params.Objective(points[1]), "points ordered best first")
	assert.InDelta(t, 0.3, points[0][0], 0.15)
	assert.InDelta(t, 0.7, points[0][1], 0.15)

	for _, p := range points {
		for i, v := range p {
			assert.GreaterOrEqual(t, v, params.Bounds.Lower[i])
			assert.LessOrEqual(t, v, params.Bounds.Upper[i])
		}
	}
}

func TestRandomSearchOptimizeRespectsFixed(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{0.3, 0.7}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 3,
		NumRestarts:    2,
		NumRawSamples:  64,
		Fixed:          map[int]float64{1: 0.25},
		Rand:           rand.New(rand.NewSource(2)),
	}

	points, _, err := RandomSearchOptimizer{}.Optimize(params)
	require.NoError(t, err)

	for _, p := range points {
		assert.Equal(t, 0.25, p[1], "pinned column never moves")
	}
}

func TestRandomSearchEqualityProjection(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{0.1, 0.1, 0.1}),
		Bounds:         Bounds{Lower: []float64{0, 0, 0}, Upper: []float64{1, 1, 1}},
		CandidateCount: 5,
		NumRestarts:    2,
		NumRawSamples:  256,
		Equalities: []LinearSystem{
			{Indices: []int{0, 1, 2}, Coefficients: []float64{1, 1, 1}, RHS: 1},
		},
		Rand: rand.New(rand.NewSource(3)),
	}

	points, _, err := RandomSearchOptimizer{}.Optimize(params)
	require.NoError(t, err)
	require.Len(t, points, 5)

	for _, p := range points {
		assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-6, "points lie on the simplex")
	}
}

func TestRandomSearchInequalityFiltering(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{1, 1}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 4,
		NumRestarts:    2,
		NumRawSamples:  512,
		Inequalities: []LinearSystem{
			{Indices: []int{0, 1}, Coefficients: []float64{1, 1}, RHS: 1},
		},
		Rand: rand.New(rand.NewSource(4)),
	}

	points, _, err := RandomSearchOptimizer{}.Optimize(params)
	require.NoError(t, err)

	for _, p := range points {
		assert.LessOrEqual(t, p[0]+p[1], 1.0+1e-6)
	}
}

func TestRandomSearchFailsWhenInfeasible(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{0, 0}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 1,
		NumRestarts:    1,
		NumRawSamples:  32,
		Inequalities: []LinearSystem{
			// x0 + x1 <= -1 is unsatisfiable inside the unit box.
			{Indices: []int{0, 1}, Coefficients: []float64{1, 1}, RHS: -1},
		},
		Rand: rand.New(rand.NewSource(5)),
	}

	_, _, err := RandomSearchOptimizer{}.Optimize(params)
	assert.ErrorIs(t, err, ErrOptimizerFailed)
}

func TestRandomSearchValidatesParams(t *testing.T) {
	valid := OptimizeParams{
		Objective:      quadratic([]float64{0}),
		Bounds:         Bounds{Lower: []float64{0}, Upper: []float64{1}},
		CandidateCount: 1,
		NumRestarts:    1,
		NumRawSamples:  8,
		Rand:           rand.New(rand.NewSource(6)),
	}

	cases := []struct {
		name   string
		mutate func(*OptimizeParams)
		err    error
	}{
		{"NilObjective", func(p *OptimizeParams) { p.Objective = nil }, ErrOptimizerFailed},
		{"NilRand", func(p *OptimizeParams) { p.Rand = nil }, ErrOptimizerFailed},
		{"ZeroCandidates", func(p *OptimizeParams) { p.CandidateCount = 0 }, ErrOptimizerFailed},
		{"ZeroRestarts", func(p *OptimizeParams) { p.NumRestarts = 0 }, ErrOptimizerFailed},
		{"BoundsMismatch", func(p *OptimizeParams) { p.Bounds.Upper = []float64{1, 2} }, ErrDimensionMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := valid
			tc.mutate(&params)
			_, _, err := RandomSearchOptimizer{}.Optimize(params)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestOptimizeMixedPicksBestAssignment(t *testing.T) {
	params := OptimizeParams{
		// The minimum over x0 sits at x1 = 0.5.
		Objective:      quadratic([]float64{0.5, 0.5}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 1,
		NumRestarts:    2,
		NumRawSamples:  256,
		FixedList: []map[int]float64{
			{1: 0.0},
			{1: 0.5},
			{1: 1.0},
		},
		Rand: rand.New(rand.NewSource(7)),
	}

	points, value, err := RandomSearchOptimizer{}.OptimizeMixed(params)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.Equal(t, 0.5, points[0][1], "the winning assignment is kept")
	assert.Less(t, value, 0.25)
}

func TestOptimizeMixedRequiresAssignments(t *testing.T) {
	_, _, err := RandomSearchOptimizer{}.OptimizeMixed(OptimizeParams{
		Objective:      quadratic([]float64{0}),
		Bounds:         Bounds{Lower: []float64{0}, Upper: []float64{1}},
		CandidateCount: 1,
		NumRestarts:    1,
		NumRawSamples:  8,
		Rand:           rand.New(rand.NewSource(8)),
	})
	assert.ErrorIs(t, err, ErrEmptyEnumeration)
}

func TestOptimizeMixedAllAssignmentsFail(t *testing.T) {
	params := OptimizeParams{
		Objective:      quadratic([]float64{0, 0}),
		Bounds:         Bounds{Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		CandidateCount: 1,
		NumRestarts:    1,
		NumRawSamples:  16,
		Inequalities: []LinearSystem{
			{Indices: []int{0, 1}, Coefficients: []float64{1, 1}, RHS: math.Inf(-1)},
		},
		FixedList: []map[int]float64{{1: 0}, {1: 1}},
		Rand:      rand.New(rand.NewSource(9)),
	}

	_, _, err := RandomSearchOptimizer{}.OptimizeMixed(params)
	assert.ErrorIs(t, err, ErrOptimizerFailed)
}
