package bbo

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Available acquisition functions.
// Each function scores a surrogate posterior to decide which points to
// evaluate next, balancing exploration (trying uncertain areas) and
// exploitation (focusing on known good areas). Lower values are better; the
// optimizer minimizes the scalarized objective.
//////

// UCB implements the Upper Confidence Bound acquisition function.
//
// Combines the predicted mean with the uncertainty; the Beta parameter
// controls the trade-off between exploration and exploitation (higher =
// more exploration).
//
// Example:
//
//	params := bbo.AcquisitionParams{Beta: 2.0}
//	value := bbo.UCB(0.5, 0.2, params)
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(variance)
}

// ProbabilityOfImprovement scores the probability that a point improves on
// the best observed value by at least Xi, under a normal posterior.
//
// Use it when being "probably better" matters more than "how much better".
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		if mean < params.BestSoFar-params.Xi {
			return 0
		}
		return 1
	}

	z := (mean - params.BestSoFar - params.Xi) / sigma

	return distuv.UnitNormal.CDF(z)
}

// ExpectedImprovement scores the expected magnitude of improvement over the
// best observed value, balancing how likely and how large the improvement
// might be. The most commonly used acquisition function.
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return mean - params.BestSoFar - params.Xi
	}

	z := (mean - params.BestSoFar - params.Xi) / sigma

	return (mean-params.BestSoFar-params.Xi)*distuv.UnitNormal.CDF(z) +
		sigma*distuv.UnitNormal.Prob(z)
}

// ThompsonSampling draws a random sample from the posterior at the point,
// balancing exploration and exploitation through randomness alone.
//
// params.Rand must be set; the strategy wires its own seeded generator.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(variance)*params.Rand.NormFloat64()
}
