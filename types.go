package bbo

import (
	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

//////
// Enums and shared value types.
//////

// Encoding selects the numeric-column representation of a feature inside the
// flattened search tensor. Continuous and discrete features always occupy a
// single identity column (NoEncoding); categorical features choose between
// OneHot, Ordinal, Dummy and, for descriptor categoricals, Descriptor.
type Encoding int

const (
	// NoEncoding maps a numeric feature to a single identity column.
	NoEncoding Encoding = iota

	// OneHot maps a categorical feature with N categories to N columns,
	// exactly one of which is 1 per row.
	OneHot

	// Ordinal maps a categorical feature to a single column holding the
	// integer rank of the category in declaration order.
	Ordinal

	// Dummy maps a categorical feature with N categories to N-1 columns,
	// dropping the first category (all-zero row).
	Dummy

	// Descriptor maps a descriptor categorical to one column per descriptor,
	// holding the descriptor value of the chosen category.
	Descriptor
)

// String returns the lowercase name of the encoding.
func (e Encoding) String() string {
	switch e {
	case NoEncoding:
		return "none"
	case OneHot:
		return "one-hot"
	case Ordinal:
		return "ordinal"
	case Dummy:
		return "dummy"
	case Descriptor:
		return "descriptor"
	default:
		return "unknown"
	}
}

// TransformSpec maps feature keys to the encoding used for them. Keys absent
// from the spec fall back to the feature's default encoding. The spec is
// resolved and validated once at strategy construction.
type TransformSpec map[string]Encoding

// CategoricalMethod decides how a feature class (plain categorical,
// descriptor categorical, discrete) participates in acquisition optimization.
type CategoricalMethod int

const (
	// Free relaxes the class into the continuous search space without
	// enumeration. The optimizer may propose fractional encodings; forbidden
	// categories are pinned to zero by the fixed-feature resolver.
	Free CategoricalMethod = iota

	// Exhaustive enumerates every allowed assignment of the class and runs
	// one continuous sub-optimization per assignment.
	Exhaustive
)

// String returns the lowercase name of the method.
func (m CategoricalMethod) String() string {
	if m == Exhaustive {
		return "exhaustive"
	}
	return "free"
}

// MethodSpec holds the per-class optimization methods. The zero value leaves
// every class Free (full continuous relaxation).
type MethodSpec struct {
	// Categorical applies to plain categorical and task features.
	Categorical CategoricalMethod

	// Descriptor applies to descriptor categorical features. When both the
	// categorical and the descriptor class are Exhaustive, descriptor
	// categoricals are enumerated once, under the descriptor class.
	Descriptor CategoricalMethod

	// Discrete applies to discrete numeric features.
	Discrete CategoricalMethod
}

// anyExhaustive reports whether at least one class is enumerated.
func (m MethodSpec) anyExhaustive() bool {
	return m.Categorical == Exhaustive ||
		m.Descriptor == Exhaustive ||
		m.Discrete == Exhaustive
}

// allFree reports whether no class is enumerated.
func (m MethodSpec) allFree() bool {
	return !m.anyExhaustive()
}

// ObjectiveSense declares the optimization direction of an output feature.
type ObjectiveSense int

const (
	// Maximize prefers larger output values.
	Maximize ObjectiveSense = iota

	// Minimize prefers smaller output values.
	Minimize
)

// Objective attaches a direction and a weight to an output feature. The
// strategy scalarizes multiple outputs into a single desirability by summing
// the weighted, direction-adjusted predictions.
type Objective struct {
	Sense  ObjectiveSense
	Weight float64
}

// Desirability maps an observed or predicted output value to its weighted
// contribution (larger is better regardless of sense).
func (o Objective) Desirability(value float64) float64 {
	if o.Sense == Minimize {
		return -o.Weight * value
	}
	return o.Weight * value
}

// Experiment is one evaluated point of the search space: input values by
// feature key (float64 for numeric features, string for categorical ones)
// plus the measured outputs.
type Experiment struct {
	Inputs  map[string]any
	Outputs map[string]float64
}

// Prediction is the surrogate's posterior for one output at a candidate.
type Prediction struct {
	Mean float64
	Std  float64

	// Desirability is the output's objective applied to Mean.
	Desirability float64
}

// Candidate is one proposed experiment. Inputs are decoded back to feature
// values; Predictions hold the surrogate posterior per output key.
type Candidate struct {
	// BatchID groups the candidates returned by a single Ask call.
	BatchID uuid.UUID

	Inputs      map[string]any
	Predictions map[string]Prediction
}

// AcquisitionFunc scores a surrogate posterior (mean, variance) at a point.
// Lower values indicate more promising points; the optimizer minimizes it.
//
// Built-in implementations: UCB, ProbabilityOfImprovement,
// ExpectedImprovement, ThompsonSampling.
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds the knobs shared by the built-in acquisition
// functions.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off of UCB. Typical
	// values range from 0.1 to 5.0, with 2.0 as the default.
	Beta float64

	// Xi is the minimum-improvement margin used by ProbabilityOfImprovement
	// and ExpectedImprovement. Typical values range from 0.01 to 0.1.
	Xi float64

	// BestSoFar is the best (lowest) scalarized objective observed so far.
	// The strategy updates it on every fit; standalone callers must
	// initialize it to math.MaxFloat64.
	BestSoFar float64

	// Rand is the generator used by ThompsonSampling. The strategy wires its
	// own seeded generator here; standalone callers must set it explicitly.
	Rand *rand.Rand
}

// ProgressUpdate reports the state of the tell/fit/ask cycle on the optional
// progress channel. Sends are non-blocking; a full channel drops updates.
type ProgressUpdate struct {
	// Phase is "tell", "fit" or "ask".
	Phase string

	// NumExperiments is the number of accumulated experiments.
	NumExperiments int

	// BestObjective is the lowest scalarized objective observed so far.
	// Only meaningful once the strategy is fitted.
	BestObjective float64

	// CandidateCount is the number of candidates produced by the last ask,
	// zero for tell/fit updates.
	CandidateCount int
}
