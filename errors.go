package bbo

import "errors"

//////
// Error taxonomy.
//
// Schema errors surface at domain-construction time, configuration errors at
// strategy-construction time, precondition errors when ask/tell are sequenced
// wrongly, and optimizer errors when a collaborator fails for a single ask.
// All of them are wrapped with the offending feature or constraint key before
// they reach the caller; check with errors.Is.
//////

var (
	// ErrInvalidBounds indicates a continuous feature whose lower bound
	// exceeds its upper bound, or a malformed local relative bound window.
	ErrInvalidBounds = errors.New("bbo: lower bound must not exceed upper bound")

	// ErrInvalidStepsize indicates a stepsize that does not fit the bounds:
	// provided for a fixed feature, not landing on the upper bound, or
	// admitting fewer than three grid points.
	ErrInvalidStepsize = errors.New("bbo: invalid stepsize for bounds")

	// ErrNoAllowedCategory indicates a categorical feature whose allowed
	// mask excludes every category.
	ErrNoAllowedCategory = errors.New("bbo: at least one category must be allowed")

	// ErrDuplicateCategory indicates repeated category labels within one
	// categorical feature.
	ErrDuplicateCategory = errors.New("bbo: categories must be unique")

	// ErrDescriptorShape indicates a descriptor matrix whose dimensions do
	// not match the category and descriptor-name counts.
	ErrDescriptorShape = errors.New("bbo: descriptor matrix shape mismatch")

	// ErrFixedDiscrete indicates a discrete feature with fewer than two
	// distinct values. Fixed discrete features are rejected at construction.
	ErrFixedDiscrete = errors.New("bbo: discrete feature must have at least two values")

	// ErrDuplicateKey indicates two features sharing a key within a domain.
	ErrDuplicateKey = errors.New("bbo: feature keys must be unique")

	// ErrUnknownFeature indicates a reference to a feature key that is not
	// part of the domain.
	ErrUnknownFeature = errors.New("bbo: unknown feature key")

	// ErrInvalidConstraint indicates a malformed linear or n-choose-k
	// constraint.
	ErrInvalidConstraint = errors.New("bbo: invalid constraint")

	// ErrInvalidEncoding indicates an encoding a feature variant does not
	// support, e.g. descriptor encoding on a plain categorical.
	ErrInvalidEncoding = errors.New("bbo: encoding not supported by feature")

	// ErrIncompatibleMethod indicates a per-class optimization method that
	// cannot be combined with the chosen encodings.
	ErrIncompatibleMethod = errors.New("bbo: optimization method incompatible with encoding")

	// ErrInsufficientExperiments indicates ask was called before enough
	// experiments were told to fit the surrogate.
	ErrInsufficientExperiments = errors.New("bbo: not enough experiments to generate candidates")

	// ErrInvalidCandidateCount indicates ask was called with a candidate
	// count below one.
	ErrInvalidCandidateCount = errors.New("bbo: candidate count must be at least 1")

	// ErrInvalidValue indicates an experiment or candidate value outside the
	// feature's allowed range or category set.
	ErrInvalidValue = errors.New("bbo: value outside feature range")

	// ErrDimensionMismatch indicates tensors whose shapes disagree with the
	// domain's column layout.
	ErrDimensionMismatch = errors.New("bbo: dimension mismatch")

	// ErrOptimizerFailed indicates the acquisition optimizer found no
	// feasible candidate for this ask. Retrying is the caller's decision.
	ErrOptimizerFailed = errors.New("bbo: acquisition optimizer found no feasible candidate")

	// ErrSurrogateFit indicates the surrogate model could not be fitted to
	// the told experiments.
	ErrSurrogateFit = errors.New("bbo: surrogate fit failed")

	// ErrEmptyEnumeration indicates a combinatorial enumeration produced no
	// assignments, which means the constraint set is contradictory.
	ErrEmptyEnumeration = errors.New("bbo: enumeration produced no assignments")

	// ErrUnreachableConfiguration indicates an ask branch that no supported
	// combination of methods and constraints can reach. Programming error.
	ErrUnreachableConfiguration = errors.New("bbo: unreachable optimizer configuration")
)
