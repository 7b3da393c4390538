package bbo

import "fmt"

//////
// Constraints over the input space.
//////

// ConstraintKind distinguishes linear equality from inequality constraints.
type ConstraintKind int

const (
	// Equality requires sum(coefficients*x) == rhs.
	Equality ConstraintKind = iota

	// Inequality requires sum(coefficients*x) <= rhs.
	Inequality
)

// LinearConstraint is a linear relation over a subset of continuous feature
// keys: sum_i coefficients[i]*x[features[i]] (==|<=) rhs.
type LinearConstraint struct {
	Kind         ConstraintKind
	Features     []string
	Coefficients []float64
	RHS          float64
}

// validate checks the constraint's shape against a key lookup reporting
// whether a key names a continuous input.
func (c LinearConstraint) validate(isContinuous func(key string) bool) error {
	var errs []error

	if len(c.Features) == 0 {
		errs = append(errs, fmt.Errorf(
			"%w: linear constraint references no features", ErrInvalidConstraint,
		))
	}

	if len(c.Features) != len(c.Coefficients) {
		errs = append(errs, fmt.Errorf(
			"%w: linear constraint has %d features but %d coefficients",
			ErrInvalidConstraint, len(c.Features), len(c.Coefficients),
		))
	}

	for _, key := range c.Features {
		if !isContinuous(key) {
			errs = append(errs, fmt.Errorf(
				"%w: linear constraint references %q, which is not a continuous input",
				ErrInvalidConstraint, key,
			))
		}
	}

	return joinErrors(errs)
}

// NChooseKConstraint restricts how many features of a group may be active
// (nonzero) at the same time.
type NChooseKConstraint struct {
	// Features is the constrained group of continuous feature keys.
	Features []string

	// MinCount and MaxCount bound the number of active features, inclusive.
	MinCount int
	MaxCount int

	// NoneAlsoValid additionally permits the empty subset even when
	// MinCount is positive.
	NoneAlsoValid bool
}

// validate checks the constraint's shape against a key lookup reporting
// whether a key names a continuous input.
func (c NChooseKConstraint) validate(isContinuous func(key string) bool) error {
	var errs []error

	if len(c.Features) < 2 {
		errs = append(errs, fmt.Errorf(
			"%w: n-choose-k constraint needs at least two features, got %d",
			ErrInvalidConstraint, len(c.Features),
		))
	}

	if c.MinCount < 0 || c.MinCount > c.MaxCount || c.MaxCount > len(c.Features) {
		errs = append(errs, fmt.Errorf(
			"%w: n-choose-k constraint counts [%d, %d] invalid for %d features",
			ErrInvalidConstraint, c.MinCount, c.MaxCount, len(c.Features),
		))
	}

	for _, key := range c.Features {
		if !isContinuous(key) {
			errs = append(errs, fmt.Errorf(
				"%w: n-choose-k constraint references %q, which is not a continuous input",
				ErrInvalidConstraint, key,
			))
		}
	}

	return joinErrors(errs)
}

// LinearSystem is a linear constraint resolved to numeric column indices,
// the form handed to the acquisition optimizer.
type LinearSystem struct {
	Indices      []int
	Coefficients []float64
	RHS          float64
}
