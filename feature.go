package bbo

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Search-space features.
//
// Every feature is an immutable value object constructed once when the domain
// is defined. The Input interface is the closed capability set each variant
// implements: column layout, encode/decode, transformed bounds, sampling,
// candidate validation and fixed-value resolution.
//////

// boundaryNoise guards floating-point rounding when validating continuous
// values at the bounds.
const boundaryNoise = 1e-5

// Input is a named search-space dimension. The concrete variants form a
// closed set: ContinuousInput, CategoricalInput, CategoricalDescriptorInput,
// DiscreteInput and TaskInput.
type Input interface {
	// Key returns the feature's unique name within a domain.
	Key() string

	// DefaultEncoding returns the encoding used when the transform spec
	// does not name one for this feature.
	DefaultEncoding() Encoding

	// SupportsEncoding reports whether the feature can be represented with
	// the given encoding.
	SupportsEncoding(enc Encoding) bool

	// Columns returns how many numeric columns the feature occupies under
	// the given encoding.
	Columns(enc Encoding) int

	// ColumnNames returns the generated column names, parallel to Columns.
	ColumnNames(enc Encoding) []string

	// TransformedBounds returns per-column lower and upper bounds. For
	// continuous features a non-nil reference value tightens the bounds to
	// the feature's local relative window around it.
	TransformedBounds(enc Encoding, reference *float64) (lower, upper []float64, err error)

	// Encode maps a feature value (float64 for numeric features, string for
	// categorical ones) to its numeric columns.
	Encode(value any, enc Encoding) ([]float64, error)

	// Decode inverts Encode. One-hot and dummy decoding pick the argmax
	// column, ties broken by first occurrence.
	Decode(columns []float64, enc Encoding) (any, error)

	// Sample draws n independent uniform values from the feature's allowed
	// set using the supplied generator.
	Sample(n int, rng *rand.Rand) []any

	// ValidateValue checks a single value against the feature's allowed
	// range and returns it, snapped to the feature's grid where one exists.
	ValidateValue(value any) (any, error)

	// FixedValue returns the single allowed value of the feature, if the
	// feature admits exactly one.
	FixedValue() (any, bool)

	// Validate reports all schema violations of the feature itself.
	Validate() error
}

//////
// Continuous input.
//////

// Window is a local relative bound window: the search interval is tightened
// to [reference-Left, reference+Right], clipped to the global bounds.
type Window struct {
	Left  float64
	Right float64
}

// ContinuousInput is a real-valued feature bounded by [lower, upper], with an
// optional stepsize grid and an optional local relative bound window.
//
// Usage example:
//
//	f, err := bbo.NewContinuousInput("temperature", 20, 90)
type ContinuousInput struct {
	key      string
	lower    float64
	upper    float64
	stepsize float64
	window   *Window
}

// NewContinuousInput creates a continuous feature and validates its bounds.
func NewContinuousInput(key string, lower, upper float64) (ContinuousInput, error) {
	f := ContinuousInput{key: key, lower: lower, upper: upper}
	if err := f.Validate(); err != nil {
		return ContinuousInput{}, err
	}

	return f, nil
}

// WithStepsize returns a copy of the feature restricted to the grid
// lower + i*stepsize. The grid must land exactly on the upper bound and admit
// at least three points.
func (f ContinuousInput) WithStepsize(stepsize float64) (ContinuousInput, error) {
	f.stepsize = stepsize
	if err := f.Validate(); err != nil {
		return ContinuousInput{}, err
	}

	return f, nil
}

// WithLocalWindow returns a copy of the feature carrying a local relative
// bound window. Both sides must be positive.
func (f ContinuousInput) WithLocalWindow(left, right float64) (ContinuousInput, error) {
	f.window = &Window{Left: left, Right: right}
	if err := f.Validate(); err != nil {
		return ContinuousInput{}, err
	}

	return f, nil
}

// Key returns the feature key.
func (f ContinuousInput) Key() string { return f.key }

// Bounds returns the global lower and upper bound.
func (f ContinuousInput) Bounds() (lower, upper float64) { return f.lower, f.upper }

// Stepsize returns the grid stepsize, zero when the feature is continuous.
func (f ContinuousInput) Stepsize() float64 { return f.stepsize }

// Validate reports all schema violations of the feature.
func (f ContinuousInput) Validate() error {
	var errs []error

	if f.key == "" {
		errs = append(errs, fmt.Errorf("%w: empty feature key", ErrUnknownFeature))
	}

	if f.lower > f.upper {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has bounds [%v, %v]",
			ErrInvalidBounds, f.key, f.lower, f.upper,
		))
	}

	if f.stepsize != 0 {
		if err := f.validateStepsize(); err != nil {
			errs = append(errs, err)
		}
	}

	if f.window != nil && (f.window.Left <= 0 || f.window.Right <= 0) {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q local window sides must be positive",
			ErrInvalidBounds, f.key,
		))
	}

	return joinErrors(errs)
}

func (f ContinuousInput) validateStepsize() error {
	if f.stepsize < 0 {
		return fmt.Errorf(
			"%w: feature %q has negative stepsize %v",
			ErrInvalidStepsize, f.key, f.stepsize,
		)
	}

	if f.lower == f.upper {
		return fmt.Errorf(
			"%w: feature %q is fixed, a stepsize cannot be provided",
			ErrInvalidStepsize, f.key,
		)
	}

	steps := (f.upper - f.lower) / f.stepsize
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return fmt.Errorf(
			"%w: feature %q stepsize %v does not land on the interval [%v, %v]",
			ErrInvalidStepsize, f.key, f.stepsize, f.lower, f.upper,
		)
	}

	if math.Round(steps) < 2 {
		return fmt.Errorf(
			"%w: feature %q stepsize %v is too big, only one step fits",
			ErrInvalidStepsize, f.key, f.stepsize,
		)
	}

	return nil
}

// DefaultEncoding returns NoEncoding; continuous features are identity
// columns.
func (f ContinuousInput) DefaultEncoding() Encoding { return NoEncoding }

// SupportsEncoding reports whether enc is NoEncoding.
func (f ContinuousInput) SupportsEncoding(enc Encoding) bool { return enc == NoEncoding }

// Columns returns 1.
func (f ContinuousInput) Columns(Encoding) int { return 1 }

// ColumnNames returns the feature key itself.
func (f ContinuousInput) ColumnNames(Encoding) []string { return []string{f.key} }

// TransformedBounds returns the global bounds, or the local relative window
// around reference when one is configured and the feature is not fixed.
func (f ContinuousInput) TransformedBounds(enc Encoding, reference *float64) ([]float64, []float64, error) {
	if !f.SupportsEncoding(enc) {
		return nil, nil, fmt.Errorf("%w: %s on continuous feature %q", ErrInvalidEncoding, enc, f.key)
	}

	if reference == nil || f.lower == f.upper {
		return []float64{f.lower}, []float64{f.upper}, nil
	}

	left, right := math.Inf(1), math.Inf(1)
	if f.window != nil {
		left, right = f.window.Left, f.window.Right
	}

	lower := math.Max(*reference-left, f.lower)
	upper := math.Min(*reference+right, f.upper)

	return []float64{lower}, []float64{upper}, nil
}

// Encode maps a float64 value to its single identity column.
func (f ContinuousInput) Encode(value any, enc Encoding) ([]float64, error) {
	if !f.SupportsEncoding(enc) {
		return nil, fmt.Errorf("%w: %s on continuous feature %q", ErrInvalidEncoding, enc, f.key)
	}

	v, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects float64, got %T", ErrInvalidValue, f.key, value)
	}

	return []float64{v}, nil
}

// Decode returns the identity column as a float64.
func (f ContinuousInput) Decode(columns []float64, enc Encoding) (any, error) {
	if !f.SupportsEncoding(enc) {
		return nil, fmt.Errorf("%w: %s on continuous feature %q", ErrInvalidEncoding, enc, f.key)
	}

	if len(columns) != 1 {
		return nil, fmt.Errorf("%w: feature %q expects 1 column, got %d", ErrDimensionMismatch, f.key, len(columns))
	}

	return columns[0], nil
}

// Sample draws n values uniform in [lower, upper].
func (f ContinuousInput) Sample(n int, rng *rand.Rand) []any {
	dist := distuv.Uniform{Min: f.lower, Max: f.upper, Src: rng}

	out := make([]any, n)
	for i := range out {
		if f.lower == f.upper {
			out[i] = f.lower
			continue
		}
		out[i] = dist.Rand()
	}

	return out
}

// ValidateValue checks the bounds within boundaryNoise tolerance and snaps
// the value to the stepsize grid, ties toward the lower grid point.
func (f ContinuousInput) ValidateValue(value any) (any, error) {
	v, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects float64, got %T", ErrInvalidValue, f.key, value)
	}

	if v < f.lower-boundaryNoise || v > f.upper+boundaryNoise {
		return nil, fmt.Errorf(
			"%w: feature %q value %v outside [%v, %v]",
			ErrInvalidValue, f.key, v, f.lower, f.upper,
		)
	}

	if f.stepsize == 0 {
		return v, nil
	}

	return f.round(v), nil
}

// round snaps v to the nearest grid point lower + i*stepsize.
func (f ContinuousInput) round(v float64) float64 {
	r := (v - f.lower) / f.stepsize

	idx := math.Floor(r)
	if r-idx > 0.5 {
		idx++
	}

	steps := math.Round((f.upper - f.lower) / f.stepsize)
	idx = math.Min(math.Max(idx, 0), steps)

	return f.lower + idx*f.stepsize
}

// FixedValue returns the bound value when lower equals upper.
func (f ContinuousInput) FixedValue() (any, bool) {
	if f.lower == f.upper {
		return f.lower, true
	}

	return nil, false
}

//////
// Discrete input.
//////

// DiscreteInput is a feature restricted to a finite ordered set of numeric
// values. A single-valued discrete feature is rejected at construction:
// model a constant with a fixed continuous input (and no stepsize) instead.
type DiscreteInput struct {
	key    string
	values []float64
}

// NewDiscreteInput creates a discrete feature from its allowed values. The
// values are deduplicated and stored sorted.
func NewDiscreteInput(key string, values ...float64) (DiscreteInput, error) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}

	f := DiscreteInput{key: key, values: distinct}
	if err := f.Validate(); err != nil {
		return DiscreteInput{}, err
	}

	return f, nil
}

// Key returns the feature key.
func (f DiscreteInput) Key() string { return f.key }

// Values returns a copy of the sorted allowed values.
func (f DiscreteInput) Values() []float64 { return append([]float64(nil), f.values...) }

// Validate reports all schema violations of the feature.
func (f DiscreteInput) Validate() error {
	var errs []error

	if f.key == "" {
		errs = append(errs, fmt.Errorf("%w: empty feature key", ErrUnknownFeature))
	}

	if len(f.values) == 1 {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has the single value %v; fixed discrete features are "+
				"not supported, use a fixed continuous input without stepsize instead",
			ErrFixedDiscrete, f.key, f.values[0],
		))
	} else if len(f.values) < 2 {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has no values", ErrFixedDiscrete, f.key,
		))
	}

	return joinErrors(errs)
}

// DefaultEncoding returns NoEncoding; discrete features are identity columns.
func (f DiscreteInput) DefaultEncoding() Encoding { return NoEncoding }

// SupportsEncoding reports whether enc is NoEncoding.
func (f DiscreteInput) SupportsEncoding(enc Encoding) bool { return enc == NoEncoding }

// Columns returns 1.
func (f DiscreteInput) Columns(Encoding) int { return 1 }

// ColumnNames returns the feature key itself.
func (f DiscreteInput) ColumnNames(Encoding) []string { return []string{f.key} }

// TransformedBounds returns the smallest and largest allowed value, the
// relaxation used when the discrete class is optimized Free.
func (f DiscreteInput) TransformedBounds(enc Encoding, _ *float64) ([]float64, []float64, error) {
	if !f.SupportsEncoding(enc) {
		return nil, nil, fmt.Errorf("%w: %s on discrete feature %q", ErrInvalidEncoding, enc, f.key)
	}

	return []float64{f.values[0]}, []float64{f.values[len(f.values)-1]}, nil
}

// Encode maps a float64 value to its single identity column.
func (f DiscreteInput) Encode(value any, enc Encoding) ([]float64, error) {
	if !f.SupportsEncoding(enc) {
		return nil, fmt.Errorf("%w: %s on discrete feature %q", ErrInvalidEncoding, enc, f.key)
	}

	v, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects float64, got %T", ErrInvalidValue, f.key, value)
	}

	return []float64{v}, nil
}

// Decode returns the identity column as a float64. Snapping to the allowed
// grid is ValidateValue's job.
func (f DiscreteInput) Decode(columns []float64, enc Encoding) (any, error) {
	if !f.SupportsEncoding(enc) {
		return nil, fmt.Errorf("%w: %s on discrete feature %q", ErrInvalidEncoding, enc, f.key)
	}

	if len(columns) != 1 {
		return nil, fmt.Errorf("%w: feature %q expects 1 column, got %d", ErrDimensionMismatch, f.key, len(columns))
	}

	return columns[0], nil
}

// Sample draws n values uniform over the allowed value set.
func (f DiscreteInput) Sample(n int, rng *rand.Rand) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = f.values[rng.Intn(len(f.values))]
	}

	return out
}

// ValidateValue snaps the value to the nearest allowed grid point on the
// sorted value array, ties broken toward the lower value.
func (f DiscreteInput) ValidateValue(value any) (any, error) {
	v, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects float64, got %T", ErrInvalidValue, f.key, value)
	}

	return f.values[nearestIndex(f.values, v)], nil
}

// FixedValue never triggers: construction guarantees at least two values.
func (f DiscreteInput) FixedValue() (any, bool) { return nil, false }

//////
// Continuous output.
//////

// ContinuousOutput is a measured quantity with an optimization objective.
type ContinuousOutput struct {
	key       string
	objective Objective
}

// NewContinuousOutput creates an output feature. A zero weight defaults to 1.
func NewContinuousOutput(key string, objective Objective) (ContinuousOutput, error) {
	if key == "" {
		return ContinuousOutput{}, fmt.Errorf("%w: empty output key", ErrUnknownFeature)
	}

	if objective.Weight == 0 {
		objective.Weight = 1
	}

	return ContinuousOutput{key: key, objective: objective}, nil
}

// Key returns the output key.
func (o ContinuousOutput) Key() string { return o.key }

// Objective returns the output's optimization objective.
func (o ContinuousOutput) Objective() Objective { return o.objective }
