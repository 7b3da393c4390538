package bbo

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//////
// Categorical inputs: plain, descriptor-backed and task.
//////

// CategoricalInput is a feature over an ordered set of unique category
// labels. The parallel allowed mask excludes categories from sampling and
// optimization without removing them from the encoding layout.
type CategoricalInput struct {
	key        string
	categories []string
	allowed    []bool
}

// NewCategoricalInput creates a categorical feature with every category
// allowed.
func NewCategoricalInput(key string, categories ...string) (CategoricalInput, error) {
	allowed := make([]bool, len(categories))
	for i := range allowed {
		allowed[i] = true
	}

	return NewCategoricalInputWithAllowed(key, categories, allowed)
}

// NewCategoricalInputWithAllowed creates a categorical feature with an
// explicit allowed mask.
func NewCategoricalInputWithAllowed(key string, categories []string, allowed []bool) (CategoricalInput, error) {
	f := CategoricalInput{
		key:        key,
		categories: append([]string(nil), categories...),
		allowed:    append([]bool(nil), allowed...),
	}
	if err := f.Validate(); err != nil {
		return CategoricalInput{}, err
	}

	return f, nil
}

// Key returns the feature key.
func (f CategoricalInput) Key() string { return f.key }

// Categories returns a copy of the ordered category labels.
func (f CategoricalInput) Categories() []string { return append([]string(nil), f.categories...) }

// AllowedCategories returns the categories whose mask entry is true, in
// declaration order.
func (f CategoricalInput) AllowedCategories() []string {
	var out []string
	for i, c := range f.categories {
		if f.allowed[i] {
			out = append(out, c)
		}
	}

	return out
}

// ForbiddenCategories returns the categories whose mask entry is false.
func (f CategoricalInput) ForbiddenCategories() []string {
	var out []string
	for i, c := range f.categories {
		if !f.allowed[i] {
			out = append(out, c)
		}
	}

	return out
}

// Validate reports all schema violations of the feature.
func (f CategoricalInput) Validate() error {
	var errs []error

	if f.key == "" {
		errs = append(errs, fmt.Errorf("%w: empty feature key", ErrUnknownFeature))
	}

	if len(f.categories) == 0 {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has no categories", ErrNoAllowedCategory, f.key,
		))
	}

	seen := make(map[string]struct{}, len(f.categories))
	for _, c := range f.categories {
		if _, dup := seen[c]; dup {
			errs = append(errs, fmt.Errorf(
				"%w: feature %q repeats category %q", ErrDuplicateCategory, f.key, c,
			))
		}
		seen[c] = struct{}{}
	}

	if len(f.allowed) != len(f.categories) {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has %d categories but %d allowed entries",
			ErrDimensionMismatch, f.key, len(f.categories), len(f.allowed),
		))
	} else if len(f.categories) > 0 && len(f.AllowedCategories()) == 0 {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q forbids every category", ErrNoAllowedCategory, f.key,
		))
	}

	return joinErrors(errs)
}

// DefaultEncoding returns OneHot.
func (f CategoricalInput) DefaultEncoding() Encoding { return OneHot }

// SupportsEncoding reports whether enc is OneHot, Ordinal or Dummy.
func (f CategoricalInput) SupportsEncoding(enc Encoding) bool {
	return enc == OneHot || enc == Ordinal || enc == Dummy
}

// Columns returns the column count under enc: N for one-hot, 1 for ordinal,
// N-1 for dummy.
func (f CategoricalInput) Columns(enc Encoding) int {
	switch enc {
	case OneHot:
		return len(f.categories)
	case Dummy:
		return len(f.categories) - 1
	default:
		return 1
	}
}

// ColumnNames returns key_category names for one-hot and dummy columns, and
// the bare key for ordinal.
func (f CategoricalInput) ColumnNames(enc Encoding) []string {
	switch enc {
	case OneHot:
		names := make([]string, len(f.categories))
		for i, c := range f.categories {
			names[i] = f.key + "_" + c
		}
		return names
	case Dummy:
		names := make([]string, 0, len(f.categories)-1)
		for _, c := range f.categories[1:] {
			names = append(names, f.key+"_"+c)
		}
		return names
	default:
		return []string{f.key}
	}
}

// TransformedBounds returns [0,1] per one-hot or dummy column and
// [0, N-1] for the ordinal rank column.
func (f CategoricalInput) TransformedBounds(enc Encoding, _ *float64) ([]float64, []float64, error) {
	switch enc {
	case OneHot, Dummy:
		n := f.Columns(enc)
		return make([]float64, n), ones(n), nil
	case Ordinal:
		return []float64{0}, []float64{float64(len(f.categories) - 1)}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s on categorical feature %q", ErrInvalidEncoding, enc, f.key)
	}
}

// categoryIndex returns the declaration-order rank of a category.
func (f CategoricalInput) categoryIndex(category string) (int, error) {
	for i, c := range f.categories {
		if c == category {
			return i, nil
		}
	}

	return 0, fmt.Errorf(
		"%w: feature %q has no category %q", ErrInvalidValue, f.key, category,
	)
}

// Encode maps a category label to its numeric columns under enc.
func (f CategoricalInput) Encode(value any, enc Encoding) ([]float64, error) {
	category, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects string, got %T", ErrInvalidValue, f.key, value)
	}

	idx, err := f.categoryIndex(category)
	if err != nil {
		return nil, err
	}

	switch enc {
	case OneHot:
		cols := make([]float64, len(f.categories))
		cols[idx] = 1
		return cols, nil
	case Ordinal:
		return []float64{float64(idx)}, nil
	case Dummy:
		cols := make([]float64, len(f.categories)-1)
		if idx > 0 {
			cols[idx-1] = 1
		}
		return cols, nil
	default:
		return nil, fmt.Errorf("%w: %s on categorical feature %q", ErrInvalidEncoding, enc, f.key)
	}
}

// Decode maps numeric columns back to a category label. One-hot picks the
// argmax column, ties broken by first occurrence; dummy treats an all-low row
// as the dropped first category; ordinal rounds and clamps the rank.
func (f CategoricalInput) Decode(columns []float64, enc Encoding) (any, error) {
	if want := f.Columns(enc); len(columns) != want {
		return nil, fmt.Errorf(
			"%w: feature %q expects %d columns, got %d",
			ErrDimensionMismatch, f.key, want, len(columns),
		)
	}

	switch enc {
	case OneHot:
		return f.categories[floats.MaxIdx(columns)], nil
	case Dummy:
		idx := floats.MaxIdx(columns)
		if columns[idx] < 0.5 {
			return f.categories[0], nil
		}
		return f.categories[idx+1], nil
	case Ordinal:
		rank := int(math.Round(columns[0]))
		rank = min(max(rank, 0), len(f.categories)-1)
		return f.categories[rank], nil
	default:
		return nil, fmt.Errorf("%w: %s on categorical feature %q", ErrInvalidEncoding, enc, f.key)
	}
}

// Sample draws n categories uniform over the allowed set.
func (f CategoricalInput) Sample(n int, rng *rand.Rand) []any {
	allowed := f.AllowedCategories()

	out := make([]any, n)
	for i := range out {
		out[i] = allowed[rng.Intn(len(allowed))]
	}

	return out
}

// ValidateValue checks membership in the allowed category set.
func (f CategoricalInput) ValidateValue(value any) (any, error) {
	category, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects string, got %T", ErrInvalidValue, f.key, value)
	}

	idx, err := f.categoryIndex(category)
	if err != nil {
		return nil, err
	}

	if !f.allowed[idx] {
		return nil, fmt.Errorf(
			"%w: feature %q category %q is not allowed", ErrInvalidValue, f.key, category,
		)
	}

	return category, nil
}

// FixedValue returns the category when exactly one is allowed.
func (f CategoricalInput) FixedValue() (any, bool) {
	allowed := f.AllowedCategories()
	if len(allowed) == 1 {
		return allowed[0], true
	}

	return nil, false
}

//////
// Descriptor categorical input.
//////

// CategoricalDescriptorInput is a categorical feature whose categories carry
// a numeric descriptor vector each. Under Descriptor encoding the feature
// occupies one column per descriptor, holding the chosen category's row of
// the descriptor matrix.
type CategoricalDescriptorInput struct {
	CategoricalInput

	descriptors []string
	values      *mat.Dense // categories x descriptors
}

// NewCategoricalDescriptorInput creates a descriptor categorical. values is
// row-major with one row per category and one column per descriptor name. A
// nil allowed mask permits every category.
func NewCategoricalDescriptorInput(
	key string,
	categories []string,
	allowed []bool,
	descriptors []string,
	values [][]float64,
) (CategoricalDescriptorInput, error) {
	if allowed == nil {
		allowed = make([]bool, len(categories))
		for i := range allowed {
			allowed[i] = true
		}
	}

	base := CategoricalInput{
		key:        key,
		categories: append([]string(nil), categories...),
		allowed:    append([]bool(nil), allowed...),
	}

	f := CategoricalDescriptorInput{
		CategoricalInput: base,
		descriptors:      append([]string(nil), descriptors...),
	}

	if len(values) == len(categories) {
		flat := make([]float64, 0, len(categories)*len(descriptors))
		valid := true
		for _, row := range values {
			if len(row) != len(descriptors) {
				valid = false
				break
			}
			flat = append(flat, row...)
		}
		if valid && len(categories) > 0 && len(descriptors) > 0 {
			f.values = mat.NewDense(len(categories), len(descriptors), flat)
		}
	}

	if err := f.Validate(); err != nil {
		return CategoricalDescriptorInput{}, err
	}

	return f, nil
}

// Descriptors returns a copy of the descriptor names.
func (f CategoricalDescriptorInput) Descriptors() []string {
	return append([]string(nil), f.descriptors...)
}

// DescriptorRow returns the descriptor vector of a category.
func (f CategoricalDescriptorInput) DescriptorRow(category string) ([]float64, error) {
	idx, err := f.categoryIndex(category)
	if err != nil {
		return nil, err
	}

	return mat.Row(nil, idx, f.values), nil
}

// Validate reports all schema violations of the feature.
func (f CategoricalDescriptorInput) Validate() error {
	var errs []error

	if err := f.CategoricalInput.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(f.descriptors) == 0 {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q has no descriptors", ErrDescriptorShape, f.key,
		))
	}

	if f.values == nil {
		errs = append(errs, fmt.Errorf(
			"%w: feature %q descriptor matrix must be %d x %d",
			ErrDescriptorShape, f.key, len(f.categories), len(f.descriptors),
		))
	}

	return joinErrors(errs)
}

// DefaultEncoding returns Descriptor.
func (f CategoricalDescriptorInput) DefaultEncoding() Encoding { return Descriptor }

// SupportsEncoding additionally admits Descriptor encoding.
func (f CategoricalDescriptorInput) SupportsEncoding(enc Encoding) bool {
	return enc == Descriptor || f.CategoricalInput.SupportsEncoding(enc)
}

// Columns returns the descriptor count under Descriptor encoding.
func (f CategoricalDescriptorInput) Columns(enc Encoding) int {
	if enc == Descriptor {
		return len(f.descriptors)
	}

	return f.CategoricalInput.Columns(enc)
}

// ColumnNames returns key_descriptor names under Descriptor encoding.
func (f CategoricalDescriptorInput) ColumnNames(enc Encoding) []string {
	if enc != Descriptor {
		return f.CategoricalInput.ColumnNames(enc)
	}

	names := make([]string, len(f.descriptors))
	for i, d := range f.descriptors {
		names[i] = f.key + "_" + d
	}

	return names
}

// TransformedBounds returns, under Descriptor encoding, the per-descriptor
// min and max over the rows of allowed categories.
func (f CategoricalDescriptorInput) TransformedBounds(enc Encoding, reference *float64) ([]float64, []float64, error) {
	if enc != Descriptor {
		return f.CategoricalInput.TransformedBounds(enc, reference)
	}

	lower := make([]float64, len(f.descriptors))
	upper := make([]float64, len(f.descriptors))

	for j := range f.descriptors {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range f.categories {
			if !f.allowed[i] {
				continue
			}
			v := f.values.At(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		lower[j], upper[j] = lo, hi
	}

	return lower, upper, nil
}

// Encode maps a category to its descriptor row under Descriptor encoding.
func (f CategoricalDescriptorInput) Encode(value any, enc Encoding) ([]float64, error) {
	if enc != Descriptor {
		return f.CategoricalInput.Encode(value, enc)
	}

	category, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: feature %q expects string, got %T", ErrInvalidValue, f.key, value)
	}

	return f.DescriptorRow(category)
}

// Decode maps a descriptor row back to the nearest allowed category by
// Euclidean distance, ties broken by declaration order.
func (f CategoricalDescriptorInput) Decode(columns []float64, enc Encoding) (any, error) {
	if enc != Descriptor {
		return f.CategoricalInput.Decode(columns, enc)
	}

	if len(columns) != len(f.descriptors) {
		return nil, fmt.Errorf(
			"%w: feature %q expects %d columns, got %d",
			ErrDimensionMismatch, f.key, len(f.descriptors), len(columns),
		)
	}

	best, bestDist := -1, math.Inf(1)
	for i := range f.categories {
		if !f.allowed[i] {
			continue
		}

		var dist float64
		for j := range columns {
			d := columns[j] - f.values.At(i, j)
			dist += d * d
		}

		if dist < bestDist {
			best, bestDist = i, dist
		}
	}

	return f.categories[best], nil
}

//////
// Task input.
//////

// TaskInput marks experiment task or fidelity membership for multi-task
// surrogates. It behaves like a categorical feature whose default encoding is
// the ordinal task index.
type TaskInput struct {
	CategoricalInput
}

// NewTaskInput creates a task feature with every task allowed.
func NewTaskInput(key string, tasks ...string) (TaskInput, error) {
	base, err := NewCategoricalInput(key, tasks...)
	if err != nil {
		return TaskInput{}, err
	}

	return TaskInput{CategoricalInput: base}, nil
}

// DefaultEncoding returns Ordinal; multi-task surrogates consume the task
// index as a single column.
func (f TaskInput) DefaultEncoding() Encoding { return Ordinal }
