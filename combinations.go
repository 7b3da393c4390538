package bbo

import (
	"fmt"

	"gonum.org/v1/gonum/stat/combin"
)

//////
// Combinatorial enumerators.
//
// CategoricalCombinations enumerates the cross-product of all exhaustive
// categorical and discrete assignments; NChooseKCombinations enumerates the
// active subsets of cardinality constraints; FixedValuesList composes both
// into the list handed to the mixed acquisition optimizer.
//////

// enumeratedFeature is one feature participating in exhaustive enumeration:
// its allowed values and the columns they pin.
type enumeratedFeature struct {
	in     Input
	enc    Encoding
	idx    []int
	values []any
}

// CategoricalCombinations produces one fixed-feature assignment per element
// of the cross-product of all exhaustively enumerated feature classes,
// overlaid on a clone of the base assignment from FixedFeatures.
//
// Class membership: discrete features are enumerated when the discrete
// method is Exhaustive; plain categorical and task features when the
// categorical method is Exhaustive; descriptor categoricals only when the
// descriptor method is Exhaustive (the descriptor class takes precedence, so
// a descriptor feature is never double-counted under the categorical class).
//
// The result order is the cross-product's lexicographic order over the
// enumerated features in declaration order. With nothing to enumerate, or a
// size-1 cross-product, the result is a single clone of base.
func CategoricalCombinations(
	d *Domain,
	spec TransformSpec,
	info TransformInfo,
	base map[int]float64,
	methods MethodSpec,
) ([]map[int]float64, error) {
	if methods.allFree() {
		return []map[int]float64{cloneFixed(base)}, nil
	}

	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return nil, err
	}

	var enumerated []enumeratedFeature

	for _, in := range d.Inputs() {
		var values []any

		switch f := in.(type) {
		case DiscreteInput:
			if methods.Discrete == Exhaustive {
				for _, v := range f.Values() {
					values = append(values, v)
				}
			}
		case CategoricalDescriptorInput:
			if methods.Descriptor == Exhaustive {
				for _, c := range f.AllowedCategories() {
					values = append(values, c)
				}
			}
		case TaskInput:
			if methods.Categorical == Exhaustive {
				for _, c := range f.AllowedCategories() {
					values = append(values, c)
				}
			}
		case CategoricalInput:
			if methods.Categorical == Exhaustive {
				for _, c := range f.AllowedCategories() {
					values = append(values, c)
				}
			}
		}

		if len(values) == 0 {
			continue
		}

		enumerated = append(enumerated, enumeratedFeature{
			in:     in,
			enc:    resolved[in.Key()],
			idx:    info.Features2Idx[in.Key()],
			values: values,
		})
	}

	if len(enumerated) == 0 {
		return []map[int]float64{cloneFixed(base)}, nil
	}

	lens := make([]int, len(enumerated))
	for i, ef := range enumerated {
		lens[i] = len(ef.values)
	}

	product := combin.Cartesian(lens)
	if len(product) == 0 {
		return nil, fmt.Errorf(
			"%w: categorical cross-product is empty", ErrEmptyEnumeration,
		)
	}

	// Degenerate cross-product: every enumerated feature has one allowed
	// value, so the base assignment already pins everything reachable.
	if len(product) == 1 {
		return []map[int]float64{cloneFixed(base)}, nil
	}

	out := make([]map[int]float64, 0, len(product))

	for _, tuple := range product {
		ff := cloneFixed(base)

		for i, ef := range enumerated {
			cols, err := ef.in.Encode(ef.values[tuple[i]], ef.enc)
			if err != nil {
				return nil, err
			}

			for j, idx := range ef.idx {
				ff[idx] = cols[j]
			}
		}

		out = append(out, ff)
	}

	return out, nil
}

// NChooseKCombinations enumerates, for every cardinality constraint, each
// subset of the constrained group whose size lies in [MinCount, MaxCount]
// (plus the empty subset when NoneAlsoValid), pinning the complement to 0 by
// column index. Multiple constraints compose by cartesian product with
// merged pins. With no constraints the result is a single empty assignment,
// never an empty list.
func NChooseKCombinations(d *Domain, info TransformInfo) ([]map[int]float64, error) {
	constraints := d.NChooseKConstraints()
	if len(constraints) == 0 {
		return []map[int]float64{{}}, nil
	}

	result := []map[int]float64{{}}

	for _, c := range constraints {
		combos, err := nChooseKSubsets(c, info)
		if err != nil {
			return nil, err
		}

		next := make([]map[int]float64, 0, len(result)*len(combos))
		for _, acc := range result {
			for _, combo := range combos {
				merged := cloneFixed(acc)
				for idx, v := range combo {
					merged[idx] = v
				}
				next = append(next, merged)
			}
		}

		result = next
	}

	if len(result) == 0 {
		return nil, fmt.Errorf(
			"%w: n-choose-k enumeration is empty", ErrEmptyEnumeration,
		)
	}

	return result, nil
}

// nChooseKSubsets enumerates the subset assignments of one constraint.
func nChooseKSubsets(c NChooseKConstraint, info TransformInfo) ([]map[int]float64, error) {
	columns := make([]int, len(c.Features))
	for i, key := range c.Features {
		idx, ok := info.Features2Idx[key]
		if !ok || len(idx) != 1 {
			return nil, fmt.Errorf(
				"%w: n-choose-k constraint references %q, which has no single column",
				ErrInvalidConstraint, key,
			)
		}
		columns[i] = idx[0]
	}

	// allPinned is the "none active" assignment.
	allPinned := func() map[int]float64 {
		ff := make(map[int]float64, len(columns))
		for _, idx := range columns {
			ff[idx] = 0
		}
		return ff
	}

	var out []map[int]float64

	for k := c.MinCount; k <= c.MaxCount; k++ {
		if k == 0 {
			out = append(out, allPinned())
			continue
		}

		for _, active := range combin.Combinations(len(columns), k) {
			ff := allPinned()
			for _, i := range active {
				delete(ff, columns[i])
			}
			out = append(out, ff)
		}
	}

	if c.NoneAlsoValid && c.MinCount > 0 {
		out = append(out, allPinned())
	}

	return out, nil
}

// FixedValuesList composes the categorical combinations with the n-choose-k
// combinations by cartesian product, shallow-merging each pair. N-choose-k
// pins win on key collision; a collision indicates a contradictory
// constraint set and is the caller's responsibility.
func FixedValuesList(categorical, nChooseK []map[int]float64) []map[int]float64 {
	out := make([]map[int]float64, 0, len(categorical)*len(nChooseK))

	for _, ff1 := range categorical {
		for _, ff2 := range nChooseK {
			merged := cloneFixed(ff1)
			for idx, v := range ff2 {
				merged[idx] = v
			}
			out = append(out, merged)
		}
	}

	return out
}
