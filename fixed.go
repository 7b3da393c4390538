package bbo

import "fmt"

//////
// Fixed-feature resolver.
//
// Computes the base assignment of pinned numeric columns for one
// optimization call: fixed features, forbidden one-hot categories under the
// Free method, and degenerate descriptor columns under the Free method.
//////

// forbidding is the capability shared by all categorical variants that the
// resolver needs beyond Input.
type forbidding interface {
	ForbiddenCategories() []string
}

// FixedFeatures resolves the fixed-feature assignment of the domain: a map
// from numeric column index to the pinned value.
//
// Three sources of pins:
//   - features with a single allowed value pin every column they own via
//     their encoding;
//   - free one-hot categoricals with forbidden categories pin the forbidden
//     one-hot columns to 0, so the continuous relaxation cannot place mass on
//     them;
//   - free descriptor categoricals pin descriptor columns whose
//     allowed-restricted minimum equals the maximum, since there is nothing
//     left to search over.
func FixedFeatures(d *Domain, spec TransformSpec, info TransformInfo, methods MethodSpec) (map[int]float64, error) {
	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return nil, err
	}

	fixed := make(map[int]float64)

	for _, in := range d.Inputs() {
		v, ok := in.FixedValue()
		if !ok {
			continue
		}

		cols, err := in.Encode(v, resolved[in.Key()])
		if err != nil {
			return nil, err
		}

		for j, idx := range info.Features2Idx[in.Key()] {
			fixed[idx] = cols[j]
		}
	}

	if methods.Categorical == Free {
		if err := pinForbiddenOneHot(d, resolved, info, fixed); err != nil {
			return nil, err
		}
	}

	if methods.Descriptor == Free {
		if err := pinDegenerateDescriptors(d, resolved, info, fixed); err != nil {
			return nil, err
		}
	}

	return fixed, nil
}

// pinForbiddenOneHot pins the one-hot columns of forbidden categories to 0
// for every free, one-hot-encoded categorical feature. This duplicates what
// the bounds already express, but keeps the relaxation safe when the
// optimizer is handed the full box.
func pinForbiddenOneHot(d *Domain, resolved TransformSpec, info TransformInfo, fixed map[int]float64) error {
	for _, in := range d.Inputs() {
		cat, ok := in.(forbidding)
		if !ok || resolved[in.Key()] != OneHot {
			continue
		}

		if _, isFixed := in.FixedValue(); isFixed {
			continue
		}

		for _, forbidden := range cat.ForbiddenCategories() {
			cols, err := in.Encode(forbidden, OneHot)
			if err != nil {
				return err
			}

			for j, idx := range info.Features2Idx[in.Key()] {
				if cols[j] == 1 {
					fixed[idx] = 0
				}
			}
		}
	}

	return nil
}

// pinDegenerateDescriptors pins descriptor columns with no freedom left:
// after restricting the descriptor matrix to allowed categories, a column
// whose minimum equals its maximum is a constant.
func pinDegenerateDescriptors(d *Domain, resolved TransformSpec, info TransformInfo, fixed map[int]float64) error {
	for _, in := range d.Inputs() {
		desc, ok := in.(CategoricalDescriptorInput)
		if !ok || resolved[in.Key()] != Descriptor {
			continue
		}

		if _, isFixed := in.FixedValue(); isFixed {
			continue
		}

		lower, upper, err := desc.TransformedBounds(Descriptor, nil)
		if err != nil {
			return err
		}

		idx := info.Features2Idx[in.Key()]
		if len(idx) != len(lower) {
			return fmt.Errorf(
				"%w: feature %q layout has %d columns, bounds have %d",
				ErrDimensionMismatch, in.Key(), len(idx), len(lower),
			)
		}

		for j := range lower {
			if lower[j] == upper[j] {
				fixed[idx[j]] = lower[j]
			}
		}
	}

	return nil
}
