package bbo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//////
// Transform registry: the column-index layout of the flattened numeric
// tensor. Derived from the domain and the transform spec, never stored.
//////

// TransformInfo is the column layout of a domain under a resolved transform
// spec: per-feature column indices and generated column names, plus the total
// tensor width. Recompute it whenever the domain or the spec changes;
// GetTransformInfo is pure, so identical inputs always yield identical
// layouts.
type TransformInfo struct {
	Features2Idx   map[string][]int
	Features2Names map[string][]string
	Width          int
}

// ColumnNames returns all generated column names in declaration order.
func (info TransformInfo) ColumnNames(d *Domain) []string {
	names := make([]string, 0, info.Width)
	for _, in := range d.Inputs() {
		names = append(names, info.Features2Names[in.Key()]...)
	}

	return names
}

// ResolveTransformSpec fills the per-variant default encoding for every key
// the spec does not name and rejects encodings a feature does not support as
// well as keys unknown to the domain.
func ResolveTransformSpec(d *Domain, spec TransformSpec) (TransformSpec, error) {
	var errs []error

	resolved := make(TransformSpec, len(d.Inputs()))

	for key := range spec {
		if _, err := d.InputByKey(key); err != nil {
			errs = append(errs, fmt.Errorf(
				"%w: transform spec names unknown feature %q", ErrUnknownFeature, key,
			))
		}
	}

	for _, in := range d.Inputs() {
		enc, named := spec[in.Key()]
		if !named {
			enc = in.DefaultEncoding()
		}

		if !in.SupportsEncoding(enc) {
			errs = append(errs, fmt.Errorf(
				"%w: %s on feature %q", ErrInvalidEncoding, enc, in.Key(),
			))
			continue
		}

		resolved[in.Key()] = enc
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}

	return resolved, nil
}

// GetTransformInfo walks the input features in declaration order and
// allocates sequential column indices and names per feature according to the
// transform spec. Idempotent and side-effect-free.
func GetTransformInfo(d *Domain, spec TransformSpec) (TransformInfo, error) {
	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return TransformInfo{}, err
	}

	info := TransformInfo{
		Features2Idx:   make(map[string][]int),
		Features2Names: make(map[string][]string),
	}

	offset := 0
	for _, in := range d.Inputs() {
		enc := resolved[in.Key()]

		n := in.Columns(enc)
		idx := make([]int, n)
		for j := range idx {
			idx[j] = offset + j
		}

		info.Features2Idx[in.Key()] = idx
		info.Features2Names[in.Key()] = in.ColumnNames(enc)
		offset += n
	}

	info.Width = offset

	return info, nil
}

// TransformExperiments encodes the input side of the experiments into the
// flattened numeric tensor, one row per experiment.
func TransformExperiments(d *Domain, spec TransformSpec, exps []Experiment) (*mat.Dense, error) {
	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return nil, err
	}

	info, err := GetTransformInfo(d, resolved)
	if err != nil {
		return nil, err
	}

	x := mat.NewDense(len(exps), info.Width, nil)

	for i, e := range exps {
		for _, in := range d.Inputs() {
			v, ok := e.Inputs[in.Key()]
			if !ok {
				return nil, fmt.Errorf(
					"%w: experiment %d misses input %q", ErrInvalidValue, i, in.Key(),
				)
			}

			cols, err := in.Encode(v, resolved[in.Key()])
			if err != nil {
				return nil, err
			}

			for j, idx := range info.Features2Idx[in.Key()] {
				x.Set(i, idx, cols[j])
			}
		}
	}

	return x, nil
}

// InverseTransformPoint decodes one row of the numeric tensor back to feature
// values by key.
func InverseTransformPoint(d *Domain, spec TransformSpec, info TransformInfo, x []float64) (map[string]any, error) {
	if len(x) != info.Width {
		return nil, fmt.Errorf(
			"%w: point has %d columns, layout expects %d",
			ErrDimensionMismatch, len(x), info.Width,
		)
	}

	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(d.Inputs()))

	for _, in := range d.Inputs() {
		idx := info.Features2Idx[in.Key()]

		cols := make([]float64, len(idx))
		for j, c := range idx {
			cols[j] = x[c]
		}

		v, err := in.Decode(cols, resolved[in.Key()])
		if err != nil {
			return nil, err
		}

		values[in.Key()] = v
	}

	return values, nil
}

// DomainBounds assembles the per-column lower and upper bounds of the whole
// transformed tensor in declaration order.
func DomainBounds(d *Domain, spec TransformSpec) (Bounds, error) {
	resolved, err := ResolveTransformSpec(d, spec)
	if err != nil {
		return Bounds{}, err
	}

	var b Bounds
	for _, in := range d.Inputs() {
		lower, upper, err := in.TransformedBounds(resolved[in.Key()], nil)
		if err != nil {
			return Bounds{}, err
		}

		b.Lower = append(b.Lower, lower...)
		b.Upper = append(b.Upper, upper...)
	}

	return b, nil
}

// LinearSystems resolves the domain's linear constraints of one kind to
// numeric column indices.
func LinearSystems(d *Domain, info TransformInfo, kind ConstraintKind) ([]LinearSystem, error) {
	var out []LinearSystem

	for _, c := range d.LinearConstraints(kind) {
		sys := LinearSystem{
			Coefficients: append([]float64(nil), c.Coefficients...),
			RHS:          c.RHS,
		}

		for _, key := range c.Features {
			idx, ok := info.Features2Idx[key]
			if !ok || len(idx) != 1 {
				return nil, fmt.Errorf(
					"%w: linear constraint references %q, which has no single column",
					ErrInvalidConstraint, key,
				)
			}
			sys.Indices = append(sys.Indices, idx[0])
		}

		out = append(out, sys)
	}

	return out, nil
}
