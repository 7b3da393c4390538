package bbo

import "fmt"

//////
// Domain: the read-only description of the optimization problem.
//////

// Domain bundles the ordered input features, the output features and the
// constraint list. It is the sole source of truth for the transform registry
// and the enumerators, immutable after construction.
type Domain struct {
	inputs      []Input
	outputs     []ContinuousOutput
	linear      []LinearConstraint
	nChooseK    []NChooseKConstraint
	inputByKey  map[string]Input
	outputByKey map[string]ContinuousOutput
}

// DomainConfig collects the parts of a domain for NewDomain.
type DomainConfig struct {
	Inputs   []Input
	Outputs  []ContinuousOutput
	Linear   []LinearConstraint
	NChooseK []NChooseKConstraint
}

// NewDomain validates the full configuration and returns the immutable
// domain. Validation runs over every feature and constraint and returns all
// violations joined into a single error rather than stopping at the first.
func NewDomain(cfg DomainConfig) (*Domain, error) {
	d := &Domain{
		inputs:      append([]Input(nil), cfg.Inputs...),
		outputs:     append([]ContinuousOutput(nil), cfg.Outputs...),
		linear:      append([]LinearConstraint(nil), cfg.Linear...),
		nChooseK:    append([]NChooseKConstraint(nil), cfg.NChooseK...),
		inputByKey:  make(map[string]Input, len(cfg.Inputs)),
		outputByKey: make(map[string]ContinuousOutput, len(cfg.Outputs)),
	}

	var errs []error

	if len(d.inputs) == 0 {
		errs = append(errs, fmt.Errorf("%w: domain has no inputs", ErrUnknownFeature))
	}

	seen := make(map[string]struct{}, len(d.inputs)+len(d.outputs))
	for _, in := range d.inputs {
		if err := in.Validate(); err != nil {
			errs = append(errs, err)
		}
		if _, dup := seen[in.Key()]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateKey, in.Key()))
		}
		seen[in.Key()] = struct{}{}
		d.inputByKey[in.Key()] = in
	}

	for _, out := range d.outputs {
		if _, dup := seen[out.Key()]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateKey, out.Key()))
		}
		seen[out.Key()] = struct{}{}
		d.outputByKey[out.Key()] = out
	}

	isContinuous := func(key string) bool {
		_, ok := d.inputByKey[key].(ContinuousInput)
		return ok
	}
	for _, c := range d.linear {
		if err := c.validate(isContinuous); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range d.nChooseK {
		if err := c.validate(isContinuous); err != nil {
			errs = append(errs, err)
		}
	}

	if err := joinErrors(errs); err != nil {
		return nil, err
	}

	return d, nil
}

// Inputs returns the input features in declaration order.
func (d *Domain) Inputs() []Input { return append([]Input(nil), d.inputs...) }

// Outputs returns the output features in declaration order.
func (d *Domain) Outputs() []ContinuousOutput {
	return append([]ContinuousOutput(nil), d.outputs...)
}

// InputByKey returns the input feature with the given key.
func (d *Domain) InputByKey(key string) (Input, error) {
	in, ok := d.inputByKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, key)
	}

	return in, nil
}

// LinearConstraints returns the linear constraints of the given kind.
func (d *Domain) LinearConstraints(kind ConstraintKind) []LinearConstraint {
	var out []LinearConstraint
	for _, c := range d.linear {
		if c.Kind == kind {
			out = append(out, c)
		}
	}

	return out
}

// NChooseKConstraints returns the cardinality constraints.
func (d *Domain) NChooseKConstraints() []NChooseKConstraint {
	return append([]NChooseKConstraint(nil), d.nChooseK...)
}

// NumCategoricalLike counts the inputs that are not purely continuous:
// categorical, descriptor categorical, task and discrete features.
func (d *Domain) NumCategoricalLike() int {
	n := 0
	for _, in := range d.inputs {
		if _, ok := in.(ContinuousInput); !ok {
			n++
		}
	}

	return n
}

// ValidateExperiment checks one experiment against the domain: every input
// and output key must be present and every value inside its feature's range.
func (d *Domain) ValidateExperiment(e Experiment) error {
	var errs []error

	for _, in := range d.inputs {
		v, ok := e.Inputs[in.Key()]
		if !ok {
			errs = append(errs, fmt.Errorf(
				"%w: experiment misses input %q", ErrInvalidValue, in.Key(),
			))
			continue
		}
		if _, err := in.ValidateValue(v); err != nil {
			errs = append(errs, err)
		}
	}

	for _, out := range d.outputs {
		if _, ok := e.Outputs[out.Key()]; !ok {
			errs = append(errs, fmt.Errorf(
				"%w: experiment misses output %q", ErrInvalidValue, out.Key(),
			))
		}
	}

	return joinErrors(errs)
}
