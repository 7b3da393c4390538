package bbo

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"
)

//////
// Ask/tell strategy: the sequencing layer driving
// fit -> optimize -> validate -> record cycles.
//////

// StrategyConfig holds all configuration for a Strategy.
//
// Usage example:
//
//	cfg := bbo.DefaultStrategyConfig()
//	cfg.Methods.Categorical = bbo.Exhaustive
//	cfg.Seed = 42
//
//	strategy, err := bbo.NewStrategy(domain, cfg)
type StrategyConfig struct {
	// TransformSpec overrides the per-feature encodings. Keys absent here
	// use the feature's default encoding.
	TransformSpec TransformSpec

	// Methods selects Free or Exhaustive optimization per feature class.
	Methods MethodSpec

	// NumRestarts and NumRawSamples are forwarded to the acquisition
	// optimizer: every restart screens NumRawSamples points.
	// Recommended ranges: 4-32 restarts, 64-1024 raw samples.
	NumRestarts   int
	NumRawSamples int

	// Seed initializes the strategy's random generator. All sampling and
	// optimizer randomness derives from it; equal seeds give equal runs.
	Seed uint64

	// AcquisitionFunc scores the surrogate posterior. See UCB,
	// ProbabilityOfImprovement, ExpectedImprovement, ThompsonSampling.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function. BestSoFar
	// and Rand are managed by the strategy.
	AcqParams AcquisitionParams

	// NewSurrogate creates one surrogate per output feature on every fit.
	// Defaults to NewGaussianProcess.
	NewSurrogate func() Surrogate

	// Continuous and Mixed are the acquisition optimizer collaborators.
	// Both default to RandomSearchOptimizer.
	Continuous ContinuousOptimizer
	Mixed      MixedOptimizer

	// ProgressChan receives tell/fit/ask updates when non-nil. Sends are
	// non-blocking; a full channel drops updates.
	ProgressChan chan<- ProgressUpdate
}

// DefaultStrategyConfig returns a default configuration: UCB acquisition,
// Gaussian Process surrogates, random-search optimization and every feature
// class relaxed Free.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		NumRestarts:     8,
		NumRawSamples:   256,
		Seed:            uint64(time.Now().UnixNano()),
		AcquisitionFunc: UCB,
		AcqParams: AcquisitionParams{
			Beta:      2.0,
			Xi:        0.01,
			BestSoFar: math.MaxFloat64,
		},
		NewSurrogate: func() Surrogate { return NewGaussianProcess() },
		Continuous:   RandomSearchOptimizer{},
		Mixed:        RandomSearchOptimizer{},
	}
}

// Strategy drives the sequential experimentation loop over one domain:
// accumulate experiments via Tell, fit one surrogate per output once enough
// are available, and propose new candidates via Ask.
//
// A strategy is single-threaded and synchronous; long-running work happens
// inside the surrogate and optimizer collaborators as blocking calls. The
// domain and the resolved transform spec are read-only for the strategy's
// lifetime.
type Strategy struct {
	domain *Domain
	cfg    StrategyConfig
	spec   TransformSpec
	info   TransformInfo
	rng    *rand.Rand

	experiments   []Experiment
	surrogates    map[string]Surrogate
	fitted        bool
	bestObjective float64
}

// NewStrategy validates the configuration against the domain and returns an
// unfitted strategy. Encoding and method incompatibilities are reported here,
// not at ask time.
func NewStrategy(d *Domain, cfg StrategyConfig) (*Strategy, error) {
	if cfg.AcquisitionFunc == nil {
		cfg.AcquisitionFunc = UCB
	}
	if cfg.NewSurrogate == nil {
		cfg.NewSurrogate = func() Surrogate { return NewGaussianProcess() }
	}
	if cfg.Continuous == nil {
		cfg.Continuous = RandomSearchOptimizer{}
	}
	if cfg.Mixed == nil {
		cfg.Mixed = RandomSearchOptimizer{}
	}
	if cfg.NumRestarts < 1 {
		cfg.NumRestarts = 8
	}
	if cfg.NumRawSamples < 1 {
		cfg.NumRawSamples = 256
	}
	if cfg.AcqParams.BestSoFar == 0 {
		cfg.AcqParams.BestSoFar = math.MaxFloat64
	}

	spec, err := ResolveTransformSpec(d, cfg.TransformSpec)
	if err != nil {
		return nil, err
	}

	if err := validateMethods(d, spec, cfg.Methods); err != nil {
		return nil, err
	}

	info, err := GetTransformInfo(d, spec)
	if err != nil {
		return nil, err
	}

	s := &Strategy{
		domain: d,
		cfg:    cfg,
		spec:   spec,
		info:   info,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}

	if s.cfg.AcqParams.Rand == nil {
		s.cfg.AcqParams.Rand = s.rng
	}

	return s, nil
}

// validateMethods rejects method/encoding combinations with no defined
// relaxation: a free categorical class cannot drive ordinal or dummy
// columns, only one-hot ones.
func validateMethods(d *Domain, spec TransformSpec, methods MethodSpec) error {
	if methods.Categorical == Exhaustive {
		return nil
	}

	var errs []error

	for _, in := range d.Inputs() {
		if _, ok := in.(forbidding); !ok {
			continue
		}

		enc := spec[in.Key()]
		if enc != Ordinal && enc != Dummy {
			continue
		}

		if _, isFixed := in.FixedValue(); isFixed {
			continue
		}

		errs = append(errs, fmt.Errorf(
			"%w: feature %q is %s-encoded, which requires the exhaustive categorical method",
			ErrIncompatibleMethod, in.Key(), enc,
		))
	}

	return joinErrors(errs)
}

// Experiments returns a copy of the accumulated experiments.
func (s *Strategy) Experiments() []Experiment {
	return append([]Experiment(nil), s.experiments...)
}

// NumExperiments returns the number of accumulated experiments.
func (s *Strategy) NumExperiments() int { return len(s.experiments) }

// Tell passes new experimental data to the strategy. With replace the data
// overwrites the accumulated experiments, otherwise it is appended. Once the
// accumulated count exceeds the degrees-of-freedom threshold, the surrogates
// are refitted and the strategy becomes askable.
func (s *Strategy) Tell(experiments []Experiment, replace bool) error {
	if len(experiments) == 0 {
		return nil
	}

	for _, e := range experiments {
		if err := s.domain.ValidateExperiment(e); err != nil {
			return err
		}
	}

	if replace {
		s.experiments = append([]Experiment(nil), experiments...)
		s.fitted = false
	} else {
		s.experiments = append(s.experiments, experiments...)
	}

	s.sendProgress("tell", 0)

	if !s.HasSufficientExperiments() {
		return nil
	}

	if err := s.fit(); err != nil {
		return err
	}

	s.sendProgress("fit", 0)

	return nil
}

// HasSufficientExperiments reports whether the accumulated experiments
// exceed the degrees-of-freedom threshold: the number of input features
// minus the number of pinned columns, plus one.
func (s *Strategy) HasSufficientExperiments() bool {
	fixed, err := FixedFeatures(s.domain, s.spec, s.info, s.cfg.Methods)
	if err != nil {
		return false
	}

	degreesOfFreedom := len(s.domain.Inputs()) - len(fixed)

	return len(s.experiments) > degreesOfFreedom+1
}

// fit transforms the experiments, fits one surrogate per output and updates
// the incumbent objective for the acquisition functions.
func (s *Strategy) fit() error {
	x, err := TransformExperiments(s.domain, s.spec, s.experiments)
	if err != nil {
		return err
	}

	surrogates := make(map[string]Surrogate, len(s.domain.Outputs()))

	for _, out := range s.domain.Outputs() {
		y := make([]float64, len(s.experiments))
		for i, e := range s.experiments {
			y[i] = e.Outputs[out.Key()]
		}

		model := s.cfg.NewSurrogate()
		if err := model.Fit(x, y); err != nil {
			return fmt.Errorf("%w: output %q: %v", ErrSurrogateFit, out.Key(), err)
		}

		surrogates[out.Key()] = model
	}

	s.surrogates = surrogates

	s.bestObjective = math.MaxFloat64
	for _, e := range s.experiments {
		if obj := s.scalarize(e.Outputs); obj < s.bestObjective {
			s.bestObjective = obj
		}
	}

	s.fitted = true

	return nil
}

// scalarize folds observed outputs into the single minimized objective: the
// negated sum of weighted desirabilities.
func (s *Strategy) scalarize(outputs map[string]float64) float64 {
	var desirability float64
	for _, out := range s.domain.Outputs() {
		desirability += out.Objective().Desirability(outputs[out.Key()])
	}

	return -desirability
}

// objective builds the acquisition objective over the fitted surrogates:
// scalarized posterior mean and summed posterior variance, scored by the
// configured acquisition function.
func (s *Strategy) objective() ObjectiveFunc {
	params := s.cfg.AcqParams
	params.BestSoFar = s.bestObjective

	return func(x []float64) float64 {
		var desirability, variance float64

		for _, out := range s.domain.Outputs() {
			mean, std := s.surrogates[out.Key()].Predict(x)
			desirability += out.Objective().Desirability(mean)
			variance += std * std
		}

		return s.cfg.AcquisitionFunc(-desirability, variance, params)
	}
}

// Ask generates candidateCount new candidates. It requires a fitted
// strategy and branches on the space shape:
//
//   - pure continuous spaces (no categorical-like features, every class
//     Free, or a single enumerable combination) run one continuous
//     optimization with the base fixed-feature assignment;
//   - spaces with an exhaustive class and no n-choose-k constraints run a
//     mixed optimization over the categorical combinations;
//   - spaces with n-choose-k constraints run a mixed optimization over the
//     full composed fixed-values list.
func (s *Strategy) Ask(candidateCount int) ([]Candidate, error) {
	if candidateCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCandidateCount, candidateCount)
	}

	if !s.fitted {
		return nil, fmt.Errorf(
			"%w: %d experiments told", ErrInsufficientExperiments, len(s.experiments),
		)
	}

	bounds, err := DomainBounds(s.domain, s.spec)
	if err != nil {
		return nil, err
	}

	equalities, err := LinearSystems(s.domain, s.info, Equality)
	if err != nil {
		return nil, err
	}

	inequalities, err := LinearSystems(s.domain, s.info, Inequality)
	if err != nil {
		return nil, err
	}

	fixed, err := FixedFeatures(s.domain, s.spec, s.info, s.cfg.Methods)
	if err != nil {
		return nil, err
	}

	combinations, err := CategoricalCombinations(s.domain, s.spec, s.info, fixed, s.cfg.Methods)
	if err != nil {
		return nil, err
	}

	params := OptimizeParams{
		Objective:      s.objective(),
		Bounds:         bounds,
		CandidateCount: candidateCount,
		NumRestarts:    s.cfg.NumRestarts,
		NumRawSamples:  s.cfg.NumRawSamples,
		Equalities:     equalities,
		Inequalities:   inequalities,
		Rand:           s.rng,
	}

	hasNChooseK := len(s.domain.NChooseKConstraints()) > 0

	var points []Point

	switch {
	case !hasNChooseK &&
		(s.domain.NumCategoricalLike() == 0 || s.cfg.Methods.allFree() || len(combinations) == 1):
		params.Fixed = fixed
		points, _, err = s.cfg.Continuous.Optimize(params)

	case !hasNChooseK && s.cfg.Methods.anyExhaustive():
		params.FixedList = combinations
		points, _, err = s.cfg.Mixed.OptimizeMixed(params)

	case hasNChooseK:
		nck, nckErr := NChooseKCombinations(s.domain, s.info)
		if nckErr != nil {
			return nil, nckErr
		}

		params.FixedList = FixedValuesList(combinations, nck)
		points, _, err = s.cfg.Mixed.OptimizeMixed(params)

	default:
		return nil, ErrUnreachableConfiguration
	}

	if err != nil {
		return nil, err
	}

	if len(points) != candidateCount {
		return nil, fmt.Errorf(
			"%w: expected %d candidates, got %d",
			ErrOptimizerFailed, candidateCount, len(points),
		)
	}

	candidates, err := s.toCandidates(points)
	if err != nil {
		return nil, err
	}

	s.sendProgress("ask", len(candidates))

	return candidates, nil
}

// toCandidates decodes optimizer points back to feature values, snaps them
// to the features' grids and annotates surrogate predictions per output.
func (s *Strategy) toCandidates(points []Point) ([]Candidate, error) {
	batch := uuid.New()

	candidates := make([]Candidate, 0, len(points))

	for _, p := range points {
		values, err := InverseTransformPoint(s.domain, s.spec, s.info, p)
		if err != nil {
			return nil, err
		}

		for _, in := range s.domain.Inputs() {
			snapped, err := in.ValidateValue(values[in.Key()])
			if err != nil {
				return nil, err
			}
			values[in.Key()] = snapped
		}

		predictions := make(map[string]Prediction, len(s.domain.Outputs()))
		for _, out := range s.domain.Outputs() {
			mean, std := s.surrogates[out.Key()].Predict(p)
			predictions[out.Key()] = Prediction{
				Mean:         mean,
				Std:          std,
				Desirability: out.Objective().Desirability(mean),
			}
		}

		candidates = append(candidates, Candidate{
			BatchID:     batch,
			Inputs:      values,
			Predictions: predictions,
		})
	}

	return candidates, nil
}

// sendProgress emits a non-blocking progress update.
func (s *Strategy) sendProgress(phase string, candidateCount int) {
	if s.cfg.ProgressChan == nil {
		return
	}

	update := ProgressUpdate{
		Phase:          phase,
		NumExperiments: len(s.experiments),
		BestObjective:  s.bestObjective,
		CandidateCount: candidateCount,
	}

	select {
	case s.cfg.ProgressChan <- update:
	default:
		// Skip update if channel is full.
	}
}
