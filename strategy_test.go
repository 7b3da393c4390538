package bbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMixed wraps the reference optimizer and records every mixed call.
type recordingMixed struct {
	RandomSearchOptimizer

	calls []OptimizeParams
}

func (r *recordingMixed) OptimizeMixed(params OptimizeParams) ([]Point, float64, error) {
	r.calls = append(r.calls, params)

	return r.RandomSearchOptimizer.OptimizeMixed(params)
}

// recordingContinuous wraps the reference optimizer and records every
// continuous call.
type recordingContinuous struct {
	RandomSearchOptimizer

	calls []OptimizeParams
}

func (r *recordingContinuous) Optimize(params OptimizeParams) ([]Point, float64, error) {
	r.calls = append(r.calls, params)

	return r.RandomSearchOptimizer.Optimize(params)
}

func newAskDomain(t *testing.T) *Domain {
	t.Helper()

	a, err := NewContinuousInput("a", 0, 1)
	require.NoError(t, err)
	b, err := NewContinuousInput("b", 0, 1)
	require.NoError(t, err)
	d, err := NewCategoricalInput("d", "x", "y", "z")
	require.NoError(t, err)
	y, err := NewContinuousOutput("y", Objective{Sense: Maximize})
	require.NoError(t, err)

	dom, err := NewDomain(DomainConfig{
		Inputs:  []Input{a, b, d},
		Outputs: []ContinuousOutput{y},
	})
	require.NoError(t, err)

	return dom
}

func askDomainExperiments() []Experiment {
	categories := []string{"x", "y", "z"}

	exps := make([]Experiment, 6)
	for i := range exps {
		av := float64(i) / 5
		exps[i] = Experiment{
			Inputs: map[string]any{
				"a": av,
				"b": 1 - av,
				"d": categories[i%3],
			},
			Outputs: map[string]float64{"y": av * av},
		}
	}

	return exps
}

func newTestConfig() StrategyConfig {
	cfg := DefaultStrategyConfig()
	cfg.Seed = 42
	cfg.NumRestarts = 2
	cfg.NumRawSamples = 128

	return cfg
}

func TestAskBeforeSufficientExperiments(t *testing.T) {
	s, err := NewStrategy(newAskDomain(t), newTestConfig())
	require.NoError(t, err)

	_, err = s.Ask(1)
	assert.ErrorIs(t, err, ErrInsufficientExperiments)

	// Two experiments are below the degrees-of-freedom threshold.
	require.NoError(t, s.Tell(askDomainExperiments()[:2], false))
	assert.False(t, s.HasSufficientExperiments())

	_, err = s.Ask(1)
	assert.ErrorIs(t, err, ErrInsufficientExperiments)
}

func TestAskExhaustiveCategoricalEnumerates(t *testing.T) {
	mixed := &recordingMixed{}

	cfg := newTestConfig()
	cfg.Methods.Categorical = Exhaustive
	cfg.Mixed = mixed

	s, err := NewStrategy(newAskDomain(t), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments(), false))
	require.True(t, s.HasSufficientExperiments())

	candidates, err := s.Ask(1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// One mixed call carrying one assignment per category, each pinning
	// exactly the three one-hot columns and leaving a and b free.
	require.Len(t, mixed.calls, 1)
	list := mixed.calls[0].FixedList
	require.Len(t, list, 3)

	for _, ff := range list {
		assert.Len(t, ff, 3)
		assert.NotContains(t, ff, 0)
		assert.NotContains(t, ff, 1)
		assert.Equal(t, 1.0, ff[2]+ff[3]+ff[4], "exactly one category active")
	}

	c := candidates[0]
	assert.Contains(t, []string{"x", "y", "z"}, c.Inputs["d"])
	assert.Contains(t, c.Predictions, "y")
	assert.NotEqual(t, [16]byte{}, [16]byte(c.BatchID))
}

func TestAskFreeCategoricalRunsContinuous(t *testing.T) {
	continuous := &recordingContinuous{}

	cfg := newTestConfig()
	cfg.Continuous = continuous

	s, err := NewStrategy(newAskDomain(t), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments(), false))

	candidates, err := s.Ask(2)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	require.Len(t, continuous.calls, 1)
	assert.Empty(t, continuous.calls[0].FixedList)

	// The relaxed one-hot columns still decode to a real category.
	for _, c := range candidates {
		assert.Contains(t, []string{"x", "y", "z"}, c.Inputs["d"])
	}
}

func TestAskNChooseKComposesFixedList(t *testing.T) {
	var inputs []Input
	for _, key := range []string{"x1", "x2", "x3"} {
		f, err := NewContinuousInput(key, 0, 1)
		require.NoError(t, err)
		inputs = append(inputs, f)
	}
	y, err := NewContinuousOutput("y", Objective{Sense: Maximize})
	require.NoError(t, err)

	dom, err := NewDomain(DomainConfig{
		Inputs:  inputs,
		Outputs: []ContinuousOutput{y},
		NChooseK: []NChooseKConstraint{
			{Features: []string{"x1", "x2", "x3"}, MinCount: 1, MaxCount: 2},
		},
	})
	require.NoError(t, err)

	mixed := &recordingMixed{}
	cfg := newTestConfig()
	cfg.Mixed = mixed

	s, err := NewStrategy(dom, cfg)
	require.NoError(t, err)

	exps := make([]Experiment, 5)
	for i := range exps {
		v := float64(i) / 4
		exps[i] = Experiment{
			Inputs:  map[string]any{"x1": v, "x2": 0.0, "x3": 1 - v},
			Outputs: map[string]float64{"y": v},
		}
	}
	require.NoError(t, s.Tell(exps, false))

	candidates, err := s.Ask(1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// C(3,1) + C(3,2) subset assignments reach the mixed optimizer.
	require.Len(t, mixed.calls, 1)
	assert.Len(t, mixed.calls[0].FixedList, 6)
}

func TestAskSnapsToStepsizeGrid(t *testing.T) {
	a, err := NewContinuousInput("a", 0, 1)
	require.NoError(t, err)
	a, err = a.WithStepsize(0.25)
	require.NoError(t, err)
	b, err := NewContinuousInput("b", 0, 1)
	require.NoError(t, err)
	y, err := NewContinuousOutput("y", Objective{Sense: Maximize})
	require.NoError(t, err)

	dom, err := NewDomain(DomainConfig{
		Inputs:  []Input{a, b},
		Outputs: []ContinuousOutput{y},
	})
	require.NoError(t, err)

	s, err := NewStrategy(dom, newTestConfig())
	require.NoError(t, err)

	exps := make([]Experiment, 4)
	for i := range exps {
		exps[i] = Experiment{
			Inputs:  map[string]any{"a": float64(i) * 0.25, "b": float64(i) / 3},
			Outputs: map[string]float64{"y": float64(i)},
		}
	}
	require.NoError(t, s.Tell(exps, false))

	candidates, err := s.Ask(3)
	require.NoError(t, err)

	for _, c := range candidates {
		v := c.Inputs["a"].(float64)
		assert.Contains(t, []float64{0, 0.25, 0.5, 0.75, 1}, v, "candidate snapped to the grid")
	}
}

func TestAskDeterministicUnderSeed(t *testing.T) {
	run := func() []Candidate {
		cfg := newTestConfig()
		cfg.Methods.Categorical = Exhaustive

		s, err := NewStrategy(newAskDomain(t), cfg)
		require.NoError(t, err)
		require.NoError(t, s.Tell(askDomainExperiments(), false))

		candidates, err := s.Ask(2)
		require.NoError(t, err)

		return candidates
	}

	first, second := run(), run()
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].Inputs, second[i].Inputs, "equal seeds give equal proposals")
	}
}

func TestAskValidatesCount(t *testing.T) {
	s, err := NewStrategy(newAskDomain(t), newTestConfig())
	require.NoError(t, err)

	_, err = s.Ask(0)
	assert.ErrorIs(t, err, ErrInvalidCandidateCount)

	_, err = s.Ask(-3)
	assert.ErrorIs(t, err, ErrInvalidCandidateCount)
}

func TestNewStrategyRejectsFreeOrdinal(t *testing.T) {
	cfg := newTestConfig()
	cfg.TransformSpec = TransformSpec{"d": Ordinal}

	_, err := NewStrategy(newAskDomain(t), cfg)
	assert.ErrorIs(t, err, ErrIncompatibleMethod)

	// Exhaustive enumeration makes the ordinal encoding legal.
	cfg.Methods.Categorical = Exhaustive
	_, err = NewStrategy(newAskDomain(t), cfg)
	assert.NoError(t, err)
}

func TestTellValidatesExperiments(t *testing.T) {
	s, err := NewStrategy(newAskDomain(t), newTestConfig())
	require.NoError(t, err)

	err = s.Tell([]Experiment{
		{
			Inputs:  map[string]any{"a": 2.0, "b": 0.5, "d": "x"},
			Outputs: map[string]float64{"y": 1},
		},
	}, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Zero(t, s.NumExperiments())
}

func TestTellReplaceResetsFit(t *testing.T) {
	s, err := NewStrategy(newAskDomain(t), newTestConfig())
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments(), false))
	_, err = s.Ask(1)
	require.NoError(t, err)

	// Replacing with too little data unfits the strategy.
	require.NoError(t, s.Tell(askDomainExperiments()[:2], true))
	assert.Equal(t, 2, s.NumExperiments())

	_, err = s.Ask(1)
	assert.ErrorIs(t, err, ErrInsufficientExperiments)
}

func TestProgressUpdates(t *testing.T) {
	progress := make(chan ProgressUpdate, 16)

	cfg := newTestConfig()
	cfg.ProgressChan = progress

	s, err := NewStrategy(newAskDomain(t), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments(), false))

	_, err = s.Ask(1)
	require.NoError(t, err)

	close(progress)

	var phases []string
	var last ProgressUpdate
	for u := range progress {
		phases = append(phases, u.Phase)
		last = u
	}

	assert.Equal(t, []string{"tell", "fit", "ask"}, phases)
	assert.Equal(t, 6, last.NumExperiments)
	assert.Equal(t, 1, last.CandidateCount)
}

func TestProgressChannelNeverBlocks(t *testing.T) {
	progress := make(chan ProgressUpdate) // unbuffered, nobody reads

	cfg := newTestConfig()
	cfg.ProgressChan = progress

	s, err := NewStrategy(newAskDomain(t), cfg)
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments(), false))

	_, err = s.Ask(1)
	assert.NoError(t, err)
}

func TestScalarizeRespectsSenseAndWeight(t *testing.T) {
	yield, err := NewContinuousOutput("yield", Objective{Sense: Maximize, Weight: 2})
	require.NoError(t, err)
	cost, err := NewContinuousOutput("cost", Objective{Sense: Minimize})
	require.NoError(t, err)
	a, err := NewContinuousInput("a", 0, 1)
	require.NoError(t, err)

	dom, err := NewDomain(DomainConfig{
		Inputs:  []Input{a},
		Outputs: []ContinuousOutput{yield, cost},
	})
	require.NoError(t, err)

	s, err := NewStrategy(dom, newTestConfig())
	require.NoError(t, err)

	good := s.scalarize(map[string]float64{"yield": 10, "cost": 1})
	bad := s.scalarize(map[string]float64{"yield": 1, "cost": 10})
	assert.Less(t, good, bad, "high yield at low cost wins under minimization")
	assert.Equal(t, -19.0, good)
}

func TestExperimentsReturnsCopy(t *testing.T) {
	s, err := NewStrategy(newAskDomain(t), newTestConfig())
	require.NoError(t, err)

	require.NoError(t, s.Tell(askDomainExperiments()[:3], false))

	exps := s.Experiments()
	require.Len(t, exps, 3)

	exps[0] = Experiment{}
	assert.NotNil(t, s.Experiments()[0].Inputs)
}
