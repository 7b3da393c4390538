// Package bbo provides a declarative framework for describing black-box
// optimization problems and running model-based sequential experimentation
// loops against them using Bayesian optimization.
//
// # Features
//
// The package includes the following key features:
//
//   - Mixed search spaces: continuous, categorical, descriptor-backed
//     categorical, discrete and task features in a single domain
//   - Feature encodings: one-hot, ordinal, dummy and descriptor column
//     representations with full encode/decode round-trips
//   - Deterministic column layout: a pure transform registry mapping every
//     feature to its numeric tensor columns
//   - Exhaustive and free categorical optimization: enumerate every
//     categorical/discrete assignment or relax it into the continuous box
//   - Constraint support: linear equality/inequality constraints and
//     n-choose-k cardinality constraints with exhaustive subset enumeration
//   - Ask/tell interface: accumulate experiments, fit surrogates and request
//     candidates in a sequential loop
//   - Pluggable collaborators: surrogate models and acquisition optimizers
//     sit behind interfaces, with a Gaussian Process and a multi-start
//     random-search optimizer as references
//   - Explicit randomness: every strategy owns a seeded generator; equal
//     seeds give equal runs
//   - Progress monitoring: real-time updates on the tell/fit/ask cycle via
//     channels
//
// # Basic usage
//
// Define a domain, create a strategy, then alternate Tell and Ask:
//
//	a, _ := bbo.NewContinuousInput("a", 0, 1)
//	b, _ := bbo.NewContinuousInput("b", 0, 1)
//	d, _ := bbo.NewCategoricalInput("d", "x", "y", "z")
//	yield, _ := bbo.NewContinuousOutput("yield", bbo.Objective{Sense: bbo.Maximize})
//
//	domain, err := bbo.NewDomain(bbo.DomainConfig{
//	    Inputs:  []bbo.Input{a, b, d},
//	    Outputs: []bbo.ContinuousOutput{yield},
//	})
//
//	cfg := bbo.DefaultStrategyConfig()
//	cfg.Seed = 42
//	cfg.Methods.Categorical = bbo.Exhaustive
//
//	strategy, err := bbo.NewStrategy(domain, cfg)
//
//	err = strategy.Tell(experiments, false)
//	candidates, err := strategy.Ask(1)
//
// # Optimization methods
//
// Each feature class (categorical, descriptor, discrete) is optimized either
// Free or Exhaustive. Free relaxes the class into the continuous search box;
// Exhaustive enumerates every allowed assignment and runs one continuous
// sub-optimization per assignment, returning the best overall. Enumeration
// size is the cross-product of allowed values and is not capped; bounding it
// is the caller's responsibility.
//
// # Error handling
//
// Schema violations surface when the domain is constructed, configuration
// problems when the strategy is constructed, and precondition violations
// (ask before enough experiments) at call time. All errors wrap the package
// sentinel errors and name the offending feature or constraint key; check
// them with errors.Is.
//
// # Concurrency
//
// The strategy itself is single-threaded and synchronous; calls into the
// surrogate and optimizer collaborators block. The reference Gaussian
// Process is safe for concurrent use.
package bbo
