package bbo

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

//////
// Surrogate model boundary.
//////

// Surrogate is the predictive model consumed as a black box by the strategy:
// fit once per tell on the transformed experiment tensor, then queried for a
// posterior mean and standard deviation per point. One surrogate is fitted
// per output feature.
type Surrogate interface {
	// Fit trains the model on the transformed inputs (one row per
	// experiment) and the observed output values.
	Fit(x *mat.Dense, y []float64) error

	// Predict returns the posterior mean and standard deviation at a
	// transformed point.
	Predict(x []float64) (mean, std float64)
}

// GaussianProcess is the reference surrogate: an RBF-kernel Gaussian Process
// regressor over the transformed feature tensor.
//
// Thread safety:
// - All fields are protected by the RWMutex
// - Predict uses a read lock, Fit and SetSigma a write lock
//
// Memory usage grows linearly with the number of observations; prediction
// cost is quadratic in them.
type GaussianProcess struct {
	// mu protects access to all fields.
	mu sync.RWMutex

	// x stores the observed input points, one slice per experiment.
	x [][]float64

	// y stores the observed output values, same length as x.
	y []float64

	// sigma is the kernel width parameter. Larger values give smoother
	// interpolation, smaller values more local influence.
	sigma float64
}

// NewGaussianProcess creates a Gaussian Process with the default kernel
// width of 1.0, suitable for roughly unit-scaled inputs.
func NewGaussianProcess() *GaussianProcess {
	return &GaussianProcess{
		sigma: 1.0, // Default kernel width.
	}
}

// RBFKernel computes the Radial Basis Function kernel between two points:
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Returns 1.0 for identical points and values near 0.0 for distant ones.
func (gp *GaussianProcess) RBFKernel(x1, x2 []float64) float64 {
	gp.mu.RLock()
	sigma := gp.sigma
	gp.mu.RUnlock()

	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * sigma * sigma))
}

// Fit replaces the model's observations with the given training data. The
// row count of x must match len(y).
func (gp *GaussianProcess) Fit(x *mat.Dense, y []float64) error {
	rows, cols := x.Dims()
	if rows != len(y) {
		return fmt.Errorf(
			"%w: %d rows of inputs but %d outputs", ErrDimensionMismatch, rows, len(y),
		)
	}

	points := make([][]float64, rows)
	for i := range points {
		points[i] = mat.Row(make([]float64, cols), i, x)
	}

	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.x = points
	gp.y = append([]float64(nil), y...)

	return nil
}

// Predict estimates the posterior mean and standard deviation at a point.
// Returns (0, 1) when no observations exist.
//
// The mean is the kernel-weighted average of observed values; the variance
// shrinks toward zero near observed points.
func (gp *GaussianProcess) Predict(x []float64) (mean, std float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	if len(gp.x) == 0 {
		return 0, 1
	}

	// Kernel values between x and all observed points.
	k := make([]float64, len(gp.x))
	for i := range gp.x {
		k[i] = gp.rbfLocked(x, gp.x[i])
	}

	var sum float64
	for i := range gp.x {
		sum += k[i] * gp.y[i]
	}

	mean = sum / float64(len(gp.x))

	variance := 1.0
	for i := range gp.x {
		for j := range gp.x {
			variance -= k[i] * k[j] / float64(len(gp.x))
		}
	}

	// Numerical round-off can push the variance slightly negative.
	if variance < 0 {
		variance = 0
	}

	return mean, math.Sqrt(variance)
}

// rbfLocked is RBFKernel without re-acquiring the lock.
func (gp *GaussianProcess) rbfLocked(x1, x2 []float64) float64 {
	var sum float64
	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * gp.sigma * gp.sigma))
}

// SetSigma updates the kernel width. Larger values give smoother
// interpolation; validation of sigma > 0 is the caller's responsibility.
func (gp *GaussianProcess) SetSigma(sigma float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.sigma = sigma
}

// Sigma returns the current kernel width.
func (gp *GaussianProcess) Sigma() float64 {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	return gp.sigma
}
