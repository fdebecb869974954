// Package imu simulates accelerometer and gyroscope measurements of a body moving along a
// trajectory, with configurable bias and white noise.
package imu

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/visim/bspline"
)

// A BiasModel returns the accelerometer and gyroscope bias at a given time.
type BiasModel interface {
	Accelerometer(t float64) (r3.Vector, error)
	Gyroscope(t float64) (r3.Vector, error)
}

// ConstantBias is a BiasModel whose biases do not change over time. The zero value has no bias.
type ConstantBias struct {
	acc, gyr r3.Vector
}

// NewConstantBias returns a constant bias model.
func NewConstantBias(acc, gyr r3.Vector) *ConstantBias {
	return &ConstantBias{acc: acc, gyr: gyr}
}

// Accelerometer implements BiasModel.
func (b *ConstantBias) Accelerometer(float64) (r3.Vector, error) {
	return b.acc, nil
}

// Gyroscope implements BiasModel.
func (b *ConstantBias) Gyroscope(float64) (r3.Vector, error) {
	return b.gyr, nil
}

// ContinuousBiasParams describes a random walk bias process.
type ContinuousBiasParams struct {
	AccInitial r3.Vector
	GyrInitial r3.Vector
	// random walk standard deviations per square root second
	AccRandomWalk r3.Vector
	GyrRandomWalk r3.Vector
	Start         float64
	End           float64
	// number of random walk steps drawn over [Start, End]
	Samples int
	Seed    uint64
}

// ContinuousBias is a BiasModel following a random walk. The walk is drawn once from a seeded
// generator at construction and smoothed with a quadratic spline, so queries are deterministic.
type ContinuousBias struct {
	spline *bspline.BSpline
}

const (
	continuousBiasOrder  = 3
	continuousBiasLambda = 1e-5
)

// NewContinuousBias draws a random walk bias process.
func NewContinuousBias(params ContinuousBiasParams) (*ContinuousBias, error) {
	if !(params.End > params.Start) {
		return nil, errors.Errorf("bias end time %v must be after start time %v", params.End, params.Start)
	}
	if params.Samples < 4 {
		return nil, errors.Errorf("a continuous bias needs at least 4 samples, got %d", params.Samples)
	}
	for _, v := range []r3.Vector{params.AccRandomWalk, params.GyrRandomWalk} {
		if v.X < 0 || v.Y < 0 || v.Z < 0 {
			return nil, errors.Errorf("random walk standard deviations must be non-negative, got %v", v)
		}
	}

	times := floats.Span(make([]float64, params.Samples), params.Start, params.End)
	dt := times[1] - times[0]
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(params.Seed, params.Seed^0x9e3779b97f4a7c15)}

	sigmas := []float64{
		params.AccRandomWalk.X, params.AccRandomWalk.Y, params.AccRandomWalk.Z,
		params.GyrRandomWalk.X, params.GyrRandomWalk.Y, params.GyrRandomWalk.Z,
	}
	state := []float64{
		params.AccInitial.X, params.AccInitial.Y, params.AccInitial.Z,
		params.GyrInitial.X, params.GyrInitial.Y, params.GyrInitial.Z,
	}
	points := mat.NewDense(len(state), params.Samples, nil)
	for k := range times {
		points.SetCol(k, state)
		for i, sigma := range sigmas {
			if sigma > 0 {
				state[i] += sigma * math.Sqrt(dt) * normal.Rand()
			}
		}
	}

	spline, err := bspline.NewBSpline(continuousBiasOrder)
	if err != nil {
		return nil, err
	}
	segments := max(1, params.Samples/2)
	if err := spline.InitUniformSpline(times, points, segments, continuousBiasLambda); err != nil {
		return nil, errors.Wrap(err, "smoothing bias random walk")
	}
	return &ContinuousBias{spline: spline}, nil
}

// Start returns the first time the bias is defined at.
func (b *ContinuousBias) Start() float64 {
	return b.spline.TMin()
}

// End returns the last time the bias is defined at.
func (b *ContinuousBias) End() float64 {
	return b.spline.TMax()
}

// Accelerometer implements BiasModel.
func (b *ContinuousBias) Accelerometer(t float64) (r3.Vector, error) {
	v, err := b.spline.Eval(t)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)}, nil
}

// Gyroscope implements BiasModel.
func (b *ContinuousBias) Gyroscope(t float64) (r3.Vector, error) {
	v, err := b.spline.Eval(t)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: v.AtVec(3), Y: v.AtVec(4), Z: v.AtVec(5)}, nil
}
