package imu

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// A NoiseSampler draws one noise vector per call.
type NoiseSampler interface {
	Sample() r3.Vector
}

// RandomVectorSampler draws independent zero mean Gaussian samples per axis. Each sampler owns its
// own generator, so samplers built with the same seed produce the same sequence. Axes with a zero
// standard deviation always sample exactly zero.
type RandomVectorSampler struct {
	mu     sync.Mutex
	sigmas r3.Vector
	axes   [3]distuv.Normal
}

// NewSigmaSampler returns a sampler with the given per axis standard deviations.
func NewSigmaSampler(sigmas r3.Vector, seed uint64) (*RandomVectorSampler, error) {
	if sigmas.X < 0 || sigmas.Y < 0 || sigmas.Z < 0 || math.IsNaN(sigmas.Norm()) {
		return nil, errors.Errorf("noise standard deviations must be non-negative, got %v", sigmas)
	}
	src := rand.NewPCG(seed, seed+1)
	s := &RandomVectorSampler{sigmas: sigmas}
	for i, sigma := range []float64{sigmas.X, sigmas.Y, sigmas.Z} {
		s.axes[i] = distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	}
	return s, nil
}

// NewVarianceSampler returns a sampler with the given per axis variances.
func NewVarianceSampler(variances r3.Vector, seed uint64) (*RandomVectorSampler, error) {
	if variances.X < 0 || variances.Y < 0 || variances.Z < 0 {
		return nil, errors.Errorf("noise variances must be non-negative, got %v", variances)
	}
	return NewSigmaSampler(r3.Vector{X: math.Sqrt(variances.X), Y: math.Sqrt(variances.Y), Z: math.Sqrt(variances.Z)}, seed)
}

// Sigmas returns the per axis standard deviations.
func (s *RandomVectorSampler) Sigmas() r3.Vector {
	return s.sigmas
}

// Sample implements NoiseSampler.
func (s *RandomVectorSampler) Sample() r3.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [3]float64
	for i := range s.axes {
		if s.axes[i].Sigma == 0 {
			continue
		}
		out[i] = s.axes[i].Rand()
	}
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}
