package trajectory

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/visim/bspline"
	"go.viam.com/visim/spatialmath"
)

// Stationary is a Trajectory that holds a fixed pose with zero rates.
type Stationary struct {
	pose       spatialmath.Pose
	start, end float64
}

// NewStationary returns a trajectory that stays at pose over [start, end].
func NewStationary(pose spatialmath.Pose, start, end float64) (*Stationary, error) {
	if !(end > start) {
		return nil, errors.Errorf("trajectory end %v must be after start %v", end, start)
	}
	if pose == nil {
		pose = spatialmath.NewZeroPose()
	}
	return &Stationary{pose: pose, start: start, end: end}, nil
}

func (s *Stationary) check(t float64) error {
	if math.IsNaN(t) || t < s.start || t > s.end {
		return bspline.NewTimeOutOfRangeError(t, s.start, s.end)
	}
	return nil
}

// Start implements Trajectory.
func (s *Stationary) Start() float64 {
	return s.start
}

// End implements Trajectory.
func (s *Stationary) End() float64 {
	return s.end
}

// Position implements Trajectory.
func (s *Stationary) Position(t float64) (r3.Vector, error) {
	if err := s.check(t); err != nil {
		return r3.Vector{}, err
	}
	return s.pose.Point(), nil
}

// Orientation implements Trajectory.
func (s *Stationary) Orientation(t float64) (spatialmath.Orientation, error) {
	if err := s.check(t); err != nil {
		return nil, err
	}
	return s.pose.Orientation(), nil
}

// LinearVelocity implements Trajectory.
func (s *Stationary) LinearVelocity(t float64) (r3.Vector, error) {
	return r3.Vector{}, s.check(t)
}

// AngularVelocity implements Trajectory.
func (s *Stationary) AngularVelocity(t float64) (r3.Vector, error) {
	return r3.Vector{}, s.check(t)
}

// LinearAcceleration implements Trajectory.
func (s *Stationary) LinearAcceleration(t float64) (r3.Vector, error) {
	return r3.Vector{}, s.check(t)
}

// AngularAcceleration implements Trajectory.
func (s *Stationary) AngularAcceleration(t float64) (r3.Vector, error) {
	return r3.Vector{}, s.check(t)
}
