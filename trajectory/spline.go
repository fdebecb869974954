package trajectory

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/visim/bspline"
	"go.viam.com/visim/spatialmath"
)

// SplineTrajectory is a Trajectory backed by a pose spline.
type SplineTrajectory struct {
	spline *bspline.PoseSpline
}

// NewSplineTrajectory returns a trajectory that forwards every query to the given spline.
func NewSplineTrajectory(spline *bspline.PoseSpline) (*SplineTrajectory, error) {
	if spline == nil {
		return nil, errors.New("pose spline is nil")
	}
	if spline.Dimension() != bspline.PoseDimension {
		return nil, errors.Errorf("pose spline must be initialized with %d dimensional coefficients, has %d",
			bspline.PoseDimension, spline.Dimension())
	}
	return &SplineTrajectory{spline: spline}, nil
}

// Spline returns the underlying pose spline.
func (st *SplineTrajectory) Spline() *bspline.PoseSpline {
	return st.spline
}

// Start returns the first valid time of the spline.
func (st *SplineTrajectory) Start() float64 {
	return st.spline.TMin()
}

// End returns the last valid time of the spline.
func (st *SplineTrajectory) End() float64 {
	return st.spline.TMax()
}

// Position implements Trajectory.
func (st *SplineTrajectory) Position(t float64) (r3.Vector, error) {
	return st.spline.Position(t)
}

// Orientation implements Trajectory.
func (st *SplineTrajectory) Orientation(t float64) (spatialmath.Orientation, error) {
	rot, err := st.spline.Orientation(t)
	if err != nil {
		return nil, err
	}
	return rot, nil
}

// LinearVelocity implements Trajectory.
func (st *SplineTrajectory) LinearVelocity(t float64) (r3.Vector, error) {
	return st.spline.LinearVelocity(t)
}

// AngularVelocity implements Trajectory.
func (st *SplineTrajectory) AngularVelocity(t float64) (r3.Vector, error) {
	return st.spline.AngularVelocity(t)
}

// LinearAcceleration implements Trajectory.
func (st *SplineTrajectory) LinearAcceleration(t float64) (r3.Vector, error) {
	return st.spline.LinearAcceleration(t)
}

// AngularAcceleration implements Trajectory.
func (st *SplineTrajectory) AngularAcceleration(t float64) (r3.Vector, error) {
	return st.spline.AngularAcceleration(t)
}
