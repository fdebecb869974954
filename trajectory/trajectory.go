// Package trajectory provides continuous-time rigid body trajectories that can be sampled for
// position, orientation and their rates.
//
// Angular velocity and angular acceleration are expressed in the world frame. Consumers that need
// body rates, such as an IMU, rotate them with the transpose of Orientation.
package trajectory

import (
	"github.com/golang/geo/r3"

	"go.viam.com/visim/spatialmath"
)

// A Trajectory describes the pose of a body frame B in a world frame W over [Start, End]. Every
// method fails when queried outside of that interval.
type Trajectory interface {
	Start() float64
	End() float64
	// Position returns the body origin in the world frame.
	Position(t float64) (r3.Vector, error)
	// Orientation returns R_W_B.
	Orientation(t float64) (spatialmath.Orientation, error)
	LinearVelocity(t float64) (r3.Vector, error)
	AngularVelocity(t float64) (r3.Vector, error)
	LinearAcceleration(t float64) (r3.Vector, error)
	AngularAcceleration(t float64) (r3.Vector, error)
}

// Pose returns the body pose of a trajectory at t.
func Pose(traj Trajectory, t float64) (spatialmath.Pose, error) {
	position, err := traj.Position(t)
	if err != nil {
		return nil, err
	}
	orientation, err := traj.Orientation(t)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(position, orientation), nil
}
