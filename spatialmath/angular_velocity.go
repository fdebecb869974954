package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationToAngularVel calculates an angular velocity, in rad/s, from an orientation change over a time difference.
// The change is the rotation carrying the earlier orientation onto the later one, as returned by OrientationBetween, so
// the result is expressed in the frame the orientations are measured in.
func OrientationToAngularVel(diff Orientation, dt float64) r3.Vector {
	axA := diff.AxisAngles()
	return axA.ToR3().Mul(1 / dt)
}

// QuatToAngVel calculates an angular velocity from an orientation change expressed as a quaternion over a time difference.
func QuatToAngVel(diffQ quat.Number, dt float64) r3.Vector {
	return QuatToRotationVector(diffQ).Mul(1 / dt)
}

// RotMatToAngVel calculates an angular velocity from an orientation change expressed as a rotation matrix over a time
// difference.
func RotMatToAngVel(diffRm *RotationMatrix, dt float64) r3.Vector {
	return OrientationToAngularVel(diffRm, dt)
}

// EulerToAngVel calculates an angular velocity from a (small) change in euler angles over a time difference, expressed
// in the rotated frame.
func EulerToAngVel(diffEu EulerAngles, dt float64) r3.Vector {
	return QuatToAngVel(diffEu.Quaternion(), dt)
}
