package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: Imagine a 3d cartesian grid centered at 0,0,0, and a sphere of radius 1 centered at
// that same point. An orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on that sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.
// These four numbers can be used as-is (R4), or they can be converted to R3, where theta is multiplied by each of
// the unit sphere components to give a vector whose length is theta and whose direction is the original axis.
// The R3 form is the rotation vector used as the minimal rotation parameterization throughout this module.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns orientation in quaternion representation.
func (r4 *R4AA) Quaternion() quat.Number {
	return r4.ToQuat()
}

// EulerAngles returns orientation in Euler angle representation.
func (r4 *R4AA) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(r4.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(r4.ToQuat())
}

// ToR3 converts an R4 angle axis to R3. The axis does not need to be normalized.
func (r4 *R4AA) ToR3() r3.Vector {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return r3.Vector{}
	}
	scale := r4.Theta / norm
	return r3.Vector{X: r4.RX * scale, Y: r4.RY * scale, Z: r4.RZ * scale}
}

// ToQuat converts an R4 axis angle to a unit quaternion
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 || r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	sinA, cosA := math.Sincos(r4.Theta / 2)
	return quat.Number{
		Real: cosA,
		Imag: r4.RX / norm * sinA,
		Jmag: r4.RY / norm * sinA,
		Kmag: r4.RZ / norm * sinA,
	}
}

// Normalize scales the x, y, and z components of a R4 axis angle to be on the unit sphere.
// A zero axis is reset to the z axis.
func (r4 *R4AA) Normalize() {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0.0 {
		r4.RX, r4.RY, r4.RZ = 0, 0, 1
		return
	}
	r4.RX /= norm
	r4.RY /= norm
	r4.RZ /= norm
}

// R3ToR4 converts an R3 angle axis to R4.
func R3ToR4(aa r3.Vector) *R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return NewR4AA()
	}
	return &R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// below this angle the rotation vector maps use their Taylor expansions.
const smallAngle = 1e-4

// RotationVectorToMatrix maps a rotation vector to the rotation matrix it generates, exp([v]x), using
// Rodrigues' formula.
func RotationVectorToMatrix(v r3.Vector) *RotationMatrix {
	theta := v.Norm()
	var a, b float64 // sin(theta)/theta, (1-cos(theta))/theta^2
	if theta < smallAngle {
		theta2 := theta * theta
		a = 1 - theta2/6
		b = 0.5 - theta2/24
	} else {
		s, c := math.Sincos(theta)
		a = s / theta
		b = (1 - c) / (theta * theta)
	}
	k := SkewMatrix(v)
	kk := k.Mul(k)
	var out RotationMatrix
	for i := range out.mat {
		out.mat[i] = a*k.mat[i] + b*kk.mat[i]
	}
	out.mat[0]++
	out.mat[4]++
	out.mat[8]++
	return &out
}

// MatrixToRotationVector returns the rotation vector v with |v| <= pi such that exp([v]x) equals the given rotation.
func MatrixToRotationVector(rm *RotationMatrix) r3.Vector {
	return QuatToRotationVector(rm.Quaternion())
}

// QuatToRotationVector returns the rotation vector with norm at most pi for the given unit quaternion.
func QuatToRotationVector(q quat.Number) r3.Vector {
	q = Normalize(q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	n := Norm(q)
	if n < 1e-12 {
		// first order: sin(theta/2) ~ theta/2
		return r3.Vector{X: 2 * q.Imag / q.Real, Y: 2 * q.Jmag / q.Real, Z: 2 * q.Kmag / q.Real}
	}
	theta := 2 * math.Atan2(n, q.Real)
	return r3.Vector{X: q.Imag / n * theta, Y: q.Jmag / n * theta, Z: q.Kmag / n * theta}
}

// SkewMatrix returns the cross product matrix [v]x, so that [v]x * w = v x w.
func SkewMatrix(v r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	}}
}
