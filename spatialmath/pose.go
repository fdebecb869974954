package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a rigid transformation: a translation plus an orientation. When a pose describes the body
// frame B in the world frame W, Point is the position of B's origin in W and Orientation is R_W_B.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type distalPose struct {
	point       r3.Vector
	orientation *RotationMatrix
}

// NewZeroPose returns a pose at (0,0,0) with the identity orientation.
func NewZeroPose() Pose {
	return &distalPose{orientation: IdentityRotationMatrix()}
}

// NewPose returns a pose with the given translation and orientation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		o = NewZeroOrientation()
	}
	return &distalPose{point: point, orientation: o.RotationMatrix()}
}

// NewPoseFromPoint returns a pose with the given translation and no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &distalPose{point: point, orientation: IdentityRotationMatrix()}
}

// NewPoseFromQuaternion returns a pose from a translation and quaternion components. The quaternion is normalized.
func NewPoseFromQuaternion(point r3.Vector, q quat.Number) Pose {
	return &distalPose{point: point, orientation: QuatToRotationMatrix(q)}
}

func (p *distalPose) Point() r3.Vector {
	return p.point
}

func (p *distalPose) Orientation() Orientation {
	return p.orientation
}

func (p *distalPose) String() string {
	q := p.orientation.Quaternion()
	return fmt.Sprintf("{X:%.6f Y:%.6f Z:%.6f QW:%.6f QX:%.6f QY:%.6f QZ:%.6f}",
		p.point.X, p.point.Y, p.point.Z, q.Real, q.Imag, q.Jmag, q.Kmag)
}

// Compose returns the pose a * b: first b, then a.
func Compose(a, b Pose) Pose {
	ra := a.Orientation().RotationMatrix()
	return &distalPose{
		point:       a.Point().Add(ra.MulVec(b.Point())),
		orientation: ra.Mul(b.Orientation().RotationMatrix()),
	}
}

// PoseInverse returns the inverse transformation.
func PoseInverse(p Pose) Pose {
	rt := p.Orientation().RotationMatrix().Transpose()
	return &distalPose{
		point:       rt.MulVec(p.Point()).Mul(-1),
		orientation: rt,
	}
}

// PoseBetween returns the pose that takes a to b, such that Compose(a, PoseBetween(a, b)) equals b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint applies the pose to a point.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Point().Add(p.Orientation().RotationMatrix().MulVec(pt))
}

// PoseAlmostEqual returns whether two poses agree within a default tolerance.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps returns whether two poses agree within epsilon, on both translation and rotation matrix entries.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		RotationMatrixAlmostEqual(a.Orientation().RotationMatrix(), b.Orientation().RotationMatrix(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
