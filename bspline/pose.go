package bspline

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/visim/spatialmath"
)

// PoseDimension is the length of a pose spline curve value: a translation followed by a
// rotation vector.
const PoseDimension = 6

// A PoseSpline is a six dimensional spline whose value [tx, ty, tz, p1, p2, p3] describes the
// body frame in the world frame. The translation is the body origin in world coordinates and
// the body orientation is R_W_B = exp(-[p]x).
type PoseSpline struct {
	*BSpline
}

// NewPoseSpline returns an empty pose spline of the given order.
func NewPoseSpline(order int) (*PoseSpline, error) {
	bs, err := NewBSpline(order)
	if err != nil {
		return nil, err
	}
	return &PoseSpline{BSpline: bs}, nil
}

// CurveValueToTransformation converts a curve value into the pose it represents.
func CurveValueToTransformation(v mat.Vector) (spatialmath.Pose, error) {
	if v.Len() != PoseDimension {
		return nil, NewShapeMismatchError("pose curve value", v.Len(), PoseDimension)
	}
	return spatialmath.NewPose(translationOf(v), rotationOf(v)), nil
}

// TransformationToCurveValue converts a pose into a curve value. The rotation vector has norm at
// most pi, so the conversion inverts CurveValueToTransformation for rotation vectors shorter than pi.
func TransformationToCurveValue(pose spatialmath.Pose) *mat.VecDense {
	t := pose.Point()
	p := spatialmath.MatrixToRotationVector(pose.Orientation().RotationMatrix()).Mul(-1)
	return mat.NewVecDense(PoseDimension, []float64{t.X, t.Y, t.Z, p.X, p.Y, p.Z})
}

func translationOf(v mat.Vector) r3.Vector {
	return r3.Vector{X: v.AtVec(0), Y: v.AtVec(1), Z: v.AtVec(2)}
}

func rotationVectorOf(v mat.Vector) r3.Vector {
	return r3.Vector{X: v.AtVec(3), Y: v.AtVec(4), Z: v.AtVec(5)}
}

func rotationOf(v mat.Vector) *spatialmath.RotationMatrix {
	return spatialmath.RotationVectorToMatrix(rotationVectorOf(v).Mul(-1))
}

func (ps *PoseSpline) evalPose(t float64, d int) (*mat.VecDense, error) {
	if ps.Dimension() != PoseDimension {
		if ps.Dimension() == 0 {
			return nil, ErrNoKnots
		}
		return nil, NewShapeMismatchError("pose spline dimension", ps.Dimension(), PoseDimension)
	}
	return ps.EvalD(t, d)
}

// Transformation returns the body pose at t.
func (ps *PoseSpline) Transformation(t float64) (spatialmath.Pose, error) {
	v, err := ps.evalPose(t, 0)
	if err != nil {
		return nil, err
	}
	return CurveValueToTransformation(v)
}

// Position returns the body origin in the world frame at t.
func (ps *PoseSpline) Position(t float64) (r3.Vector, error) {
	v, err := ps.evalPose(t, 0)
	if err != nil {
		return r3.Vector{}, err
	}
	return translationOf(v), nil
}

// Orientation returns R_W_B at t.
func (ps *PoseSpline) Orientation(t float64) (*spatialmath.RotationMatrix, error) {
	v, err := ps.evalPose(t, 0)
	if err != nil {
		return nil, err
	}
	return rotationOf(v), nil
}

// InverseOrientation returns R_B_W at t.
func (ps *PoseSpline) InverseOrientation(t float64) (*spatialmath.RotationMatrix, error) {
	rot, err := ps.Orientation(t)
	if err != nil {
		return nil, err
	}
	return rot.Transpose(), nil
}

// LinearVelocity returns the velocity of the body origin in the world frame at t.
func (ps *PoseSpline) LinearVelocity(t float64) (r3.Vector, error) {
	v, err := ps.evalPose(t, 1)
	if err != nil {
		return r3.Vector{}, err
	}
	return translationOf(v), nil
}

// LinearVelocityBodyFrame returns the velocity of the body origin expressed in the body frame at t.
func (ps *PoseSpline) LinearVelocityBodyFrame(t float64) (r3.Vector, error) {
	return ps.toBody(t, ps.LinearVelocity)
}

// LinearAcceleration returns the acceleration of the body origin in the world frame at t.
func (ps *PoseSpline) LinearAcceleration(t float64) (r3.Vector, error) {
	v, err := ps.evalPose(t, 2)
	if err != nil {
		return r3.Vector{}, err
	}
	return translationOf(v), nil
}

// LinearAccelerationBodyFrame returns the acceleration of the body origin expressed in the body frame at t.
func (ps *PoseSpline) LinearAccelerationBodyFrame(t float64) (r3.Vector, error) {
	return ps.toBody(t, ps.LinearAcceleration)
}

// AngularVelocity returns the angular velocity of the body expressed in the world frame at t.
func (ps *PoseSpline) AngularVelocity(t float64) (r3.Vector, error) {
	v, err := ps.evalPose(t, 0)
	if err != nil {
		return r3.Vector{}, err
	}
	dv, err := ps.evalPose(t, 1)
	if err != nil {
		return r3.Vector{}, err
	}
	return angularVelocity(rotationVectorOf(v), rotationVectorOf(dv)), nil
}

// AngularVelocityBodyFrame returns the angular velocity of the body expressed in the body frame at t.
func (ps *PoseSpline) AngularVelocityBodyFrame(t float64) (r3.Vector, error) {
	return ps.toBody(t, ps.AngularVelocity)
}

// AngularAcceleration returns the angular acceleration of the body expressed in the world frame at t.
func (ps *PoseSpline) AngularAcceleration(t float64) (r3.Vector, error) {
	var p [3]r3.Vector
	for d := range p {
		v, err := ps.evalPose(t, d)
		if err != nil {
			return r3.Vector{}, err
		}
		p[d] = rotationVectorOf(v)
	}
	return angularAcceleration(p[0], p[1], p[2]), nil
}

func (ps *PoseSpline) toBody(t float64, world func(float64) (r3.Vector, error)) (r3.Vector, error) {
	w, err := world(t)
	if err != nil {
		return r3.Vector{}, err
	}
	rot, err := ps.Orientation(t)
	if err != nil {
		return r3.Vector{}, err
	}
	return rot.TransposeMulVec(w), nil
}

// InitPoseSpline sets up a single segment spline over [t0, t1] that starts at start and ends at
// end with constant linear and rotation vector rates. The end rotation vector is chosen among its
// equivalents to be closest to the start one, so the spline takes the short way around.
func (ps *PoseSpline) InitPoseSpline(t0, t1 float64, start, end spatialmath.Pose) error {
	v0 := TransformationToCurveValue(start)
	v1 := TransformationToCurveValue(end)
	unwrapRotationVector(v1, rotationVectorOf(v0))
	return ps.InitSpline(t0, t1, v0, v1)
}

// InitPoseSplineSparse fits a uniform spline with the given number of segments to timestamped
// poses by regularized least squares. See InitUniformSpline for lambda.
func (ps *PoseSpline) InitPoseSplineSparse(times []float64, poses []spatialmath.Pose, segments int, lambda float64) error {
	if len(times) != len(poses) {
		return errors.Errorf("got %d times for %d poses", len(times), len(poses))
	}
	if len(poses) == 0 {
		return errors.New("no poses to fit")
	}
	points := mat.NewDense(PoseDimension, len(poses), nil)
	var previous r3.Vector
	for i, pose := range poses {
		if pose == nil {
			return errors.Errorf("pose %d is nil", i)
		}
		v := TransformationToCurveValue(pose)
		if i > 0 {
			unwrapRotationVector(v, previous)
		}
		previous = rotationVectorOf(v)
		points.SetCol(i, v.RawVector().Data)
	}
	return ps.InitUniformSpline(times, points, segments, lambda)
}

// unwrapRotationVector replaces the rotation vector part of v with the equivalent rotation
// vector closest to reference.
func unwrapRotationVector(v *mat.VecDense, reference r3.Vector) {
	p := rotationVectorOf(v)
	angle := p.Norm()
	var axis r3.Vector
	switch {
	case angle > 1e-12:
		axis = p.Mul(1 / angle)
	case reference.Norm() > 1e-12:
		axis = reference.Normalize()
	default:
		return
	}
	best := p
	bestDist := p.Sub(reference).Norm()
	for s := -3; s <= 3; s++ {
		candidate := axis.Mul(angle + 2*math.Pi*float64(s))
		if dist := candidate.Sub(reference).Norm(); dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	v.SetVec(3, best.X)
	v.SetVec(4, best.Y)
	v.SetVec(5, best.Z)
}
