package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 row major elements.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// NewRotationMatrixFromColumns creates the rotation matrix whose columns are the given vectors.
func NewRotationMatrixFromColumns(c0, c1, c2 r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z,
	}}
}

// IdentityRotationMatrix returns the identity rotation.
func IdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// Quaternion returns orientation in quaternion representation.
// reference: http://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/index.htm
func (rm *RotationMatrix) Quaternion() quat.Number {
	var q quat.Number
	m := rm.mat
	tr := m[0] + m[4] + m[8]
	switch {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1.0)
		q.Real = 0.25 / s
		q.Imag = (m[7] - m[5]) * s
		q.Jmag = (m[2] - m[6]) * s
		q.Kmag = (m[3] - m[1]) * s
	case m[0] > m[4] && m[0] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[0]-m[4]-m[8])
		q.Real = (m[7] - m[5]) / s
		q.Imag = 0.25 * s
		q.Jmag = (m[1] + m[3]) / s
		q.Kmag = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := 2.0 * math.Sqrt(1.0+m[4]-m[0]-m[8])
		q.Real = (m[2] - m[6]) / s
		q.Imag = (m[1] + m[3]) / s
		q.Jmag = 0.25 * s
		q.Kmag = (m[5] + m[7]) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m[8]-m[0]-m[4])
		q.Real = (m[3] - m[1]) / s
		q.Imag = (m[2] + m[6]) / s
		q.Jmag = (m[5] + m[7]) / s
		q.Kmag = 0.25 * s
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return Normalize(q)
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	aa := QuatToR4AA(rm.Quaternion())
	return &aa
}

// EulerAngles returns orientation in Euler angle representation.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(rm.Quaternion())
}

// At returns the value at the specified row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns a 3 element vector corresponding to the specified column.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[col+3], Z: rm.mat[col+6]}
}

// Transpose returns the transpose, which for a rotation is its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Mul returns the product rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	var out RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.mat[3*r+c] = rm.mat[3*r]*other.mat[c] + rm.mat[3*r+1]*other.mat[3+c] + rm.mat[3*r+2]*other.mat[6+c]
		}
	}
	return &out
}

// MulVec rotates the vector, returning rm * v.
func (rm *RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.Row(0).Dot(v),
		Y: rm.Row(1).Dot(v),
		Z: rm.Row(2).Dot(v),
	}
}

// TransposeMulVec rotates the vector by the inverse rotation, returning rm^T * v.
func (rm *RotationMatrix) TransposeMulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.Col(0).Dot(v),
		Y: rm.Col(1).Dot(v),
		Z: rm.Col(2).Dot(v),
	}
}

// EulerAnglesAbout extracts the angles (a, b, c) such that rm = R(a0, a) * R(a1, b) * R(a2, c), where R(i, x)
// is a rotation of x radians about axis i (0 for x, 1 for y, 2 for z). Adjacent axes must differ.
// The first angle is returned in [0, pi], the other two in [-pi, pi], matching Eigen's eulerAngles.
// Implemented from Graphics Gems IV.
func (rm *RotationMatrix) EulerAnglesAbout(a0, a1, a2 int) (r3.Vector, error) {
	for _, a := range []int{a0, a1, a2} {
		if a < 0 || a > 2 {
			return r3.Vector{}, errors.Errorf("euler axis %d is not one of 0, 1, 2", a)
		}
	}
	if a0 == a1 || a1 == a2 {
		return r3.Vector{}, errors.Errorf("adjacent euler axes must differ, got (%d, %d, %d)", a0, a1, a2)
	}

	odd := 1
	if (a0+1)%3 == a1 {
		odd = 0
	}
	i := a0
	j := (a0 + 1 + odd) % 3
	k := (a0 + 2 - odd) % 3
	m := rm.At

	var res [3]float64
	flip := func() bool {
		return (odd == 1 && res[0] < 0) || (odd == 0 && res[0] > 0)
	}
	if a0 == a2 {
		// Proper Euler angles.
		res[0] = math.Atan2(m(j, i), m(k, i))
		s2 := math.Hypot(m(j, i), m(k, i))
		if flip() {
			if res[0] > 0 {
				res[0] -= math.Pi
			} else {
				res[0] += math.Pi
			}
			res[1] = -math.Atan2(s2, m(i, i))
		} else {
			res[1] = math.Atan2(s2, m(i, i))
		}
		s1, c1 := math.Sincos(res[0])
		res[2] = math.Atan2(c1*m(j, k)-s1*m(k, k), c1*m(j, j)-s1*m(k, j))
	} else {
		// Tait-Bryan angles.
		res[0] = math.Atan2(m(j, k), m(k, k))
		c2 := math.Hypot(m(i, i), m(i, j))
		if flip() {
			if res[0] > 0 {
				res[0] -= math.Pi
			} else {
				res[0] += math.Pi
			}
			res[1] = math.Atan2(-m(i, k), -c2)
		} else {
			res[1] = math.Atan2(-m(i, k), c2)
		}
		s1, c1 := math.Sincos(res[0])
		res[2] = math.Atan2(s1*m(k, i)-c1*m(j, i), c1*m(j, j)-s1*m(k, j))
	}
	if odd == 0 {
		res[0], res[1], res[2] = -res[0], -res[1], -res[2]
	}
	return r3.Vector{X: res[0], Y: res[1], Z: res[2]}, nil
}

// RotationMatrixAlmostEqual compares two rotation matrices element-wise.
func RotationMatrixAlmostEqual(a, b *RotationMatrix, epsilon float64) bool {
	for i := range a.mat {
		if math.Abs(a.mat[i]-b.mat[i]) > epsilon {
			return false
		}
	}
	return true
}
