package imu

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// A LinearModel describes a sensor that reports M v + G s for a true value v, where s is the true
// value of the other sensor. The diagonal of M holds scale factors and its off diagonal entries
// axis misalignment. G holds cross sensitivities such as the g-sensitivity of a gyroscope.
type LinearModel struct {
	m, mInv, g *mat.Dense
}

// NewLinearModel returns a linear intrinsic model. A nil m is the identity and a nil g means no
// cross sensitivity. Both must be 3x3 and m must be invertible.
func NewLinearModel(m, g mat.Matrix) (*LinearModel, error) {
	lm := &LinearModel{m: eye3(), g: mat.NewDense(3, 3, nil)}
	if m != nil {
		if r, c := m.Dims(); r != 3 || c != 3 {
			return nil, errors.Errorf("intrinsic matrix must be 3x3, got %dx%d", r, c)
		}
		lm.m = mat.DenseCopyOf(m)
	}
	if g != nil {
		if r, c := g.Dims(); r != 3 || c != 3 {
			return nil, errors.Errorf("sensitivity matrix must be 3x3, got %dx%d", r, c)
		}
		lm.g = mat.DenseCopyOf(g)
	}
	lm.mInv = mat.NewDense(3, 3, nil)
	if err := lm.mInv.Inverse(lm.m); err != nil {
		return nil, errors.Wrap(err, "intrinsic matrix is not invertible")
	}
	return lm, nil
}

// Matrix returns a copy of M.
func (lm *LinearModel) Matrix() *mat.Dense {
	return mat.DenseCopyOf(lm.m)
}

// Sensitivity returns a copy of G.
func (lm *LinearModel) Sensitivity() *mat.Dense {
	return mat.DenseCopyOf(lm.g)
}

// Distort returns what the sensor reports for the true value primary while the other sensor
// experiences secondary.
func (lm *LinearModel) Distort(primary, secondary r3.Vector) r3.Vector {
	return mulVec3(lm.m, primary).Add(mulVec3(lm.g, secondary))
}

// Undistort inverts Distort given the true value of the other sensor.
func (lm *LinearModel) Undistort(primary, secondary r3.Vector) r3.Vector {
	return mulVec3(lm.mInv, primary.Sub(mulVec3(lm.g, secondary)))
}

// A Model holds the intrinsic models of an accelerometer and a gyroscope mounted together.
type Model struct {
	accelerometer *LinearModel
	gyroscope     *LinearModel
	// inverse of [[Ma, Ga], [Gw, Mw]]
	inverse *mat.Dense
}

// NewModel combines the accelerometer and gyroscope models. A nil model reports true values.
func NewModel(accelerometer, gyroscope *LinearModel) (*Model, error) {
	var err error
	if accelerometer == nil {
		if accelerometer, err = NewLinearModel(nil, nil); err != nil {
			return nil, err
		}
	}
	if gyroscope == nil {
		if gyroscope, err = NewLinearModel(nil, nil); err != nil {
			return nil, err
		}
	}
	joint := mat.NewDense(6, 6, nil)
	for _, block := range []struct {
		i, j int
		m    *mat.Dense
	}{
		{0, 0, accelerometer.m}, {0, 3, accelerometer.g},
		{3, 3, gyroscope.m}, {3, 0, gyroscope.g},
	} {
		joint.Slice(block.i, block.i+3, block.j, block.j+3).(*mat.Dense).Copy(block.m)
	}
	inverse := mat.NewDense(6, 6, nil)
	if err := inverse.Inverse(joint); err != nil {
		return nil, errors.Wrap(err, "combined intrinsic model is not invertible")
	}
	return &Model{accelerometer: accelerometer, gyroscope: gyroscope, inverse: inverse}, nil
}

// Accelerometer returns the accelerometer model.
func (m *Model) Accelerometer() *LinearModel {
	return m.accelerometer
}

// Gyroscope returns the gyroscope model.
func (m *Model) Gyroscope() *LinearModel {
	return m.gyroscope
}

// Distort returns the reported specific force and angular velocity for the true ones.
func (m *Model) Distort(acc, gyr r3.Vector) (r3.Vector, r3.Vector) {
	return m.accelerometer.Distort(acc, gyr), m.gyroscope.Distort(gyr, acc)
}

// Undistort recovers the true specific force and angular velocity from reported ones.
func (m *Model) Undistort(acc, gyr r3.Vector) (r3.Vector, r3.Vector) {
	reported := mat.NewVecDense(6, []float64{acc.X, acc.Y, acc.Z, gyr.X, gyr.Y, gyr.Z})
	var out mat.VecDense
	out.MulVec(m.inverse, reported)
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)},
		r3.Vector{X: out.AtVec(3), Y: out.AtVec(4), Z: out.AtVec(5)}
}

func mulVec3(m mat.Matrix, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
