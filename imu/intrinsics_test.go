package imu

import (
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/visim/logging"
	"go.viam.com/visim/spatialmath"
	"go.viam.com/visim/trajectory"
)

// scale factors near one with small misalignment and cross sensitivity
func testModel(t *testing.T) *Model {
	t.Helper()
	acc, err := NewLinearModel(
		mat.NewDense(3, 3, []float64{1.01, 0.002, -0.001, 0.003, 0.99, 0.002, -0.002, 0.001, 1.02}),
		nil,
	)
	test.That(t, err, test.ShouldBeNil)
	gyr, err := NewLinearModel(
		mat.NewDense(3, 3, []float64{0.98, -0.004, 0, 0.001, 1.03, 0.003, 0.002, 0, 1.005}),
		mat.NewDense(3, 3, []float64{1e-3, 0, 2e-4, 0, 1e-3, 0, -3e-4, 0, 1e-3}),
	)
	test.That(t, err, test.ShouldBeNil)
	model, err := NewModel(acc, gyr)
	test.That(t, err, test.ShouldBeNil)
	return model
}

func randomVector(rng *rand.Rand, scale float64) r3.Vector {
	return r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Mul(scale)
}

func TestLinearModel(t *testing.T) {
	identity, err := NewLinearModel(nil, nil)
	test.That(t, err, test.ShouldBeNil)
	v := r3.Vector{X: 1, Y: -2, Z: 9.81}
	test.That(t, identity.Distort(v, r3.Vector{X: 5}), test.ShouldResemble, v)

	model := testModel(t)
	rng := rand.New(rand.NewPCG(21, 22))
	for i := 0; i < 20; i++ {
		primary, secondary := randomVector(rng, 10), randomVector(rng, 1)
		distorted := model.Gyroscope().Distort(primary, secondary)
		undistorted := model.Gyroscope().Undistort(distorted, secondary)
		test.That(t, spatialmath.R3VectorAlmostEqual(undistorted, primary, 1e-12), test.ShouldBeTrue)
	}

	_, err = NewLinearModel(mat.NewDense(3, 3, nil), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not invertible")
	_, err = NewLinearModel(mat.NewDense(2, 2, []float64{1, 0, 0, 1}), nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewLinearModel(nil, mat.NewDense(3, 2, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestModelRoundTrip(t *testing.T) {
	model := testModel(t)
	rng := rand.New(rand.NewPCG(23, 24))
	for i := 0; i < 20; i++ {
		acc, gyr := randomVector(rng, 10), randomVector(rng, 2)
		distortedAcc, distortedGyr := model.Distort(acc, gyr)
		test.That(t, spatialmath.R3VectorAlmostEqual(distortedAcc, acc, 1e-12), test.ShouldBeFalse)

		undistortedAcc, undistortedGyr := model.Undistort(distortedAcc, distortedGyr)
		test.That(t, spatialmath.R3VectorAlmostEqual(undistortedAcc, acc, 1e-9), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(undistortedGyr, gyr, 1e-9), test.ShouldBeTrue)
	}

	identity, err := NewModel(nil, nil)
	test.That(t, err, test.ShouldBeNil)
	acc, gyr := identity.Undistort(r3.Vector{Z: 9.81}, r3.Vector{X: 0.1})
	test.That(t, spatialmath.R3VectorAlmostEqual(acc, r3.Vector{Z: 9.81}, 1e-15), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(gyr, r3.Vector{X: 0.1}, 1e-15), test.ShouldBeTrue)
}

func TestSimulatorWithModel(t *testing.T) {
	traj, err := trajectory.NewStationary(spatialmath.NewZeroPose(), 0, 10)
	test.That(t, err, test.ShouldBeNil)
	accBias := r3.Vector{X: 0.1, Y: -0.2, Z: 0.3}
	gyrBias := r3.Vector{X: -0.01, Y: 0.02, Z: 0.005}
	sim, err := NewSimulator(traj, NewConstantBias(accBias, gyrBias), sigmaSampler(t, 0, 5), sigmaSampler(t, 0, 6),
		100, 100, DefaultGravity, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	model := testModel(t)
	distorted := sim.WithModel(model)
	test.That(t, sim.Model(), test.ShouldBeNil)
	test.That(t, distorted.Model() == model, test.ShouldBeTrue)

	gravity := r3.Vector{Z: DefaultGravity}
	f, err := distorted.SpecificForceCorrupted(3)
	test.That(t, err, test.ShouldBeNil)
	w, err := distorted.AngularVelocityCorrupted(3)
	test.That(t, err, test.ShouldBeNil)
	wantAcc, wantGyr := model.Distort(gravity, r3.Vector{})
	test.That(t, spatialmath.R3VectorAlmostEqual(f, wantAcc.Add(accBias), 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(w, wantGyr.Add(gyrBias), 1e-12), test.ShouldBeTrue)
	// a resting gyroscope still senses gravity through its g-sensitivity
	test.That(t, w.Sub(gyrBias).Norm(), test.ShouldBeGreaterThan, 1e-3)

	acc, gyr := model.Undistort(f.Sub(accBias), w.Sub(gyrBias))
	test.That(t, spatialmath.R3VectorAlmostEqual(acc, gravity, 1e-9), test.ShouldBeTrue)
	test.That(t, gyr.Norm(), test.ShouldAlmostEqual, 0., 1e-9)

	actual, err := distorted.SpecificForceActual(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(actual, gravity, 1e-12), test.ShouldBeTrue)
}
