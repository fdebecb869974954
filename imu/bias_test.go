package imu

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/visim/spatialmath"
)

func TestConstantBias(t *testing.T) {
	var zero ConstantBias
	acc, err := zero.Accelerometer(123)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, acc, test.ShouldResemble, r3.Vector{})

	b := NewConstantBias(r3.Vector{X: 1}, r3.Vector{Z: -1})
	for _, at := range []float64{-1e6, 0, 42} {
		acc, err := b.Accelerometer(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, acc, test.ShouldResemble, r3.Vector{X: 1})
		gyr, err := b.Gyroscope(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gyr, test.ShouldResemble, r3.Vector{Z: -1})
	}
}

func TestContinuousBias(t *testing.T) {
	params := ContinuousBiasParams{
		AccInitial:    r3.Vector{X: 0.1, Y: 0.2, Z: 0.3},
		GyrInitial:    r3.Vector{X: -0.01},
		AccRandomWalk: r3.Vector{X: 0.05, Y: 0.05, Z: 0.05},
		GyrRandomWalk: r3.Vector{X: 0.001, Y: 0.001, Z: 0.001},
		Start:         0,
		End:           100,
		Samples:       201,
		Seed:          7,
	}

	t.Run("deterministic for a seed", func(t *testing.T) {
		first, err := NewContinuousBias(params)
		test.That(t, err, test.ShouldBeNil)
		second, err := NewContinuousBias(params)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, first.Start(), test.ShouldEqual, 0.)
		test.That(t, first.End(), test.ShouldEqual, 100.)
		for _, at := range []float64{0, 13.3, 50, 99.9, 100} {
			a1, err := first.Accelerometer(at)
			test.That(t, err, test.ShouldBeNil)
			a2, err := second.Accelerometer(at)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, a1, test.ShouldResemble, a2)
		}

		other := params
		other.Seed = 8
		third, err := NewContinuousBias(other)
		test.That(t, err, test.ShouldBeNil)
		a1, err := first.Accelerometer(80)
		test.That(t, err, test.ShouldBeNil)
		a3, err := third.Accelerometer(80)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, a1, test.ShouldNotResemble, a3)
	})

	t.Run("drifts from the initial value", func(t *testing.T) {
		b, err := NewContinuousBias(params)
		test.That(t, err, test.ShouldBeNil)
		start, err := b.Accelerometer(0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.R3VectorAlmostEqual(start, params.AccInitial, 0.1), test.ShouldBeTrue)
		end, err := b.Accelerometer(100)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, end, test.ShouldNotResemble, start)
		// the walk after 100s has a standard deviation of 0.5 per axis
		test.That(t, end.Sub(start).Norm(), test.ShouldBeLessThan, 5.)
	})

	t.Run("zero random walk stays constant", func(t *testing.T) {
		still := params
		still.AccRandomWalk = r3.Vector{}
		still.GyrRandomWalk = r3.Vector{}
		b, err := NewContinuousBias(still)
		test.That(t, err, test.ShouldBeNil)
		for _, at := range []float64{0, 33, 100} {
			acc, err := b.Accelerometer(at)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, spatialmath.R3VectorAlmostEqual(acc, still.AccInitial, 1e-9), test.ShouldBeTrue)
			gyr, err := b.Gyroscope(at)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, spatialmath.R3VectorAlmostEqual(gyr, still.GyrInitial, 1e-9), test.ShouldBeTrue)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		bad := params
		bad.End = bad.Start
		_, err := NewContinuousBias(bad)
		test.That(t, err, test.ShouldNotBeNil)

		bad = params
		bad.Samples = 3
		_, err = NewContinuousBias(bad)
		test.That(t, err, test.ShouldNotBeNil)

		bad = params
		bad.GyrRandomWalk = r3.Vector{Y: -1}
		_, err = NewContinuousBias(bad)
		test.That(t, err, test.ShouldNotBeNil)

		b, err := NewContinuousBias(params)
		test.That(t, err, test.ShouldBeNil)
		_, err = b.Gyroscope(100.5)
		test.That(t, err, test.ShouldNotBeNil)
	})
}
