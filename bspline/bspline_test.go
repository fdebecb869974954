package bspline

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func integerKnots(n int) []float64 {
	knots := make([]float64, n)
	for i := range knots {
		knots[i] = float64(i)
	}
	return knots
}

func randomMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 2*rng.Float64() - 1
	}
	return mat.NewDense(rows, cols, data)
}

func TestNewBSpline(t *testing.T) {
	_, err := NewBSpline(0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewBSpline(-2)
	test.That(t, err, test.ShouldNotBeNil)

	bs, err := NewBSpline(4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bs.Order(), test.ShouldEqual, 4)
	test.That(t, bs.PolynomialDegree(), test.ShouldEqual, 3)
	test.That(t, bs.Dimension(), test.ShouldEqual, 0)
	numCoefficients, err := bs.NumCoefficientsRequired(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, numCoefficients, test.ShouldEqual, 13)
	numKnots, err := bs.NumKnotsRequired(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, numKnots, test.ShouldEqual, 17)
	test.That(t, bs.MinimumKnotsRequired(), test.ShouldEqual, 8)
	one, err := bs.NumKnotsRequired(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, one, test.ShouldEqual, bs.MinimumKnotsRequired())

	for _, segments := range []int{0, -3} {
		_, err = bs.NumCoefficientsRequired(segments)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "number of segments must be positive")
		_, err = bs.NumKnotsRequired(segments)
		test.That(t, err, test.ShouldNotBeNil)
	}

	_, err = bs.Eval(0)
	test.That(t, errors.Is(err, ErrNoKnots), test.ShouldBeTrue)
}

func requiredSizes(t *testing.T, bs *BSpline, segments int) (int, int) {
	t.Helper()
	numKnots, err := bs.NumKnotsRequired(segments)
	test.That(t, err, test.ShouldBeNil)
	numCoefficients, err := bs.NumCoefficientsRequired(segments)
	test.That(t, err, test.ShouldBeNil)
	return numKnots, numCoefficients
}

func TestSetKnotsAndCoefficients(t *testing.T) {
	bs, err := NewBSpline(3)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("too few knots", func(t *testing.T) {
		err := bs.SetKnotsAndCoefficients(integerKnots(5), randomMatrix(rng, 2, 2))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "at least 6")
	})
	t.Run("decreasing knots", func(t *testing.T) {
		knots := integerKnots(7)
		knots[4] = 1
		err := bs.SetKnotsAndCoefficients(knots, randomMatrix(rng, 2, 4))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "non-decreasing")
	})
	t.Run("nan first knot", func(t *testing.T) {
		knots := integerKnots(7)
		knots[0] = math.NaN()
		err := bs.SetKnotsAndCoefficients(knots, randomMatrix(rng, 2, 4))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "NaN")
	})
	t.Run("wrong width", func(t *testing.T) {
		err := bs.SetKnotsAndCoefficients(integerKnots(7), randomMatrix(rng, 2, 5))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected 4")
	})
	t.Run("empty domain", func(t *testing.T) {
		err := bs.SetKnotsAndCoefficients([]float64{0, 1, 2, 2, 3, 4}, randomMatrix(rng, 2, 3))
		test.That(t, err, test.ShouldNotBeNil)
	})
	test.That(t, bs.NumVvCoefficients(), test.ShouldEqual, 0)

	knots := integerKnots(9)
	coefficients := randomMatrix(rng, 2, 6)
	test.That(t, bs.SetKnotsAndCoefficients(knots, coefficients), test.ShouldBeNil)
	test.That(t, bs.Dimension(), test.ShouldEqual, 2)
	test.That(t, bs.NumVvCoefficients(), test.ShouldEqual, 6)
	test.That(t, bs.NumValidTimeSegments(), test.ShouldEqual, 4)
	test.That(t, bs.TMin(), test.ShouldEqual, 2.)
	test.That(t, bs.TMax(), test.ShouldEqual, 6.)
	test.That(t, bs.Knots(), test.ShouldResemble, knots)

	// the spline owns copies of its inputs
	knots[0] = -100
	coefficients.Set(0, 0, 100)
	test.That(t, bs.Knots()[0], test.ShouldEqual, 0.)
	test.That(t, bs.Coefficients().At(0, 0), test.ShouldNotEqual, 100.)
}

func TestTimeDomain(t *testing.T) {
	bs, err := NewBSpline(4)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(3, 4))
	test.That(t, bs.SetKnotsAndCoefficients(integerKnots(10), randomMatrix(rng, 3, 6)), test.ShouldBeNil)

	for _, tc := range []float64{3, 4.5, 5.999, 6} {
		_, err := bs.Eval(tc)
		test.That(t, err, test.ShouldBeNil)
	}

	// the upper bound is the limit from below of the last segment
	atMax, err := bs.Eval(6)
	test.That(t, err, test.ShouldBeNil)
	nearMax, err := bs.Eval(6 - 1e-9)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(atMax, nearMax, 1e-7), test.ShouldBeTrue)
	indices, err := bs.LocalCoefficientVectorIndices(6)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, indices, test.ShouldResemble, []int{2, 3, 4, 5})

	for _, tc := range []float64{2.999, 6.001, math.NaN(), math.Inf(1)} {
		_, err := bs.Eval(tc)
		test.That(t, err, test.ShouldNotBeNil)
		var rangeErr *TimeOutOfRangeError
		test.That(t, errors.As(err, &rangeErr), test.ShouldBeTrue)
		test.That(t, rangeErr.Min, test.ShouldEqual, 3.)
		test.That(t, rangeErr.Max, test.ShouldEqual, 6.)
	}
}

// localEvaluator evaluates a derivative of the curve at a fixed time as a function of the local
// coefficient vector.
func localEvaluator(t *testing.T, bs *BSpline, at float64, d int) func(y, x []float64) {
	return func(y, x []float64) {
		old, err := bs.LocalCoefficientVector(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bs.SetLocalCoefficientVector(at, mat.NewVecDense(len(x), x)), test.ShouldBeNil)
		value, err := bs.EvalD(at, d)
		test.That(t, err, test.ShouldBeNil)
		copy(y, value.RawVector().Data)
		test.That(t, bs.SetLocalCoefficientVector(at, old), test.ShouldBeNil)
	}
}

func TestBSplineJacobian(t *testing.T) {
	const segments = 2
	rng := rand.New(rand.NewPCG(5, 6))
	for order := 2; order < 10; order++ {
		bs, err := NewBSpline(order)
		test.That(t, err, test.ShouldBeNil)
		numKnots, numCoefficients := requiredSizes(t, bs, segments)
		knots := integerKnots(numKnots)

		for dim := 1; dim < 4; dim++ {
			coefficients := randomMatrix(rng, dim, numCoefficients)
			test.That(t, bs.SetKnotsAndCoefficients(knots, coefficients), test.ShouldBeNil)
			for d := 0; d < order; d++ {
				for at := bs.TMin(); at < bs.TMax(); at += 0.1 {
					point, err := bs.LocalCoefficientVector(at)
					test.That(t, err, test.ShouldBeNil)

					estimated := mat.NewDense(dim, dim*order, nil)
					fd.Jacobian(estimated, localEvaluator(t, bs, at, d), point.RawVector().Data,
						&fd.JacobianSettings{Formula: fd.Central})

					value, jacobian, err := bs.EvalDAndJacobian(at, d)
					test.That(t, err, test.ShouldBeNil)
					test.That(t, mat.EqualApprox(jacobian, estimated, 1e-5), test.ShouldBeTrue)

					var viaJacobian mat.VecDense
					viaJacobian.MulVec(jacobian, point)
					test.That(t, mat.EqualApprox(&viaJacobian, value, 1e-9), test.ShouldBeTrue)
				}
			}
		}
	}
}

func TestDerivativesAboveDegreeVanish(t *testing.T) {
	bs, err := NewBSpline(3)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(7, 8))
	test.That(t, bs.SetKnotsAndCoefficients(integerKnots(9), randomMatrix(rng, 2, 6)), test.ShouldBeNil)

	value, err := bs.EvalD(3.3, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value.AtVec(0), test.ShouldEqual, 0.)
	test.That(t, value.AtVec(1), test.ShouldEqual, 0.)

	_, err = bs.EvalD(3.3, -1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCoefficientMap(t *testing.T) {
	const (
		order    = 4
		segments = 10
		dim      = 5
	)
	bs, err := NewBSpline(order)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(9, 10))
	test.That(t, bs.InitConstantSpline(10, 20, segments, mat.NewVecDense(dim, nil)), test.ShouldBeNil)
	test.That(t, bs.TMin(), test.ShouldEqual, 10.)
	test.That(t, bs.TMax(), test.ShouldEqual, 20.)
	test.That(t, bs.NumValidTimeSegments(), test.ShouldEqual, segments)
	_, numCoefficients := requiredSizes(t, bs, segments)
	test.That(t, bs.SetKnotsAndCoefficients(bs.Knots(), randomMatrix(rng, dim, numCoefficients)), test.ShouldBeNil)

	cc := bs.Coefficients()
	raw := cc.RawMatrix()
	for i := 0; i < bs.NumVvCoefficients(); i++ {
		m, err := bs.VvCoefficientVector(i)
		test.That(t, err, test.ShouldBeNil)
		m2, err := bs.FixedSizeVvCoefficientVector(i, dim)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Len(), test.ShouldEqual, dim)

		vec, vec2 := m.Vec(), m2.Vec()
		for r := 0; r < m.Len(); r++ {
			cell := &vec.RawVector().Data[r*vec.RawVector().Inc]
			test.That(t, cell == &raw.Data[r*raw.Stride+i], test.ShouldBeTrue)
			test.That(t, cell == &vec2.RawVector().Data[r*vec2.RawVector().Inc], test.ShouldBeTrue)

			m.SetAt(r, rng.Float64())
			test.That(t, m.At(r), test.ShouldEqual, cc.At(r, i))
			test.That(t, m.At(r), test.ShouldEqual, m2.At(r))

			cc.Set(r, i, rng.Float64())
			test.That(t, vec.AtVec(r), test.ShouldEqual, cc.At(r, i))
		}
	}

	_, err = bs.FixedSizeVvCoefficientVector(0, dim+1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = bs.VvCoefficientVector(bs.NumVvCoefficients())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGetBi(t *testing.T) {
	const (
		order     = 4
		segments  = 10
		startTime = 0.
		endTime   = 5.
		timeSteps = 43
	)
	bs, err := NewBSpline(order)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bs.InitConstantSpline(startTime, endTime, segments, mat.NewVecDense(1, nil)), test.ShouldBeNil)

	for i := 0; i <= timeSteps; i++ {
		at := startTime + (endTime-startTime)*float64(i)/timeSteps
		local, err := bs.LocalBiVector(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, floats.Sum(local), test.ShouldAlmostEqual, 1., 1e-10)

		bi, err := bs.BiVector(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, floats.Sum(bi), test.ShouldAlmostEqual, floats.Sum(local), 1e-10)

		cumulative, err := bs.CumulativeBiVector(at)
		test.That(t, err, test.ShouldBeNil)
		localCumulative, err := bs.LocalCumulativeBiVector(at)
		test.That(t, err, test.ShouldBeNil)

		indices, err := bs.LocalCoefficientVectorIndices(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(indices), test.ShouldEqual, order)
		first := indices[0]
		for j := range indices {
			test.That(t, indices[j], test.ShouldEqual, first+j)
		}

		for j := range bi {
			switch {
			case j < first:
				test.That(t, bi[j], test.ShouldEqual, 0.)
				test.That(t, cumulative[j], test.ShouldEqual, 1.)
			case j < first+order:
				test.That(t, bi[j], test.ShouldEqual, local[j-first])
				test.That(t, cumulative[j], test.ShouldEqual, localCumulative[j-first])
				test.That(t, cumulative[j], test.ShouldAlmostEqual, floats.Sum(local[j-first:]), 1e-13)
			default:
				test.That(t, bi[j], test.ShouldEqual, 0.)
				test.That(t, cumulative[j], test.ShouldEqual, 0.)
			}
		}
	}
}

func TestLocalCoefficientVector(t *testing.T) {
	bs, err := NewBSpline(4)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(11, 12))
	test.That(t, bs.SetKnotsAndCoefficients(integerKnots(14), randomMatrix(rng, 3, 10)), test.ShouldBeNil)
	before := mat.DenseCopyOf(bs.Coefficients())

	for at := bs.TMin(); at <= bs.TMax(); at += 0.25 {
		local, err := bs.LocalCoefficientVector(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, local.Len(), test.ShouldEqual, 12)
		test.That(t, bs.SetLocalCoefficientVector(at, local), test.ShouldBeNil)
		test.That(t, mat.Equal(before, bs.Coefficients()), test.ShouldBeTrue)

		flat, err := bs.LocalVvCoefficientVectorIndices(at)
		test.That(t, err, test.ShouldBeNil)
		all := bs.CoefficientVector()
		for i, idx := range flat {
			test.That(t, all.AtVec(idx), test.ShouldEqual, local.AtVec(i))
		}
	}

	err = bs.SetLocalCoefficientVector(bs.TMin(), mat.NewVecDense(5, nil))
	test.That(t, err, test.ShouldNotBeNil)

	all := bs.CoefficientVector()
	all.ScaleVec(2, all)
	test.That(t, bs.SetCoefficientVector(all), test.ShouldBeNil)
	test.That(t, bs.Coefficients().At(2, 7), test.ShouldEqual, 2*before.At(2, 7))
	test.That(t, bs.SetCoefficientVector(mat.NewVecDense(3, nil)), test.ShouldNotBeNil)
}

func TestEvalCumulative(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	for order := 1; order < 7; order++ {
		bs, err := NewBSpline(order)
		test.That(t, err, test.ShouldBeNil)
		numKnots, numCoefficients := requiredSizes(t, bs, 5)
		test.That(t, bs.SetKnotsAndCoefficients(integerKnots(numKnots), randomMatrix(rng, 2, numCoefficients)),
			test.ShouldBeNil)
		for at := bs.TMin(); at <= bs.TMax(); at += 0.3 {
			direct, err := bs.Eval(at)
			test.That(t, err, test.ShouldBeNil)
			viaCumulative, err := bs.EvalCumulative(at)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, mat.EqualApprox(direct, viaCumulative, 1e-12), test.ShouldBeTrue)
		}
	}
}

func TestClampedKnots(t *testing.T) {
	bs, err := NewBSpline(4)
	test.That(t, err, test.ShouldBeNil)
	rng := rand.New(rand.NewPCG(15, 16))
	coefficients := randomMatrix(rng, 2, 6)
	knots := []float64{0, 0, 0, 0, 1, 2.5, 3, 3, 3, 3}
	test.That(t, bs.SetKnotsAndCoefficients(knots, coefficients), test.ShouldBeNil)
	test.That(t, bs.TMin(), test.ShouldEqual, 0.)
	test.That(t, bs.TMax(), test.ShouldEqual, 3.)

	start, err := bs.Eval(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(start, coefficients.ColView(0), 1e-12), test.ShouldBeTrue)
	end, err := bs.Eval(3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(end, coefficients.ColView(5), 1e-12), test.ShouldBeTrue)

	for at := 0.; at <= 3; at += 0.125 {
		local, err := bs.LocalBiVector(at)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, floats.Sum(local), test.ShouldAlmostEqual, 1., 1e-10)
	}
}
