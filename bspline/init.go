package bspline

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// uniformKnots returns a knot vector whose valid domain [t0, t1] is split into segments equal
// intervals, with order-1 knots of the same spacing before t0 and after t1.
func (bs *BSpline) uniformKnots(t0, t1 float64, segments int) ([]float64, error) {
	if !(t1 > t0) {
		return nil, errors.Errorf("spline end time %v must be after start time %v", t1, t0)
	}
	numKnots, err := bs.NumKnotsRequired(segments)
	if err != nil {
		return nil, err
	}
	dt := (t1 - t0) / float64(segments)
	knots := make([]float64, numKnots)
	for i := range knots {
		knots[i] = t0 + float64(i-bs.order+1)*dt
	}
	// pin the domain ends against rounding
	knots[bs.order-1] = t0
	knots[len(knots)-bs.order] = t1
	return knots, nil
}

// InitConstantSpline sets up a uniform spline over [t0, t1] with the given number of segments
// whose coefficients all equal value.
func (bs *BSpline) InitConstantSpline(t0, t1 float64, segments int, value mat.Vector) error {
	knots, err := bs.uniformKnots(t0, t1, segments)
	if err != nil {
		return err
	}
	if value == nil || value.Len() == 0 {
		return errors.New("constant spline value must not be empty")
	}
	n := len(knots) - bs.order
	coefficients := mat.NewDense(value.Len(), n, nil)
	for j := 0; j < n; j++ {
		coefficients.SetCol(j, mat.Col(nil, 0, value))
	}
	return bs.SetKnotsAndCoefficients(knots, coefficients)
}

// InitSpline sets up a single segment spline over [t0, t1] that moves from p0 to p1 at constant
// velocity. The curve passes exactly through p0 at t0 and p1 at t1. The order must be at least two.
func (bs *BSpline) InitSpline(t0, t1 float64, p0, p1 mat.Vector) error {
	if bs.order < 2 {
		return errors.Errorf("a spline of order %d cannot interpolate two points", bs.order)
	}
	if p0.Len() != p1.Len() {
		return NewShapeMismatchError("end point", p1.Len(), p0.Len())
	}
	if p0.Len() == 0 {
		return errors.New("spline end points must not be empty")
	}
	knots, err := bs.uniformKnots(t0, t1, 1)
	if err != nil {
		return err
	}

	// Coefficients placed on the line at the Greville abscissae reproduce it exactly.
	n := len(knots) - bs.order
	coefficients := mat.NewDense(p0.Len(), n, nil)
	delta := mat.NewVecDense(p0.Len(), nil)
	delta.SubVec(p1, p0)
	column := mat.NewVecDense(p0.Len(), nil)
	for j := 0; j < n; j++ {
		greville := floats.Sum(knots[j+1:j+bs.order]) / float64(bs.order-1)
		column.AddScaledVec(p0, (greville-t0)/(t1-t0), delta)
		coefficients.SetCol(j, column.RawVector().Data)
	}
	return bs.SetKnotsAndCoefficients(knots, coefficients)
}

// InitUniformSpline fits a uniform spline with the given number of segments over
// [times[0], times[len-1]] to the columns of points by least squares. A non-zero lambda adds
// lambda times the integrated squared norm of the second derivative (first for order two
// splines) to the cost.
func (bs *BSpline) InitUniformSpline(times []float64, points mat.Matrix, segments int, lambda float64) error {
	dim, samples := points.Dims()
	if samples != len(times) {
		return NewShapeMismatchError("sample time vector", len(times), samples)
	}
	if samples < 2 {
		return errors.Errorf("need at least two samples to fit a spline, got %d", samples)
	}
	if !sortedFloats(times) {
		return errors.New("sample times must be non-decreasing")
	}
	if lambda < 0 || math.IsNaN(lambda) {
		return errors.Errorf("regularization weight must be non-negative, got %v", lambda)
	}
	knots, err := bs.uniformKnots(times[0], times[samples-1], segments)
	if err != nil {
		return err
	}
	scratch := &BSpline{order: bs.order, knots: knots}
	n := len(knots) - bs.order

	normal := mat.NewSymDense(n, nil)
	rhs := mat.NewDense(n, dim, nil)
	for s, t := range times {
		bi, err := scratch.LocalBiVector(t)
		if err != nil {
			return err
		}
		first, err := scratch.firstActiveIndex(t)
		if err != nil {
			return err
		}
		for i, wi := range bi {
			for j := i; j < len(bi); j++ {
				normal.SetSym(first+i, first+j, normal.At(first+i, first+j)+wi*bi[j])
			}
			for r := 0; r < dim; r++ {
				rhs.Set(first+i, r, rhs.At(first+i, r)+wi*points.At(r, s))
			}
		}
	}

	if lambda > 0 && bs.order > 1 {
		scratch.addDerivativeEnergy(normal, lambda, min(2, bs.order-1))
	}

	solution := mat.NewDense(n, dim, nil)
	var chol mat.Cholesky
	if chol.Factorize(normal) {
		if err := chol.SolveTo(solution, rhs); err != nil {
			return errors.Wrap(err, "solving spline fit")
		}
	} else if err := solution.Solve(normal, rhs); err != nil {
		return errors.Wrapf(err, "spline fit is underdetermined with %d samples and %d coefficients", samples, n)
	}
	return bs.SetKnotsAndCoefficients(knots, solution.T())
}

// addDerivativeEnergy adds lambda * integral of B_i^(m)(t) B_j^(m)(t) over the valid domain to
// normal. Each segment is integrated exactly with Gauss-Legendre quadrature.
func (bs *BSpline) addDerivativeEnergy(normal *mat.SymDense, lambda float64, m int) {
	degree := bs.PolynomialDegree()
	nodes := make([]float64, bs.order)
	weights := make([]float64, bs.order)
	for span := bs.order - 1; span < len(bs.knots)-bs.order; span++ {
		a, b := bs.knots[span], bs.knots[span+1]
		if b <= a {
			continue
		}
		quad.Legendre{}.FixedLocations(nodes, weights, a, b)
		first := span - degree
		for q, x := range nodes {
			d := basisDerivatives(bs.knots, span, x, degree, m)[m]
			for i := range d {
				for j := i; j < len(d); j++ {
					normal.SetSym(first+i, first+j, normal.At(first+i, first+j)+lambda*weights[q]*d[i]*d[j])
				}
			}
		}
	}
}

// AddCurveSegment appends a knot and a coefficient column, extending the valid domain by one
// knot interval. The curve on the previous domain is unchanged.
func (bs *BSpline) AddCurveSegment(knot float64, value mat.Vector) error {
	if len(bs.knots) == 0 {
		return ErrNoKnots
	}
	if last := bs.knots[len(bs.knots)-1]; !(knot > last) {
		return errors.Errorf("new knot %v must be after the last knot %v", knot, last)
	}
	if value.Len() != bs.Dimension() {
		return NewShapeMismatchError("new coefficient", value.Len(), bs.Dimension())
	}
	dim, n := bs.Dimension(), bs.NumVvCoefficients()
	grown := mat.NewDense(dim, n+1, nil)
	grown.Slice(0, dim, 0, n).(*mat.Dense).Copy(bs.coefficients)
	grown.SetCol(n, mat.Col(nil, 0, value))
	bs.knots = append(bs.knots, knot)
	bs.coefficients = grown
	return nil
}

// RemoveCurveSegment drops the first knot and the first coefficient column, shrinking the valid
// domain by its first knot interval. The curve on the remaining domain is unchanged.
func (bs *BSpline) RemoveCurveSegment() error {
	if len(bs.knots) == 0 {
		return ErrNoKnots
	}
	if len(bs.knots)-1 < bs.MinimumKnotsRequired() {
		return errors.New("cannot remove the last valid time segment")
	}
	knots := bs.knots[1:]
	if knots[len(knots)-bs.order] <= knots[bs.order-1] {
		return errors.New("removing a segment would leave an empty valid time domain")
	}
	dim, n := bs.Dimension(), bs.NumVvCoefficients()
	bs.knots = append([]float64(nil), knots...)
	bs.coefficients = mat.DenseCopyOf(bs.coefficients.Slice(0, dim, 1, n))
	return nil
}

func sortedFloats(values []float64) bool {
	if len(values) > 0 && math.IsNaN(values[0]) {
		return false
	}
	for i := 1; i < len(values); i++ {
		if math.IsNaN(values[i]) || values[i] < values[i-1] {
			return false
		}
	}
	return true
}
