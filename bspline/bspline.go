// Package bspline implements non-uniform B-spline curves of arbitrary order together with
// analytic time derivatives, Jacobians with respect to the active coefficients and a
// pose-valued spline built on a minimal rotation parameterization.
//
// A spline of order k is a piecewise polynomial of degree k-1. Its coefficients are stored
// as the columns of a dimension x N matrix and its knot vector has N+k entries. At any time
// inside the valid domain exactly k consecutive coefficient columns are active.
//
// A BSpline is not safe for concurrent mutation. Evaluation never mutates the spline, so
// any number of readers may share one instance while no writer is active.
package bspline

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BSpline is a vector valued B-spline curve.
type BSpline struct {
	order        int
	knots        []float64
	coefficients *mat.Dense
}

// NewBSpline returns an empty spline of the given order. Knots and coefficients must be set
// with SetKnotsAndCoefficients or one of the Init functions before it can be evaluated.
func NewBSpline(order int) (*BSpline, error) {
	if order <= 0 {
		return nil, errors.Errorf("spline order must be positive, got %d", order)
	}
	return &BSpline{order: order}, nil
}

// Order returns the order of the spline, which is its polynomial degree plus one.
func (bs *BSpline) Order() int {
	return bs.order
}

// PolynomialDegree returns the degree of each polynomial segment.
func (bs *BSpline) PolynomialDegree() int {
	return bs.order - 1
}

// Dimension returns the length of each curve value, or zero if no coefficients are set.
func (bs *BSpline) Dimension() int {
	if bs.coefficients == nil {
		return 0
	}
	r, _ := bs.coefficients.Dims()
	return r
}

// NumCoefficientsRequired returns the number of coefficient columns needed for the given number
// of valid time segments. The segment count must be positive.
func (bs *BSpline) NumCoefficientsRequired(segments int) (int, error) {
	if segments <= 0 {
		return 0, NewInvalidSegmentsError(segments)
	}
	return segments + bs.order - 1, nil
}

// NumKnotsRequired returns the length of the knot vector needed for the given number of valid
// time segments. The segment count must be positive.
func (bs *BSpline) NumKnotsRequired(segments int) (int, error) {
	n, err := bs.NumCoefficientsRequired(segments)
	if err != nil {
		return 0, err
	}
	return n + bs.order, nil
}

// MinimumKnotsRequired is the knot count of a spline with a single valid segment.
func (bs *BSpline) MinimumKnotsRequired() int {
	return 2 * bs.order
}

// SetKnotsAndCoefficients replaces the knot vector and the coefficient matrix in one step.
// Both are copied. On error the spline is left unchanged.
func (bs *BSpline) SetKnotsAndCoefficients(knots []float64, coefficients mat.Matrix) error {
	if len(knots) < bs.MinimumKnotsRequired() {
		return errors.Errorf("knot vector has %d entries, a spline of order %d needs at least %d",
			len(knots), bs.order, bs.MinimumKnotsRequired())
	}
	if math.IsNaN(knots[0]) {
		return errors.New("knot 0 is NaN")
	}
	for i := 1; i < len(knots); i++ {
		if math.IsNaN(knots[i]) || knots[i] < knots[i-1] {
			return errors.Errorf("knot vector must be non-decreasing, knot %d (%v) precedes knot %d (%v)",
				i-1, knots[i-1], i, knots[i])
		}
	}
	if coefficients == nil {
		return errors.New("coefficient matrix is nil")
	}
	rows, cols := coefficients.Dims()
	if want := len(knots) - bs.order; cols != want {
		return NewShapeMismatchError("coefficient matrix width", cols, want)
	}
	if rows == 0 {
		return errors.New("coefficient matrix has no rows")
	}
	if knots[len(knots)-bs.order] <= knots[bs.order-1] {
		return errors.Errorf("knot vector has an empty valid time domain [%v, %v]",
			knots[bs.order-1], knots[len(knots)-bs.order])
	}

	bs.knots = append([]float64(nil), knots...)
	bs.coefficients = mat.DenseCopyOf(coefficients)
	return nil
}

// Knots returns a copy of the knot vector.
func (bs *BSpline) Knots() []float64 {
	return append([]float64(nil), bs.knots...)
}

// Coefficients returns the coefficient matrix. The returned matrix is the live storage of the
// spline; writes to it change the curve.
func (bs *BSpline) Coefficients() *mat.Dense {
	return bs.coefficients
}

// TMin returns the start of the valid time domain.
func (bs *BSpline) TMin() float64 {
	if len(bs.knots) == 0 {
		return 0
	}
	return bs.knots[bs.order-1]
}

// TMax returns the end of the valid time domain. TMax itself is a valid evaluation time; the
// curve there is the limit from below of the last segment.
func (bs *BSpline) TMax() float64 {
	if len(bs.knots) == 0 {
		return 0
	}
	return bs.knots[len(bs.knots)-bs.order]
}

// NumValidTimeSegments returns the number of knot intervals inside the valid time domain,
// including zero length intervals.
func (bs *BSpline) NumValidTimeSegments() int {
	if len(bs.knots) == 0 {
		return 0
	}
	return len(bs.knots) - 2*bs.order + 1
}

// NumVvCoefficients returns the number of coefficient columns.
func (bs *BSpline) NumVvCoefficients() int {
	if bs.coefficients == nil {
		return 0
	}
	_, c := bs.coefficients.Dims()
	return c
}

// SegmentIndex returns the knot index i with knots[i] <= t < knots[i+1] that holds t. At TMax
// the index of the last non-empty segment is returned.
func (bs *BSpline) SegmentIndex(t float64) (int, error) {
	if len(bs.knots) == 0 {
		return 0, ErrNoKnots
	}
	tMin, tMax := bs.TMin(), bs.TMax()
	if math.IsNaN(t) || t < tMin || t > tMax {
		return 0, NewTimeOutOfRangeError(t, tMin, tMax)
	}
	first, last := bs.order-1, len(bs.knots)-bs.order-1
	i := sort.Search(len(bs.knots), func(j int) bool { return bs.knots[j] > t }) - 1
	if i > last {
		i = last
	}
	for i > first && bs.knots[i+1] == bs.knots[i] {
		i--
	}
	return i, nil
}

// firstActiveIndex returns the index of the first active coefficient column at t.
func (bs *BSpline) firstActiveIndex(t float64) (int, error) {
	span, err := bs.SegmentIndex(t)
	if err != nil {
		return 0, err
	}
	return span - bs.order + 1, nil
}
