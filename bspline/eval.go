package bspline

import (
	"gonum.org/v1/gonum/mat"
)

// Eval returns the curve value at t.
func (bs *BSpline) Eval(t float64) (*mat.VecDense, error) {
	return bs.EvalD(t, 0)
}

// EvalD returns the derivative of order d of the curve at t.
func (bs *BSpline) EvalD(t float64, d int) (*mat.VecDense, error) {
	bi, first, err := bs.localBasis(t, d)
	if err != nil {
		return nil, err
	}
	dim := bs.Dimension()
	value := mat.NewVecDense(dim, nil)
	for j, w := range bi {
		if w == 0 {
			continue
		}
		value.AddScaledVec(value, w, bs.coefficients.ColView(first+j))
	}
	return value, nil
}

// EvalDAndJacobian returns the derivative of order d of the curve at t and its Jacobian with
// respect to the local coefficient vector. The Jacobian is dimension x (dimension*order) with
// columns ordered as in LocalCoefficientVector.
func (bs *BSpline) EvalDAndJacobian(t float64, d int) (*mat.VecDense, *mat.Dense, error) {
	value, err := bs.EvalD(t, d)
	if err != nil {
		return nil, nil, err
	}
	jacobian, err := bs.Phi(t, d)
	if err != nil {
		return nil, nil, err
	}
	return value, jacobian, nil
}

// Phi returns the Jacobian of the derivative of order d of the curve at t with respect to the
// local coefficient vector. It does not depend on the coefficient values.
func (bs *BSpline) Phi(t float64, d int) (*mat.Dense, error) {
	bi, _, err := bs.localBasis(t, d)
	if err != nil {
		return nil, err
	}
	dim := bs.Dimension()
	jacobian := mat.NewDense(dim, dim*bs.order, nil)
	for j, w := range bi {
		for r := 0; r < dim; r++ {
			jacobian.Set(r, j*dim+r, w)
		}
	}
	return jacobian, nil
}

// EvalCumulative evaluates the curve at t through the cumulative basis,
// c_first + sum_j cumBi_j (c_j - c_{j-1}). The result equals Eval(t).
func (bs *BSpline) EvalCumulative(t float64) (*mat.VecDense, error) {
	cum, err := bs.LocalCumulativeBiVector(t)
	if err != nil {
		return nil, err
	}
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	value := mat.VecDenseCopyOf(bs.coefficients.ColView(first))
	diff := mat.NewVecDense(bs.Dimension(), nil)
	for j := 1; j < len(cum); j++ {
		diff.SubVec(bs.coefficients.ColView(first+j), bs.coefficients.ColView(first+j-1))
		value.AddScaledVec(value, cum[j], diff)
	}
	return value, nil
}

func (bs *BSpline) localBasis(t float64, d int) ([]float64, int, error) {
	if bs.coefficients == nil {
		return nil, 0, ErrNoKnots
	}
	bi, err := bs.LocalBiVectorD(t, d)
	if err != nil {
		return nil, 0, err
	}
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, 0, err
	}
	return bi, first, nil
}
