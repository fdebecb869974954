package bspline

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LocalCoefficientVector returns a copy of the coefficients active at t, stacked column by column.
func (bs *BSpline) LocalCoefficientVector(t float64) (*mat.VecDense, error) {
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	dim := bs.Dimension()
	local := mat.NewVecDense(dim*bs.order, nil)
	for j := 0; j < bs.order; j++ {
		for r := 0; r < dim; r++ {
			local.SetVec(j*dim+r, bs.coefficients.At(r, first+j))
		}
	}
	return local, nil
}

// SetLocalCoefficientVector writes a stacked local coefficient vector back into the columns that
// are active at t.
func (bs *BSpline) SetLocalCoefficientVector(t float64, local mat.Vector) error {
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return err
	}
	dim := bs.Dimension()
	if local.Len() != dim*bs.order {
		return NewShapeMismatchError("local coefficient vector", local.Len(), dim*bs.order)
	}
	for j := 0; j < bs.order; j++ {
		for r := 0; r < dim; r++ {
			bs.coefficients.Set(r, first+j, local.AtVec(j*dim+r))
		}
	}
	return nil
}

// CoefficientVector returns a copy of all coefficients stacked column by column.
func (bs *BSpline) CoefficientVector() *mat.VecDense {
	dim, n := bs.Dimension(), bs.NumVvCoefficients()
	if dim*n == 0 {
		return &mat.VecDense{}
	}
	all := mat.NewVecDense(dim*n, nil)
	for j := 0; j < n; j++ {
		for r := 0; r < dim; r++ {
			all.SetVec(j*dim+r, bs.coefficients.At(r, j))
		}
	}
	return all
}

// SetCoefficientVector replaces all coefficients from a vector stacked column by column.
func (bs *BSpline) SetCoefficientVector(all mat.Vector) error {
	dim, n := bs.Dimension(), bs.NumVvCoefficients()
	if dim*n == 0 {
		return ErrNoKnots
	}
	if all.Len() != dim*n {
		return NewShapeMismatchError("coefficient vector", all.Len(), dim*n)
	}
	for j := 0; j < n; j++ {
		for r := 0; r < dim; r++ {
			bs.coefficients.Set(r, j, all.AtVec(j*dim+r))
		}
	}
	return nil
}

// A CoefficientView is a live handle on one coefficient column of a spline. Reads and writes
// through the view go directly to the spline's coefficient matrix.
type CoefficientView struct {
	m   *mat.Dense
	col int
}

// At returns row r of the column.
func (v CoefficientView) At(r int) float64 {
	return v.m.At(r, v.col)
}

// SetAt sets row r of the column.
func (v CoefficientView) SetAt(r int, value float64) {
	v.m.Set(r, v.col, value)
}

// Len returns the length of the column.
func (v CoefficientView) Len() int {
	r, _ := v.m.Dims()
	return r
}

// Index returns the column index the view refers to.
func (v CoefficientView) Index() int {
	return v.col
}

// Vec returns the column as a vector sharing storage with the coefficient matrix.
func (v CoefficientView) Vec() *mat.VecDense {
	return v.m.ColView(v.col).(*mat.VecDense)
}

// VvCoefficientVector returns a view on coefficient column i.
func (bs *BSpline) VvCoefficientVector(i int) (CoefficientView, error) {
	if i < 0 || i >= bs.NumVvCoefficients() {
		return CoefficientView{}, errors.Errorf("coefficient index %d out of range [0, %d)", i, bs.NumVvCoefficients())
	}
	return CoefficientView{m: bs.coefficients, col: i}, nil
}

// FixedSizeVvCoefficientVector returns a view on coefficient column i after checking that the
// spline has the expected dimension.
func (bs *BSpline) FixedSizeVvCoefficientVector(i, dim int) (CoefficientView, error) {
	if dim != bs.Dimension() {
		return CoefficientView{}, NewShapeMismatchError("coefficient column", bs.Dimension(), dim)
	}
	return bs.VvCoefficientVector(i)
}
