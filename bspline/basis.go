package bspline

// basisDerivatives evaluates the degree+1 non-zero basis functions on the knot span `span` at t
// together with their derivatives up to order n. ders[d][j] is the d-th derivative of the basis
// function belonging to coefficient span-degree+j. Derivatives above degree are zero.
func basisDerivatives(knots []float64, span int, t float64, degree, n int) [][]float64 {
	ders := make([][]float64, n+1)
	for d := range ders {
		ders[d] = make([]float64, degree+1)
	}

	// ndu holds the basis functions in its upper triangle and knot differences below it.
	ndu := make([][]float64, degree+1)
	for j := range ndu {
		ndu[j] = make([]float64, degree+1)
	}
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	ndu[0][0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = t - knots[span+1-j]
		right[j] = knots[span+j] - t
		saved := 0.0
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}
	for j := 0; j <= degree; j++ {
		ders[0][j] = ndu[j][degree]
	}

	top := n
	if top > degree {
		top = degree
	}
	a := [2][]float64{make([]float64, degree+1), make([]float64, degree+1)}
	for r := 0; r <= degree; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= top; k++ {
			d := 0.0
			rk, pk := r-k, degree-k
			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}
			j1 := 1
			if rk < -1 {
				j1 = -rk
			}
			j2 := degree - r
			if r-1 <= pk {
				j2 = k - 1
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	factor := float64(degree)
	for k := 1; k <= top; k++ {
		for j := 0; j <= degree; j++ {
			ders[k][j] *= factor
		}
		factor *= float64(degree - k)
	}
	return ders
}

// LocalBiVector returns the order basis weights of the active coefficients at t.
func (bs *BSpline) LocalBiVector(t float64) ([]float64, error) {
	return bs.LocalBiVectorD(t, 0)
}

// LocalBiVectorD returns the derivative of order d of the active basis weights at t.
func (bs *BSpline) LocalBiVectorD(t float64, d int) ([]float64, error) {
	if d < 0 {
		return nil, NewInvalidDerivativeOrderError(d)
	}
	span, err := bs.SegmentIndex(t)
	if err != nil {
		return nil, err
	}
	if d >= bs.order {
		return make([]float64, bs.order), nil
	}
	ders := basisDerivatives(bs.knots, span, t, bs.PolynomialDegree(), d)
	return ders[d], nil
}

// BiVector returns the basis weights of every coefficient at t. Entries outside of the active
// window are zero.
func (bs *BSpline) BiVector(t float64) ([]float64, error) {
	local, err := bs.LocalBiVector(t)
	if err != nil {
		return nil, err
	}
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	bi := make([]float64, bs.NumVvCoefficients())
	copy(bi[first:], local)
	return bi, nil
}

// LocalCumulativeBiVector returns the suffix sums of the active basis weights at t. Its first
// entry is always one.
func (bs *BSpline) LocalCumulativeBiVector(t float64) ([]float64, error) {
	local, err := bs.LocalBiVector(t)
	if err != nil {
		return nil, err
	}
	return cumulative(local), nil
}

// CumulativeBiVector returns the cumulative basis weights of every coefficient at t: one before
// the active window, the suffix sums of the local weights inside it and zero after it.
func (bs *BSpline) CumulativeBiVector(t float64) ([]float64, error) {
	local, err := bs.LocalCumulativeBiVector(t)
	if err != nil {
		return nil, err
	}
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	cum := make([]float64, bs.NumVvCoefficients())
	for i := 0; i < first; i++ {
		cum[i] = 1
	}
	copy(cum[first:], local)
	return cum, nil
}

func cumulative(local []float64) []float64 {
	cum := make([]float64, len(local))
	sum := 0.0
	for i := len(local) - 1; i >= 0; i-- {
		sum += local[i]
		cum[i] = sum
	}
	cum[0] = 1
	return cum
}

// LocalCoefficientVectorIndices returns the order consecutive column indices that are active at t.
func (bs *BSpline) LocalCoefficientVectorIndices(t float64) ([]int, error) {
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	indices := make([]int, bs.order)
	for i := range indices {
		indices[i] = first + i
	}
	return indices, nil
}

// LocalVvCoefficientVectorIndices returns the indices of the active coefficients within the
// vector returned by CoefficientVector, in the order used by LocalCoefficientVector.
func (bs *BSpline) LocalVvCoefficientVectorIndices(t float64) ([]int, error) {
	first, err := bs.firstActiveIndex(t)
	if err != nil {
		return nil, err
	}
	dim := bs.Dimension()
	indices := make([]int, 0, bs.order*dim)
	for i := 0; i < bs.order*dim; i++ {
		indices = append(indices, first*dim+i)
	}
	return indices, nil
}
