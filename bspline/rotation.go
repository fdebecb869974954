package bspline

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// below this angle the S matrix coefficients use their Taylor expansions.
const seriesAngle = 0.05

// sCoefficients returns, for a rotation vector of norm phi, the scalars of
// S(p) = I - c1 [p]x + c2 [p]x^2 together with g1 = c1'(phi)/phi and g2 = c2'(phi)/phi.
func sCoefficients(phi float64) (c1, c2, g1, g2 float64) {
	if phi < seriesAngle {
		p2 := phi * phi
		p4 := p2 * p2
		c1 = 0.5 - p2/24 + p4/720 - p4*p2/40320
		c2 = 1./6 - p2/120 + p4/5040 - p4*p2/362880
		g1 = -1./12 + p2/180 - p4/6720
		g2 = -1./60 + p2/1260 - p4/60480
		return c1, c2, g1, g2
	}
	s := math.Sin(phi)
	half := math.Sin(phi / 2)
	oneMinusCos := 2 * half * half
	p2 := phi * phi
	p3 := p2 * phi
	p4 := p2 * p2
	c1 = oneMinusCos / p2
	c2 = (phi - s) / p3
	g1 = s/p3 - 2*oneMinusCos/p4
	g2 = oneMinusCos/p4 - 3*(phi-s)/(p4*phi)
	return c1, c2, g1, g2
}

// RotationVectorSMatrix returns S(p) = I - c1 [p]x + c2 [p]x^2 with c1 = (1-cos|p|)/|p|^2 and
// c2 = (|p|-sin|p|)/|p|^3. For C = exp(-[p]x) the world frame angular velocity is -S(p) dp/dt.
func RotationVectorSMatrix(p r3.Vector) *mat.Dense {
	c1, c2, _, _ := sCoefficients(p.Norm())
	skew := skewDense(p)
	var skew2 mat.Dense
	skew2.Mul(skew, skew)

	s := identity3()
	addScaled(s, -c1, skew)
	addScaled(s, c2, &skew2)
	return s
}

// RotationVectorSMatrixDerivative returns the time derivative of S(p) along dp.
func RotationVectorSMatrixDerivative(p, dp r3.Vector) *mat.Dense {
	c1, c2, g1, g2 := sCoefficients(p.Norm())
	rate := p.Dot(dp)
	dc1, dc2 := g1*rate, g2*rate

	skew, dskew := skewDense(p), skewDense(dp)
	var skew2, cross, crossT mat.Dense
	skew2.Mul(skew, skew)
	cross.Mul(dskew, skew)
	crossT.Mul(skew, dskew)

	out := mat.NewDense(3, 3, nil)
	addScaled(out, -dc1, skew)
	addScaled(out, -c1, dskew)
	addScaled(out, dc2, &skew2)
	addScaled(out, c2, &cross)
	addScaled(out, c2, &crossT)
	return out
}

// applyS returns S(p) v.
func applyS(p, v r3.Vector, c1, c2 float64) r3.Vector {
	pv := p.Cross(v)
	return v.Sub(pv.Mul(c1)).Add(p.Cross(pv).Mul(c2))
}

// angularVelocity returns -S(p) dp.
func angularVelocity(p, dp r3.Vector) r3.Vector {
	c1, c2, _, _ := sCoefficients(p.Norm())
	return applyS(p, dp, c1, c2).Mul(-1)
}

// angularAcceleration returns -(dS dp + S ddp).
func angularAcceleration(p, dp, ddp r3.Vector) r3.Vector {
	c1, c2, g1, g2 := sCoefficients(p.Norm())
	rate := p.Dot(dp)
	pdp := p.Cross(dp)
	sDot := pdp.Mul(-g1 * rate).Add(p.Cross(pdp).Mul(g2 * rate)).Add(dp.Cross(pdp).Mul(c2))
	return sDot.Add(applyS(p, ddp, c1, c2)).Mul(-1)
}

// addScaled sets dst = dst + alpha*b.
func addScaled(dst *mat.Dense, alpha float64, b mat.Matrix) {
	var tmp mat.Dense
	tmp.Scale(alpha, b)
	dst.Add(dst, &tmp)
}

func skewDense(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
