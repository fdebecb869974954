package bspline

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoKnots is returned when a spline is queried before knots and coefficients are set.
var ErrNoKnots = errors.New("spline has no knots set")

// A TimeOutOfRangeError is returned when a spline is evaluated outside of its valid time domain.
type TimeOutOfRangeError struct {
	Time float64
	Min  float64
	Max  float64
}

func (e *TimeOutOfRangeError) Error() string {
	return fmt.Sprintf("time %v is outside of the valid spline domain [%v, %v]", e.Time, e.Min, e.Max)
}

// NewTimeOutOfRangeError returns an error indicating that t is outside of [tMin, tMax].
func NewTimeOutOfRangeError(t, tMin, tMax float64) error {
	return &TimeOutOfRangeError{Time: t, Min: tMin, Max: tMax}
}

// NewShapeMismatchError returns an error indicating that a vector or matrix had an unexpected size.
func NewShapeMismatchError(what string, got, want int) error {
	return errors.Errorf("%s has size %d, expected %d", what, got, want)
}

// NewInvalidSegmentsError returns an error for a non-positive segment count.
func NewInvalidSegmentsError(segments int) error {
	return errors.Errorf("number of segments must be positive, got %d", segments)
}

// NewInvalidDerivativeOrderError returns an error for a negative derivative order.
func NewInvalidDerivativeOrderError(d int) error {
	return errors.Errorf("derivative order must be non-negative, got %d", d)
}
