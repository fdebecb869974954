package imu

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// A Measurement is one timestamped sensor reading.
type Measurement struct {
	Time  float64
	Value r3.Vector
}

// SampleTimes returns the times start, start+1/rateHz, ... up to and including end.
func SampleTimes(start, end, rateHz float64) ([]float64, error) {
	if !(rateHz > 0) {
		return nil, errors.Errorf("sampling rate must be positive, got %v", rateHz)
	}
	if end < start {
		return nil, errors.Errorf("sampling window end %v is before start %v", end, start)
	}
	n := int((end-start)*rateHz+1e-9) + 1
	times := make([]float64, n)
	for i := range times {
		// rounding may step a few ulps past end
		times[i] = math.Min(start+float64(i)/rateHz, end)
	}
	return times, nil
}

// SpecificForces returns the specific force at each of the given times, corrupted with bias and
// noise if requested.
func (s *Simulator) SpecificForces(times []float64, corrupted bool) ([]Measurement, error) {
	measure := s.SpecificForceActual
	if corrupted {
		measure = s.SpecificForceCorrupted
	}
	return sample(times, measure)
}

// AngularVelocities returns the body angular velocity at each of the given times, corrupted with
// bias and noise if requested.
func (s *Simulator) AngularVelocities(times []float64, corrupted bool) ([]Measurement, error) {
	measure := s.AngularVelocityActual
	if corrupted {
		measure = s.AngularVelocityCorrupted
	}
	return sample(times, measure)
}

// AccelerometerMeasurements samples the specific force over [start, end] at the accelerometer rate.
func (s *Simulator) AccelerometerMeasurements(start, end float64, corrupted bool) ([]Measurement, error) {
	times, err := SampleTimes(start, end, s.accRateHz)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("sampling accelerometer", "count", len(times), "corrupted", corrupted)
	return s.SpecificForces(times, corrupted)
}

// GyroscopeMeasurements samples the body angular velocity over [start, end] at the gyroscope rate.
func (s *Simulator) GyroscopeMeasurements(start, end float64, corrupted bool) ([]Measurement, error) {
	times, err := SampleTimes(start, end, s.gyrRateHz)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("sampling gyroscope", "count", len(times), "corrupted", corrupted)
	return s.AngularVelocities(times, corrupted)
}

func sample(times []float64, measure func(float64) (r3.Vector, error)) ([]Measurement, error) {
	out := make([]Measurement, 0, len(times))
	for _, t := range times {
		v, err := measure(t)
		if err != nil {
			return nil, errors.Wrapf(err, "measurement at t=%v", t)
		}
		out = append(out, Measurement{Time: t, Value: v})
	}
	return out, nil
}
