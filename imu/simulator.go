package imu

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/visim/logging"
	"go.viam.com/visim/trajectory"
)

// DefaultGravity is the standard gravity magnitude in m/s^2.
const DefaultGravity = 9.81

// Simulator produces ideal and corrupted IMU measurements along a trajectory. Apart from the
// noise samplers it holds no state, so every query is a function of time only.
type Simulator struct {
	trajectory trajectory.Trajectory
	bias       BiasModel
	accNoise   NoiseSampler
	gyrNoise   NoiseSampler
	accRateHz  float64
	gyrRateHz  float64
	gravity    float64
	model      *Model
	logger     logging.Logger
}

// NewSimulator returns a simulator for an IMU rigidly attached to the body frame of traj. The
// rates only affect batch generation. Gravity points along -z of the world frame.
func NewSimulator(
	traj trajectory.Trajectory,
	bias BiasModel,
	accNoise, gyrNoise NoiseSampler,
	accRateHz, gyrRateHz, gravity float64,
	logger logging.Logger,
) (*Simulator, error) {
	var err error
	if traj == nil {
		err = multierr.Append(err, errors.New("trajectory is nil"))
	}
	if bias == nil {
		err = multierr.Append(err, errors.New("bias model is nil"))
	}
	if accNoise == nil || gyrNoise == nil {
		err = multierr.Append(err, errors.New("noise samplers must not be nil"))
	}
	if !(accRateHz > 0) || !(gyrRateHz > 0) {
		err = multierr.Append(err, errors.Errorf("sampling rates must be positive, got %v and %v", accRateHz, gyrRateHz))
	}
	if gravity < 0 {
		err = multierr.Append(err, errors.Errorf("gravity magnitude must be non-negative, got %v", gravity))
	}
	if err != nil {
		return nil, errors.Wrap(err, "invalid imu simulator configuration")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("imu")
	}
	logger.Debugw("imu simulator ready",
		"start", traj.Start(), "end", traj.End(),
		"acc_rate_hz", accRateHz, "gyr_rate_hz", gyrRateHz, "gravity", gravity)
	return &Simulator{
		trajectory: traj,
		bias:       bias,
		accNoise:   accNoise,
		gyrNoise:   gyrNoise,
		accRateHz:  accRateHz,
		gyrRateHz:  gyrRateHz,
		gravity:    gravity,
		logger:     logger,
	}, nil
}

// WithModel returns a copy of the simulator whose corrupted measurements pass the true values
// through the given intrinsic model before bias and noise are added. A nil model disables it.
func (s *Simulator) WithModel(model *Model) *Simulator {
	out := *s
	out.model = model
	return &out
}

// Model returns the intrinsic model, nil if none is set.
func (s *Simulator) Model() *Model {
	return s.model
}

// Trajectory returns the simulated trajectory.
func (s *Simulator) Trajectory() trajectory.Trajectory {
	return s.trajectory
}

// AccelerometerRateHz returns the accelerometer sampling rate.
func (s *Simulator) AccelerometerRateHz() float64 {
	return s.accRateHz
}

// GyroscopeRateHz returns the gyroscope sampling rate.
func (s *Simulator) GyroscopeRateHz() float64 {
	return s.gyrRateHz
}

// Gravity returns the gravity magnitude.
func (s *Simulator) Gravity() float64 {
	return s.gravity
}

// SpecificForceActual returns the noise and bias free specific force in the body frame,
// R_W_B^T (a_W - g_W) with g_W = (0, 0, -gravity).
func (s *Simulator) SpecificForceActual(t float64) (r3.Vector, error) {
	orientation, err := s.trajectory.Orientation(t)
	if err != nil {
		return r3.Vector{}, err
	}
	acc, err := s.trajectory.LinearAcceleration(t)
	if err != nil {
		return r3.Vector{}, err
	}
	acc.Z += s.gravity
	return orientation.RotationMatrix().TransposeMulVec(acc), nil
}

// SpecificForceCorrupted returns the specific force with the intrinsic model applied and
// accelerometer bias and noise added.
func (s *Simulator) SpecificForceCorrupted(t float64) (r3.Vector, error) {
	f, err := s.SpecificForceActual(t)
	if err != nil {
		return r3.Vector{}, err
	}
	if s.model != nil {
		w, err := s.AngularVelocityActual(t)
		if err != nil {
			return r3.Vector{}, err
		}
		f = s.model.accelerometer.Distort(f, w)
	}
	bias, err := s.bias.Accelerometer(t)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "accelerometer bias")
	}
	return f.Add(bias).Add(s.accNoise.Sample()), nil
}

// AngularVelocityActual returns the noise and bias free angular velocity in the body frame.
func (s *Simulator) AngularVelocityActual(t float64) (r3.Vector, error) {
	orientation, err := s.trajectory.Orientation(t)
	if err != nil {
		return r3.Vector{}, err
	}
	w, err := s.trajectory.AngularVelocity(t)
	if err != nil {
		return r3.Vector{}, err
	}
	return orientation.RotationMatrix().TransposeMulVec(w), nil
}

// AngularVelocityCorrupted returns the body angular velocity with the intrinsic model applied and
// gyroscope bias and noise added.
func (s *Simulator) AngularVelocityCorrupted(t float64) (r3.Vector, error) {
	w, err := s.AngularVelocityActual(t)
	if err != nil {
		return r3.Vector{}, err
	}
	if s.model != nil {
		f, err := s.SpecificForceActual(t)
		if err != nil {
			return r3.Vector{}, err
		}
		w = s.model.gyroscope.Distort(w, f)
	}
	bias, err := s.bias.Gyroscope(t)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "gyroscope bias")
	}
	return w.Add(bias).Add(s.gyrNoise.Sample()), nil
}
