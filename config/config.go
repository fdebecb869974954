// Package config defines the JSON configuration of an IMU simulation scenario.
package config

import (
	"fmt"
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/visim/logging"
)

// Bias model types.
const (
	BiasTypeConstant   = "constant"
	BiasTypeContinuous = "continuous"
)

const (
	// DefaultGravity is used when no gravity magnitude is configured.
	DefaultGravity = 9.81
	// DefaultTimestampScale converts nanosecond pose file stamps to seconds.
	DefaultTimestampScale = 1e-9
	defaultSplineOrder    = 4
	defaultLambda         = 1e-5
	defaultBiasSamples    = 100
)

// An AttributeMap is a free form set of attributes decoded into a typed struct on demand.
type AttributeMap map[string]interface{}

// Config describes a complete simulation.
type Config struct {
	LogLevel   string           `json:"log_level,omitempty"`
	Trajectory TrajectoryConfig `json:"trajectory"`
	IMU        IMUConfig        `json:"imu"`

	// set by the reader
	ConfigFilePath string `json:"-"`
}

// TrajectoryConfig describes the simulated body motion. The motion is either a spline between two
// curve values [tx, ty, tz, rx, ry, rz] over [start, end], or a spline fitted to a pose file.
type TrajectoryConfig struct {
	Order      int       `json:"order,omitempty"`
	Start      float64   `json:"start"`
	End        float64   `json:"end"`
	StartValue []float64 `json:"start_value,omitempty"`
	EndValue   []float64 `json:"end_value,omitempty"`

	PoseFile       string  `json:"pose_file,omitempty"`
	Segments       int     `json:"segments,omitempty"`
	Lambda         float64 `json:"lambda,omitempty"`
	TimestampScale float64 `json:"timestamp_scale,omitempty"`
}

// IMUConfig describes the simulated sensor.
type IMUConfig struct {
	AccelerometerRateHz     float64     `json:"accelerometer_rate_hz"`
	GyroscopeRateHz         float64     `json:"gyroscope_rate_hz"`
	Gravity                 *float64    `json:"gravity,omitempty"`
	AccelerometerNoiseSigma []float64   `json:"accelerometer_noise_sigma,omitempty"`
	GyroscopeNoiseSigma     []float64   `json:"gyroscope_noise_sigma,omitempty"`
	Seed                    uint64      `json:"seed,omitempty"`
	Bias                    *BiasConfig `json:"bias,omitempty"`
	Intrinsics              *Intrinsics `json:"intrinsics,omitempty"`
}

// Intrinsics optionally distort the corrupted measurements of each sensor before bias and noise
// are added.
type Intrinsics struct {
	Accelerometer *SensorIntrinsics `json:"accelerometer,omitempty"`
	Gyroscope     *SensorIntrinsics `json:"gyroscope,omitempty"`
}

// SensorIntrinsics hold row major 3x3 matrices. The sensor reports matrix * v + sensitivity * s
// for its true value v and the true value s of the other sensor. Matrix defaults to the identity
// and sensitivity to zero.
type SensorIntrinsics struct {
	Matrix      []float64 `json:"matrix,omitempty"`
	Sensitivity []float64 `json:"sensitivity,omitempty"`
}

// BiasConfig selects a bias model. Attributes are decoded according to Type.
type BiasConfig struct {
	Type       string       `json:"type"`
	Attributes AttributeMap `json:"attributes,omitempty"`
}

// ConstantBiasAttributes configure a constant bias.
type ConstantBiasAttributes struct {
	Accelerometer []float64 `json:"accelerometer"`
	Gyroscope     []float64 `json:"gyroscope"`
}

// ContinuousBiasAttributes configure a random walk bias over the trajectory window.
type ContinuousBiasAttributes struct {
	AccelerometerInitial    []float64 `json:"accelerometer_initial"`
	GyroscopeInitial        []float64 `json:"gyroscope_initial"`
	AccelerometerRandomWalk []float64 `json:"accelerometer_random_walk"`
	GyroscopeRandomWalk     []float64 `json:"gyroscope_random_walk"`
	Samples                 int       `json:"samples"`
	Seed                    uint64    `json:"seed"`
}

// Validate checks the whole config and fills in defaults. Every section is validated and the
// failures are combined.
func (c *Config) Validate() error {
	var err error
	if _, levelErr := logging.LevelFromString(c.LogLevel); levelErr != nil {
		err = multierr.Append(err, utils.NewConfigValidationError("log_level", levelErr))
	}
	err = multierr.Append(err, c.Trajectory.Validate("trajectory"))
	err = multierr.Append(err, c.IMU.Validate("imu"))
	return err
}

// Validate ensures the trajectory section is usable and fills in defaults.
func (tc *TrajectoryConfig) Validate(path string) error {
	if tc.Order == 0 {
		tc.Order = defaultSplineOrder
	}
	if tc.Order < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("order must be positive, got %d", tc.Order))
	}
	if tc.PoseFile != "" {
		if len(tc.StartValue) != 0 || len(tc.EndValue) != 0 {
			return utils.NewConfigValidationError(path, errors.New("pose_file cannot be combined with start_value or end_value"))
		}
		if tc.Segments < 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("segments must be positive, got %d", tc.Segments))
		}
		if tc.Lambda < 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("lambda must be non-negative, got %v", tc.Lambda))
		}
		if tc.Lambda == 0 {
			tc.Lambda = defaultLambda
		}
		if tc.TimestampScale < 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("timestamp_scale must be positive, got %v", tc.TimestampScale))
		}
		if tc.TimestampScale == 0 {
			tc.TimestampScale = DefaultTimestampScale
		}
		return nil
	}

	if tc.Order < 2 {
		return utils.NewConfigValidationError(path, errors.New("interpolating between two poses needs an order of at least 2"))
	}
	if tc.StartValue == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "start_value")
	}
	if tc.EndValue == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "end_value")
	}
	if len(tc.StartValue) != 6 || len(tc.EndValue) != 6 {
		return utils.NewConfigValidationError(path, errors.New("start_value and end_value must have 6 entries"))
	}
	if !(tc.End > tc.Start) {
		return utils.NewConfigValidationError(path, errors.Errorf("end (%v) must be after start (%v)", tc.End, tc.Start))
	}
	return nil
}

// Validate ensures the imu section is usable and fills in defaults.
func (ic *IMUConfig) Validate(path string) error {
	if ic.AccelerometerRateHz == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "accelerometer_rate_hz")
	}
	if ic.GyroscopeRateHz == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "gyroscope_rate_hz")
	}
	if ic.AccelerometerRateHz < 0 || ic.GyroscopeRateHz < 0 {
		return utils.NewConfigValidationError(path, errors.New("sampling rates must be positive"))
	}
	if ic.Gravity == nil {
		g := DefaultGravity
		ic.Gravity = &g
	}
	if *ic.Gravity < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("gravity must be non-negative, got %v", *ic.Gravity))
	}
	if err := multierr.Combine(
		wrapVectorError(path, "accelerometer_noise_sigma", validateVector(ic.AccelerometerNoiseSigma, true)),
		wrapVectorError(path, "gyroscope_noise_sigma", validateVector(ic.GyroscopeNoiseSigma, true)),
	); err != nil {
		return err
	}
	if ic.Intrinsics != nil {
		if err := ic.Intrinsics.Validate(path + ".intrinsics"); err != nil {
			return err
		}
	}
	if ic.Bias == nil {
		ic.Bias = &BiasConfig{Type: BiasTypeConstant}
	}
	return ic.Bias.Validate(path + ".bias")
}

// Validate checks that every configured matrix has nine finite entries.
func (in *Intrinsics) Validate(path string) error {
	var err error
	for name, sensor := range map[string]*SensorIntrinsics{
		"accelerometer": in.Accelerometer,
		"gyroscope":     in.Gyroscope,
	} {
		if sensor == nil {
			continue
		}
		err = multierr.Combine(err,
			wrapVectorError(path+"."+name, "matrix", validateMatrix(sensor.Matrix)),
			wrapVectorError(path+"."+name, "sensitivity", validateMatrix(sensor.Sensitivity)),
		)
	}
	return err
}

// validateMatrix accepts an empty matrix or a row major 3x3 one with finite entries.
func validateMatrix(m []float64) error {
	if len(m) == 0 {
		return nil
	}
	if len(m) != 9 {
		return errors.Errorf("must have 9 entries, got %d", len(m))
	}
	for _, x := range m {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Errorf("entries must be finite, got %v", m)
		}
	}
	return nil
}

// Validate checks the bias type and that its attributes decode.
func (bc *BiasConfig) Validate(path string) error {
	switch bc.Type {
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	case BiasTypeConstant:
		attrs, err := bc.ConstantAttributes()
		if err != nil {
			return utils.NewConfigValidationError(path, err)
		}
		return multierr.Combine(
			wrapVectorError(path, "accelerometer", validateVector(attrs.Accelerometer, false)),
			wrapVectorError(path, "gyroscope", validateVector(attrs.Gyroscope, false)),
		)
	case BiasTypeContinuous:
		attrs, err := bc.ContinuousAttributes()
		if err != nil {
			return utils.NewConfigValidationError(path, err)
		}
		if attrs.Samples < 4 {
			return utils.NewConfigValidationError(path, errors.Errorf("samples must be at least 4, got %d", attrs.Samples))
		}
		return multierr.Combine(
			wrapVectorError(path, "accelerometer_initial", validateVector(attrs.AccelerometerInitial, false)),
			wrapVectorError(path, "gyroscope_initial", validateVector(attrs.GyroscopeInitial, false)),
			wrapVectorError(path, "accelerometer_random_walk", validateVector(attrs.AccelerometerRandomWalk, true)),
			wrapVectorError(path, "gyroscope_random_walk", validateVector(attrs.GyroscopeRandomWalk, true)),
		)
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown bias type %q", bc.Type))
	}
}

// ConstantAttributes decodes the attributes of a constant bias.
func (bc *BiasConfig) ConstantAttributes() (*ConstantBiasAttributes, error) {
	if bc.Type != BiasTypeConstant {
		return nil, errors.Errorf("bias type is %q, not %q", bc.Type, BiasTypeConstant)
	}
	var attrs ConstantBiasAttributes
	if err := decodeAttributes(bc.Attributes, &attrs); err != nil {
		return nil, err
	}
	return &attrs, nil
}

// ContinuousAttributes decodes the attributes of a continuous bias.
func (bc *BiasConfig) ContinuousAttributes() (*ContinuousBiasAttributes, error) {
	if bc.Type != BiasTypeContinuous {
		return nil, errors.Errorf("bias type is %q, not %q", bc.Type, BiasTypeContinuous)
	}
	attrs := ContinuousBiasAttributes{Samples: defaultBiasSamples}
	if err := decodeAttributes(bc.Attributes, &attrs); err != nil {
		return nil, err
	}
	return &attrs, nil
}

func decodeAttributes(attributes AttributeMap, result interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           result,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "error creating decoder")
	}
	return errors.Wrap(decoder.Decode(attributes), "error decoding attributes")
}

// validateVector accepts an empty vector or one with three finite entries.
func validateVector(v []float64, nonNegative bool) error {
	if len(v) == 0 {
		return nil
	}
	if len(v) != 3 {
		return errors.Errorf("must have 3 entries, got %d", len(v))
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Errorf("entries must be finite, got %v", v)
		}
		if nonNegative && x < 0 {
			return errors.Errorf("entries must be non-negative, got %v", v)
		}
	}
	return nil
}

// Vector converts a validated vector entry into an r3.Vector. An empty entry is the zero vector.
func Vector(v []float64) r3.Vector {
	if len(v) != 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func wrapVectorError(path, field string, err error) error {
	if err == nil {
		return nil
	}
	return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, field), err)
}

// Level returns the configured log level, INFO if unset.
func (c *Config) Level() logging.Level {
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}
