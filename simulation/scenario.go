// Package simulation assembles a trajectory, a bias model, noise samplers and an IMU simulator
// from a config and runs them.
package simulation

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/visim/bspline"
	"go.viam.com/visim/config"
	"go.viam.com/visim/dataset"
	"go.viam.com/visim/imu"
	"go.viam.com/visim/logging"
	"go.viam.com/visim/trajectory"
)

// A Scenario is a ready to run simulation.
type Scenario struct {
	trajectory *trajectory.SplineTrajectory
	simulator  *imu.Simulator
	stampScale float64
	logger     logging.Logger
}

// Result holds the measurements of one run. Actual measurements are free of bias and noise.
type Result struct {
	AccelerometerActual    []imu.Measurement
	AccelerometerCorrupted []imu.Measurement
	GyroscopeActual        []imu.Measurement
	GyroscopeCorrupted     []imu.Measurement
}

// NewScenario builds a scenario from a validated config.
func NewScenario(cfg *config.Config, logger logging.Logger) (*Scenario, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("simulation")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	spline, err := bspline.NewPoseSpline(cfg.Trajectory.Order)
	if err != nil {
		return nil, err
	}
	stampScale := config.DefaultTimestampScale
	if cfg.Trajectory.PoseFile != "" {
		stampScale = cfg.Trajectory.TimestampScale
		if err := fitPoseFile(spline, &cfg.Trajectory, logger); err != nil {
			return nil, err
		}
	} else {
		start := mat.NewVecDense(bspline.PoseDimension, cfg.Trajectory.StartValue)
		end := mat.NewVecDense(bspline.PoseDimension, cfg.Trajectory.EndValue)
		if err := spline.InitSpline(cfg.Trajectory.Start, cfg.Trajectory.End, start, end); err != nil {
			return nil, errors.Wrap(err, "failed to initialize trajectory spline")
		}
	}
	traj, err := trajectory.NewSplineTrajectory(spline)
	if err != nil {
		return nil, err
	}

	bias, err := newBias(cfg.IMU.Bias, traj.Start(), traj.End())
	if err != nil {
		return nil, err
	}
	accNoise, err := imu.NewSigmaSampler(config.Vector(cfg.IMU.AccelerometerNoiseSigma), cfg.IMU.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "accelerometer noise")
	}
	gyrNoise, err := imu.NewSigmaSampler(config.Vector(cfg.IMU.GyroscopeNoiseSigma), cfg.IMU.Seed+1)
	if err != nil {
		return nil, errors.Wrap(err, "gyroscope noise")
	}
	simulator, err := imu.NewSimulator(
		traj, bias, accNoise, gyrNoise,
		cfg.IMU.AccelerometerRateHz, cfg.IMU.GyroscopeRateHz, *cfg.IMU.Gravity,
		logger.Sublogger("imu"),
	)
	if err != nil {
		return nil, err
	}
	if cfg.IMU.Intrinsics != nil {
		model, err := newModel(cfg.IMU.Intrinsics)
		if err != nil {
			return nil, err
		}
		simulator = simulator.WithModel(model)
	}
	return &Scenario{
		trajectory: traj,
		simulator:  simulator,
		stampScale: stampScale,
		logger:     logger,
	}, nil
}

func fitPoseFile(spline *bspline.PoseSpline, tc *config.TrajectoryConfig, logger logging.Logger) error {
	poses, err := dataset.LoadIndexedPosesFromCSV(tc.PoseFile)
	if err != nil {
		return err
	}
	if len(poses) < 2 {
		return errors.Errorf("pose file %q has %d poses, need at least 2", tc.PoseFile, len(poses))
	}
	segments := tc.Segments
	if segments == 0 {
		segments = max(1, len(poses)/2)
	}
	times := dataset.Times(poses, tc.TimestampScale)
	logger.Debugw("fitting pose file", "path", tc.PoseFile, "poses", len(poses), "segments", segments, "lambda", tc.Lambda)
	if err := spline.InitPoseSplineSparse(times, dataset.Poses(poses), segments, tc.Lambda); err != nil {
		return errors.Wrapf(err, "failed to fit spline to %q", tc.PoseFile)
	}
	return nil
}

func newBias(bc *config.BiasConfig, start, end float64) (imu.BiasModel, error) {
	switch bc.Type {
	case config.BiasTypeConstant:
		attrs, err := bc.ConstantAttributes()
		if err != nil {
			return nil, err
		}
		return imu.NewConstantBias(config.Vector(attrs.Accelerometer), config.Vector(attrs.Gyroscope)), nil
	case config.BiasTypeContinuous:
		attrs, err := bc.ContinuousAttributes()
		if err != nil {
			return nil, err
		}
		bias, err := imu.NewContinuousBias(imu.ContinuousBiasParams{
			AccInitial:    config.Vector(attrs.AccelerometerInitial),
			GyrInitial:    config.Vector(attrs.GyroscopeInitial),
			AccRandomWalk: config.Vector(attrs.AccelerometerRandomWalk),
			GyrRandomWalk: config.Vector(attrs.GyroscopeRandomWalk),
			Start:         start,
			End:           end,
			Samples:       attrs.Samples,
			Seed:          attrs.Seed,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to build continuous bias")
		}
		return bias, nil
	default:
		return nil, errors.Errorf("unknown bias type %q", bc.Type)
	}
}

func newModel(in *config.Intrinsics) (*imu.Model, error) {
	acc, err := newLinearModel(in.Accelerometer)
	if err != nil {
		return nil, errors.Wrap(err, "accelerometer intrinsics")
	}
	gyr, err := newLinearModel(in.Gyroscope)
	if err != nil {
		return nil, errors.Wrap(err, "gyroscope intrinsics")
	}
	return imu.NewModel(acc, gyr)
}

func newLinearModel(si *config.SensorIntrinsics) (*imu.LinearModel, error) {
	if si == nil {
		return nil, nil
	}
	var m, g mat.Matrix
	if len(si.Matrix) != 0 {
		m = mat.NewDense(3, 3, si.Matrix)
	}
	if len(si.Sensitivity) != 0 {
		g = mat.NewDense(3, 3, si.Sensitivity)
	}
	return imu.NewLinearModel(m, g)
}

// Trajectory returns the simulated trajectory.
func (s *Scenario) Trajectory() *trajectory.SplineTrajectory {
	return s.trajectory
}

// Simulator returns the IMU simulator.
func (s *Scenario) Simulator() *imu.Simulator {
	return s.simulator
}

// Run samples both sensors at their configured rates over the whole trajectory. The four
// sequences are generated concurrently and each noise sampler feeds exactly one of them.
func (s *Scenario) Run() (*Result, error) {
	start, end := s.trajectory.Start(), s.trajectory.End()
	s.logger.Infow("running simulation", "start", start, "end", end)

	var res Result
	var g errgroup.Group
	g.Go(func() (err error) {
		res.AccelerometerActual, err = s.simulator.AccelerometerMeasurements(start, end, false)
		return err
	})
	g.Go(func() (err error) {
		res.AccelerometerCorrupted, err = s.simulator.AccelerometerMeasurements(start, end, true)
		return err
	})
	g.Go(func() (err error) {
		res.GyroscopeActual, err = s.simulator.GyroscopeMeasurements(start, end, false)
		return err
	})
	g.Go(func() (err error) {
		res.GyroscopeCorrupted, err = s.simulator.GyroscopeMeasurements(start, end, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Infow("simulation done",
		"accelerometer_samples", len(res.AccelerometerActual),
		"gyroscope_samples", len(res.GyroscopeActual))
	return &res, nil
}

// SamplePoses samples the trajectory at rateHz. Stamps are in the unit of the configured
// timestamp scale, nanoseconds by default.
func (s *Scenario) SamplePoses(rateHz float64) ([]dataset.StampedPose, error) {
	times, err := imu.SampleTimes(s.trajectory.Start(), s.trajectory.End(), rateHz)
	if err != nil {
		return nil, err
	}
	poses := make([]dataset.StampedPose, len(times))
	for i, t := range times {
		pose, err := trajectory.Pose(s.trajectory, t)
		if err != nil {
			return nil, err
		}
		poses[i] = dataset.StampedPose{Stamp: int64(math.Round(t / s.stampScale)), Pose: pose}
	}
	return poses, nil
}
