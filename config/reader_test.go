package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/visim/logging"
)

const scenarioJSON = `{
	"log_level": "debug",
	"trajectory": {
		"order": 3,
		"start": 10,
		"end": 20,
		"start_value": [0, 0, 0, 1, 1, 1],
		"end_value": [0, 0, 0, 1, 1, 1]
	},
	"imu": {
		"accelerometer_rate_hz": ${ACC_RATE},
		"gyroscope_rate_hz": 100,
		"accelerometer_noise_sigma": [0.01, 0.01, 0.01],
		"bias": {
			"type": "continuous",
			"attributes": {
				"accelerometer_random_walk": [0.001, 0.001, 0.001],
				"samples": 50
			}
		}
	}
}`

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.json")
	test.That(t, os.WriteFile(path, []byte(scenarioJSON), 0o600), test.ShouldBeNil)

	t.Setenv("ACC_RATE", "400")
	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.Level(), test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.IMU.AccelerometerRateHz, test.ShouldEqual, 400.)
	test.That(t, *cfg.IMU.Gravity, test.ShouldEqual, DefaultGravity)
	test.That(t, cfg.IMU.Bias.Type, test.ShouldEqual, BiasTypeContinuous)
	attrs, err := cfg.IMU.Bias.ContinuousAttributes()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, attrs.Samples, test.ShouldEqual, 50)

	_, err = Read(filepath.Join(dir, "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadJSON5(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "scenario.json5")
	test.That(t, os.WriteFile(path, []byte(`{
	// a short constant trajectory
	trajectory: {
		order: 4,
		start: 0,
		end: 2,
		start_value: [0, 0, 0, 0, 0, 0,],
		end_value: [0, 0, 0, 0, 0, 0],
	},
	imu: {accelerometer_rate_hz: 100, gyroscope_rate_hz: 200},
}`), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Trajectory.Order, test.ShouldEqual, 4)
	test.That(t, cfg.Trajectory.End, test.ShouldEqual, 2.)
	test.That(t, cfg.IMU.GyroscopeRateHz, test.ShouldEqual, 200.)

	test.That(t, os.WriteFile(path, []byte(`{trajectory: `), 0o600), test.ShouldBeNil)
	_, err = Read(path, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "json5")

	// unknown fields are still rejected after normalization
	test.That(t, os.WriteFile(path, []byte(`{trajectry: {}}`), 0o600), test.ShouldBeNil)
	_, err = Read(path, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFromReader(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("", strings.NewReader(`{"trajectory": `), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")

	_, err = FromReader("", strings.NewReader(`{"trajectry": {}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "trajectry")

	_, err = FromReader("", strings.NewReader(`{"imu": {"accelerometer_rate_hz": 1, "gyroscope_rate_hz": 1}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to validate Config")

	cfg, err := FromReader("/data/scenarios/run.json", strings.NewReader(`{
		"trajectory": {"pose_file": "poses/groundtruth.csv", "segments": 40},
		"imu": {"accelerometer_rate_hz": 100, "gyroscope_rate_hz": 100, "gravity": 0}
	}`), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Trajectory.PoseFile, test.ShouldEqual, filepath.Join("/data/scenarios", "poses/groundtruth.csv"))
	test.That(t, cfg.Trajectory.Order, test.ShouldEqual, 4)
	test.That(t, *cfg.IMU.Gravity, test.ShouldEqual, 0.)

	cfg, err = FromReader("run.json", strings.NewReader(`{
		"trajectory": {"pose_file": "/abs/poses.csv"},
		"imu": {"accelerometer_rate_hz": 100, "gyroscope_rate_hz": 100}
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Trajectory.PoseFile, test.ShouldEqual, "/abs/poses.csv")
}
