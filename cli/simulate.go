package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/visim/config"
	"go.viam.com/visim/dataset"
	"go.viam.com/visim/imu"
	"go.viam.com/visim/logging"
	"go.viam.com/visim/simulation"
)

// loadScenario reads the config named by the config flag and builds its scenario. The log level
// comes from the config unless debug logging was requested. The returned close func releases the
// log file, if any, and must be called once the scenario is done.
func loadScenario(c *cli.Context) (*simulation.Scenario, logging.Logger, func() error, error) {
	logger := logging.NewLogger("imusim")
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("imusim")
	}
	closeLog := func() error { return nil }
	if path := c.String(generalFlagLogFile); path != "" {
		appender := logging.NewFileAppender(path, logFileMaxSizeMB)
		logger.AddAppender(appender)
		closeLog = appender.Close
	}
	logging.ReplaceGlobal(logger)
	cfg, err := config.Read(c.String(generalFlagConfig), logger)
	if err != nil {
		return nil, nil, nil, multierr.Combine(err, closeLog())
	}
	if !c.Bool(generalFlagDebug) {
		logger.SetLevel(cfg.Level())
	}
	scenario, err := simulation.NewScenario(cfg, logger)
	if err != nil {
		return nil, nil, nil, multierr.Combine(err, closeLog())
	}
	return scenario, logger, closeLog, nil
}

// printSummaries renders the per sensor error statistics of a run as a table.
func printSummaries(w io.Writer, summaries []simulation.ErrorSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Sensor", "Samples", "Mean", "StdDev", "P95"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Sensor, s.Samples, formatVector(s.Mean), formatVector(s.StdDev), fmt.Sprintf("%.6g", s.P95)})
	}
	t.Render()
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v.X, v.Y, v.Z)
}

// SimulateAction runs a scenario and writes both corrupted measurement tables.
func SimulateAction(c *cli.Context) (err error) {
	scenario, logger, closeLog, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLog())
	}()
	res, err := scenario.Run()
	if err != nil {
		return err
	}
	dir := c.String(generalFlagOut)
	for name, measurements := range map[string][]imu.Measurement{
		"accelerometer.csv": res.AccelerometerCorrupted,
		"gyroscope.csv":     res.GyroscopeCorrupted,
	} {
		path := filepath.Join(dir, name)
		if err := dataset.SaveMeasurementsCSV(path, measurements); err != nil {
			return err
		}
		logger.Debugw("wrote measurements", "path", path, "count", len(measurements))
	}
	fmt.Fprintf(c.App.Writer, "wrote %d accelerometer and %d gyroscope measurements to %s\n",
		len(res.AccelerometerCorrupted), len(res.GyroscopeCorrupted), dir)
	summaries, err := res.Summaries()
	if err != nil {
		return err
	}
	printSummaries(c.App.Writer, summaries)
	return nil
}

// PlotAction runs a scenario and plots actual against corrupted measurements.
func PlotAction(c *cli.Context) (err error) {
	scenario, _, closeLog, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLog())
	}()
	res, err := scenario.Run()
	if err != nil {
		return err
	}
	dir := c.String(generalFlagOut)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	accPath := filepath.Join(dir, "accelerometer.png")
	if err := dataset.PlotMeasurements(accPath, "specific force [m/s^2]", map[string][]imu.Measurement{
		"actual":    res.AccelerometerActual,
		"corrupted": res.AccelerometerCorrupted,
	}); err != nil {
		return err
	}
	gyrPath := filepath.Join(dir, "gyroscope.png")
	if err := dataset.PlotMeasurements(gyrPath, "angular velocity [rad/s]", map[string][]imu.Measurement{
		"actual":    res.GyroscopeActual,
		"corrupted": res.GyroscopeCorrupted,
	}); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s and %s\n", accPath, gyrPath)
	return nil
}

// TrajectoryAction samples the scenario trajectory and writes it as stamped poses.
func TrajectoryAction(c *cli.Context) (err error) {
	scenario, _, closeLog, err := loadScenario(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closeLog())
	}()
	poses, err := scenario.SamplePoses(c.Float64(poseFlagRate))
	if err != nil {
		return err
	}
	path := c.String(generalFlagOut)
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if err := dataset.WriteIndexedPoses(f, poses); err != nil {
		return errors.Wrapf(err, "failed to write poses to %q", path)
	}
	fmt.Fprintf(c.App.Writer, "wrote %d poses to %s\n", len(poses), path)
	return nil
}

// SchemaAction prints the JSON schema of a config, or of the attributes of one bias model.
func SchemaAction(c *cli.Context) error {
	schema := config.Schema()
	if biasType := c.String(schemaFlagBias); biasType != "" {
		var err error
		if schema, err = config.BiasAttributeSchema(biasType); err != nil {
			return err
		}
	}
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal schema")
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
