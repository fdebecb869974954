// Package cli contains the imusim command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"
	generalFlagOut     = "out"
	poseFlagRate       = "rate"
	schemaFlagBias     = "bias"

	logFileMaxSizeMB = 10
)

var configFlag = &cli.StringFlag{
	Name:     generalFlagConfig,
	Aliases:  []string{"c"},
	Usage:    "load the simulation from `FILE`",
	Required: true,
}

var app = &cli.App{
	Name:            "imusim",
	Usage:           "simulate IMU measurements along a spline trajectory",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogFile,
			Usage: "also write logs to `FILE`, rotated every 10MB",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "simulate",
			Usage:     "write accelerometer and gyroscope measurements as csv",
			UsageText: "imusim simulate --config <config> --out <directory>",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{
					Name:     generalFlagOut,
					Usage:    "`DIRECTORY` to write accelerometer.csv and gyroscope.csv to",
					Required: true,
				},
			},
			Action: SimulateAction,
		},
		{
			Name:      "plot",
			Usage:     "plot actual and corrupted measurements",
			UsageText: "imusim plot --config <config> --out <directory>",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{
					Name:     generalFlagOut,
					Usage:    "`DIRECTORY` to write accelerometer.png and gyroscope.png to",
					Required: true,
				},
			},
			Action: PlotAction,
		},
		{
			Name:      "trajectory",
			Usage:     "sample the simulated trajectory as stamped poses",
			UsageText: "imusim trajectory --config <config> --out <file> [--rate <hz>]",
			Flags: []cli.Flag{
				configFlag,
				&cli.StringFlag{
					Name:     generalFlagOut,
					Usage:    "`FILE` to write the pose csv to",
					Required: true,
				},
				&cli.Float64Flag{
					Name:  poseFlagRate,
					Usage: "pose sampling rate in Hz",
					Value: 100,
				},
			},
			Action: TrajectoryAction,
		},
		{
			Name:      "schema",
			Usage:     "print the JSON schema of a simulation config or of bias attributes",
			UsageText: "imusim schema [--bias <type>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  schemaFlagBias,
					Usage: "print the attribute schema of bias model `TYPE` instead",
				},
			},
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
