package simulation

import (
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	gstat "gonum.org/v1/gonum/stat"

	"go.viam.com/visim/imu"
)

// An ErrorSummary describes how far corrupted measurements are from the actual ones.
type ErrorSummary struct {
	Sensor  string
	Samples int
	Mean    r3.Vector
	StdDev  r3.Vector
	// 95th percentile of the error norm
	P95 float64
}

// Summaries returns an error summary for the accelerometer and the gyroscope.
func (r *Result) Summaries() ([]ErrorSummary, error) {
	acc, err := summarize("accelerometer", r.AccelerometerActual, r.AccelerometerCorrupted)
	if err != nil {
		return nil, err
	}
	gyr, err := summarize("gyroscope", r.GyroscopeActual, r.GyroscopeCorrupted)
	if err != nil {
		return nil, err
	}
	return []ErrorSummary{acc, gyr}, nil
}

func summarize(sensor string, actual, corrupted []imu.Measurement) (ErrorSummary, error) {
	if len(actual) != len(corrupted) {
		return ErrorSummary{}, errors.Errorf("%s has %d actual and %d corrupted measurements", sensor, len(actual), len(corrupted))
	}
	if len(actual) == 0 {
		return ErrorSummary{}, errors.Errorf("%s has no measurements", sensor)
	}
	var axes [3][]float64
	for a := range axes {
		axes[a] = make([]float64, len(actual))
	}
	norms := make(stats.Float64Data, len(actual))
	for i := range actual {
		diff := corrupted[i].Value.Sub(actual[i].Value)
		axes[0][i], axes[1][i], axes[2][i] = diff.X, diff.Y, diff.Z
		norms[i] = diff.Norm()
	}
	summary := ErrorSummary{Sensor: sensor, Samples: len(actual)}
	summary.Mean.X, summary.StdDev.X = gstat.MeanStdDev(axes[0], nil)
	summary.Mean.Y, summary.StdDev.Y = gstat.MeanStdDev(axes[1], nil)
	summary.Mean.Z, summary.StdDev.Z = gstat.MeanStdDev(axes[2], nil)
	p95, err := norms.Percentile(95)
	if err != nil {
		return ErrorSummary{}, errors.Wrapf(err, "%s error percentile", sensor)
	}
	summary.P95 = p95
	return summary, nil
}
