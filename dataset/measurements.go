package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"go.viam.com/visim/imu"
)

// MeasurementHeader is the first row of a measurement table.
var MeasurementHeader = []string{"time", "x", "y", "z"}

// WriteMeasurementsCSV writes one row per measurement, preceded by MeasurementHeader.
func WriteMeasurementsCSV(w io.Writer, measurements []imu.Measurement) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(MeasurementHeader); err != nil {
		return err
	}
	for _, m := range measurements {
		record := []string{
			formatFloat(m.Time),
			formatFloat(m.Value.X),
			formatFloat(m.Value.Y),
			formatFloat(m.Value.Z),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveMeasurementsCSV writes measurements to a new file at path, creating parent directories.
func SaveMeasurementsCSV(path string, measurements []imu.Measurement) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := WriteMeasurementsCSV(f, measurements); err != nil {
		return errors.Wrapf(err, "failed to write measurements to %q", path)
	}
	return nil
}

// ReadMeasurementsCSV parses a table written by WriteMeasurementsCSV.
func ReadMeasurementsCSV(r io.Reader) ([]imu.Measurement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(MeasurementHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read measurements")
	}
	if len(records) == 0 {
		return nil, errors.New("measurement table is empty")
	}
	measurements := make([]imu.Measurement, 0, len(records)-1)
	for i, record := range records[1:] {
		var values [4]float64
		for j, field := range record {
			values[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: invalid %s", i+2, MeasurementHeader[j])
			}
		}
		m := imu.Measurement{Time: values[0]}
		m.Value.X, m.Value.Y, m.Value.Z = values[1], values[2], values[3]
		measurements = append(measurements, m)
	}
	return measurements, nil
}
