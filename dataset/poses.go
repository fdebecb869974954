// Package dataset reads and writes the files a simulation consumes and produces: stamped pose
// lists, IMU measurement tables and plots.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/visim/spatialmath"
)

const poseFields = 8

// A StampedPose is a pose tagged with an integer timestamp, usually nanoseconds.
type StampedPose struct {
	Stamp int64
	Pose  spatialmath.Pose
}

// PoseHeader is the comment line written ahead of stamped pose records.
var PoseHeader = []string{"# timestamp", "tx", "ty", "tz", "qx", "qy", "qz", "qw"}

// ReadIndexedPoses parses stamped poses, one per line, laid out as
// stamp, tx, ty, tz, qx, qy, qz, qw. Lines starting with '#' are ignored. The result is sorted by
// stamp and a repeated stamp keeps the last record read.
func ReadIndexedPoses(r io.Reader) ([]StampedPose, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	byStamp := map[int64]spatialmath.Pose{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read pose record")
		}
		line, _ := reader.FieldPos(0)
		if len(record) != poseFields {
			return nil, errors.Errorf("line %d: expected %d fields, got %d", line, poseFields, len(record))
		}
		stamp, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid timestamp", line)
		}
		var values [poseFields - 1]float64
		for i := range values {
			values[i], err = strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid field %d", line, i+2)
			}
		}
		q := quat.Number{Real: values[6], Imag: values[3], Jmag: values[4], Kmag: values[5]}
		if quat.Abs(q) == 0 {
			return nil, errors.Errorf("line %d: quaternion has zero norm", line)
		}
		byStamp[stamp] = spatialmath.NewPoseFromQuaternion(r3.Vector{X: values[0], Y: values[1], Z: values[2]}, q)
	}

	poses := make([]StampedPose, 0, len(byStamp))
	for stamp, pose := range byStamp {
		poses = append(poses, StampedPose{Stamp: stamp, Pose: pose})
	}
	sort.Slice(poses, func(i, j int) bool { return poses[i].Stamp < poses[j].Stamp })
	return poses, nil
}

// LoadIndexedPosesFromCSV reads stamped poses from the file at path.
func LoadIndexedPosesFromCSV(path string) ([]StampedPose, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	poses, err := ReadIndexedPoses(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load poses from %q", path)
	}
	return poses, nil
}

// WriteIndexedPoses writes poses in the layout ReadIndexedPoses accepts, preceded by a header
// comment.
func WriteIndexedPoses(w io.Writer, poses []StampedPose) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(PoseHeader); err != nil {
		return err
	}
	for _, sp := range poses {
		pt := sp.Pose.Point()
		q := sp.Pose.Orientation().Quaternion()
		record := []string{
			strconv.FormatInt(sp.Stamp, 10),
			formatFloat(pt.X), formatFloat(pt.Y), formatFloat(pt.Z),
			formatFloat(q.Imag), formatFloat(q.Jmag), formatFloat(q.Kmag), formatFloat(q.Real),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Times converts pose stamps to seconds by multiplying with scale.
func Times(poses []StampedPose, scale float64) []float64 {
	times := make([]float64, len(poses))
	for i, sp := range poses {
		times[i] = float64(sp.Stamp) * scale
	}
	return times
}

// Poses returns the poses without their stamps.
func Poses(poses []StampedPose) []spatialmath.Pose {
	out := make([]spatialmath.Pose, len(poses))
	for i, sp := range poses {
		out[i] = sp.Pose
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
