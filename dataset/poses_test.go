package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/visim/spatialmath"
)

const posesCSV = `# timestamp, tx, ty, tz, qx, qy, qz, qw
1403636580013555456, 4.688, -1.786, 0.783, -0.153, -0.827, -0.082, 0.534
1403636579963555584, 4.688, -1.786, 0.787, -0.153, -0.827, -0.081, 0.534

1403636580013555456, 1, 2, 3, 0, 0, 0, 1
`

func TestReadIndexedPoses(t *testing.T) {
	poses, err := ReadIndexedPoses(strings.NewReader(posesCSV))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldHaveLength, 2)

	test.That(t, poses[0].Stamp, test.ShouldEqual, int64(1403636579963555584))
	test.That(t, poses[1].Stamp, test.ShouldEqual, int64(1403636580013555456))

	test.That(t, poses[0].Pose.Point().Z, test.ShouldAlmostEqual, 0.787)
	want := spatialmath.Normalize(quat.Number{Real: 0.534, Imag: -0.153, Jmag: -0.827, Kmag: -0.081})
	test.That(t, spatialmath.QuaternionAlmostEqual(poses[0].Pose.Orientation().Quaternion(), want, 1e-9), test.ShouldBeTrue)

	// the later record for a repeated stamp wins
	test.That(t, poses[1].Pose.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, spatialmath.OrientationAlmostEqual(poses[1].Pose.Orientation(), spatialmath.NewZeroOrientation()), test.ShouldBeTrue)
}

func TestReadIndexedPosesErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		err   string
	}{
		{"short record", "1, 0, 0, 0, 0, 0, 0, 1\n2, 0, 0, 0, 0, 0, 1\n", "line 2: expected 8 fields, got 7"},
		{"bad stamp", "1.5, 0, 0, 0, 0, 0, 0, 1\n", "line 1: invalid timestamp"},
		{"bad value", "# header\n1, 0, x, 0, 0, 0, 0, 1\n", "line 2: invalid field 3"},
		{"zero quaternion", "1, 0, 0, 0, 0, 0, 0, 0\n", "quaternion has zero norm"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadIndexedPoses(strings.NewReader(tc.input))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}

func TestWriteIndexedPosesRoundTrip(t *testing.T) {
	in := []StampedPose{
		{Stamp: 10, Pose: spatialmath.NewPose(r3.Vector{X: 1, Y: -2, Z: 0.5}, &spatialmath.R4AA{Theta: 0.3, RX: 0, RY: 0, RZ: 1})},
		{Stamp: 20, Pose: spatialmath.NewPose(r3.Vector{X: 0.25}, &spatialmath.R4AA{Theta: 2.9, RX: 1, RY: 1, RZ: 0})},
	}
	var buf bytes.Buffer
	test.That(t, WriteIndexedPoses(&buf, in), test.ShouldBeNil)
	test.That(t, strings.HasPrefix(buf.String(), "# timestamp,"), test.ShouldBeTrue)

	out, err := ReadIndexedPoses(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldHaveLength, len(in))
	for i := range in {
		test.That(t, out[i].Stamp, test.ShouldEqual, in[i].Stamp)
		test.That(t, spatialmath.PoseAlmostEqual(out[i].Pose, in[i].Pose), test.ShouldBeTrue)
	}
}

func TestLoadIndexedPosesFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.csv")
	test.That(t, os.WriteFile(path, []byte(posesCSV), 0o600), test.ShouldBeNil)

	poses, err := LoadIndexedPosesFromCSV(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, poses, test.ShouldHaveLength, 2)

	times := Times(poses, 1e-9)
	test.That(t, times[1]-times[0], test.ShouldAlmostEqual, 0.05, 1e-6)
	test.That(t, Poses(poses)[1], test.ShouldEqual, poses[1].Pose)

	_, err = LoadIndexedPosesFromCSV(filepath.Join(t.TempDir(), "missing.csv"))
	test.That(t, err, test.ShouldNotBeNil)
}
