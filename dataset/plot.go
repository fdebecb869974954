package dataset

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go.viam.com/visim/imu"
)

// PlotMeasurements draws one line per axis of every named series against time and saves the
// figure at path. The image format follows the file extension.
func PlotMeasurements(path, title string, series map[string][]imu.Measurement) error {
	if len(series) == 0 {
		return errors.New("nothing to plot")
	}
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Legend.Top = true

	lines := make([]interface{}, 0, 6*len(names))
	for _, name := range names {
		measurements := series[name]
		if len(measurements) == 0 {
			return errors.Errorf("series %q has no measurements", name)
		}
		axes := [3]plotter.XYs{}
		for a := range axes {
			axes[a] = make(plotter.XYs, len(measurements))
		}
		for i, m := range measurements {
			axes[0][i] = plotter.XY{X: m.Time, Y: m.Value.X}
			axes[1][i] = plotter.XY{X: m.Time, Y: m.Value.Y}
			axes[2][i] = plotter.XY{X: m.Time, Y: m.Value.Z}
		}
		lines = append(lines, name+" x", axes[0], name+" y", axes[1], name+" z", axes[2])
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return errors.Wrap(err, "failed to add plot lines")
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %q", path)
	}
	return nil
}
