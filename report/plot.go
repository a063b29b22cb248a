package report

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Trace records the cumulative cycle count after every pipeline step.
type Trace struct {
	Cycles []uint64
}

// Record appends the cycle count observed after a step.
func (t *Trace) Record(cycles uint64) {
	t.Cycles = append(t.Cycles, cycles)
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	return len(t.Cycles)
}

// XY implements plotter.XYer with steps numbered from 1.
func (t *Trace) XY(i int) (float64, float64) {
	return float64(i + 1), float64(t.Cycles[i])
}

// PlotTrace saves a line plot of cumulative cycles per step. The format
// follows the extension of path (png, svg, pdf, ...).
func PlotTrace(t *Trace, title, path string) error {
	if t.Len() == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = "cumulative cycles"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(t)
	if err != nil {
		return fmt.Errorf("building trace line: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

// Series is one named group of bar values, one value per label.
type Series struct {
	Name   string
	Values []float64
}

// PlotBars saves a grouped bar chart with one group per label and one
// bar per series.
func PlotBars(title, yLabel string, labels []string, series []Series, path string) error {
	if len(labels) == 0 || len(series) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	width := vg.Points(40 / float64(len(series)))
	for i, s := range series {
		if len(s.Values) != len(labels) {
			return fmt.Errorf("series %s has %d values for %d labels",
				s.Name, len(s.Values), len(labels))
		}

		bars, err := plotter.NewBarChart(plotter.Values(s.Values), width)
		if err != nil {
			return fmt.Errorf("building bars for %s: %w", s.Name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(i-len(series)/2)

		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.NominalX(labels...)

	w := vg.Length(len(labels)) * vg.Inch
	w = max(w, 6*vg.Inch)
	if err := p.Save(w, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

func sortedAddrs(m map[uint32]uint32) []uint32 {
	return slices.Sorted(maps.Keys(m))
}
