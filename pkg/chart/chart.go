// Package chart renders rolling telemetry plots as PNG images.
package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"ficonsole/pkg/telemetry"
)

// Default image size.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 3 * vg.Inch
)

// Labels are the title and y-axis label for one metric's plot.
type Labels struct {
	Title  string
	YLabel string
}

var labels = map[telemetry.Metric]Labels{
	telemetry.VerticalAirSpeed: {"Vertical Air Speed", "Vertical Airspeed (ft per min)"},
	telemetry.Latitude:         {"Position (Latitude)", "Latitude (degrees)"},
	telemetry.Pitch:            {"Pitch Rate", "Pitch (degrees)"},
	telemetry.TrueHeading:      {"Yaw Rate", "Heading (degrees)"},
	telemetry.AirSpeed:         {"Air Speed", "Air Speed (kt)"},
	telemetry.Longitude:        {"Position (Longitude)", "Longitude (degrees)"},
	telemetry.Roll:             {"Roll Rate", "Roll (degrees)"},
	telemetry.Altitude:         {"Altitude", "Altitude (ft above MSL)"},
}

// LabelsFor returns the plot labels for m.
func LabelsFor(m telemetry.Metric) Labels {
	if l, ok := labels[m]; ok {
		return l
	}
	return Labels{Title: m.String(), YLabel: m.String()}
}

// Build creates the plot for one metric from a buffer snapshot.
// Fewer than two points yields an empty, labelled plot.
func Build(v *telemetry.View, m telemetry.Metric) (*plot.Plot, error) {
	l := LabelsFor(m)
	p := plot.New()
	p.Title.Text = l.Title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = l.YLabel
	p.Add(plotter.NewGrid())

	times := v.Times()
	series := v.Series(m)
	if len(times) < 2 || len(series) != len(times) {
		return p, nil
	}

	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i] = plotter.XY{X: times[i], Y: series[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("build %s line: %w", m, err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// WritePNG renders metric m from the snapshot to w.
func WritePNG(w io.Writer, v *telemetry.View, m telemetry.Metric, width, height vg.Length) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	p, err := Build(v, m)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", m, err)
	}
	_, err = wt.WriteTo(w)
	return err
}
