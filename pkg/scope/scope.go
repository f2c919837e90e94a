// Package scope renders captured and encoded pulse trains as timing diagrams.
package scope

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/itohio/rmtcodec/pkg/pulse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("nothing to plot")

var (
	traceColor     = color.RGBA{R: 10, G: 150, B: 204, A: 255}
	thresholdColor = color.RGBA{R: 255, G: 94, B: 155, A: 255}
)

// Options controls a timing diagram.
type Options struct {
	Title string
	// Resolution converts ticks to time; 0 plots raw ticks.
	Resolution pulse.Resolution
	// Threshold marks, in ticks, where the active half of a cell must still
	// be high for the cell to read as 1. 0 disables the markers.
	Threshold uint16
}

// Trace converts symbols to a step trace of level against time. Times are in
// microseconds when res is set, in ticks otherwise.
func Trace(symbols []pulse.Symbol, res pulse.Resolution) plotter.XYs {
	scale := tickScale(res)

	xys := make(plotter.XYs, 0, 2*len(symbols)+1)
	var t uint32
	var last bool
	for _, s := range symbols {
		xys = append(xys, plotter.XY{X: float64(t) * scale, Y: level(s.Level0)})
		t += uint32(s.Duration0)
		xys = append(xys, plotter.XY{X: float64(t) * scale, Y: level(s.Level1)})
		t += uint32(s.Duration1)
		last = s.Level1
	}
	if len(symbols) > 0 {
		xys = append(xys, plotter.XY{X: float64(t) * scale, Y: level(last)})
	}
	return xys
}

// Plot builds a timing diagram of symbols.
func Plot(symbols []pulse.Symbol, opts Options) (*plot.Plot, error) {
	if len(symbols) == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Y.Label.Text = "Level"
	p.Y.Min = -0.2
	p.Y.Max = 1.2
	p.X.Label.Text = "Ticks"
	if opts.Resolution != 0 {
		p.X.Label.Text = "Time (µs)"
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(Trace(symbols, opts.Resolution))
	if err != nil {
		return nil, fmt.Errorf("failed to build trace: %w", err)
	}
	line.StepStyle = plotter.PostStep
	line.Color = traceColor
	line.Width = vg.Points(1.5)
	p.Add(line)

	if opts.Threshold > 0 {
		markers, err := thresholdMarkers(symbols, opts)
		if err != nil {
			return nil, err
		}
		for _, m := range markers {
			p.Add(m)
		}
	}

	return p, nil
}

// thresholdMarkers draws a dashed marker threshold ticks into the active half
// of every cell that has one.
func thresholdMarkers(symbols []pulse.Symbol, opts Options) ([]*plotter.Line, error) {
	scale := tickScale(opts.Resolution)

	var markers []*plotter.Line
	var t uint32
	for _, s := range symbols {
		start := t + uint32(s.Duration0)
		t = start + uint32(s.Duration1)
		if s.Level0 || !s.Level1 || s.Duration1 == 0 {
			continue
		}

		x := float64(start+uint32(opts.Threshold)) * scale
		m, err := plotter.NewLine(plotter.XYs{{X: x, Y: -0.1}, {X: x, Y: 1.1}})
		if err != nil {
			return nil, fmt.Errorf("failed to build threshold marker: %w", err)
		}
		m.Color = thresholdColor
		m.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		markers = append(markers, m)
	}
	return markers, nil
}

func tickScale(res pulse.Resolution) float64 {
	if res == 0 {
		return 1
	}
	return 1e6 / float64(res)
}

func level(high bool) float64 {
	if high {
		return 1
	}
	return 0
}
