package scope

import (
	"fmt"
	"image/color"

	"github.com/itohio/rmtcodec/pkg/sample"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// DefaultMaxPoints limits the readings drawn in a history plot.
const DefaultMaxPoints = 1000

var (
	temperatureColor = color.RGBA{R: 255, G: 94, B: 155, A: 255}
	humidityColor    = color.RGBA{R: 10, G: 150, B: 204, A: 255}
	failureColor     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// History plots temperature and humidity of results against time in seconds
// since the first result. Failed measurements are marked on the time axis.
func History(results []sample.Result, maxPoints int) (*plot.Plot, error) {
	if len(results) == 0 {
		return nil, ErrNoData
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	results = sample.Downsample(nil, results, maxPoints)

	start := results[0].Timestamp
	var temperature, humidity, failures plotter.XYs
	for _, r := range results {
		x := r.Timestamp.Sub(start).Seconds()
		if !r.OK() {
			failures = append(failures, plotter.XY{X: x, Y: 0})
			continue
		}
		if r.Reading.HasTemperature {
			temperature = append(temperature, plotter.XY{X: x, Y: r.Reading.Temperature()})
		}
		if r.Reading.HasHumidity {
			humidity = append(humidity, plotter.XY{X: x, Y: float64(r.Reading.Humidity)})
		}
	}

	p := plot.New()
	p.Title.Text = "DHT11"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "°C / %RH"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		xys   plotter.XYs
		color color.Color
	}{
		{name: "Temperature", xys: temperature, color: temperatureColor},
		{name: "Humidity", xys: humidity, color: humidityColor},
	}
	for _, s := range series {
		if len(s.xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(s.xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s line: %w", s.name, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if len(failures) > 0 {
		marks, err := plotter.NewScatter(failures)
		if err != nil {
			return nil, fmt.Errorf("failed to build failure marks: %w", err)
		}
		marks.GlyphStyle = draw.GlyphStyle{
			Color:  failureColor,
			Radius: vg.Points(3),
			Shape:  draw.CrossGlyph{},
		}
		p.Add(marks)
		p.Legend.Add("Failed", marks)
	}

	return p, nil
}
