package sample

import (
	"math"

	"go.uber.org/zap"
)

// NewAveragingConverter creates a stage that replaces every valid reading by
// the moving average of the last windowSize valid readings. Failed results
// pass through untouched and do not enter the window.
func NewAveragingConverter(windowSize int, bufSize int, logger *zap.Logger) func(in <-chan Result) <-chan Result {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("averaging")

	return func(in <-chan Result) <-chan Result {
		out := make(chan Result, bufSize)

		go func() {
			defer close(out)

			var window []Result
			for result := range in {
				if result.OK() {
					window = append(window, result)
					if len(window) > windowSize {
						window = window[1:] // Remove oldest
					}
					result = averageResults(window)
				}

				select {
				case out <- result:
				default:
					logger.Warn("averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// averageResults averages the readings of results. Each field is averaged
// over the readings that carry it. Uses the most recent timestamp and frame.
func averageResults(results []Result) Result {
	if len(results) == 0 {
		return Result{}
	}

	last := results[len(results)-1]
	avg := last
	avg.Reading.HasHumidity = false
	avg.Reading.HasTemperature = false

	var sumHumidity, sumTemperature float64
	var nHumidity, nTemperature int
	for _, r := range results {
		if r.Reading.HasHumidity {
			sumHumidity += float64(r.Reading.Humidity)
			nHumidity++
		}
		if r.Reading.HasTemperature {
			sumTemperature += float64(r.Reading.TemperatureX10)
			nTemperature++
		}
	}

	if nHumidity > 0 {
		avg.Reading.Humidity = uint8(math.Round(sumHumidity / float64(nHumidity)))
		avg.Reading.HasHumidity = true
	}
	if nTemperature > 0 {
		avg.Reading.TemperatureX10 = uint16(math.Round(sumTemperature / float64(nTemperature)))
		avg.Reading.HasTemperature = true
	}

	return avg
}
