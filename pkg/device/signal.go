package device

import (
	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/pulse"
)

// SignalFilter applies the receiver signal range to a capture, in ticks.
// Halves shorter than Min are glitches; a half longer than Max is the line
// idling and ends the frame. Zero disables either bound.
type SignalFilter struct {
	Min uint16
	Max uint16
}

// NewSignalFilter converts the configured signal range to sensor ticks.
func NewSignalFilter(cfg config.SensorConfig) SignalFilter {
	res := pulse.Resolution(cfg.ResolutionHz)
	if res == 0 {
		res = pulse.SensorResolution
	}
	return SignalFilter{
		Min: res.Ticks(cfg.SignalRangeMin),
		Max: res.Ticks(cfg.SignalRangeMax),
	}
}

// Apply returns the filtered capture. symbols is not modified.
func (f SignalFilter) Apply(symbols []pulse.Symbol) []pulse.Symbol {
	out := make([]pulse.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if f.idle(s.Duration0) {
			break
		}
		if f.glitch(s.Duration0) || f.glitch(s.Duration1) {
			continue
		}
		if f.idle(s.Duration1) {
			// The closing half never finished
			s.Duration1 = 0
			out = append(out, s)
			break
		}
		out = append(out, s)
	}
	return out
}

// A zero duration marks the end of a capture and is neither.
func (f SignalFilter) glitch(d uint16) bool {
	return d > 0 && d < f.Min
}

func (f SignalFilter) idle(d uint16) bool {
	return f.Max > 0 && d > f.Max
}
