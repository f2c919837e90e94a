package encoder

import (
	"fmt"
	"time"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

// WS2812 bit cell and reset timings.
const (
	WS2812T0H   = 300 * time.Nanosecond
	WS2812T0L   = 900 * time.Nanosecond
	WS2812T1H   = 900 * time.Nanosecond
	WS2812T1L   = 300 * time.Nanosecond
	WS2812Reset = 50 * time.Microsecond

	// BytesPerLED is the number of color channels per pixel (G, R, B).
	BytesPerLED = 3
)

// WS2812Timing returns WS2812 bit timing at the given resolution. The reset
// code is a single all-low symbol split in two equal halves.
func WS2812Timing(res pulse.Resolution) pulse.BitTiming {
	half := res.Ticks(WS2812Reset / 2)
	return pulse.BitTiming{
		Zero: pulse.Symbol{
			Level0:    true,
			Duration0: res.Ticks(WS2812T0H),
			Level1:    false,
			Duration1: res.Ticks(WS2812T0L),
		},
		One: pulse.Symbol{
			Level0:    true,
			Duration0: res.Ticks(WS2812T1H),
			Level1:    false,
			Duration1: res.Ticks(WS2812T1L),
		},
		Reset: pulse.Symbol{
			Level0:    false,
			Duration0: half,
			Level1:    false,
			Duration1: half,
		},
	}
}

// NewWS2812 creates an encoder for a strip of ledCount pixels.
func NewWS2812(ledCount int, res pulse.Resolution) (*Bytes, error) {
	if ledCount <= 0 {
		return nil, fmt.Errorf("%w: led count must be positive, got %d", ErrInvalidArgument, ledCount)
	}
	if res == 0 {
		res = pulse.LEDResolution
	}
	return NewBytes(WS2812Timing(res), ledCount*BytesPerLED)
}
