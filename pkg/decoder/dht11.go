package decoder

import (
	"time"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

// DHT11 line timings as seen by a capture at pulse.SensorResolution.
const (
	DHT11AckLow   = 80 * time.Microsecond
	DHT11AckHigh  = 80 * time.Microsecond
	DHT11BitLow   = 50 * time.Microsecond
	DHT11ZeroHigh = 26 * time.Microsecond
	DHT11OneHigh  = 70 * time.Microsecond

	// DHT11StartLow is how long the host holds the line low to wake the sensor.
	DHT11StartLow = 20 * time.Millisecond
	// DHT11StartHigh is the release pulse before switching to input.
	DHT11StartHigh = 20 * time.Microsecond
	// DHT11MinInterval is the shortest safe period between measurements.
	DHT11MinInterval = time.Second
)

// DHT11Timing is the DHT11 bit cell timing. Reset holds the ack pulse the
// sensor sends before its data bits.
var DHT11Timing = pulse.BitTiming{
	Zero: pulse.Symbol{
		Level0:    false,
		Duration0: pulse.SensorResolution.Ticks(DHT11BitLow),
		Level1:    true,
		Duration1: pulse.SensorResolution.Ticks(DHT11ZeroHigh),
	},
	One: pulse.Symbol{
		Level0:    false,
		Duration0: pulse.SensorResolution.Ticks(DHT11BitLow),
		Level1:    true,
		Duration1: pulse.SensorResolution.Ticks(DHT11OneHigh),
	},
	Reset: pulse.Symbol{
		Level0:    false,
		Duration0: pulse.SensorResolution.Ticks(DHT11AckLow),
		Level1:    true,
		Duration1: pulse.SensorResolution.Ticks(DHT11AckHigh),
	},
}

// NewFrame builds a frame from its data bytes with a correct checksum.
func NewFrame(humidityHigh, humidityLow, temperatureHigh, temperatureLow byte) [5]byte {
	frame := [5]byte{humidityHigh, humidityLow, temperatureHigh, temperatureLow}
	frame[4] = Checksum(frame)
	return frame
}

// DHT11Tail is the last cell of a capture: the closing low half followed by
// the line idling high until the end-of-frame timeout.
var DHT11Tail = pulse.Symbol{
	Level0:    false,
	Duration0: pulse.SensorResolution.Ticks(DHT11BitLow),
	Level1:    true,
}

// Synthesize renders a frame as the symbols a DHT11 would produce. A framed
// capture carries the ack pulse before the data bits and DHT11Tail after them,
// as a full hardware capture does.
func Synthesize(frame [5]byte, framed bool) []pulse.Symbol {
	symbols := make([]pulse.Symbol, 0, FrameSymbols+1)
	if framed {
		symbols = append(symbols, DHT11Timing.Reset)
	}
	for _, b := range frame {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				symbols = append(symbols, DHT11Timing.One)
			} else {
				symbols = append(symbols, DHT11Timing.Zero)
			}
		}
	}
	if framed {
		symbols = append(symbols, DHT11Tail)
	}
	return symbols
}
