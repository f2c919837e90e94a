package decoder

import (
	"errors"
	"fmt"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

const (
	// DefaultThreshold is the active duration, in 1 µs ticks, at or above which
	// a bit cell reads as 1.
	DefaultThreshold = 35
	// DataSymbols is the number of bit cells in a frame.
	DataSymbols = 40
	// FrameSymbols is a frame with its leading ack pulse.
	FrameSymbols = DataSymbols + 1

	// MaxHumidity is the largest plausible relative humidity in percent.
	MaxHumidity = 100
	// MaxTemperatureX10 is the largest plausible temperature in tenths of a degree.
	MaxTemperatureX10 = 600
)

var (
	// ErrInvalidArgument is returned for a nil capture.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTooShort is returned when a capture holds fewer symbols than a frame.
	ErrTooShort = errors.New("capture too short")
	// ErrChecksumMismatch is returned when the frame checksum does not match.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrOutOfRange is returned in strict mode when a field is implausible.
	ErrOutOfRange = errors.New("value out of range")
)

// Reading is a decoded sensor frame. Valid is set once the checksum passed;
// a field outside its plausible range is reported absent through its Has flag.
type Reading struct {
	Humidity       uint8
	TemperatureX10 uint16
	HasHumidity    bool
	HasTemperature bool
	Valid          bool
	Frame          [5]byte
}

// Partial reports whether a checksum-valid reading is missing a field.
func (r Reading) Partial() bool {
	return r.Valid && !(r.HasHumidity && r.HasTemperature)
}

// Temperature returns the temperature in degrees Celsius.
func (r Reading) Temperature() float64 {
	return float64(r.TemperatureX10) / 10
}

func (r Reading) String() string {
	hum, temp := "--", "--.-"
	if r.HasHumidity {
		hum = fmt.Sprintf("%d", r.Humidity)
	}
	if r.HasTemperature {
		temp = fmt.Sprintf("%d.%d", r.TemperatureX10/10, r.TemperatureX10%10)
	}
	return fmt.Sprintf("temp->%s C hum->%s%%", temp, hum)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithThreshold sets the bit classification threshold in ticks.
func WithThreshold(ticks uint16) Option {
	return func(d *Decoder) {
		if ticks > 0 {
			d.threshold = ticks
		}
	}
}

// WithStrict makes out-of-range fields fail the whole decode.
func WithStrict(strict bool) Option {
	return func(d *Decoder) {
		d.strict = strict
	}
}

// Decoder interprets DHT11 captures. It holds no mutable state and is safe
// for concurrent use.
type Decoder struct {
	threshold uint16
	strict    bool
}

// New creates a Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDecoder = New()

// Decode decodes a capture with the default threshold and partial validity.
func Decode(capture []pulse.Symbol) (Reading, error) {
	return defaultDecoder.Decode(capture)
}

// Threshold returns the classification threshold in ticks.
func (d *Decoder) Threshold() uint16 {
	return d.threshold
}

// Strict reports whether out-of-range fields fail the decode.
func (d *Decoder) Strict() bool {
	return d.strict
}

// Classify returns the bit value of a captured bit cell.
func (d *Decoder) Classify(s pulse.Symbol) byte {
	if s.Active() < d.threshold {
		return 0
	}
	return 1
}

// Decode validates a capture and interprets it as humidity and temperature.
// The capture is only read; nothing is retained after the call.
func (d *Decoder) Decode(capture []pulse.Symbol) (Reading, error) {
	if capture == nil {
		return Reading{}, fmt.Errorf("%w: nil capture", ErrInvalidArgument)
	}
	if len(capture) < DataSymbols {
		return Reading{}, fmt.Errorf("%w: got %d symbols, need %d", ErrTooShort, len(capture), DataSymbols)
	}
	if len(capture) > FrameSymbols {
		capture = capture[1:]
	}

	var frame [5]byte
	for i, s := range capture[:DataSymbols] {
		frame[i/8] = frame[i/8]<<1 | d.Classify(s)
	}

	if sum := Checksum(frame); sum != frame[4] {
		return Reading{}, fmt.Errorf("%w: frame % X, computed %02X", ErrChecksumMismatch, frame, sum)
	}

	r := Reading{Valid: true, Frame: frame}

	// Whole percent is the high byte; the low byte carries it only when the
	// high byte is zero. Decimal humidity is dropped.
	humidity := uint16(frame[0])
	if humidity == 0 {
		humidity = uint16(frame[1])
	}
	if humidity <= MaxHumidity {
		r.Humidity = uint8(humidity)
		r.HasHumidity = true
	}

	temperature := uint16(frame[2])*10 + uint16(frame[3])
	if temperature <= MaxTemperatureX10 {
		r.TemperatureX10 = temperature
		r.HasTemperature = true
	}

	if d.strict && r.Partial() {
		return Reading{}, fmt.Errorf("%w: humidity %d, temperature %d", ErrOutOfRange, humidity, temperature)
	}

	return r, nil
}

// Checksum returns the sum of the four data bytes modulo 256.
func Checksum(frame [5]byte) byte {
	return frame[0] + frame[1] + frame[2] + frame[3]
}
