package sample

import (
	"time"

	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"go.uber.org/zap"
)

// Result is one measurement: the decoded reading, or the reason there is none.
type Result struct {
	Timestamp time.Time
	Reading   decoder.Reading
	Err       error
	Symbols   []pulse.Symbol // Raw capture, kept for plotting failed frames
}

// OK reports whether the result carries a checksum-valid reading.
func (r Result) OK() bool {
	return r.Err == nil && r.Reading.Valid
}

// Converter is a function type that converts a Capture channel to a Result channel.
type Converter func(in <-chan device.Capture) <-chan Result

// NewConverter creates a converter function that decodes captures with dec.
// Failed captures and decode errors are passed on as results with Err set.
func NewConverter(dec *decoder.Decoder, bufSize int, logger *zap.Logger) Converter {
	if dec == nil {
		dec = decoder.New()
	}
	if bufSize <= 0 {
		bufSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("converter")

	return func(in <-chan device.Capture) <-chan Result {
		out := make(chan Result, bufSize)

		go func() {
			defer close(out)

			for capture := range in {
				result := convert(dec, capture)
				if result.Err != nil {
					logger.Debug("failed to decode capture",
						zap.Int("symbols", len(capture.Symbols)),
						zap.Error(result.Err))
				}

				select {
				case out <- result:
				case <-time.After(time.Second):
					logger.Warn("converter output channel full, dropping result")
				}
			}
		}()

		return out
	}
}

// convert decodes a single capture.
func convert(dec *decoder.Decoder, capture device.Capture) Result {
	result := Result{
		Timestamp: capture.Timestamp,
		Symbols:   capture.Symbols,
		Err:       capture.Err,
	}
	if result.Err != nil {
		return result
	}

	result.Reading, result.Err = dec.Decode(capture.Symbols)
	return result
}
