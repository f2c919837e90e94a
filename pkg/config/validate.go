package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap/zapcore"
)

// Validate checks configuration correctness and reports every problem found.
// It does not mutate the configuration.
func (c *Config) Validate() error {
	var result *multierror.Error

	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if c.Serial.BaudRate <= 0 {
		fail("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}

	if c.Strip.LEDCount <= 0 {
		fail("strip.led_count must be positive, got %d", c.Strip.LEDCount)
	}
	if c.Strip.ResolutionHz == 0 {
		fail("strip.resolution_hz must be positive")
	}
	if c.Strip.MemBlockSymbols <= 0 {
		fail("strip.mem_block_symbols must be positive, got %d", c.Strip.MemBlockSymbols)
	}
	if c.Strip.QueueDepth <= 0 {
		fail("strip.queue_depth must be positive, got %d", c.Strip.QueueDepth)
	}
	if c.Strip.TransmitTimeout <= 0 {
		fail("strip.transmit_timeout must be positive, got %s", c.Strip.TransmitTimeout)
	}
	if c.Strip.Gamma < 0 {
		fail("strip.gamma must not be negative, got %g", c.Strip.Gamma)
	}

	if c.Sensor.ResolutionHz == 0 {
		fail("sensor.resolution_hz must be positive")
	}
	if c.Sensor.ThresholdTicks == 0 {
		fail("sensor.threshold_ticks must be positive")
	}
	if c.Sensor.CaptureCapacity < 41 {
		fail("sensor.capture_capacity must hold a full frame (41 symbols), got %d", c.Sensor.CaptureCapacity)
	}
	if c.Sensor.QueueDepth <= 0 {
		fail("sensor.queue_depth must be positive, got %d", c.Sensor.QueueDepth)
	}
	if c.Sensor.CaptureTimeout <= 0 {
		fail("sensor.capture_timeout must be positive, got %s", c.Sensor.CaptureTimeout)
	}
	if c.Sensor.Interval < c.Sensor.CaptureTimeout {
		fail("sensor.interval (%s) must not be shorter than sensor.capture_timeout (%s)", c.Sensor.Interval, c.Sensor.CaptureTimeout)
	}
	if c.Sensor.SignalRangeMin >= c.Sensor.SignalRangeMax {
		fail("sensor.signal_range_min (%s) must be below sensor.signal_range_max (%s)", c.Sensor.SignalRangeMin, c.Sensor.SignalRangeMax)
	}

	if c.Monitor.Window <= 0 {
		fail("monitor.window must be positive, got %s", c.Monitor.Window)
	}
	if c.Monitor.AverageSamples < 0 {
		fail("monitor.average_samples must not be negative, got %d", c.Monitor.AverageSamples)
	}

	if c.Mock.CorruptEvery < 0 || c.Mock.TruncateEvery < 0 {
		fail("mock.corrupt_every and mock.truncate_every must not be negative")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		fail("log.level: %v", err)
	}

	return result.ErrorOrNil()
}
