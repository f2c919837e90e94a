package config

import (
	"os"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 12, cfg.Strip.LEDCount)
	assert.Equal(t, uint32(10_000_000), cfg.Strip.ResolutionHz)
	assert.Equal(t, 64, cfg.Strip.MemBlockSymbols)
	assert.Equal(t, 4, cfg.Strip.QueueDepth)
	assert.Equal(t, 50*time.Millisecond, cfg.Strip.TransmitTimeout)
	assert.Equal(t, uint32(1_000_000), cfg.Sensor.ResolutionHz)
	assert.Equal(t, uint16(35), cfg.Sensor.ThresholdTicks)
	assert.Equal(t, 128, cfg.Sensor.CaptureCapacity)
	assert.Equal(t, 20, cfg.Sensor.QueueDepth)
	assert.Equal(t, time.Second, cfg.Sensor.CaptureTimeout)
	assert.Equal(t, 100*time.Nanosecond, cfg.Sensor.SignalRangeMin)
	assert.Equal(t, time.Millisecond, cfg.Sensor.SignalRangeMax)
	assert.False(t, cfg.Sensor.Strict)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "test_config_*.yaml")
	require.NoError(t, err)
	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 230400

strip:
  gpio: 18
  led_count: 60
  mem_block_symbols: 48
  transmit_timeout: 100ms
  gamma: 2.2

sensor:
  gpio: 4
  threshold_ticks: 40
  capture_timeout: 500ms
  interval: 2s
  strict: true

monitor:
  window: 1h
  average_samples: 5

mock:
  corrupt_every: 7

log:
  level: debug
  development: true
`

	cfg, err := Load(writeTemp(t, yamlContent))
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 230400, cfg.Serial.BaudRate)
	assert.Equal(t, 18, cfg.Strip.GPIO)
	assert.Equal(t, 60, cfg.Strip.LEDCount)
	assert.Equal(t, 48, cfg.Strip.MemBlockSymbols)
	assert.Equal(t, 100*time.Millisecond, cfg.Strip.TransmitTimeout)
	assert.Equal(t, 2.2, cfg.Strip.Gamma)
	assert.Equal(t, 4, cfg.Sensor.GPIO)
	assert.Equal(t, uint16(40), cfg.Sensor.ThresholdTicks)
	assert.Equal(t, 500*time.Millisecond, cfg.Sensor.CaptureTimeout)
	assert.Equal(t, 2*time.Second, cfg.Sensor.Interval)
	assert.True(t, cfg.Sensor.Strict)
	assert.Equal(t, time.Hour, cfg.Monitor.Window)
	assert.Equal(t, 5, cfg.Monitor.AverageSamples)
	assert.Equal(t, 7, cfg.Mock.CorruptEvery)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "invalid: yaml: content: ["))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	cfg, err := Load(writeTemp(t, yamlContent))
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)           // default
	assert.Equal(t, 12, cfg.Strip.LEDCount)                // default
	assert.Equal(t, uint16(35), cfg.Sensor.ThresholdTicks) // default
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB1"
	cfg.Strip.LEDCount = 30

	path := writeTemp(t, "")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", loaded.Serial.Port)
	assert.Equal(t, 30, loaded.Strip.LEDCount)
	assert.Equal(t, cfg.Sensor, loaded.Sensor)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Strip.LEDCount = -1
	cfg.Sensor.CaptureCapacity = 30
	cfg.Sensor.SignalRangeMin = 2 * time.Millisecond
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), "strip.led_count")
	assert.Contains(t, err.Error(), "sensor.capture_capacity")
	assert.Contains(t, err.Error(), "sensor.signal_range_min")
	assert.Contains(t, err.Error(), "log.level")
}

func TestValidate_IntervalShorterThanTimeout(t *testing.T) {
	cfg := Default()
	cfg.Sensor.Interval = 100 * time.Millisecond

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor.interval")
}
