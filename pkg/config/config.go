package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Strip   StripConfig   `yaml:"strip"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Monitor MonitorConfig `yaml:"monitor"`
	Mock    MockConfig    `yaml:"mock"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SerialConfig contains serial bridge configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// StripConfig contains LED strip transmit configuration.
type StripConfig struct {
	GPIO            int           `yaml:"gpio"`
	LEDCount        int           `yaml:"led_count"`
	ResolutionHz    uint32        `yaml:"resolution_hz"`     // Tick rate, 10 MHz = 0.1 us per tick
	MemBlockSymbols int           `yaml:"mem_block_symbols"` // Symbols the transmitter accepts per refill
	QueueDepth      int           `yaml:"queue_depth"`       // Pending transmissions
	TransmitTimeout time.Duration `yaml:"transmit_timeout"`  // Wait for the previous frame before sending
	Gamma           float64       `yaml:"gamma"`             // 0 or 1 disables gamma correction
}

// SensorConfig contains DHT11 capture configuration.
type SensorConfig struct {
	GPIO            int           `yaml:"gpio"`
	ResolutionHz    uint32        `yaml:"resolution_hz"`   // Tick rate, 1 MHz = 1 us per tick
	ThresholdTicks  uint16        `yaml:"threshold_ticks"` // Active duration at or above which a bit is 1
	CaptureCapacity int           `yaml:"capture_capacity"`
	QueueDepth      int           `yaml:"queue_depth"`
	CaptureTimeout  time.Duration `yaml:"capture_timeout"`
	Interval        time.Duration `yaml:"interval"`
	SignalRangeMin  time.Duration `yaml:"signal_range_min"` // Shorter pulses are noise
	SignalRangeMax  time.Duration `yaml:"signal_range_max"` // Longer pulses end the frame
	Strict          bool          `yaml:"strict"`           // Reject frames with out-of-range fields
}

// MonitorConfig contains reading history parameters.
type MonitorConfig struct {
	Window         time.Duration `yaml:"window"`
	AverageSamples int           `yaml:"average_samples"` // Number of readings to average (0 = disabled, default)
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Temperature   float64       `yaml:"temperature"`    // Initial temperature (C)
	Humidity      float64       `yaml:"humidity"`       // Initial relative humidity (%)
	NoiseLevel    float64       `yaml:"noise_level"`    // Amplitude of the simulated drift
	CorruptEvery  int           `yaml:"corrupt_every"`  // Flip a bit in every Nth capture (0 = never)
	TruncateEvery int           `yaml:"truncate_every"` // Drop symbols from every Nth capture (0 = never)
	CaptureDelay  time.Duration `yaml:"capture_delay"`  // Simulated conversion time
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig contains Prometheus exporter configuration.
type MetricsConfig struct {
	Addr      string `yaml:"addr"` // Empty disables the exporter
	Namespace string `yaml:"namespace"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 115200,
		},
		Strip: StripConfig{
			GPIO:            26,
			LEDCount:        12,
			ResolutionHz:    10_000_000,
			MemBlockSymbols: 64,
			QueueDepth:      4,
			TransmitTimeout: 50 * time.Millisecond,
			Gamma:           0,
		},
		Sensor: SensorConfig{
			GPIO:            25,
			ResolutionHz:    1_000_000,
			ThresholdTicks:  35,
			CaptureCapacity: 128,
			QueueDepth:      20,
			CaptureTimeout:  time.Second,
			Interval:        time.Second,
			SignalRangeMin:  100 * time.Nanosecond,
			SignalRangeMax:  time.Millisecond,
			Strict:          false,
		},
		Monitor: MonitorConfig{
			Window:         10 * time.Minute,
			AverageSamples: 0, // No averaging by default
		},
		Mock: MockConfig{
			Temperature:   23.0,
			Humidity:      45.0,
			NoiseLevel:    0.5,
			CorruptEvery:  0,
			TruncateEvery: 0,
			CaptureDelay:  5 * time.Millisecond,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
		Metrics: MetricsConfig{
			Addr:      "",
			Namespace: "rmtcodec",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Strip.LEDCount == 0 {
		c.Strip.LEDCount = def.Strip.LEDCount
	}
	if c.Strip.ResolutionHz == 0 {
		c.Strip.ResolutionHz = def.Strip.ResolutionHz
	}
	if c.Strip.MemBlockSymbols == 0 {
		c.Strip.MemBlockSymbols = def.Strip.MemBlockSymbols
	}
	if c.Strip.QueueDepth == 0 {
		c.Strip.QueueDepth = def.Strip.QueueDepth
	}
	if c.Strip.TransmitTimeout == 0 {
		c.Strip.TransmitTimeout = def.Strip.TransmitTimeout
	}

	if c.Sensor.ResolutionHz == 0 {
		c.Sensor.ResolutionHz = def.Sensor.ResolutionHz
	}
	if c.Sensor.ThresholdTicks == 0 {
		c.Sensor.ThresholdTicks = def.Sensor.ThresholdTicks
	}
	if c.Sensor.CaptureCapacity == 0 {
		c.Sensor.CaptureCapacity = def.Sensor.CaptureCapacity
	}
	if c.Sensor.QueueDepth == 0 {
		c.Sensor.QueueDepth = def.Sensor.QueueDepth
	}
	if c.Sensor.CaptureTimeout == 0 {
		c.Sensor.CaptureTimeout = def.Sensor.CaptureTimeout
	}
	if c.Sensor.Interval == 0 {
		c.Sensor.Interval = def.Sensor.Interval
	}
	if c.Sensor.SignalRangeMin == 0 {
		c.Sensor.SignalRangeMin = def.Sensor.SignalRangeMin
	}
	if c.Sensor.SignalRangeMax == 0 {
		c.Sensor.SignalRangeMax = def.Sensor.SignalRangeMax
	}

	if c.Monitor.Window == 0 {
		c.Monitor.Window = def.Monitor.Window
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = def.Metrics.Namespace
	}
}
