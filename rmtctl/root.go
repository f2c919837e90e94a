package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the state shared by every command.
type app struct {
	configPath string
	port       string
	mock       bool
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "rmtctl",
		Short: "Encode LED frames and read DHT11 sensors through a pulse bridge",
		Long: `rmtctl drives a WS2812 LED strip and a DHT11 sensor attached to a
pulse bridge on a serial port, or a simulated one with --mock.

Run 'rmtctl <command> --help' for details on each command.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "config.yaml", "configuration file path")
	flags.StringVarP(&a.port, "port", "p", "", "serial port override (e.g., COM3 or /dev/ttyACM0)")
	flags.BoolVar(&a.mock, "mock", false, "use a simulated device instead of the serial port")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newStripCmd(a),
		newReadCmd(a),
		newPlotCmd(a),
		newPortsCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup() error {
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.port != "" {
		cfg.Serial.Port = a.port
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration %s: %w", a.configPath, err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// openDevice connects to the bridge, or to the simulator with --mock.
func (a *app) openDevice() (device.Device, error) {
	var dev device.Device
	if a.mock {
		dev = device.NewMock(a.cfg, a.logger)
	} else {
		dev = device.NewSerial(a.cfg, a.logger)
	}

	if err := dev.Connect(); err != nil {
		return nil, err
	}

	if a.mock {
		info("Connected to simulated device")
	} else {
		info(fmt.Sprintf("Connected to serial port: %s", a.cfg.Serial.Port))
	}
	return dev, nil
}

// newLogger builds a zap logger from the log section.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
