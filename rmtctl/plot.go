package main

import (
	"fmt"
	"strings"

	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"github.com/itohio/rmtcodec/pkg/scope"
	"github.com/spf13/cobra"
)

func newPlotCmd(a *app) *cobra.Command {
	var (
		output      string
		encodeHex   string
		capture     bool
		temperature float64
		humidity    float64
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a timing diagram of a DHT11 or WS2812 frame",
		Long: `Render a timing diagram. By default a DHT11 frame for --temperature and
--humidity is synthesized; --capture measures the sensor instead and
--encode plots the WS2812 symbols of a hex frame.`,
		Example: `  rmtctl plot -o dht11.png
  rmtctl plot --capture -o capture.svg
  rmtctl plot --encode ff8000 -o ws2812.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				symbols []pulse.Symbol
				opts    scope.Options
			)

			switch {
			case encodeHex != "":
				data, err := parseHex(encodeHex)
				if err != nil {
					return err
				}
				res := pulse.Resolution(a.cfg.Strip.ResolutionHz)
				enc, err := encoder.NewBytes(encoder.WS2812Timing(res), 0)
				if err != nil {
					return err
				}
				if symbols, err = encoder.Encode(enc, data); err != nil {
					return err
				}
				opts = scope.Options{Title: "WS2812 " + strings.ToUpper(encodeHex), Resolution: res}

			case capture:
				dev, err := a.openDevice()
				if err != nil {
					return err
				}
				defer dev.Close()

				c, err := dev.Capture(cmd.Context(), a.cfg.Sensor.CaptureTimeout)
				if err != nil {
					return err
				}
				symbols = c.Symbols
				opts = scope.Options{Title: "DHT11 capture"}

			default:
				tenths := int(temperature*10 + 0.5)
				frame := decoder.NewFrame(uint8(humidity+0.5), 0, uint8(tenths/10), uint8(tenths%10))
				symbols = decoder.Synthesize(frame, true)
				opts = scope.Options{Title: fmt.Sprintf("DHT11 % X", frame)}
			}

			if encodeHex == "" {
				opts.Resolution = pulse.Resolution(a.cfg.Sensor.ResolutionHz)
				opts.Threshold = a.cfg.Sensor.ThresholdTicks
				if reading, err := decoder.Decode(symbols); err == nil {
					opts.Title += "  " + reading.String()
				} else {
					warn(err.Error())
				}
			}

			p, err := scope.Plot(symbols, opts)
			if err != nil {
				return err
			}
			if err := scope.Save(p, scope.DefaultWidth, scope.DefaultHeight, output); err != nil {
				return err
			}

			success(fmt.Sprintf("Saved %d symbols to %s", len(symbols), output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "frame.png", "output image (png, svg, pdf, ...)")
	cmd.Flags().StringVar(&encodeHex, "encode", "", "plot the WS2812 symbols of this hex frame")
	cmd.Flags().BoolVar(&capture, "capture", false, "plot a capture from the device")
	cmd.Flags().Float64Var(&temperature, "temperature", 23.4, "temperature of the synthesized frame (C)")
	cmd.Flags().Float64Var(&humidity, "humidity", 45, "relative humidity of the synthesized frame (%)")
	return cmd
}
