package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	var chunk int

	cmd := &cobra.Command{
		Use:   "encode <hex>",
		Short: "Print the WS2812 symbols for a frame",
		Example: `  rmtctl encode ff0000
  rmtctl encode "e6 14 14 14 e6 14" --chunk 16`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}

			enc, err := encoder.NewBytes(encoder.WS2812Timing(pulse.Resolution(a.cfg.Strip.ResolutionHz)), 0)
			if err != nil {
				return err
			}
			session, err := enc.Begin(data)
			if err != nil {
				return err
			}

			limit := chunk
			if limit <= 0 {
				limit = encoder.All
			}

			w := cmd.OutOrStdout()
			for i := 0; ; i++ {
				symbols, done := enc.Produce(session, limit)
				if chunk > 0 {
					colorMuted.Fprintf(w, "chunk %d (%d symbols)\n", i, len(symbols))
				}
				printSymbols(w, symbols)
				if done {
					break
				}
			}

			success(fmt.Sprintf("%d bytes -> %d symbols", len(data), session.Emitted()))
			return nil
		},
	}

	cmd.Flags().IntVar(&chunk, "chunk", 0, "symbols per refill (0 = whole frame)")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [symbols...]",
		Short: "Decode DHT11 capture symbols (\"0:50,1:26 ...\"), read from stdin when no arguments are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(in)
			}

			symbols, err := pulse.ParseSymbols(text)
			if err != nil {
				return err
			}

			dec := decoder.New(
				decoder.WithThreshold(a.cfg.Sensor.ThresholdTicks),
				decoder.WithStrict(a.cfg.Sensor.Strict),
			)
			reading, err := dec.Decode(symbols)
			if err != nil {
				return err
			}

			printReading(cmd.OutOrStdout(), reading)
			return nil
		},
	}
	return cmd
}

// parseHex accepts hex digits optionally separated by spaces, colons or commas.
func parseHex(text string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', ',', '\t', '\n':
			return -1
		}
		return r
	}, strings.TrimPrefix(strings.ToLower(strings.TrimSpace(text)), "0x"))

	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	return data, nil
}

// printSymbols prints symbols eight to a line, high halves and low halves in
// different colors.
func printSymbols(w io.Writer, symbols []pulse.Symbol) {
	for i, s := range symbols {
		if i > 0 && i%8 == 0 {
			fmt.Fprintln(w)
		} else if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, half(s.Level0, s.Duration0), ",", half(s.Level1, s.Duration1))
	}
	if len(symbols) > 0 {
		fmt.Fprintln(w)
	}
}

func half(level bool, duration uint16) string {
	if level {
		return colorHigh.Sprintf("1:%d", duration)
	}
	return colorLow.Sprintf("0:%d", duration)
}

func printReading(w io.Writer, r decoder.Reading) {
	text := r.String()
	if r.Partial() {
		colorWarn.Fprintln(w, text)
		return
	}
	colorSuccess.Fprintln(w, text)
}
