package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/itohio/rmtcodec/pkg/strip"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStripCmd(a *app) *cobra.Command {
	var (
		delay    time.Duration
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "strip",
		Short: "Run the marquee demo on the LED strip",
		Example: `  rmtctl strip
  rmtctl strip --mock --duration 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			s, err := strip.New(dev, a.cfg.Strip, a.logger)
			if err != nil {
				return err
			}

			title(fmt.Sprintf("Marquee on %d LEDs", s.Len()))
			step("step", delay)
			step("gpio", a.cfg.Strip.GPIO)

			err = s.Marquee(ctx, delay)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			// Leave the strip dark
			shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.Clear()
			if err := s.Show(shutdown); err != nil {
				a.logger.Warn("failed to clear strip", zap.Error(err))
			}
			if err := dev.WaitAllDone(shutdown, time.Second); err != nil {
				a.logger.Warn("strip did not finish", zap.Error(err))
			}

			success("Stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&delay, "step", 80*time.Millisecond, "delay between LEDs")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 = until interrupted)")
	return cmd
}
