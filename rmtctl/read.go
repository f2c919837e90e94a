package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/itohio/rmtcodec/pkg/monitor"
	"github.com/itohio/rmtcodec/pkg/sample"
	"github.com/itohio/rmtcodec/pkg/scope"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newReadCmd(a *app) *cobra.Command {
	var (
		count          int
		averageSamples int
		metricsAddr    string
		plotPath       string
	)

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the DHT11 sensor periodically",
		Example: `  rmtctl read --count 5
  rmtctl read --metrics-addr :9100
  rmtctl read --mock --count 60 --plot history.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("average-samples") {
				a.cfg.Monitor.AverageSamples = averageSamples
			}
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = metricsAddr
			}
			if a.cfg.Sensor.Interval < decoder.DHT11MinInterval {
				warn(fmt.Sprintf("interval %s is shorter than the sensor allows (%s)", a.cfg.Sensor.Interval, decoder.DHT11MinInterval))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			var metrics *monitor.Metrics
			if a.cfg.Metrics.Addr != "" {
				registry := prometheus.NewRegistry()
				registry.MustRegister(collectors.NewGoCollector())
				metrics = monitor.NewMetrics(registry, a.cfg.Metrics.Namespace)

				srv := serveMetrics(a.cfg.Metrics.Addr, registry, a.logger)
				defer srv.Close()
				step("metrics", "http://"+a.cfg.Metrics.Addr+"/metrics")
			}

			dev, err := a.openDevice()
			if err != nil {
				return err
			}
			defer dev.Close()

			mon := monitor.New(a.cfg.Monitor, metrics, a.logger)

			var once sync.Once
			mon.OnUpdate(func(results []sample.Result, stats monitor.Stats) {
				printResult(results[len(results)-1], stats)
				if count > 0 && stats.Total >= count {
					once.Do(cancel)
				}
			})

			results := measurementChain(ctx, a, dev)

			title(fmt.Sprintf("Reading every %s", a.cfg.Sensor.Interval))
			step("gpio", a.cfg.Sensor.GPIO)
			step("signal range", fmt.Sprintf("%s..%s", a.cfg.Sensor.SignalRangeMin, a.cfg.Sensor.SignalRangeMax))
			mon.ProcessResults(results)

			stats := mon.Stats()
			step("total", stats.Total)
			step("valid", stats.Valid)
			step("failed", stats.Failed())

			if plotPath != "" {
				p, err := scope.History(mon.Results(), scope.DefaultMaxPoints)
				if err != nil {
					return err
				}
				if err := scope.Save(p, scope.DefaultWidth, scope.DefaultHeight, plotPath); err != nil {
					return err
				}
				success("Saved " + plotPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many measurements (0 = until interrupted)")
	cmd.Flags().IntVar(&averageSamples, "average-samples", 0, "number of readings to average (0 = disabled, overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "save a history plot to this file on exit")
	return cmd
}

// measurementChain polls the sensor and decodes the captures. The returned
// channel closes when ctx is done.
func measurementChain(ctx context.Context, a *app, capturer device.Capturer) <-chan sample.Result {
	dec := decoder.New(
		decoder.WithThreshold(a.cfg.Sensor.ThresholdTicks),
		decoder.WithStrict(a.cfg.Sensor.Strict),
	)

	captures := device.Poll(ctx, capturer, a.cfg.Sensor.Interval, a.cfg.Sensor.CaptureTimeout, a.logger)
	results := sample.NewConverter(dec, 100, a.logger)(captures)
	if a.cfg.Monitor.AverageSamples > 0 {
		results = sample.NewAveragingConverter(a.cfg.Monitor.AverageSamples, 100, a.logger)(results)
	}
	return results
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func printResult(r sample.Result, stats monitor.Stats) {
	ts := colorMuted.Sprint(r.Timestamp.Format("15:04:05"))
	counter := colorMuted.Sprintf("[%d/%d]", stats.Valid, stats.Total)

	switch kind := monitor.Kind(r); kind {
	case monitor.KindValid:
		fmt.Println(ts, colorSuccess.Sprint(r.Reading.String()), counter)
	case monitor.KindPartial:
		fmt.Println(ts, colorWarn.Sprint(r.Reading.String()), counter)
	default:
		fmt.Println(ts, colorError.Sprint(kind), colorMuted.Sprint(r.Err), counter)
	}
}
