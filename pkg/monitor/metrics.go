package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports readings and decode outcomes to Prometheus.
type Metrics struct {
	results     *prometheus.CounterVec
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	lastValid   prometheus.Gauge
}

// NewMetrics registers the monitor metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		results: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dht11",
				Name:      "results_total",
				Help:      "Measurements by decode outcome",
			},
			[]string{"kind"},
		),
		temperature: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dht11",
			Name:      "temperature_celsius",
			Help:      "Last decoded temperature",
		}),
		humidity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dht11",
			Name:      "humidity_percent",
			Help:      "Last decoded relative humidity",
		}),
		lastValid: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dht11",
			Name:      "last_valid_timestamp_seconds",
			Help:      "Unix time of the last checksum-valid reading",
		}),
	}
}
