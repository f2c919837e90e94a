package monitor

import (
	"errors"
	"sync"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/itohio/rmtcodec/pkg/sample"
	"go.uber.org/zap"
)

var _ ReadingMonitor = (*Monitor)(nil)

// Result kinds, also used as the metrics label.
const (
	KindValid    = "valid"
	KindPartial  = "partial"
	KindChecksum = "checksum"
	KindTooShort = "too_short"
	KindRange    = "out_of_range"
	KindTimeout  = "timeout"
	KindError    = "error"
)

// Stats counts measurements by outcome since the monitor was created.
type Stats struct {
	Total     int
	Valid     int // Includes partial readings
	Partial   int
	Checksum  int
	TooShort  int
	Range     int
	Timeout   int
	Error     int
	LastValid time.Time
}

// Failed returns the number of measurements without a reading.
func (s Stats) Failed() int {
	return s.Total - s.Valid
}

// ReadingMonitor keeps a window of measurement results and statistics.
type ReadingMonitor interface {
	ProcessResults(input <-chan sample.Result)
	Results() []sample.Result                            // Results within the window, oldest first
	Latest() (sample.Result, bool)                       // Last checksum-valid result
	Stats() Stats                                        // Outcome counters
	OnUpdate(func(results []sample.Result, stats Stats)) // Register callback for updates
}

// Monitor implements ReadingMonitor.
// Results are kept in a FIFO ordered first to last and removed by timestamp.
type Monitor struct {
	window  time.Duration
	metrics *Metrics
	logger  *zap.Logger

	mu      sync.RWMutex
	results []sample.Result
	latest  sample.Result
	hasLast bool
	stats   Stats

	callbacks []func(results []sample.Result, stats Stats)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a monitor. metrics and logger may be nil.
func New(cfg config.MonitorConfig, metrics *Metrics, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		window:  cfg.Window,
		metrics: metrics,
		logger:  logger.Named("monitor"),
		results: make([]sample.Result, 0),
	}
}

// Kind classifies a result.
func Kind(r sample.Result) string {
	switch {
	case r.Err == nil && r.Reading.Partial():
		return KindPartial
	case r.Err == nil:
		return KindValid
	case errors.Is(r.Err, decoder.ErrChecksumMismatch):
		return KindChecksum
	case errors.Is(r.Err, decoder.ErrTooShort):
		return KindTooShort
	case errors.Is(r.Err, decoder.ErrOutOfRange):
		return KindRange
	case errors.Is(r.Err, device.ErrTimeout):
		return KindTimeout
	default:
		return KindError
	}
}

// ProcessResults consumes results until input closes, then stops notifying.
func (m *Monitor) ProcessResults(input <-chan sample.Result) {
	for r := range input {
		m.processResult(r)
	}

	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

func (m *Monitor) processResult(r sample.Result) {
	kind := Kind(r)

	m.mu.Lock()
	m.results = append(m.results, r)

	// Remove results outside the time window
	if m.window > 0 {
		cutoff := r.Timestamp.Add(-m.window)
		i := 0
		for i < len(m.results)-1 && !m.results[i].Timestamp.After(cutoff) {
			i++
		}
		m.results = m.results[i:]
	}

	m.count(kind)
	if kind == KindValid || kind == KindPartial {
		m.latest = r
		m.hasLast = true
		m.stats.LastValid = r.Timestamp
	}
	shouldNotify := !m.shutdown
	m.mu.Unlock()

	m.export(kind, r)

	if kind == KindValid || kind == KindPartial {
		m.logger.Debug("reading", zap.Stringer("reading", r.Reading))
	} else {
		m.logger.Debug("measurement failed", zap.String("kind", kind), zap.Error(r.Err))
	}

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// count must be called with mu held.
func (m *Monitor) count(kind string) {
	m.stats.Total++
	switch kind {
	case KindValid:
		m.stats.Valid++
	case KindPartial:
		m.stats.Valid++
		m.stats.Partial++
	case KindChecksum:
		m.stats.Checksum++
	case KindTooShort:
		m.stats.TooShort++
	case KindRange:
		m.stats.Range++
	case KindTimeout:
		m.stats.Timeout++
	default:
		m.stats.Error++
	}
}

func (m *Monitor) export(kind string, r sample.Result) {
	if m.metrics == nil {
		return
	}

	m.metrics.results.WithLabelValues(kind).Inc()
	if kind != KindValid && kind != KindPartial {
		return
	}
	if r.Reading.HasTemperature {
		m.metrics.temperature.Set(r.Reading.Temperature())
	}
	if r.Reading.HasHumidity {
		m.metrics.humidity.Set(float64(r.Reading.Humidity))
	}
	m.metrics.lastValid.Set(float64(r.Timestamp.UnixNano()) / 1e9)
}

// Results returns a copy of the results within the window.
func (m *Monitor) Results() []sample.Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Result, len(m.results))
	copy(result, m.results)
	return result
}

// Latest returns the last checksum-valid result.
func (m *Monitor) Latest() (sample.Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasLast
}

// Stats returns the outcome counters.
func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// OnUpdate registers a callback invoked after every result.
// The callback should copy data quickly and return as fast as possible.
func (m *Monitor) OnUpdate(callback func(results []sample.Result, stats Stats)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again before a new ProcessResults run.
func (m *Monitor) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks invokes all registered callbacks without holding locks.
func (m *Monitor) notifyCallbacks() {
	results := m.Results()
	stats := m.Stats()

	m.cbMu.RLock()
	callbacks := make([]func(results []sample.Result, stats Stats), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(results, stats)
		}
	}
}
