package device

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"go.uber.org/zap"
)

// Mock simulates an LED strip transmitter and a DHT11 sensor for testing and
// development.
type Mock struct {
	cfg    *config.Config
	logger *zap.Logger
	filter SignalFilter

	captures *Queue[Capture]
	tx       *inflight
	jobs     chan transmitJob

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	connected bool

	// Simulation state
	frames       [][]pulse.Symbol
	refills      int
	measurements int
}

type transmitJob struct {
	enc     encoder.Encoder
	session *encoder.Session
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config, logger *zap.Logger) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Mock{
		cfg:      cfg,
		logger:   logger.Named("mock"),
		filter:   NewSignalFilter(cfg.Sensor),
		captures: NewQueue[Capture](cfg.Sensor.QueueDepth),
		tx:       newInflight(cfg.Strip.QueueDepth),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.jobs = make(chan transmitJob, m.tx.depth())
	m.connected = true

	m.wg.Add(1)
	go m.emitFrames(m.ctx, m.jobs)

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.mu.Unlock()

	m.wg.Wait()
	m.tx.releaseAll()
	m.captures.Drain()

	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Transmit queues a frame for the simulated transmitter.
func (m *Mock) Transmit(ctx context.Context, enc encoder.Encoder, data []byte) error {
	jobs, err := m.jobQueue()
	if err != nil {
		return err
	}

	session, err := enc.Begin(data)
	if err != nil {
		return err
	}

	if err := m.tx.acquire(ctx); err != nil {
		return err
	}

	select {
	case jobs <- transmitJob{enc: enc, session: session}:
		return nil
	case <-ctx.Done():
		m.tx.release()
		return ctx.Err()
	}
}

// WaitAllDone blocks until every queued frame has been emitted.
func (m *Mock) WaitAllDone(ctx context.Context, timeout time.Duration) error {
	return m.tx.wait(ctx, timeout)
}

// Capture simulates a sensor measurement. The capture is delivered from a
// completion callback after the configured conversion delay.
func (m *Mock) Capture(ctx context.Context, timeout time.Duration) (Capture, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return Capture{}, ErrNotConnected
	}
	m.measurements++
	n := m.measurements
	devCtx := m.ctx
	m.mu.Unlock()

	m.captures.Drain()

	symbols := m.simulateCapture(n)
	time.AfterFunc(m.cfg.Mock.CaptureDelay, func() {
		if devCtx.Err() != nil {
			return
		}
		if !m.captures.Offer(Capture{Timestamp: time.Now(), Symbols: symbols}) {
			m.logger.Warn("capture queue full, dropping capture")
		}
	})

	c, err := m.captures.Receive(ctx, timeout)
	if err != nil {
		return Capture{}, err
	}
	return c, nil
}

// Frames returns a copy of every frame emitted so far.
func (m *Mock) Frames() [][]pulse.Symbol {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([][]pulse.Symbol, len(m.frames))
	for i, f := range m.frames {
		result[i] = append([]pulse.Symbol(nil), f...)
	}
	return result
}

// Refills returns how many times the simulated symbol memory was refilled.
func (m *Mock) Refills() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refills
}

func (m *Mock) jobQueue() (chan<- transmitJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	return m.jobs, nil
}

// emitFrames drains queued sessions through a symbol memory of
// MemBlockSymbols, the way the transmitter asks the encoder for more symbols.
func (m *Mock) emitFrames(ctx context.Context, jobs <-chan transmitJob) {
	defer m.wg.Done()

	memBlock := m.cfg.Strip.MemBlockSymbols
	if memBlock <= 0 {
		memBlock = DefaultMemBlockSymbols
	}
	res := pulse.Resolution(m.cfg.Strip.ResolutionHz)
	if res == 0 {
		res = pulse.LEDResolution
	}

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jobs:
			var frame []pulse.Symbol
			var ticks uint32
			refills := 0
			for done := false; !done; {
				var chunk []pulse.Symbol
				chunk, done = job.enc.Produce(job.session, memBlock)
				for _, s := range chunk {
					ticks += s.Total()
				}
				frame = append(frame, chunk...)
				refills++
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(res.Duration(ticks)):
			}

			m.mu.Lock()
			m.frames = append(m.frames, frame)
			m.refills += refills
			m.mu.Unlock()

			m.logger.Debug("frame emitted", zap.Int("symbols", len(frame)), zap.Int("refills", refills))
			m.tx.release()
		}
	}
}

// simulateCapture produces the n-th simulated capture.
func (m *Mock) simulateCapture(n int) []pulse.Symbol {
	cfg := m.cfg.Mock

	// Slow drift around the configured climate
	temperature := cfg.Temperature + math.Sin(float64(n)*0.3)*cfg.NoiseLevel
	humidity := cfg.Humidity + math.Cos(float64(n)*0.2)*cfg.NoiseLevel

	frame := climateFrame(temperature, humidity)
	symbols := decoder.Synthesize(frame, true)

	if cfg.CorruptEvery > 0 && n%cfg.CorruptEvery == 0 {
		// Flip the checksum LSB
		last := decoder.FrameSymbols - 1
		if symbols[last] == decoder.DHT11Timing.One {
			symbols[last] = decoder.DHT11Timing.Zero
		} else {
			symbols[last] = decoder.DHT11Timing.One
		}
	}
	if cfg.TruncateEvery > 0 && n%cfg.TruncateEvery == 0 {
		symbols = symbols[:len(symbols)/2]
	}
	symbols = m.filter.Apply(symbols)
	if capacity := m.cfg.Sensor.CaptureCapacity; capacity > 0 && len(symbols) > capacity {
		symbols = symbols[:capacity]
	}

	return symbols
}

// climateFrame encodes a temperature and humidity as a DHT11 frame.
func climateFrame(temperature, humidity float64) [5]byte {
	humidity = math.Max(0, math.Min(humidity, decoder.MaxHumidity))
	temperature = math.Max(0, math.Min(temperature, 60))

	tenths := int(math.Round(temperature * 10))
	return decoder.NewFrame(
		byte(math.Round(humidity)),
		0,
		byte(tenths/10),
		byte(tenths%10),
	)
}
