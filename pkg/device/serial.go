package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultMemBlockSymbols is the transmitter symbol memory used when none is configured.
const DefaultMemBlockSymbols = 64

// captureResult is what the reader hands to a waiting Capture call.
type captureResult struct {
	capture Capture
	err     error
}

// opener opens the link to the bridge.
type opener func(port string, mode *serial.Mode) (io.ReadWriteCloser, error)

func openSerial(port string, mode *serial.Mode) (io.ReadWriteCloser, error) {
	return serial.Open(port, mode)
}

// Serial represents a connection to the bridge firmware.
type Serial struct {
	port       string
	baudRate   int
	memBlock   int
	maxSymbols int
	filter     SignalFilter
	logger     *zap.Logger
	open       opener

	conn     io.ReadWriteCloser
	writeMu  sync.Mutex
	captures *Queue[captureResult]
	tx       *inflight
	reading  atomic.Bool // a Capture is waiting for C or E

	mu         sync.RWMutex
	cancel     context.CancelFunc
	readerDone chan struct{}
	connected  bool
}

// NewSerial creates a bridge connection using the serial, strip and sensor
// sections of cfg. A nil logger disables logging.
func NewSerial(cfg *config.Config, logger *zap.Logger) *Serial {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	memBlock := cfg.Strip.MemBlockSymbols
	if memBlock <= 0 {
		memBlock = DefaultMemBlockSymbols
	}

	return &Serial{
		port:       cfg.Serial.Port,
		baudRate:   cfg.Serial.BaudRate,
		memBlock:   memBlock,
		maxSymbols: cfg.Sensor.CaptureCapacity,
		filter:     NewSignalFilter(cfg.Sensor),
		logger:     logger.Named("serial").With(zap.String("port", cfg.Serial.Port)),
		open:       openSerial,
		captures:   NewQueue[captureResult](cfg.Sensor.QueueDepth),
		tx:         newInflight(cfg.Strip.QueueDepth),
	}
}

// Connect opens the serial port and starts reading bridge events.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	conn, err := d.open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.conn = conn
	d.cancel = cancel
	d.readerDone = make(chan struct{})
	d.connected = true

	go d.readEvents(ctx, conn, d.readerDone)

	d.logger.Info("connected", zap.Int("baud_rate", d.baudRate))
	return nil
}

// Close closes the connection and stops the reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()
	var err error
	if d.conn != nil {
		if err = d.conn.Close(); err != nil {
			d.logger.Warn("error closing serial port", zap.Error(err))
		}
		d.conn = nil
	}
	d.connected = false
	readerDone := d.readerDone
	d.mu.Unlock()

	<-readerDone
	d.tx.releaseAll()
	d.captures.Drain()

	return err
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// Transmit streams the encoded frame to the bridge in chunks of the
// transmitter's symbol memory and fires it.
func (d *Serial) Transmit(ctx context.Context, enc encoder.Encoder, data []byte) error {
	conn, err := d.link()
	if err != nil {
		return err
	}

	session, err := enc.Begin(data)
	if err != nil {
		return err
	}

	if err := d.tx.acquire(ctx); err != nil {
		return err
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	w := bufio.NewWriter(conn)
	for {
		chunk, done := enc.Produce(session, d.memBlock)
		if len(chunk) > 0 {
			w.WriteString(symbolsLine(chunk))
		}
		if done {
			break
		}
	}
	w.WriteString(string(cmdFire) + "\n")
	if err := w.Flush(); err != nil {
		d.tx.release()
		return fmt.Errorf("failed to send frame: %w", err)
	}

	d.logger.Debug("frame queued", zap.Int("bytes", len(data)), zap.Int("symbols", session.Emitted()))
	return nil
}

// WaitAllDone blocks until the bridge acknowledged every queued frame.
func (d *Serial) WaitAllDone(ctx context.Context, timeout time.Duration) error {
	return d.tx.wait(ctx, timeout)
}

// Capture asks the bridge for a sensor measurement and waits for the result.
func (d *Serial) Capture(ctx context.Context, timeout time.Duration) (Capture, error) {
	conn, err := d.link()
	if err != nil {
		return Capture{}, err
	}

	if stale := d.captures.Drain(); stale > 0 {
		d.logger.Debug("dropped stale captures", zap.Int("count", stale))
	}

	d.reading.Store(true)
	defer d.reading.Store(false)

	d.writeMu.Lock()
	_, err = io.WriteString(conn, string(cmdRead)+"\n")
	d.writeMu.Unlock()
	if err != nil {
		return Capture{}, fmt.Errorf("failed to request capture: %w", err)
	}

	res, err := d.captures.Receive(ctx, timeout)
	if err != nil {
		return Capture{}, fmt.Errorf("capture: %w", err)
	}
	if res.err != nil {
		return Capture{}, res.err
	}
	return res.capture, nil
}

func (d *Serial) link() (io.ReadWriteCloser, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return nil, ErrNotConnected
	}
	return d.conn, nil
}

// readEvents reads lines from the bridge and dispatches completions.
func (d *Serial) readEvents(ctx context.Context, conn io.Reader, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in readEvents", zap.Any("panic", r))
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if line == "" {
			continue
		}

		ev, err := parseLine(line)
		if err != nil {
			d.logger.Warn("failed to parse bridge line", zap.String("line", line), zap.Error(err))
			continue
		}

		switch ev.kind {
		case evtDone:
			d.tx.release()
		case evtCapture:
			symbols := d.filter.Apply(ev.symbols)
			if d.maxSymbols > 0 && len(symbols) > d.maxSymbols {
				symbols = symbols[:d.maxSymbols]
			}
			if !d.captures.Offer(captureResult{capture: Capture{Timestamp: time.Now(), Symbols: symbols}}) {
				d.logger.Warn("capture queue full, dropping capture")
			}
		case evtError:
			if !d.reading.Load() {
				d.logger.Warn("bridge transmit error", zap.String("message", ev.message))
				continue
			}
			d.logger.Warn("bridge capture error", zap.String("message", ev.message))
			d.captures.Offer(captureResult{err: fmt.Errorf("bridge: %s", ev.message)})
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		d.logger.Error("error reading from serial port", zap.Error(err))
	}
}
