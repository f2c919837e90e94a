package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakeBridge answers the line protocol on the far end of a pipe.
type fakeBridge struct {
	conn    net.Conn
	capture string

	mu     sync.Mutex
	frames [][]pulse.Symbol
	chunks []int
}

func (b *fakeBridge) run() {
	var frame []pulse.Symbol
	scanner := bufio.NewScanner(b.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "S "):
			symbols, err := pulse.ParseSymbols(line[2:])
			if err != nil {
				fmt.Fprintf(b.conn, "E %v\n", err)
				continue
			}
			b.mu.Lock()
			b.chunks = append(b.chunks, len(symbols))
			b.mu.Unlock()
			frame = append(frame, symbols...)
		case line == "F":
			b.mu.Lock()
			b.frames = append(b.frames, frame)
			b.mu.Unlock()
			frame = nil
			io.WriteString(b.conn, "D\n")
		case line == "R" && b.capture != "":
			io.WriteString(b.conn, b.capture)
		}
	}
}

func (b *fakeBridge) Frames() [][]pulse.Symbol {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]pulse.Symbol(nil), b.frames...)
}

func (b *fakeBridge) Chunks() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.chunks...)
}

func newTestSerial(t *testing.T, capture string) (*Serial, *fakeBridge) {
	t.Helper()

	host, far := net.Pipe()
	bridge := &fakeBridge{conn: far, capture: capture}
	go bridge.run()
	t.Cleanup(func() { far.Close() })

	cfg := config.Default()
	cfg.Strip.MemBlockSymbols = 16
	dev := NewSerial(cfg, nil)
	dev.open = func(port string, mode *serial.Mode) (io.ReadWriteCloser, error) {
		assert.Equal(t, cfg.Serial.BaudRate, mode.BaudRate)
		return host, nil
	}
	return dev, bridge
}

func TestSerial_NotConnected(t *testing.T) {
	dev := NewSerial(nil, nil)
	assert.False(t, dev.IsConnected())

	enc, err := encoder.NewWS2812(1, 0)
	require.NoError(t, err)

	err = dev.Transmit(context.Background(), enc, []byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = dev.Capture(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, dev.Close())
}

func TestSerial_ConnectError(t *testing.T) {
	dev := NewSerial(nil, nil)
	dev.open = func(string, *serial.Mode) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such port")
	}

	err := dev.Connect()
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}

func TestSerial_Transmit(t *testing.T) {
	dev, bridge := newTestSerial(t, "")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.ErrorIs(t, dev.Connect(), ErrAlreadyConnected)

	enc, err := encoder.NewWS2812(2, 0)
	require.NoError(t, err)
	data := []byte{0xFF, 0x00, 0xA5, 0x01, 0x02, 0x03}

	require.NoError(t, dev.Transmit(context.Background(), enc, data))
	require.NoError(t, dev.WaitAllDone(context.Background(), time.Second))

	want, err := encoder.Encode(enc, data)
	require.NoError(t, err)

	frames := bridge.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, want, frames[0])

	// 49 symbols in chunks of at most 16
	for _, n := range bridge.Chunks() {
		assert.LessOrEqual(t, n, 16)
	}
	assert.Len(t, bridge.Chunks(), 4)
}

func TestSerial_TransmitInvalidData(t *testing.T) {
	dev, _ := newTestSerial(t, "")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	enc, err := encoder.NewWS2812(1, 0)
	require.NoError(t, err)

	err = dev.Transmit(context.Background(), enc, nil)
	assert.ErrorIs(t, err, encoder.ErrInvalidArgument)
	assert.Equal(t, 0, dev.tx.pending())
}

func TestSerial_Capture(t *testing.T) {
	frame := decoder.NewFrame(45, 0, 23, 4)
	symbols := decoder.Synthesize(frame, true)
	dev, _ := newTestSerial(t, "C "+pulse.FormatSymbols(symbols)+"\n")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	capture, err := dev.Capture(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, symbols, capture.Symbols)
	assert.False(t, capture.Timestamp.IsZero())

	reading, err := decoder.Decode(capture.Symbols)
	require.NoError(t, err)
	assert.Equal(t, uint8(45), reading.Humidity)
	assert.Equal(t, uint16(234), reading.TemperatureX10)
}

func TestSerial_CaptureSignalRange(t *testing.T) {
	symbols := decoder.Synthesize(decoder.NewFrame(45, 0, 23, 4), true)
	// The line idles high for 5 ms after the tenth cell
	symbols[10].Duration1 = 5000

	dev, _ := newTestSerial(t, "C "+pulse.FormatSymbols(symbols)+"\n")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	capture, err := dev.Capture(context.Background(), time.Second)
	require.NoError(t, err)
	require.Len(t, capture.Symbols, 11)
	assert.Equal(t, symbols[:10], capture.Symbols[:10])
	assert.Equal(t, uint16(0), capture.Symbols[10].Duration1)

	_, err = decoder.Decode(capture.Symbols)
	assert.ErrorIs(t, err, decoder.ErrTooShort)
}

func TestSerial_CaptureBridgeError(t *testing.T) {
	dev, _ := newTestSerial(t, "E sensor not responding\n")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	_, err := dev.Capture(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor not responding")
}

func TestSerial_TransmitErrorIgnoredByCapture(t *testing.T) {
	symbols := decoder.Synthesize(decoder.NewFrame(45, 0, 23, 4), true)
	dev, bridge := newTestSerial(t, "C "+pulse.FormatSymbols(symbols)+"\n")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	// No read outstanding. The second write returns once the reader handled the E.
	_, err := io.WriteString(bridge.conn, "E transmit buffer full\n")
	require.NoError(t, err)
	_, err = io.WriteString(bridge.conn, "D\n")
	require.NoError(t, err)
	assert.Equal(t, 0, dev.captures.Len())

	capture, err := dev.Capture(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, symbols, capture.Symbols)
}

func TestSerial_CaptureTimeout(t *testing.T) {
	// A bridge that never answers R
	dev, _ := newTestSerial(t, "")
	require.NoError(t, dev.Connect())
	defer dev.Close()

	_, err := dev.Capture(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSerial_GracefulShutdown(t *testing.T) {
	dev, _ := newTestSerial(t, "")
	require.NoError(t, dev.Connect())

	done := make(chan struct{})
	go func() {
		defer close(done)
		dev.Close()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return within timeout")
	}
	assert.False(t, dev.IsConnected())
}
