package device

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"go.bug.st/serial"
)

var (
	// ErrNotConnected is returned when the device is used before Connect.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by a second Connect.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrTimeout is returned when a completion does not arrive in time.
	ErrTimeout = errors.New("timed out")
)

// Capture is one finished sensor capture. Err is set by Poll when the
// measurement itself failed.
type Capture struct {
	Timestamp time.Time
	Symbols   []pulse.Symbol
	Err       error
}

// Transmitter emits encoded frames.
type Transmitter interface {
	// Transmit queues a frame. It blocks only while the transmit queue is full.
	// data must not be modified until WaitAllDone returns.
	Transmit(ctx context.Context, enc encoder.Encoder, data []byte) error
	// WaitAllDone blocks until every queued frame has been emitted.
	WaitAllDone(ctx context.Context, timeout time.Duration) error
}

// Capturer triggers a sensor measurement and returns the captured symbols.
type Capturer interface {
	Capture(ctx context.Context, timeout time.Duration) (Capture, error)
}

// Device defines the interface for pulse devices (real or mocked).
type Device interface {
	Transmitter
	Capturer
	Connect() error
	Close() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// receiveTimeout waits for ch until the timeout or ctx expire.
func receiveTimeout(ctx context.Context, ch <-chan struct{}, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
