// Package strip drives a WS2812 LED strip through a pulse transmitter.
package strip

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/itohio/rmtcodec/pkg/pulse"
	"go.uber.org/zap"
)

// DefaultTransmitTimeout is how long Show waits for the previous frame.
const DefaultTransmitTimeout = 50 * time.Millisecond

// ErrIndexOutOfRange is returned when addressing a LED past the end of the strip.
var ErrIndexOutOfRange = errors.New("led index out of range")

// Strip holds the color of every LED in wire order (GRB) and sends it as one
// frame on Show.
type Strip struct {
	tx      device.Transmitter
	enc     encoder.Encoder
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.Mutex
	buf   []byte
	gamma *[256]byte
}

// New creates a strip of cfg.LEDCount LEDs sending frames to tx.
func New(tx device.Transmitter, cfg config.StripConfig, logger *zap.Logger) (*Strip, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	enc, err := encoder.NewWS2812(cfg.LEDCount, pulse.Resolution(cfg.ResolutionHz))
	if err != nil {
		return nil, err
	}

	timeout := cfg.TransmitTimeout
	if timeout <= 0 {
		timeout = DefaultTransmitTimeout
	}

	s := &Strip{
		tx:      tx,
		enc:     enc,
		timeout: timeout,
		logger:  logger.Named("strip"),
		buf:     make([]byte, cfg.LEDCount*encoder.BytesPerLED),
	}
	s.SetGamma(cfg.Gamma)
	return s, nil
}

// Len returns the number of LEDs.
func (s *Strip) Len() int {
	return len(s.buf) / encoder.BytesPerLED
}

// SetGamma enables gamma correction of frames. A gamma of 0 or 1 disables it.
func (s *Strip) SetGamma(gamma float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gamma <= 0 || gamma == 1 {
		s.gamma = nil
		return
	}
	table := GammaTable(float32(gamma))
	s.gamma = &table
}

// Set changes the color of LED i without sending it.
func (s *Strip) Set(i int, c color.RGBA) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("%w: %d (strip has %d)", ErrIndexOutOfRange, i, s.Len())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	off := i * encoder.BytesPerLED
	s.buf[off+0] = c.G
	s.buf[off+1] = c.R
	s.buf[off+2] = c.B
	return nil
}

// Get returns the color of LED i.
func (s *Strip) Get(i int) (color.RGBA, error) {
	if i < 0 || i >= s.Len() {
		return color.RGBA{}, fmt.Errorf("%w: %d (strip has %d)", ErrIndexOutOfRange, i, s.Len())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	off := i * encoder.BytesPerLED
	return color.RGBA{R: s.buf[off+1], G: s.buf[off+0], B: s.buf[off+2], A: 0xFF}, nil
}

// Fill sets every LED to c.
func (s *Strip) Fill(c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for off := 0; off < len(s.buf); off += encoder.BytesPerLED {
		s.buf[off+0] = c.G
		s.buf[off+1] = c.R
		s.buf[off+2] = c.B
	}
}

// Clear turns every LED off.
func (s *Strip) Clear() {
	s.Fill(color.RGBA{})
}

// Bytes returns the frame Show would send, gamma correction applied.
func (s *Strip) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := make([]byte, len(s.buf))
	copy(frame, s.buf)
	if s.gamma != nil {
		for i, b := range frame {
			frame[i] = s.gamma[b]
		}
	}
	return frame
}

// Show waits for the previous frame and sends the current colors. A previous
// frame that is still in flight after the transmit timeout is not waited for.
func (s *Strip) Show(ctx context.Context) error {
	if err := s.tx.WaitAllDone(ctx, s.timeout); err != nil {
		if !errors.Is(err, device.ErrTimeout) {
			return err
		}
		s.logger.Debug("previous frame still in flight", zap.Duration("timeout", s.timeout))
	}

	if err := s.tx.Transmit(ctx, s.enc, s.Bytes()); err != nil {
		return fmt.Errorf("failed to transmit frame: %w", err)
	}
	return nil
}

// Write sets LED i and sends the whole strip.
func (s *Strip) Write(ctx context.Context, i int, c color.RGBA) error {
	if err := s.Set(i, c); err != nil {
		return err
	}
	return s.Show(ctx)
}
