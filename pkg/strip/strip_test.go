package strip

import (
	"context"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a transmitter that keeps every frame it is given.
type recorder struct {
	mu      sync.Mutex
	frames  [][]byte
	waitErr error
	waits   int
}

func (r *recorder) Transmit(ctx context.Context, enc encoder.Encoder, data []byte) error {
	if _, err := enc.Begin(data); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
	return nil
}

func (r *recorder) WaitAllDone(ctx context.Context, timeout time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits++
	return r.waitErr
}

func testConfig(ledCount int) config.StripConfig {
	cfg := config.Default().Strip
	cfg.LEDCount = ledCount
	return cfg
}

func TestNew_InvalidLEDCount(t *testing.T) {
	_, err := New(&recorder{}, testConfig(0), nil)
	assert.ErrorIs(t, err, encoder.ErrInvalidArgument)
}

func TestStrip_SetGRBOrder(t *testing.T) {
	s, err := New(&recorder{}, testConfig(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Set(1, color.RGBA{R: 1, G: 2, B: 3}))
	assert.Equal(t, []byte{0, 0, 0, 2, 1, 3}, s.Bytes())

	c, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 0xFF}, c)
}

func TestStrip_SetOutOfRange(t *testing.T) {
	s, err := New(&recorder{}, testConfig(2), nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		index int
	}{
		{name: "negative", index: -1},
		{name: "past end", index: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, s.Set(tt.index, color.RGBA{}), ErrIndexOutOfRange)
			_, err := s.Get(tt.index)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		})
	}
}

func TestStrip_FillClear(t *testing.T) {
	s, err := New(&recorder{}, testConfig(3), nil)
	require.NoError(t, err)

	s.Fill(color.RGBA{R: 10, G: 20, B: 30})
	assert.Equal(t, []byte{20, 10, 30, 20, 10, 30, 20, 10, 30}, s.Bytes())

	s.Clear()
	assert.Equal(t, make([]byte, 9), s.Bytes())
}

func TestStrip_Write(t *testing.T) {
	rec := &recorder{}
	s, err := New(rec, testConfig(2), nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), 0, color.RGBA{R: 230, G: 20, B: 20}))
	require.NoError(t, s.Write(context.Background(), 1, color.RGBA{R: 20, G: 230, B: 20}))

	require.Len(t, rec.frames, 2)
	assert.Equal(t, []byte{20, 230, 20, 0, 0, 0}, rec.frames[0])
	assert.Equal(t, []byte{20, 230, 20, 230, 20, 20}, rec.frames[1])
	assert.Equal(t, 2, rec.waits)
}

func TestStrip_ShowAfterWaitTimeout(t *testing.T) {
	rec := &recorder{waitErr: device.ErrTimeout}
	s, err := New(rec, testConfig(1), nil)
	require.NoError(t, err)

	assert.NoError(t, s.Show(context.Background()))
	assert.Len(t, rec.frames, 1)
}

func TestStrip_ShowWaitCanceled(t *testing.T) {
	rec := &recorder{waitErr: context.Canceled}
	s, err := New(rec, testConfig(1), nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Show(context.Background()), context.Canceled)
	assert.Empty(t, rec.frames)
}

func TestStrip_FramesAreSnapshots(t *testing.T) {
	rec := &recorder{}
	s, err := New(rec, testConfig(1), nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), 0, color.RGBA{R: 1}))
	require.NoError(t, s.Set(0, color.RGBA{R: 2}))

	assert.Equal(t, []byte{0, 1, 0}, rec.frames[0])
}

func TestStrip_Gamma(t *testing.T) {
	cfg := testConfig(1)
	cfg.Gamma = 2.2
	s, err := New(&recorder{}, cfg, nil)
	require.NoError(t, err)

	require.NoError(t, s.Set(0, color.RGBA{R: 255, G: 128, B: 0}))
	frame := s.Bytes()
	assert.Equal(t, byte(255), frame[1])
	assert.Equal(t, byte(0), frame[2])
	assert.Less(t, frame[0], byte(128))

	s.SetGamma(1)
	assert.Equal(t, []byte{128, 255, 0}, s.Bytes())
}

func TestStrip_WithMockDevice(t *testing.T) {
	cfg := config.Default()
	dev := device.NewMock(cfg, nil)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	s, err := New(dev, cfg.Strip, nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), 0, color.RGBA{R: 0xFF}))
	require.NoError(t, dev.WaitAllDone(context.Background(), time.Second))

	enc, err := encoder.NewWS2812(cfg.Strip.LEDCount, 0)
	require.NoError(t, err)
	want, err := encoder.Encode(enc, s.Bytes())
	require.NoError(t, err)

	frames := dev.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, want, frames[0])
}
