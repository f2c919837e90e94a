package device

import (
	"context"
	"testing"
	"time"

	"github.com/itohio/rmtcodec/pkg/config"
	"github.com/itohio/rmtcodec/pkg/encoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMock_GracefulShutdown tests that Close stops the transmit worker and
// releases frames still waiting for completion.
func TestMock_GracefulShutdown(t *testing.T) {
	cfg := config.Default()
	// A slow strip keeps frames pending while Close runs
	cfg.Strip.ResolutionHz = 1000

	mock := NewMock(cfg, nil)
	require.NoError(t, mock.Connect())

	enc, err := encoder.NewWS2812(12, 0)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		require.NoError(t, mock.Transmit(context.Background(), enc, make([]byte, 36)))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		mock.Close()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return within timeout")
	}

	assert.False(t, mock.IsConnected())
	assert.NoError(t, mock.WaitAllDone(context.Background(), 10*time.Millisecond))
	assert.ErrorIs(t, mock.Transmit(context.Background(), enc, make([]byte, 36)), ErrNotConnected)
}

// TestPoll_GracefulShutdown tests that Poll closes its channel once the
// context is canceled.
func TestPoll_GracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.CaptureDelay = time.Millisecond

	mock := NewMock(cfg, nil)
	require.NoError(t, mock.Connect())
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	captures := Poll(ctx, mock, 5*time.Millisecond, time.Second, nil)

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range captures {
			received++
			if received >= 3 {
				cancel()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Poll channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3)
}
