package device

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itohio/rmtcodec/pkg/pulse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCapturer fails every other measurement.
type flakyCapturer struct {
	calls atomic.Int32
}

func (c *flakyCapturer) Capture(ctx context.Context, timeout time.Duration) (Capture, error) {
	n := c.calls.Add(1)
	if n%2 == 0 {
		return Capture{}, ErrTimeout
	}
	return Capture{
		Timestamp: time.Now(),
		Symbols:   []pulse.Symbol{{Level0: false, Duration0: 50, Level1: true, Duration1: 26}},
	}, nil
}

func TestPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &flakyCapturer{}
	captures := Poll(ctx, c, time.Millisecond, time.Second, nil)

	var got []Capture
	for capture := range captures {
		got = append(got, capture)
		if len(got) == 4 {
			cancel()
		}
	}

	require.GreaterOrEqual(t, len(got), 4)
	assert.NoError(t, got[0].Err)
	assert.Len(t, got[0].Symbols, 1)
	assert.True(t, errors.Is(got[1].Err, ErrTimeout))
	assert.Empty(t, got[1].Symbols)
	assert.NoError(t, got[2].Err)
}
