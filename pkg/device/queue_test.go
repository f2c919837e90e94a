package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_OfferReceive(t *testing.T) {
	q := NewQueue[int](2)
	assert.Equal(t, 2, q.Cap())

	assert.True(t, q.Offer(1))
	assert.True(t, q.Offer(2))
	assert.False(t, q.Offer(3), "Offer must not block on a full queue")
	assert.Equal(t, 2, q.Len())

	v, err := q.Receive(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = q.Receive(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestQueue_ReceiveTimeout(t *testing.T) {
	q := NewQueue[int](1)

	start := time.Now()
	_, err := q.Receive(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueue_ReceiveCanceled(t *testing.T) {
	q := NewQueue[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Receive(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Drain(t *testing.T) {
	q := NewQueue[string](3)
	q.Offer("a")
	q.Offer("b")

	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Drain())
}

func TestNewQueue_InvalidDepth(t *testing.T) {
	q := NewQueue[int](0)
	assert.Equal(t, 1, q.Cap())
}

func TestInflight_WaitIdle(t *testing.T) {
	tr := newInflight(2)

	// Nothing pending
	require.NoError(t, tr.wait(context.Background(), time.Millisecond))

	require.NoError(t, tr.acquire(context.Background()))
	require.NoError(t, tr.acquire(context.Background()))
	assert.Equal(t, 2, tr.pending())

	err := tr.wait(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	go func() {
		time.Sleep(5 * time.Millisecond)
		tr.release()
		tr.release()
	}()
	assert.NoError(t, tr.wait(context.Background(), time.Second))
	assert.Equal(t, 0, tr.pending())
}

func TestInflight_AcquireBlocksWhenFull(t *testing.T) {
	tr := newInflight(1)
	require.NoError(t, tr.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.acquire(ctx), context.DeadlineExceeded)

	tr.release()
	assert.NoError(t, tr.acquire(context.Background()))
}

func TestInflight_ReleaseAll(t *testing.T) {
	tr := newInflight(4)
	for i := 0; i < 3; i++ {
		require.NoError(t, tr.acquire(context.Background()))
	}

	tr.releaseAll()
	assert.Equal(t, 0, tr.pending())
	assert.NoError(t, tr.wait(context.Background(), time.Millisecond))

	// Extra releases are ignored
	tr.release()
	assert.Equal(t, 0, tr.pending())
}
