package sample

import (
	"testing"
	"time"

	"github.com/itohio/rmtcodec/pkg/decoder"
	"github.com/itohio/rmtcodec/pkg/device"
	"github.com/stretchr/testify/assert"
)

// TestConverter_GracefulShutdown tests that converter closes output channel
// when input channel is closed.
func TestConverter_GracefulShutdown(t *testing.T) {
	converter := NewConverter(decoder.New(), 10, nil)
	input := make(chan device.Capture)
	output := converter(input)

	done := make(chan int, 1)
	go func() {
		count := 0
		for range output {
			count++
		}
		done <- count
	}()

	for i := 0; i < 3; i++ {
		input <- captureOf(decoder.NewFrame(45, 0, 22, 0), time.Now())
	}
	close(input)

	select {
	case count := <-done:
		assert.Equal(t, 3, count)
	case <-time.After(5 * time.Second):
		t.Fatal("Output channel did not close within timeout")
	}
}

// TestAveragingConverter_GracefulShutdown tests that the averaging stage
// closes its output channel when its input closes.
func TestAveragingConverter_GracefulShutdown(t *testing.T) {
	averager := NewAveragingConverter(5, 10, nil)
	input := make(chan Result)
	output := averager(input)

	go func() {
		for i := 0; i < 3; i++ {
			input <- validResult(45, 220, time.Now())
		}
		close(input)
	}()

	timeout := time.After(5 * time.Second)
	count := 0
	for {
		select {
		case _, ok := <-output:
			if !ok {
				assert.Equal(t, 3, count)
				return
			}
			count++
		case <-timeout:
			t.Fatal("Output channel did not close within timeout")
		}
	}
}
