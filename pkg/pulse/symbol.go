package pulse

import (
	"errors"
	"fmt"
	"time"
)

const (
	// LEDResolution is the tick rate used for LED strip encoding (1 tick = 0.1 µs).
	LEDResolution Resolution = 10_000_000
	// SensorResolution is the tick rate used for sensor captures (1 tick = 1 µs).
	SensorResolution Resolution = 1_000_000
	// CaptureCapacity is the symbol memory available to one capture.
	CaptureCapacity = 128
	// MaxDuration is the largest duration a single symbol half can hold.
	MaxDuration = 0x7FFF
)

// ErrIndistinguishable is returned by BitTiming.Validate when zero and one bits
// cannot be told apart.
var ErrIndistinguishable = errors.New("zero and one symbols are indistinguishable")

// Symbol is one high/low pulse pair measured in ticks.
type Symbol struct {
	Level0    bool
	Duration0 uint16
	Level1    bool
	Duration1 uint16
}

// Total returns the duration of both halves in ticks.
func (s Symbol) Total() uint32 {
	return uint32(s.Duration0) + uint32(s.Duration1)
}

// Active returns the duration of the high half. When the first half is low the
// second half is taken, matching how a receiver captures a low-then-high bit cell.
func (s Symbol) Active() uint16 {
	if s.Level0 {
		return s.Duration0
	}
	return s.Duration1
}

// String renders the symbol as "level0:duration0,level1:duration1".
func (s Symbol) String() string {
	return fmt.Sprintf("%d:%d,%d:%d", levelBit(s.Level0), s.Duration0, levelBit(s.Level1), s.Duration1)
}

func levelBit(level bool) int {
	if level {
		return 1
	}
	return 0
}

// BitTiming describes how a protocol renders logical bits and its frame
// delimiter (reset code for LEDs, start/ack pulse for sensors).
type BitTiming struct {
	Zero  Symbol
	One   Symbol
	Reset Symbol
}

// Validate checks that zero and one bits can be disambiguated.
func (t BitTiming) Validate() error {
	samePattern := t.Zero.Level0 == t.One.Level0 && t.Zero.Level1 == t.One.Level1
	if samePattern && t.Zero.Active() == t.One.Active() && t.Zero.Total() == t.One.Total() {
		return fmt.Errorf("%w: %s", ErrIndistinguishable, t.Zero)
	}
	return nil
}

// Resolution is a tick rate in Hz.
type Resolution uint32

// Ticks converts a duration to ticks, rounding to the nearest tick and
// saturating at MaxDuration.
func (r Resolution) Ticks(d time.Duration) uint16 {
	if d <= 0 || r == 0 {
		return 0
	}
	ticks := (int64(d)*int64(r) + int64(time.Second)/2) / int64(time.Second)
	if ticks > MaxDuration {
		return MaxDuration
	}
	return uint16(ticks)
}

// Duration converts ticks back to wall time.
func (r Resolution) Duration(ticks uint32) time.Duration {
	if r == 0 {
		return 0
	}
	return time.Duration(int64(ticks) * int64(time.Second) / int64(r))
}

// Tick returns the length of a single tick.
func (r Resolution) Tick() time.Duration {
	return r.Duration(1)
}
