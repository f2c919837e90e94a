package encoder

import (
	"fmt"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

var _ Encoder = (*Bytes)(nil)

// Bytes encodes bytes MSB-first with one symbol per bit, followed by the
// timing's reset code.
type Bytes struct {
	timing   pulse.BitTiming
	maxBytes int
}

// NewBytes creates a byte encoder. maxBytes bounds the frame length; zero
// means unbounded.
func NewBytes(timing pulse.BitTiming, maxBytes int) (*Bytes, error) {
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if maxBytes < 0 {
		return nil, fmt.Errorf("%w: negative frame bound %d", ErrInvalidArgument, maxBytes)
	}
	return &Bytes{timing: timing, maxBytes: maxBytes}, nil
}

// Timing returns the bit timing used by the encoder.
func (e *Bytes) Timing() pulse.BitTiming {
	return e.timing
}

// MaxBytes returns the frame bound, zero when unbounded.
func (e *Bytes) MaxBytes() int {
	return e.maxBytes
}

// Begin starts a session over data.
func (e *Bytes) Begin(data []byte) (*Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrInvalidArgument)
	}
	if e.maxBytes > 0 && len(data) > e.maxBytes {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrInvalidArgument, len(data), e.maxBytes)
	}
	return &Session{data: data}, nil
}

// Produce emits up to maxSymbols symbols from the session.
func (e *Bytes) Produce(s *Session, maxSymbols int) ([]pulse.Symbol, bool) {
	if s.phase == Done {
		return nil, true
	}
	if maxSymbols <= 0 {
		return nil, false
	}

	n := s.Remaining()
	if maxSymbols < n {
		n = maxSymbols
	}
	out := make([]pulse.Symbol, 0, n)

	for len(out) < maxSymbols && s.phase != Done {
		switch s.phase {
		case EmittingData:
			out = append(out, e.bit(s))
			if s.byteOffset == len(s.data) {
				s.phase = s.phase.Next()
			}
		case EmittingReset:
			out = append(out, e.timing.Reset)
			s.phase = s.phase.Next()
		}
	}
	s.emitted += len(out)

	return out, s.phase == Done
}

// bit renders the bit under the cursor and advances it.
func (e *Bytes) bit(s *Session) pulse.Symbol {
	b := s.data[s.byteOffset]
	set := b&(0x80>>s.bitOffset) != 0

	s.bitOffset++
	if s.bitOffset == 8 {
		s.bitOffset = 0
		s.byteOffset++
	}

	if set {
		return e.timing.One
	}
	return e.timing.Zero
}

// Reset rewinds the session to the first data bit.
func (e *Bytes) Reset(s *Session) {
	s.rewind()
}
