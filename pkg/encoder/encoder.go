package encoder

import (
	"errors"
	"math"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

// All asks Produce for the whole remainder of a session.
const All = math.MaxInt

// ErrInvalidArgument is returned by Begin for malformed input.
var ErrInvalidArgument = errors.New("invalid argument")

// Encoder renders a byte buffer into timed symbols for one wire protocol.
//
// A session is single-writer: callers must not call Produce or Reset on the
// same session from more than one goroutine at a time.
type Encoder interface {
	// Begin starts a new session over data. The encoder keeps a reference to
	// data, so the caller must not modify it until the session is done.
	Begin(data []byte) (*Session, error)
	// Produce emits at most maxSymbols symbols and reports whether the frame,
	// including its reset code, has been fully emitted.
	Produce(s *Session, maxSymbols int) ([]pulse.Symbol, bool)
	// Reset rewinds the session to the first data bit.
	Reset(s *Session)
}

// Phase is the state of an encoding session.
type Phase int

const (
	// EmittingData emits one symbol per data bit.
	EmittingData Phase = iota
	// EmittingReset emits the trailing reset code.
	EmittingReset
	// Done means the whole frame has been emitted.
	Done
)

// Next returns the phase that follows p. Done is terminal.
func (p Phase) Next() Phase {
	switch p {
	case EmittingData:
		return EmittingReset
	default:
		return Done
	}
}

func (p Phase) String() string {
	switch p {
	case EmittingData:
		return "emitting-data"
	case EmittingReset:
		return "emitting-reset"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Session is the cursor over one frame being encoded.
type Session struct {
	data       []byte
	byteOffset int
	bitOffset  int // 0..7, counted from the MSB
	phase      Phase
	emitted    int
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Offset returns the byte and bit position of the next data bit.
func (s *Session) Offset() (byteOffset, bitOffset int) {
	return s.byteOffset, s.bitOffset
}

// Emitted returns the number of symbols produced since Begin or the last Reset.
func (s *Session) Emitted() int {
	return s.emitted
}

// Len returns the length of the frame in bytes.
func (s *Session) Len() int {
	return len(s.data)
}

// Remaining returns how many symbols are left, reset code included.
func (s *Session) Remaining() int {
	switch s.phase {
	case EmittingData:
		return (len(s.data)-s.byteOffset)*8 - s.bitOffset + 1
	case EmittingReset:
		return 1
	default:
		return 0
	}
}

func (s *Session) rewind() {
	s.byteOffset = 0
	s.bitOffset = 0
	s.phase = EmittingData
	s.emitted = 0
}

// Encode runs a fresh session to completion and returns every symbol.
func Encode(enc Encoder, data []byte) ([]pulse.Symbol, error) {
	s, err := enc.Begin(data)
	if err != nil {
		return nil, err
	}
	symbols, _ := enc.Produce(s, All)
	return symbols, nil
}
