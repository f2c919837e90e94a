package device

import (
	"fmt"
	"strings"

	"github.com/itohio/rmtcodec/pkg/pulse"
)

// Bridge line protocol. Every message is one '\n' terminated line.
//
//	host -> bridge: "S <symbols>"  append symbols to the transmit buffer
//	                "F"            emit the buffered frame
//	                "R"            run a sensor measurement
//	bridge -> host: "D"            frame emitted
//	                "C <symbols>"  capture finished
//	                "E <message>"  bridge error
const (
	cmdSymbols = 'S'
	cmdFire    = 'F'
	cmdRead    = 'R'

	evtDone    = 'D'
	evtCapture = 'C'
	evtError   = 'E'
)

// event is a parsed bridge line.
type event struct {
	kind    byte
	symbols []pulse.Symbol
	message string
}

// symbolsLine formats a transmit chunk.
func symbolsLine(symbols []pulse.Symbol) string {
	return string(cmdSymbols) + " " + pulse.FormatSymbols(symbols) + "\n"
}

// parseLine parses a line from the bridge.
// Format: "D", "C 0:80,1:80 0:50,1:26 ...", "E message"
func parseLine(line string) (event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return event{}, fmt.Errorf("empty line")
	}

	kind := line[0]
	rest := strings.TrimSpace(line[1:])
	if len(line) > 1 && line[1] != ' ' {
		return event{}, fmt.Errorf("invalid line format: %q", line)
	}

	switch kind {
	case evtDone:
		if rest != "" {
			return event{}, fmt.Errorf("unexpected payload after done: %q", rest)
		}
		return event{kind: kind}, nil
	case evtCapture:
		symbols, err := pulse.ParseSymbols(rest)
		if err != nil {
			return event{}, fmt.Errorf("invalid capture: %w", err)
		}
		return event{kind: kind, symbols: symbols}, nil
	case evtError:
		return event{kind: kind, message: rest}, nil
	default:
		return event{}, fmt.Errorf("unknown line kind %q", kind)
	}
}
