//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/rmtcodec/pkg/pulse"
	"tinygo.org/x/drivers/ws2812"
)

var (
	uart = machine.UART0
	led  ws2812.Device

	// Transmit buffer filled by S lines and emitted by F
	txSymbols = make([]pulse.Symbol, 0, TX_BUFFER_SYMBOLS)
	txBytes   = make([]byte, 0, TX_BUFFER_SYMBOLS/8)

	// Capture buffer
	capture [CAPTURE_CAPACITY]pulse.Symbol

	// Serial buffer for reading lines
	serialBuffer [LINE_BUFFER]byte
	serialPos    int
	overflow     bool
)

func main() {
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led = ws2812.New(PIN_LED)

	PIN_DHT11.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	for {
		processSerial()
		time.Sleep(100 * time.Microsecond)
	}
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if overflow {
				reply("E line too long")
			} else if serialPos > 0 {
				handleLine(serialBuffer[:serialPos])
			}
			serialPos = 0
			overflow = false
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			// Drop the rest of the line
			overflow = true
		}
	}
}

func handleLine(line []byte) {
	switch line[0] {
	case 'S':
		appendSymbols(line[1:])
	case 'F':
		fire()
	case 'R':
		measure()
	default:
		reply("E unknown command")
	}
}

func appendSymbols(text []byte) {
	symbols, err := pulse.ParseSymbols(string(text))
	if err != nil {
		txSymbols = txSymbols[:0]
		reply("E " + err.Error())
		return
	}
	if len(txSymbols)+len(symbols) > cap(txSymbols) {
		txSymbols = txSymbols[:0]
		reply("E transmit buffer full")
		return
	}
	txSymbols = append(txSymbols, symbols...)
}

// fire emits the buffered frame. Data cells are turned back into bits by
// comparing their high and low halves; the reset cell is the line held low,
// which the driver produces after every write.
func fire() {
	txBytes = txBytes[:0]
	var b byte
	bits := 0
	for _, s := range txSymbols {
		if !s.Level0 {
			// Reset code
			break
		}
		b <<= 1
		if s.Duration0 > s.Duration1 {
			b |= 1
		}
		bits++
		if bits == 8 {
			txBytes = append(txBytes, b)
			b, bits = 0, 0
		}
	}
	txSymbols = txSymbols[:0]

	led.Write(txBytes)
	reply("D")
}

// measure runs one DHT11 transaction and reports the captured symbols.
func measure() {
	// Start signal
	PIN_DHT11.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_DHT11.Low()
	time.Sleep(DHT_START_LOW_MS * time.Millisecond)
	PIN_DHT11.High()
	time.Sleep(DHT_START_HIGH_US * time.Microsecond)
	PIN_DHT11.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	n := captureFrame()
	if n == 0 {
		reply("E sensor not responding")
		return
	}

	print("C ")
	print(pulse.FormatSymbols(capture[:n]))
	print("\n")
}

// captureFrame samples the sensor line into low/high symbol pairs until the
// line idles or the buffer is full, and returns the number of symbols.
func captureFrame() int {
	// Wait for the sensor to pull the line low
	deadline := time.Now().Add(DHT_RESPONSE_WAIT_US * time.Microsecond)
	for PIN_DHT11.Get() {
		if time.Now().After(deadline) {
			return 0
		}
	}

	n := 0
	level := false
	start := time.Now()
	var low uint16
	for n < len(capture) {
		now := time.Now()
		run := now.Sub(start).Microseconds()

		if PIN_DHT11.Get() == level {
			if run > IDLE_TICKS {
				if level {
					// Line idles high: close the last cell with an empty high half
					capture[n] = pulse.Symbol{Level0: false, Duration0: low, Level1: true}
					n++
				}
				break
			}
			continue
		}

		if run < NOISE_TICKS {
			// Glitch
			continue
		}

		if level {
			capture[n] = pulse.Symbol{Level0: false, Duration0: low, Level1: true, Duration1: uint16(run)}
			n++
		} else {
			low = uint16(run)
		}
		level = !level
		start = now
	}
	return n
}

func reply(msg string) {
	print(msg)
	print("\n")
}
