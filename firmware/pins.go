//go:build tinygo

package main

import "machine"

const (
	// Strip
	PIN_LED           = machine.D7
	TX_BUFFER_SYMBOLS = 4096 // Buffered symbols per frame (12 LEDs need 289)

	// DHT11
	PIN_DHT11            = machine.D2
	CAPTURE_CAPACITY     = 128  // Symbols per capture
	NOISE_TICKS          = 1    // Level runs shorter than this many microseconds are dropped
	IDLE_TICKS           = 1000 // A level held longer than this many microseconds ends the frame
	DHT_START_LOW_MS     = 20   // Host start pulse
	DHT_START_HIGH_US    = 20   // Release before switching to input
	DHT_RESPONSE_WAIT_US = 200  // Time allowed for the sensor to answer the start pulse

	// Serial configuration
	// Longest line is a chunk of 64 WS2812 symbols ("1:9,0:3 " = 8 bytes each) or
	// a capture of 128 DHT11 symbols (up to 12 bytes each).
	LINE_BUFFER    = 2048
	UART_BAUD_RATE = 115200
)
