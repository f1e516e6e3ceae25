// Package uart implements the two protocol state machines of an 8-N-1
// serial link: a receiver (bit sampling, framing, byte assembly) and a
// transmitter (framing, bit serialization).
//
// Both machines are driven by an external reference clock: one call to
// Tick per clock cycle. All timing is expressed in tick counts derived
// from the cycles-per-bit constant (reference clock rate / baud rate),
// never wall clock. A Tick call computes the outputs and the next state
// from a consistent snapshot of the previous state, so the machines
// behave like synchronously clocked hardware.
package uart

import "errors"

// ErrInvalidCyclesPerBit is returned if the configured bit period is too
// short to distinguish a tick offset from a full bit period.
var ErrInvalidCyclesPerBit = errors.New("cycles per bit must be at least 2")

const (
	// idle waits for a start bit (receiver) or a trigger (transmitter).
	idle stateType = iota
	// start covers the start bit period.
	start
	// data covers the eight data bit periods, LSB first.
	data
	// stop covers the stop bit period.
	stop
	// cleanup is the single tick between a completed frame and idle.
	cleanup
)

// stateType represents the state of a protocol state machine.
type stateType int

// Frame is a single logical unit of transfer.
// Valid is true for exactly one tick per completed frame; a consumer
// must capture Byte during that tick, it is not offered again.
type Frame struct {
	Byte  byte
	Valid bool
}
