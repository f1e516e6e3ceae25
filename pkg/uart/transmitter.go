package uart

import (
	"uartlink/pkg/port"
)

// Signal is the transmitter output of a single tick.
type Signal struct {
	// Line is the level to drive onto the serial line during this tick.
	Line port.Level
	// Active is true from the first start bit tick until the done pulse.
	Active bool
	// Done is true for exactly one tick when a frame is completed.
	Done bool
}

// Transmitter serializes bytes onto a serial line, one level per tick.
//
// A trigger tick latches the byte; the line changes from the following
// tick on: start bit low, eight data bits LSB first, stop bit high, each
// held for one full bit period. A trigger while a frame is in flight is
// ignored and does not disturb the latched byte: pacing back-to-back
// sends is the caller's responsibility (wait for Active to deassert).
type Transmitter struct {
	// cyclesPerBit is the number of ticks spanning one bit period.
	cyclesPerBit int
	// state contains the current transmit state (idle/start/data/stop/cleanup).
	state stateType
	// tickCount counts ticks within the current bit period.
	tickCount int
	// txBit is the number of the currently transmitted bit of the txRegister.
	txBit int
	// txRegister is the byte latched on the trigger tick.
	txRegister byte
}

// NewTransmitter initials a new transmitter for the given bit period.
func NewTransmitter(cyclesPerBit int) (*Transmitter, error) {
	if cyclesPerBit < 2 {
		return nil, ErrInvalidCyclesPerBit
	}

	return &Transmitter{cyclesPerBit: cyclesPerBit}, nil
}

// Reset forces the transmitter back to idle and clears all counters.
func (t *Transmitter) Reset() {
	t.state = idle
	t.tickCount = 0
	t.txBit = 0
}

// Tick advances the transmitter by one reference clock cycle and returns
// the signal output of this tick. The byte b is only inspected when
// trigger is true and the transmitter is idle.
func (t *Transmitter) Tick(trigger bool, b byte) Signal {
	sig := Signal{Line: port.High}

	switch t.state {
	case idle:
		t.tickCount = 0
		t.txBit = 0

		if trigger {
			t.txRegister = b
			t.state = start
		}

	case start:
		sig.Line = port.Low
		sig.Active = true

		if t.tickCount < t.cyclesPerBit-1 {
			t.tickCount++
		} else {
			t.tickCount = 0
			t.state = data
		}

	case data:
		if t.txRegister&(1<<t.txBit) == 0 {
			sig.Line = port.Low
		}
		sig.Active = true

		if t.tickCount < t.cyclesPerBit-1 {
			t.tickCount++
		} else {
			t.tickCount = 0

			if t.txBit < 7 {
				t.txBit++
			} else {
				t.txBit = 0
				t.state = stop
			}
		}

	case stop:
		sig.Active = true

		if t.tickCount < t.cyclesPerBit-1 {
			t.tickCount++
		} else {
			sig.Done = true
			t.tickCount = 0
			t.state = cleanup
		}

	case cleanup:
		t.state = idle

	default:
		// corrupted state, self-healing reset
		t.state = idle
	}

	return sig
}
