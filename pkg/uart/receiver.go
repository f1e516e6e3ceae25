package uart

import (
	"uartlink/pkg/port"
)

// Receiver reconstructs bytes from a serial line sampled once per tick.
//
// A low level in idle is taken as a start bit edge. The line is re-checked
// in the middle of the start bit period to reject glitches; from that
// locked-in middle each data bit is sampled once per full bit period, so
// the sample point sits near the center of every bit. The stop bit period
// is counted but its level is not checked: the receiver has no framing
// error or overrun detection.
type Receiver struct {
	// cyclesPerBit is the number of ticks spanning one bit period.
	cyclesPerBit int
	// state contains the current receive state (idle/start/data/stop/cleanup).
	state stateType
	// tickCount counts ticks within the current bit period.
	tickCount int
	// rxBit is the number of the currently received bit of the rxRegister.
	rxBit int
	// rxRegister is the buffer of the currently received byte.
	rxRegister byte
}

// NewReceiver initials a new receiver for the given bit period.
func NewReceiver(cyclesPerBit int) (*Receiver, error) {
	if cyclesPerBit < 2 {
		return nil, ErrInvalidCyclesPerBit
	}

	return &Receiver{cyclesPerBit: cyclesPerBit}, nil
}

// Reset forces the receiver back to idle and clears all counters.
func (r *Receiver) Reset() {
	r.state = idle
	r.tickCount = 0
	r.rxBit = 0
	r.rxRegister = 0
}

// Tick advances the receiver by one reference clock cycle with the given
// line level and returns the frame output of this tick.
// The returned Frame.Valid is true on exactly one tick per completed frame.
func (r *Receiver) Tick(line port.Level) Frame {
	var frame Frame

	switch r.state {
	case idle:
		r.tickCount = 0
		r.rxBit = 0

		if line == port.Low {
			// start bit edge
			r.state = start
		}

	case start:
		if r.tickCount == (r.cyclesPerBit-1)/2 {
			if line == port.Low {
				// confirmed start bit, lock the sample phase to its middle
				r.tickCount = 0
				r.rxRegister = 0
				r.state = data
			} else {
				// glitch, no frame
				r.state = idle
			}
		} else {
			r.tickCount++
		}

	case data:
		if r.tickCount < r.cyclesPerBit-1 {
			r.tickCount++
		} else {
			r.tickCount = 0

			if line == port.High {
				r.rxRegister |= 1 << r.rxBit
			}

			if r.rxBit < 7 {
				r.rxBit++
			} else {
				r.rxBit = 0
				r.state = stop
			}
		}

	case stop:
		// the stop bit level itself is not validated
		if r.tickCount < r.cyclesPerBit-1 {
			r.tickCount++
		} else {
			frame = Frame{Byte: r.rxRegister, Valid: true}
			r.tickCount = 0
			r.state = cleanup
		}

	case cleanup:
		r.state = idle

	default:
		// corrupted state, self-healing reset
		r.state = idle
	}

	return frame
}
