package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uartlink/pkg/port"
)

// record triggers the transmitter and collects the line levels it drives
// until the done pulse, together with the tick counts of the done pulse
// and of the first inactive tick after it.
func record(t *Transmitter, b byte, limit int) (levels []port.Level, doneAt, inactiveAt int) {
	doneAt, inactiveAt = -1, -1

	t.Tick(true, b)

	for i := 0; i < limit; i++ {
		sig := t.Tick(false, 0)

		if doneAt < 0 {
			levels = append(levels, sig.Line)
		}
		if sig.Done && doneAt < 0 {
			doneAt = i
		}
		if doneAt >= 0 && !sig.Active && inactiveAt < 0 {
			inactiveAt = i
			break
		}
	}

	return levels, doneAt, inactiveAt
}

func TestNewTransmitter(t *testing.T) {
	_, err := NewTransmitter(0)
	assert.ErrorIs(t, err, ErrInvalidCyclesPerBit)

	tx, err := NewTransmitter(217)
	require.NoError(t, err)
	assert.NotNil(t, tx)
}

func TestTransmitterIdle(t *testing.T) {
	tx, err := NewTransmitter(4)
	require.NoError(t, err)

	// without a trigger the line rests at mark
	for i := 0; i < 50; i++ {
		sig := tx.Tick(false, 0)
		assert.Equal(t, port.High, sig.Line)
		assert.False(t, sig.Active)
		assert.False(t, sig.Done)
	}
}

func TestTransmitterWaveform(t *testing.T) {
	assert := assert.New(t)

	tx, err := NewTransmitter(4)
	require.NoError(t, err)

	levels, doneAt, inactiveAt := record(tx, 0x55, 100)

	assert.Equal(waveform(0x55, 4), levels)

	// done pulses on the last stop bit tick, active drops one tick later
	assert.Equal(10*4-1, doneAt)
	assert.Equal(10*4, inactiveAt)
}

func TestTransmitterDonePulseWidth(t *testing.T) {
	tx, err := NewTransmitter(4)
	require.NoError(t, err)

	tx.Tick(true, 0xC3)

	done := 0
	for i := 0; i < 100; i++ {
		if tx.Tick(false, 0).Done {
			done++
		}
	}

	assert.Equal(t, 1, done)
}

func TestTransmitterRetriggerIgnored(t *testing.T) {
	assert := assert.New(t)

	rx, err := NewReceiver(4)
	require.NoError(t, err)
	tx, err := NewTransmitter(4)
	require.NoError(t, err)

	tx.Tick(true, 0x5A)

	// re-trigger with a different byte while the frame is in flight:
	// the latched byte must complete untouched
	var frames []Frame
	for i := 0; i < 100; i++ {
		sig := tx.Tick(i == 5, 0xFF)
		if f := rx.Tick(sig.Line); f.Valid {
			frames = append(frames, f)
		}
	}

	require.Len(t, frames, 1)
	assert.Equal(byte(0x5A), frames[0].Byte)
}

func TestTransmitterBackToBack(t *testing.T) {
	assert := assert.New(t)

	tx, err := NewTransmitter(2)
	require.NoError(t, err)

	// minimum bit period, two frames paced by waiting for inactive
	for _, b := range []byte{0x0F, 0xF0} {
		levels, doneAt, inactiveAt := record(tx, b, 200)

		assert.Equal(waveform(b, 2), levels)
		assert.Equal(10*2-1, doneAt)
		assert.Equal(10*2, inactiveAt)
	}
}
