// Package raspberry is the gpio access layer of the uart link: an edge
// watcher on the receive pin and a level driver on the transmit pin.
package raspberry

import (
	"fmt"
	"time"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"uartlink/pkg/port"
)

var ErrInvalidParam = fmt.Errorf("invalid parameters")

// Chip represents a single GPIO chip that controls a set of lines.
type Chip struct {
	gpiodChip *gpiod.Chip
}

// Line represents a single requested receive line.
type Line struct {
	gpiodLine *gpiod.Line
	// lastTimestamp is the time of the last forwarded edge.
	lastTimestamp time.Duration
	// send edge changes to channel
	C chan port.Event
}

// Open opens a GPIO character device.
func Open() (*Chip, error) {
	c, err := gpiod.NewChip("gpiochip0")
	chip := Chip{gpiodChip: c}
	return &chip, err
}

// NewLine requests control of a single receive line on a chip.
//   If granted, control is maintained until the Line is closed.
//   Watch the line for edge changes and send them to channel C; edges
//   closer to the previous one than the bounce time are dropped.
//   There can only be one watcher on the line at a time.
func (c *Chip) NewLine(gpio int, terminator string, bounceTime time.Duration) (*Line, error) {
	var err error

	line := &Line{
		C: make(chan port.Event)}

	handler := func(evt gpiod.LineEvent) {
		if bounceTime > 0 && evt.Timestamp-line.lastTimestamp < bounceTime {
			debug.TraceLog.Printf("bounce edge on gpio %v dropped", gpio)
			return
		}

		switch evt.Type {
		case gpiod.LineEventFallingEdge:
			line.C <- port.Event{Type: port.FallingEdge, Timestamp: evt.Timestamp}
		case gpiod.LineEventRisingEdge:
			line.C <- port.Event{Type: port.RisingEdge, Timestamp: evt.Timestamp}
		default:
			debug.ErrorLog.Printf("invalid line event type: %v", evt.Type)
			return
		}

		line.lastTimestamp = evt.Timestamp
	}

	switch terminator {
	case "pullup":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullUp)
	case "pulldown":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullDown)
	case "none":
		line.gpiodLine, err = c.gpiodChip.RequestLine(gpio, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput)
	default:
		return nil, ErrInvalidParam
	}

	return line, err
}

// Close releases the Chip.
//
// It does not release any lines which may be requested - they must be
// closed independently.
func (c *Chip) Close() error {
	return c.gpiodChip.Close()
}

// Close releases all resources held by the requested line.
//
// Note that this includes waiting for any running event handler to
// return, so Close must not be called from the context of the event
// handler.
func (l *Line) Close() error {
	if err := l.gpiodLine.Close(); err != nil {
		return err
	}
	close(l.C)
	return nil
}
