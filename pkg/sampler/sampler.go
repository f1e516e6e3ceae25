// Package sampler converts a stream of line edge events into the per-tick
// level samples the uart receiver consumes.
//
// A gpio watcher only reports edges, while the receiver expects the line
// to be sampled once per reference clock cycle. The sampler replays the
// level that was on the line for the number of tick periods elapsed
// between two edges. Because an idle line produces no further edges, a
// quiet period flushes a bounded burst of samples at the current level so
// a trailing frame can complete.
package sampler

import (
	"time"

	"github.com/womat/debug"

	"uartlink/pkg/port"
)

// flushBits is the count of bit periods replayed on a quiet line,
// slightly more than one full frame.
const flushBits = 12

// Sampler represents the handler of the tick reconstruction.
type Sampler struct {
	// tick is the duration of one reference clock cycle.
	tick time.Duration
	// maxReplay bounds the samples replayed per event or quiet period.
	maxReplay int

	// level is the line level since the last edge.
	level port.Level
	// lastTimestamp is the time of the last handled edge.
	lastTimestamp time.Duration
	// synced is false until an edge established the time reference.
	synced bool

	// C is the channel to send the per-tick level stream.
	C chan port.Level

	// rx is the channel to receive the line events.
	rx chan port.Event

	// quit is the channel to stop the Sampler.
	quit chan bool
	// done signals that the handler is stopped.
	done chan bool
}

// New initials a new Sampler for the given reference clock rate.
func New(c chan port.Event, tickRate, cyclesPerBit int) *Sampler {
	s := Sampler{
		tick:      time.Second / time.Duration(tickRate),
		maxReplay: flushBits * cyclesPerBit,
		level:     port.High,
		C:         make(chan port.Level),
		rx:        c,
		quit:      make(chan bool),
		done:      make(chan bool),
	}

	go s.run()
	return &s
}

// Close stops the sampler.
func (s *Sampler) Close() error {
	s.quit <- true

	// wait until run() is terminated
	<-s.done

	close(s.C)
	close(s.quit)
	close(s.done)
	return nil
}

// run receives events and flushes the line level on a quiet period.
func (s *Sampler) run() {
	flushAfter := time.Duration(s.maxReplay) * s.tick

	for {
		select {
		case <-s.quit:
			s.done <- true
			return
		case evt, open := <-s.rx:
			if !open {
				s.quit <- true
				continue
			}

			s.eventHandler(evt)
		case <-time.After(flushAfter):
			if !s.synced {
				continue
			}

			debug.TraceLog.Printf("quiet line, flushing %v samples", s.maxReplay)
			s.emit(s.level, s.maxReplay)
			s.synced = false
		}
	}
}

// eventHandler replays the level that was on the line for the tick
// periods between the previous edge and this one, then adopts the new
// level. The first edge after a resync only establishes the reference.
func (s *Sampler) eventHandler(event port.Event) {
	if s.synced {
		period := event.Timestamp - s.lastTimestamp

		if period < 0 {
			debug.ErrorLog.Printf("non monotonic edge timestamp (%v after %v)", event.Timestamp, s.lastTimestamp)
			s.C <- port.Invalid
			s.synced = false
		} else {
			n := int((period + s.tick/2) / s.tick)
			if n > s.maxReplay {
				n = s.maxReplay
			}

			s.emit(s.level, n)
		}
	}

	s.lastTimestamp = event.Timestamp
	s.synced = true

	switch event.Type {
	case port.RisingEdge:
		s.level = port.High
	case port.FallingEdge:
		s.level = port.Low
	default:
		debug.ErrorLog.Printf("invalid event type %v", event.Type)
		s.C <- port.Invalid
		s.synced = false
	}
}

func (s *Sampler) emit(l port.Level, n int) {
	for i := 0; i < n; i++ {
		s.C <- l
	}
}
