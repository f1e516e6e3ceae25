package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/womat/debug"

	"uartlink/pkg/mqtt"
	"uartlink/pkg/port"
	"uartlink/pkg/sevenseg"
	"uartlink/pkg/uart"
)

// Measurement is the web service and mqtt view of a completed frame.
type Measurement struct {
	TimeStamp time.Time
	Byte      byte
	Hex       string
	Display   [2]string
	Count     uint64
}

// receive runs the receiver over the per-tick level stream of the
// sampler. A completed frame is recorded, published and looped back to
// the transmitter.
func (app *App) receive() {
	var count uint64

	for l := range app.sampler.C {
		if l == port.Invalid {
			debug.ErrorLog.Print("invalid level stream, resetting receiver")
			app.rx.Reset()
			continue
		}

		f := app.rx.Tick(l)
		if !f.Valid {
			continue
		}

		count++
		app.record(f, count)
	}
}

// record stores the frame for the web service, publishes it to mqtt and
// feeds it back into the transmit queue.
func (app *App) record(f uart.Frame, count uint64) {
	d := sevenseg.Byte(f.Byte)
	m := Measurement{
		TimeStamp: time.Now(),
		Byte:      f.Byte,
		Hex:       fmt.Sprintf("%#02x", f.Byte),
		Display:   [2]string{d[0].String(), d[1].String()},
		Count:     count,
	}

	debug.DebugLog.Printf("frame received: %v (display %v%v)", m.Hex, m.Display[0], m.Display[1])

	app.DataFrame.Lock()
	app.DataFrame.data = m
	app.DataFrame.Unlock()

	app.sendMQTT(app.config.MQTT.Topic, m)

	// loop the received byte back out; the transmitter accepts no new
	// frame while one is in flight, so pending bytes queue in txC
	select {
	case app.txC <- f.Byte:
	default:
		debug.ErrorLog.Printf("transmit queue full, dropping %v", m.Hex)
	}
}

// transmit drives the transmitter state machine with one Tick per
// reference clock cycle and puts its line level on the wire.
//
// The trigger is held until the machine goes active, because a trigger
// outside idle is ignored by design.
func (app *App) transmit() {
	var (
		pending    byte
		trigger    bool
		prevActive bool
		level      = port.High
		tickCount  uint64
	)

	ticker := time.NewTicker(app.tickPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-app.shutdown:
			return
		case <-ticker.C:
		}

		tickCount++

		if !trigger && !prevActive {
			select {
			case pending = <-app.txC:
				trigger = true
			default:
			}
		}

		sig := app.tx.Tick(trigger, pending)

		if sig.Active && !prevActive {
			// latched one tick ago
			trigger = false
		}
		prevActive = sig.Active

		if sig.Done {
			debug.TraceLog.Printf("frame sent: %#02x", pending)
		}

		if sig.Line != level {
			level = sig.Line
			app.driveLine(level, tickCount)
		}
	}
}

// driveLine puts a level change on the transmit pin, or feeds it back
// into the sampler as a synthetic edge in loopback mode.
func (app *App) driveLine(l port.Level, tick uint64) {
	if app.outPin != nil {
		app.outPin.Write(l)
		return
	}

	evt := port.Event{Timestamp: time.Duration(tick) * app.tickPeriod(), Type: port.RisingEdge}
	if l == port.Low {
		evt.Type = port.FallingEdge
	}

	select {
	case app.events <- evt:
	default:
		debug.ErrorLog.Print("loopback event queue full, edge lost")
	}
}

// sendMQTT sends the measurement to the mqtt broker.
func (app *App) sendMQTT(topic string, m Measurement) {
	go func(t string, r Measurement) {
		debug.TraceLog.Printf("prepare mqtt message %v %v", t, r)

		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			debug.ErrorLog.Printf("sendMQTT marshal: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    t,
			Payload:  b,
		}
	}(topic, m)
}

// GetMeasurement returns the last completed frame.
func (app *App) GetMeasurement() Measurement {
	app.DataFrame.Lock()
	defer app.DataFrame.Unlock()
	return app.DataFrame.data
}
