package raspberry

import (
	"fmt"

	"github.com/warthog618/gpio"

	"uartlink/pkg/port"
)

// outPins guards against requesting the same transmit pin twice.
var outPins map[int]*OutPin

// OutPin drives the transmit line of the uart link.
type OutPin struct {
	gpioPin *gpio.Pin
}

// OpenOutput maps the GPIO memory range from /dev/gpiomem.
func OpenOutput() error {
	outPins = map[int]*OutPin{}
	return gpio.Open()
}

// CloseOutput unmaps the GPIO memory.
func CloseOutput() error {
	outPins = nil
	return gpio.Close()
}

// NewOutPin creates a new output pin object and drives it to the idle
// (mark) level. The pin number provided is the BCM GPIO number.
func NewOutPin(p int) (*OutPin, error) {
	if _, ok := outPins[p]; ok {
		return nil, fmt.Errorf("pin %v already used", p)
	}

	pin := &OutPin{gpioPin: gpio.NewPin(p)}
	pin.gpioPin.Output()
	pin.gpioPin.High()

	outPins[p] = pin
	return pin, nil
}

// Write drives the pin to the given line level.
// Invalid levels are driven high, the idle state of a uart line.
func (p *OutPin) Write(l port.Level) {
	if l == port.Low {
		p.gpioPin.Low()
	} else {
		p.gpioPin.High()
	}
}

// Pin returns the pin number that this OutPin represents.
func (p *OutPin) Pin() int {
	return p.gpioPin.Pin()
}
