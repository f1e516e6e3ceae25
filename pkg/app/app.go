package app

import (
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"uartlink/pkg/app/config"
	"uartlink/pkg/mqtt"
	"uartlink/pkg/port"
	"uartlink/pkg/raspberry"
	"uartlink/pkg/sampler"
	"uartlink/pkg/uart"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// chip and line watch the receive pin, outPin drives the transmit
	// pin; all three stay nil in loopback mode
	chip   *raspberry.Chip
	line   *raspberry.Line
	outPin *raspberry.OutPin

	// events feeds line edges into the sampler; in gpio mode this is the
	// watched line's channel, in loopback mode the transmit driver
	// synthesizes the edges itself
	events chan port.Event

	// sampler reconstructs the per-tick level stream from edge events
	sampler *sampler.Sampler

	// rx and tx are the two protocol state machines
	rx *uart.Receiver
	tx *uart.Transmitter

	// txC carries the bytes waiting to be serialized
	txC chan byte

	// DataFrame holds the last completed frame for the web service
	DataFrame struct {
		sync.Mutex
		data Measurement
	}

	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:  fiber.New(),
		mqtt: mqtt.New(),

		txC:      make(chan byte, 16),
		shutdown: make(chan struct{}),
	}, err
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.receive()
	go app.transmit()

	return nil
}

// init initializes the line source, the state machines and the broker
// connection.
func (app *App) init() (err error) {
	cyclesPerBit := app.config.CyclesPerBit()

	switch app.config.Source {
	case config.SourceGpio:
		if app.chip, err = raspberry.Open(); err != nil {
			debug.ErrorLog.Printf("can't open gpio chip: %v", err)
			return err
		}

		if app.line, err = app.chip.NewLine(app.config.Gpio.Rx, app.config.Gpio.Terminator, app.config.Gpio.BounceTime); err != nil {
			debug.ErrorLog.Printf("can't watch rx pin: %v", err)
			return err
		}

		if err = raspberry.OpenOutput(); err != nil {
			debug.ErrorLog.Printf("can't open gpio memory: %v", err)
			return err
		}

		if app.outPin, err = raspberry.NewOutPin(app.config.Gpio.Tx); err != nil {
			debug.ErrorLog.Printf("can't open tx pin: %v", err)
			return err
		}

		app.events = app.line.C

	case config.SourceLoopback:
		app.events = make(chan port.Event, 64)
	}

	app.sampler = sampler.New(app.events, app.config.Clockrate, cyclesPerBit)

	if app.rx, err = uart.NewReceiver(cyclesPerBit); err != nil {
		return err
	}
	if app.tx, err = uart.NewTransmitter(cyclesPerBit); err != nil {
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker: %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may
	// access things initialized above
	app.initDefaultRoutes()

	return nil
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/uartlink.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	if app.shutdown != nil {
		close(app.shutdown)
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	if app.line != nil {
		_ = app.line.Close()
	}
	if app.chip != nil {
		_ = app.chip.Close()
	}
	if app.outPin != nil {
		_ = raspberry.CloseOutput()
	}

	return nil
}

// tickPeriod is the duration of one reference clock cycle.
func (app *App) tickPeriod() time.Duration {
	return time.Second / time.Duration(app.config.Clockrate)
}
