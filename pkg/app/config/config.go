package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// supported frame sources
const (
	// SourceGpio samples the receive pin and drives the transmit pin.
	SourceGpio = "gpio"
	// SourceLoopback wires the transmitter line back into the receiver
	// in software, without any hardware.
	SourceLoopback = "loopback"
)

// Config defines the struct of the global config and of the
// configuration file.
type Config struct {
	// Clockrate is the reference clock in ticks per second.
	Clockrate int `yaml:"clockrate"`
	// Baudrate is the line speed in bits per second.
	Baudrate int `yaml:"baudrate"`
	// Source selects where the line signal comes from (gpio/loopback).
	Source string `yaml:"source"`

	Gpio      GpioConfig      `yaml:"gpio"`
	Flag      FlagConfig      `yaml:"-"`
	Debug     DebugConfig     `yaml:"debug"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// GpioConfig defines the receive and transmit pin setup.
type GpioConfig struct {
	Rx            int           `yaml:"rx"`
	Tx            int           `yaml:"tx"`
	Terminator    string        `yaml:"terminator"`
	BounceTimeInt int           `yaml:"bouncetime"`
	BounceTime    time.Duration `yaml:"-"`
}

// FlagConfig defines the configured command line flags (parameters).
type FlagConfig struct {
	LogLevel   string
	ConfigFile string
}

// WebserverConfig defines the struct of the webserver and webservice
// configuration and configuration file.
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and
// configuration file.
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// DebugConfig defines the struct of the debug configuration and
// configuration file.
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Clockrate: 4800,
		Baudrate:  300,
		Source:    SourceLoopback,
		Gpio: GpioConfig{
			Rx:         17,
			Tx:         27,
			Terminator: "pullup",
		},
		Flag: FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "",
			Topic:      "/uartlink/frames",
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.Gpio.BounceTime = time.Duration(c.Gpio.BounceTimeInt) * time.Millisecond

	if c.Source != SourceGpio && c.Source != SourceLoopback {
		return fmt.Errorf("unsupported source %q", c.Source)
	}

	if c.Baudrate <= 0 || c.CyclesPerBit() < 2 {
		return fmt.Errorf("clockrate %v can't time baudrate %v: at least two ticks per bit are needed", c.Clockrate, c.Baudrate)
	}

	return nil
}

// CyclesPerBit is the count of reference clock ticks spanning one bit
// period.
func (c *Config) CyclesPerBit() int {
	return c.Clockrate / c.Baudrate
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
