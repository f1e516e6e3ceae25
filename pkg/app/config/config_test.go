package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	f := filepath.Join(t.TempDir(), "uartlink.yaml")
	require.NoError(t, ioutil.WriteFile(f, []byte(content), 0o644))
	return f
}

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, `
clockrate: 1000
baudrate: 250
source: gpio
gpio:
  rx: 5
  tx: 6
  bouncetime: 2
`)

	require.NoError(t, c.LoadConfig())

	assert.Equal(4, c.CyclesPerBit())
	assert.Equal(SourceGpio, c.Source)
	assert.Equal(5, c.Gpio.Rx)
	assert.Equal(6, c.Gpio.Tx)
	assert.Equal("2ms", c.Gpio.BounceTime.String())

	// untouched defaults survive the file
	assert.Equal("/uartlink/frames", c.MQTT.Topic)
	assert.True(c.Webserver.Webservices["data"])
	assert.Same(os.Stderr, c.Debug.File)
}

func TestLoadConfigDefaults(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "{}\n")

	require.NoError(t, c.LoadConfig())

	assert.Equal(t, SourceLoopback, c.Source)
	assert.Equal(t, 16, c.CyclesPerBit())
}

func TestLoadConfigTooFastBaudrate(t *testing.T) {
	c := NewConfig()

	// one tick per bit can't time a bit period
	c.Flag.ConfigFile = writeConfig(t, "clockrate: 300\nbaudrate: 300\n")
	assert.Error(t, c.LoadConfig())

	c = NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "baudrate: 0\n")
	assert.Error(t, c.LoadConfig())
}

func TestLoadConfigUnsupportedSource(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "source: spi\n")

	assert.Error(t, c.LoadConfig())
}

func TestLoadConfigMissingFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")

	assert.Error(t, c.LoadConfig())
}
