package config

import (
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/node.yaml"
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadTransmitterDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyUSB0
`)
	cfg, err := Load(path, Transmitter)
	require.NoError(t, err)
	require.Equal(t, 115200, cfg.Serial.Baud)
	require.Equal(t, 5000, cfg.Watchdog.TimeoutMs)
	require.Equal(t, "irguard-flash.bin", cfg.Store.Path)
	require.Equal(t, 16, cfg.Store.Blocks)
}

func TestLoadReceiverDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyUSB1
mirror:
  url: mqtt://localhost:1883/irguard/
`)
	cfg, err := Load(path, Receiver)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Watchdog.TimeoutMs)
	require.Equal(t, 5000, cfg.Receiver.GraceMs)
	require.Equal(t, 2000, cfg.Receiver.CommTimeoutMs)
	require.Equal(t, 200, cfg.Receiver.RefreshMs)
	require.Equal(t, "mqtt://localhost:1883/irguard/", cfg.Mirror.URL)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyAMA0
  baud: 57600
watchdog:
  timeout_ms: 10000
receiver:
  grace_ms: 7000
`)
	cfg, err := Load(path, Receiver)
	require.NoError(t, err)
	require.Equal(t, 57600, cfg.Serial.Baud)
	require.Equal(t, 10000, cfg.Watchdog.TimeoutMs)
	require.Equal(t, 7000, cfg.Receiver.GraceMs)
}

func TestValidateRejectsMissingDevice(t *testing.T) {
	path := writeConfig(t, `
watchdog:
  timeout_ms: 5000
`)
	_, err := Load(path, Transmitter)
	require.Error(t, err)
	require.Contains(t, err.Error(), "serial.device")
}

func TestValidateRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "serial: [")
	_, err := Load(path, Transmitter)
	require.Error(t, err)
}
