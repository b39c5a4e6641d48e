package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Target.Chip = " ESP32 "
	cfg.Device.ID = " ESP32_002 "
	cfg.Device.IDPattern = ""
	cfg.Endpoints.CommandPoll = " HTTPS://Backend.Example.NET/api/Devices/commands/pending?limit=20 "
	cfg.Bus.Parity = "e"
	cfg.Bus.Port = " /dev/ttyUSB1\n"
	cfg.Network.SSID = " lab "

	require.NoError(t, Validate(cfg))
	Normalize(cfg)

	assert.Equal(t, "esp32", cfg.Target.Chip)
	assert.Equal(t, "ESP32_002", cfg.Device.ID)
	assert.Equal(t, DefaultIDPattern, cfg.Device.IDPattern)
	assert.Equal(t, "https://backend.example.net/api/Devices/commands/pending?limit=20", cfg.Endpoints.CommandPoll)
	assert.Equal(t, "E", cfg.Bus.Parity)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Bus.Port)
	assert.Equal(t, " lab ", cfg.Network.SSID, "ssid is byte-exact")
}

func TestNormalize_Nil(t *testing.T) {
	assert.NotPanics(t, func() { Normalize(nil) })
}

func TestLint_Default(t *testing.T) {
	warns := Lint(Default())

	// ssid + passphrase + one per endpoint
	assert.Len(t, warns, 2+len(Default().Endpoints.List()))
}

func TestLint_Clean(t *testing.T) {
	cfg := Default()
	cfg.Network.SSID = "greenhouse"
	cfg.Network.Passphrase = "s3cret-passphrase"

	e := &cfg.Endpoints
	e.SensorIngest = "https://api.farm.io/api/sensors"
	e.Heartbeat = "https://api.farm.io/api/devices/heartbeat"
	e.CommandEnqueue = "https://api.farm.io/api/devices/commands"
	e.CommandPoll = "https://api.farm.io/api/devices/commands/pending"
	e.CommandAck = "https://api.farm.io/api/devices/ack"
	e.ConfigSync = "https://api.farm.io/api/config"

	assert.Empty(t, Lint(cfg))

	cfg.Endpoints.ConfigSync = "https://cfg.farm.io/api/config"
	cfg.Pins.Pump = 12
	cfg.Retry.DelayMs = 0

	assert.Len(t, Lint(cfg), 3)
}
