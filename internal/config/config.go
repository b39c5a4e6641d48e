// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/tamzrod/devicecfg/internal/gpio"
)

// Config is the device configuration record.
// Fixed once loaded; nothing mutates it after Normalize.
type Config struct {
	Target    TargetConfig    `yaml:"target" json:"target"`
	Network   NetworkConfig   `yaml:"network" json:"network"`
	Endpoints EndpointsConfig `yaml:"endpoints" json:"endpoints"`
	Device    DeviceConfig    `yaml:"device" json:"device"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Pins      PinsConfig      `yaml:"pins" json:"pins"`
	Bus       BusConfig       `yaml:"bus" json:"bus"`
}

// ---- TARGET ----

type TargetConfig struct {
	Chip string `yaml:"chip" json:"chip"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	SSID       string `yaml:"ssid" json:"ssid"`
	Passphrase string `yaml:"passphrase" json:"passphrase"` // plaintext, baked into firmware
}

// ---- ENDPOINTS ----

type EndpointsConfig struct {
	SensorIngest   string `yaml:"sensor_ingest" json:"sensor_ingest"`
	Heartbeat      string `yaml:"heartbeat" json:"heartbeat"`
	CommandEnqueue string `yaml:"command_enqueue" json:"command_enqueue"`
	CommandPoll    string `yaml:"command_poll" json:"command_poll"`
	CommandAck     string `yaml:"command_ack" json:"command_ack"`
	ConfigSync     string `yaml:"config_sync" json:"config_sync"`
}

// Endpoint is one named backend URL.
type Endpoint struct {
	Name string
	URL  string
}

// List returns the endpoints in a fixed order.
func (e EndpointsConfig) List() []Endpoint {
	return []Endpoint{
		{Name: "sensor_ingest", URL: e.SensorIngest},
		{Name: "heartbeat", URL: e.Heartbeat},
		{Name: "command_enqueue", URL: e.CommandEnqueue},
		{Name: "command_poll", URL: e.CommandPoll},
		{Name: "command_ack", URL: e.CommandAck},
		{Name: "config_sync", URL: e.ConfigSync},
	}
}

// ---- DEVICE ----

type DeviceConfig struct {
	ID        string `yaml:"id" json:"id"`
	IDPattern string `yaml:"id_pattern" json:"id_pattern"`
}

// ---- RETRY ----

// RetryConfig applies to command acknowledgement.
// MaxRetries counts retries after the first attempt.
type RetryConfig struct {
	DelayMs    int `yaml:"delay_ms" json:"delay_ms"`
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// Attempts is the total number of tries, first one included.
func (r RetryConfig) Attempts() int {
	return r.MaxRetries + 1
}

// ---- PINS ----

// SolenoidCount is the number of solenoid valves on the board.
const SolenoidCount = 3

type PinsConfig struct {
	FloatSensor     int   `yaml:"float_sensor" json:"float_sensor"`
	FloatActiveHigh *bool `yaml:"float_active_high" json:"float_active_high"` // HIGH = water present / safe
	Pump            int   `yaml:"pump" json:"pump"`
	Solenoids       []int `yaml:"solenoids" json:"solenoids"`
	RS485RX         int   `yaml:"rs485_rx" json:"rs485_rx"`
	RS485TX         int   `yaml:"rs485_tx" json:"rs485_tx"`
	RS485DE         int   `yaml:"rs485_de" json:"rs485_de"` // driver enable / receiver enable, tied
}

// FloatIsActiveHigh reports the float sensor polarity (default active-high).
func (p PinsConfig) FloatIsActiveHigh() bool {
	return p.FloatActiveHigh == nil || *p.FloatActiveHigh
}

// Assignments returns every pin bound to its role, in wiring order.
func (p PinsConfig) Assignments() []gpio.Assignment {
	out := []gpio.Assignment{
		{Role: gpio.Role{Name: "float_sensor", Direction: gpio.Input}, Pin: p.FloatSensor},
		{Role: gpio.Role{Name: "pump", Direction: gpio.Output}, Pin: p.Pump},
	}
	for i, s := range p.Solenoids {
		out = append(out, gpio.Assignment{
			Role: gpio.Role{Name: fmt.Sprintf("solenoid_%d", i+1), Direction: gpio.Output},
			Pin:  s,
		})
	}
	out = append(out,
		gpio.Assignment{Role: gpio.Role{Name: "rs485_rx", Direction: gpio.Input}, Pin: p.RS485RX},
		gpio.Assignment{Role: gpio.Role{Name: "rs485_tx", Direction: gpio.Output}, Pin: p.RS485TX},
		gpio.Assignment{Role: gpio.Role{Name: "rs485_de", Direction: gpio.Output}, Pin: p.RS485DE},
	)
	return out
}

// ---- BUS (RS485 / MODBUS RTU) ----

type BusConfig struct {
	Port           string       `yaml:"port" json:"port"` // host-side adapter used by probe/watch
	BaudRate       int          `yaml:"baud_rate" json:"baud_rate"`
	DataBits       int          `yaml:"data_bits" json:"data_bits"`
	Parity         string       `yaml:"parity" json:"parity"`
	StopBits       int          `yaml:"stop_bits" json:"stop_bits"`
	UnitID         int          `yaml:"unit_id" json:"unit_id"`
	TimeoutMs      int          `yaml:"timeout_ms" json:"timeout_ms"`
	PollIntervalMs int          `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	RTSToggle      bool         `yaml:"rts_toggle" json:"rts_toggle"` // adapter needs software direction control
	Reads          []ReadConfig `yaml:"reads" json:"reads"`
}

// ReadConfig is one Modbus read geometry.
type ReadConfig struct {
	FC       uint8  `yaml:"fc" json:"fc"`
	Address  uint16 `yaml:"address" json:"address"`
	Quantity uint16 `yaml:"quantity" json:"quantity"`
}

func (b BusConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

func (b BusConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMs) * time.Millisecond
}

// Mode returns the frame format in the usual short form, e.g. "8N1".
func (b BusConfig) Mode() string {
	return fmt.Sprintf("%d%s%d", b.DataBits, b.Parity, b.StopBits)
}
