// internal/config/defaults.go
package config

// DefaultIDPattern matches identifiers like ESP32_001.
const DefaultIDPattern = `^[A-Z][A-Z0-9]*_[0-9]{3,}$`

const (
	defaultBackend = "https://your-backend-domain"

	defaultChip           = "esp32"
	defaultBaudRate       = 9600
	defaultDataBits       = 8
	defaultParity         = "N"
	defaultStopBits       = 1
	defaultUnitID         = 1
	defaultTimeoutMs      = 1000
	defaultPollIntervalMs = 5000
	defaultBusPort        = "/dev/ttyUSB0"
)

// Default returns the factory configuration record.
// Credentials and backend host are placeholders; Lint flags them.
func Default() *Config {
	activeHigh := true

	return &Config{
		Target: TargetConfig{Chip: defaultChip},
		Network: NetworkConfig{
			SSID:       "YourSSID",
			Passphrase: "YourPassword",
		},
		Endpoints: EndpointsConfig{
			SensorIngest:   defaultBackend + "/api/sensors",
			Heartbeat:      defaultBackend + "/api/devices/heartbeat",
			CommandEnqueue: defaultBackend + "/api/devices/commands",
			CommandPoll:    defaultBackend + "/api/devices/commands/pending",
			CommandAck:     defaultBackend + "/api/devices/ack",
			ConfigSync:     defaultBackend + "/api/config",
		},
		Device: DeviceConfig{
			ID:        "ESP32_001",
			IDPattern: DefaultIDPattern,
		},
		Retry: RetryConfig{
			DelayMs:    250,
			MaxRetries: 2,
		},
		Pins: PinsConfig{
			FloatSensor:     27,
			FloatActiveHigh: &activeHigh,
			Pump:            26,
			Solenoids:       []int{25, 33, 32},
			RS485RX:         16,
			RS485TX:         17,
			RS485DE:         4,
		},
		Bus: BusConfig{
			Port:           defaultBusPort,
			BaudRate:       defaultBaudRate,
			DataBits:       defaultDataBits,
			Parity:         defaultParity,
			StopBits:       defaultStopBits,
			UnitID:         defaultUnitID,
			TimeoutMs:      defaultTimeoutMs,
			PollIntervalMs: defaultPollIntervalMs,
			Reads:          []ReadConfig{{FC: 3, Address: 0, Quantity: 1}},
		},
	}
}
