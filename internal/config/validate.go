// internal/config/validate.go
package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/tamzrod/devicecfg/internal/gpio"
)

// Limits taken from the Modbus application protocol and 802.11.
const (
	maxUnitID         = 247
	maxReadBits       = 2000
	maxReadRegisters  = 125
	maxSSIDBytes      = 32
	minPassphraseLen  = 8
	maxPassphraseLen  = 63
	rawPSKLen         = 64
	maxDeviceIDLength = 32
)

// Firmware stores millisecond timings as uint32 and the retry count as uint8.
const (
	maxMillis     = math.MaxUint32
	maxMaxRetries = math.MaxUint8
)

var standardBaudRates = map[int]bool{
	1200: true, 2400: true, 4800: true, 9600: true,
	19200: true, 38400: true, 57600: true, 115200: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only and reports every violation found.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}

	var result *multierror.Error

	// ------------------------------------------------------------
	// NETWORK
	// ------------------------------------------------------------

	ssid := cfg.Network.SSID
	if len(ssid) == 0 || len(ssid) > maxSSIDBytes {
		result = multierror.Append(result, fmt.Errorf(
			"network.ssid: must be 1..%d bytes, got %d",
			maxSSIDBytes, len(ssid),
		))
	}

	if err := validatePassphrase(cfg.Network.Passphrase); err != nil {
		result = multierror.Append(result, err)
	}

	// ------------------------------------------------------------
	// ENDPOINTS (absolute https)
	// ------------------------------------------------------------

	for _, ep := range cfg.Endpoints.List() {
		if err := validateHTTPS(ep.URL); err != nil {
			result = multierror.Append(result, fmt.Errorf("endpoints.%s: %w", ep.Name, err))
		}
	}

	// ------------------------------------------------------------
	// DEVICE IDENTITY
	// ------------------------------------------------------------

	if err := validateDeviceID(cfg.Device); err != nil {
		result = multierror.Append(result, err)
	}

	// ------------------------------------------------------------
	// RETRY POLICY
	// ------------------------------------------------------------

	if d := int64(cfg.Retry.DelayMs); d < 0 || d > maxMillis {
		result = multierror.Append(result, fmt.Errorf(
			"retry.delay_ms: must be 0..%d, got %d", int64(maxMillis), cfg.Retry.DelayMs,
		))
	}
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.MaxRetries > maxMaxRetries {
		result = multierror.Append(result, fmt.Errorf(
			"retry.max_retries: must be 0..%d, got %d", maxMaxRetries, cfg.Retry.MaxRetries,
		))
	}

	// ------------------------------------------------------------
	// PIN MAP
	// ------------------------------------------------------------

	if n := len(cfg.Pins.Solenoids); n != SolenoidCount {
		result = multierror.Append(result, fmt.Errorf(
			"pins.solenoids: need exactly %d pins, got %d", SolenoidCount, n,
		))
	}

	chip, err := gpio.Lookup(cfg.Target.Chip)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("target.chip: %w", err))
	} else {
		pins := chip.Check(cfg.Pins.Assignments())
		for _, e := range pins.Errors {
			result = multierror.Append(result, e)
		}
	}

	// ------------------------------------------------------------
	// RS485 / MODBUS
	// ------------------------------------------------------------

	for _, e := range validateBus(cfg.Bus) {
		result = multierror.Append(result, e)
	}

	return result.ErrorOrNil()
}

func validatePassphrase(p string) error {
	// open network
	if p == "" {
		return nil
	}

	if len(p) == rawPSKLen {
		for i := 0; i < len(p); i++ {
			if !isHex(p[i]) {
				return fmt.Errorf("network.passphrase: 64-character value must be a hex PSK")
			}
		}
		return nil
	}

	if len(p) < minPassphraseLen || len(p) > maxPassphraseLen {
		return fmt.Errorf(
			"network.passphrase: must be empty or %d..%d characters, got %d",
			minPassphraseLen, maxPassphraseLen, len(p),
		)
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 0x20 || p[i] > 0x7E {
			return fmt.Errorf("network.passphrase: must contain printable ASCII characters only")
		}
	}
	return nil
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func validateHTTPS(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("url required")
	}

	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("malformed url %q: %w", raw, err)
	}
	if !u.IsAbs() || u.Opaque != "" {
		return fmt.Errorf("url %q must be absolute", raw)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("url %q must use https, got %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	if u.User != nil {
		return fmt.Errorf("url %q must not embed credentials", raw)
	}
	return nil
}

func validateDeviceID(d DeviceConfig) error {
	id := strings.TrimSpace(d.ID)
	if id == "" {
		return fmt.Errorf("device.id: required")
	}
	if len(id) > maxDeviceIDLength {
		return fmt.Errorf("device.id: at most %d characters, got %d", maxDeviceIDLength, len(id))
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7E {
			return fmt.Errorf("device.id %q: printable ASCII without spaces only", d.ID)
		}
	}

	pattern := d.IDPattern
	if pattern == "" {
		pattern = DefaultIDPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("device.id_pattern: %w", err)
	}
	if !re.MatchString(id) {
		return fmt.Errorf("device.id %q does not match naming convention %s", id, pattern)
	}
	return nil
}

func validateBus(b BusConfig) []error {
	var errs []error

	if b.UnitID < 1 || b.UnitID > maxUnitID {
		errs = append(errs, fmt.Errorf("bus.unit_id: must be 1..%d, got %d", maxUnitID, b.UnitID))
	}
	if !standardBaudRates[b.BaudRate] {
		errs = append(errs, fmt.Errorf("bus.baud_rate: %d is not a standard rate", b.BaudRate))
	}
	if b.DataBits != 7 && b.DataBits != 8 {
		errs = append(errs, fmt.Errorf("bus.data_bits: must be 7 or 8, got %d", b.DataBits))
	}
	switch strings.ToUpper(strings.TrimSpace(b.Parity)) {
	case "N", "E", "O":
	default:
		errs = append(errs, fmt.Errorf("bus.parity: must be N, E or O, got %q", b.Parity))
	}
	if b.StopBits != 1 && b.StopBits != 2 {
		errs = append(errs, fmt.Errorf("bus.stop_bits: must be 1 or 2, got %d", b.StopBits))
	}
	if t := int64(b.TimeoutMs); t <= 0 || t > maxMillis {
		errs = append(errs, fmt.Errorf("bus.timeout_ms: must be 1..%d, got %d", int64(maxMillis), b.TimeoutMs))
	}
	if t := int64(b.PollIntervalMs); t <= 0 || t > maxMillis {
		errs = append(errs, fmt.Errorf("bus.poll_interval_ms: must be 1..%d, got %d", int64(maxMillis), b.PollIntervalMs))
	}

	if len(b.Reads) == 0 {
		errs = append(errs, fmt.Errorf("bus.reads: at least one read block required"))
	}
	for i, r := range b.Reads {
		limit := maxReadRegisters
		switch r.FC {
		case 1, 2:
			limit = maxReadBits
		case 3, 4:
		default:
			errs = append(errs, fmt.Errorf("bus.reads[%d]: unsupported fc %d", i, r.FC))
			continue
		}

		if r.Quantity == 0 || int(r.Quantity) > limit {
			errs = append(errs, fmt.Errorf(
				"bus.reads[%d]: quantity must be 1..%d for fc %d, got %d",
				i, limit, r.FC, r.Quantity,
			))
			continue
		}
		if int(r.Address)+int(r.Quantity)-1 > 0xFFFF {
			errs = append(errs, fmt.Errorf(
				"bus.reads[%d]: range %d+%d exceeds address space",
				i, r.Address, r.Quantity,
			))
		}
	}

	return errs
}
