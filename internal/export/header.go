// internal/export/header.go
package export

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/tamzrod/devicecfg/internal/config"
)

var headerTmpl = template.Must(template.New("config.h").Funcs(template.FuncMap{
	"c":     cQuote,
	"flag":  cBool,
	"upper": strings.ToUpper,
	"inc":   func(i int) int { return i + 1 },
}).Parse(`// Code generated by devicecfg from {{.Source}}. DO NOT EDIT.
#pragma once

// Target: {{.Cfg.Target.Chip}}

// Wi-Fi credentials
#define WIFI_SSID {{c .Cfg.Network.SSID}}
#define WIFI_PASS {{c .Cfg.Network.Passphrase}}

// Backend endpoints
#define SERVER_URL {{c .Cfg.Endpoints.SensorIngest}}
#define HEARTBEAT_URL {{c .Cfg.Endpoints.Heartbeat}}
#define COMMAND_QUEUE_URL {{c .Cfg.Endpoints.CommandEnqueue}}
#define COMMAND_POLL_URL {{c .Cfg.Endpoints.CommandPoll}}
#define COMMAND_ACK_URL {{c .Cfg.Endpoints.CommandAck}}
#define CONFIG_URL {{c .Cfg.Endpoints.ConfigSync}}

// Device metadata
#define DEVICE_ID {{c .Cfg.Device.ID}}

// Command retry configuration
#define COMMAND_RETRY_DELAY_MS {{.Cfg.Retry.DelayMs}}
#define COMMAND_MAX_RETRIES {{.Cfg.Retry.MaxRetries}}

// GPIO pin map
#define FLOAT_SENSOR_PIN {{.Cfg.Pins.FloatSensor}}
#define FLOAT_ACTIVE_HIGH {{flag .Cfg.Pins.FloatIsActiveHigh}}
#define PUMP_PIN {{.Cfg.Pins.Pump}}
{{- range $i, $p := .Cfg.Pins.Solenoids}}
#define SOLENOID_{{inc $i}}_PIN {{$p}}
{{- end}}
#define RS485_RX_PIN {{.Cfg.Pins.RS485RX}}
#define RS485_TX_PIN {{.Cfg.Pins.RS485TX}}
#define RS485_DE_PIN {{.Cfg.Pins.RS485DE}}

// RS485 / Modbus RTU
#define RS485_BAUD {{.Cfg.Bus.BaudRate}}
#define RS485_CONFIG SERIAL_{{upper .Cfg.Bus.Mode}}
#define MODBUS_SLAVE_ID {{.Cfg.Bus.UnitID}}

/*
 * Wiring ({{.Cfg.Target.Chip}})
{{- range .Wiring}}
 *   {{.}}
{{- end}}
 */
`))

type headerData struct {
	Source string
	Cfg    *config.Config
	Wiring []string
}

// Header renders the configuration as a firmware config.h.
// cfg must already be validated; the passphrase is always emitted.
func Header(w io.Writer, cfg *config.Config, source string) error {
	if cfg == nil {
		return fmt.Errorf("export: nil configuration")
	}
	if source == "" {
		source = "defaults"
	}

	data := headerData{
		Source: source,
		Cfg:    cfg,
		Wiring: wiring(cfg),
	}
	if err := headerTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("export: render header: %w", err)
	}
	return nil
}

// wiring describes each pin connection, one line per pin.
func wiring(cfg *config.Config) []string {
	level := "HIGH = safe / water present"
	if !cfg.Pins.FloatIsActiveHigh() {
		level = "LOW = safe / water present"
	}

	lines := []string{
		fmt.Sprintf("%-7s <- float sensor (%s)", gpioName(cfg.Pins.FloatSensor), level),
		fmt.Sprintf("%-7s -> pump relay", gpioName(cfg.Pins.Pump)),
	}
	for i, p := range cfg.Pins.Solenoids {
		lines = append(lines, fmt.Sprintf("%-7s -> solenoid %d", gpioName(p), i+1))
	}
	lines = append(lines,
		fmt.Sprintf("%-7s <- RS485 transceiver RO", gpioName(cfg.Pins.RS485RX)),
		fmt.Sprintf("%-7s -> RS485 transceiver DI", gpioName(cfg.Pins.RS485TX)),
		fmt.Sprintf("%-7s -> RS485 transceiver DE + /RE", gpioName(cfg.Pins.RS485DE)),
		fmt.Sprintf("RS485 A/B -> Modbus unit %d @ %d %s", cfg.Bus.UnitID, cfg.Bus.BaudRate, cfg.Bus.Mode()),
	)
	return lines
}

func gpioName(pin int) string {
	return fmt.Sprintf("GPIO%d", pin)
}

func cBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// cQuote renders s as a C string literal.
// Non-printable bytes use 3-digit octal escapes, which never swallow a following digit.
func cQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if ch < 0x20 || ch > 0x7E {
				fmt.Fprintf(&b, `\%03o`, ch)
				continue
			}
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}
