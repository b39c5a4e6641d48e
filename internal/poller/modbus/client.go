// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	gmodbus "github.com/goburrow/modbus"
	gserial "github.com/goburrow/serial"
)

// Client implements poller.Client using Modbus RTU over an RS485 adapter.
// This adapter is geometry-only: it issues reads and unpacks raw responses.
type Client struct {
	handler *gmodbus.RTUClientHandler
	cli     gmodbus.Client
}

// Config is minimal transport config.
type Config struct {
	Port     string
	BaudRate int
	DataBits int
	Parity   string // "N", "E", "O"
	StopBits int
	UnitID   uint8
	Timeout  time.Duration

	// RS485 toggles RTS around transmit for adapters that need
	// software direction control. Auto-direction adapters leave it off.
	RS485 bool

	// Logger receives raw frame traces when set.
	Logger io.Writer
}

// New creates a connected Modbus RTU client.
func New(cfg Config) (*Client, error) {
	if cfg.Port == "" {
		return nil, errors.New("modbus client: port required")
	}
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus client: unit id 0 is broadcast, not addressable")
	}

	h := gmodbus.NewRTUClientHandler(cfg.Port)
	h.BaudRate = cfg.BaudRate
	h.DataBits = cfg.DataBits
	h.Parity = cfg.Parity
	h.StopBits = cfg.StopBits
	h.SlaveId = cfg.UnitID
	h.Timeout = cfg.Timeout
	if cfg.RS485 {
		h.RS485 = gserial.RS485Config{
			Enabled:           true,
			RtsHighDuringSend: true,
		}
	}
	if cfg.Logger != nil {
		h.Logger = log.New(cfg.Logger, "modbus: ", 0)
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus client: open %s: %w", cfg.Port, err)
	}

	return &Client{
		handler: h,
		cli:     gmodbus.NewClient(h),
	}, nil
}

// Close closes the serial port.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- poller.Client interface ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	if qty == 0 {
		return nil, nil
	}
	data, err := c.cli.ReadCoils(addr, qty)
	if err != nil {
		return nil, wrapErr(err)
	}
	return unpackBits(data, int(qty)), nil
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	if qty == 0 {
		return nil, nil
	}
	data, err := c.cli.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, wrapErr(err)
	}
	return unpackBits(data, int(qty)), nil
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if qty == 0 {
		return nil, nil
	}
	data, err := c.cli.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, wrapErr(err)
	}
	return checkRegisters(data, qty)
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	if qty == 0 {
		return nil, nil
	}
	data, err := c.cli.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, wrapErr(err)
	}
	return checkRegisters(data, qty)
}

// ---- errors ----

// ExceptionError is a Modbus exception response: the unit answered but refused the request.
type ExceptionError struct {
	Function  uint8
	Exception uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception: fc=%d code=%d", e.Function&0x7F, e.Exception)
}

// Code exposes the exception code to callers that do not import this package.
func (e *ExceptionError) Code() uint16 { return uint16(e.Exception) }

func wrapErr(err error) error {
	var me *gmodbus.ModbusError
	if errors.As(err, &me) {
		return &ExceptionError{Function: me.FunctionCode, Exception: me.ExceptionCode}
	}
	return err
}

// ---- helpers (pure geometry) ----

func checkRegisters(data []byte, qty uint16) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("modbus: read-registers byte count not even")
	}
	if len(data)/2 < int(qty) {
		return nil, fmt.Errorf("modbus: short read-registers payload: got=%d want=%d", len(data)/2, qty)
	}
	return unpackRegisters(data), nil
}

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			out[i] = false
			continue
		}
		out[i] = (data[byteIdx]&(1<<bitIdx) != 0)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
