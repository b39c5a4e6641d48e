// internal/poller/builder.go
package poller

import (
	"io"

	cfg "github.com/tamzrod/devicecfg/internal/config"
	pmodbus "github.com/tamzrod/devicecfg/internal/poller/modbus"
)

// Build constructs a Poller for the device's RS485 bus and wires Modbus client lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// No retries, no loops, no semantics.
func Build(c *cfg.Config, trace io.Writer) (*Poller, func() error, error) {
	bus := c.Bus

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		return pmodbus.New(pmodbus.Config{
			Port:     bus.Port,
			BaudRate: bus.BaudRate,
			DataBits: bus.DataBits,
			Parity:   bus.Parity,
			StopBits: bus.StopBits,
			UnitID:   uint8(bus.UnitID),
			Timeout:  bus.Timeout(),
			RS485:    bus.RTSToggle,
			Logger:   trace,
		})
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	reads := make([]ReadBlock, 0, len(bus.Reads))
	for _, r := range bus.Reads {
		reads = append(reads, ReadBlock{
			FC:       r.FC,
			Address:  r.Address,
			Quantity: r.Quantity,
		})
	}

	p, err := New(
		Config{
			DeviceID: c.Device.ID,
			UnitID:   uint8(bus.UnitID),
			Interval: bus.PollInterval(),
			Reads:    reads,
		},
		client,
		factory,
	)
	if err != nil {
		if cl, ok := client.(io.Closer); ok {
			_ = cl.Close()
		}
		return nil, nil, err
	}

	return p, p.Close, nil
}
