// internal/poller/poller.go
package poller

import (
	"errors"
	"io"
	"time"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// Factory opens a fresh client. ONE attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID string
	UnitID   uint8
	Interval time.Duration
	Reads    []ReadBlock
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg     Config
	client  Client
	factory Factory
}

// New creates a poller with immutable config.
// factory may be nil; then a failed client is kept and reused.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{cfg: cfg, client: client, factory: factory}, nil
}

// Close releases the current client, if it holds resources.
func (p *Poller) Close() error {
	c := p.client
	p.client = nil
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		DeviceID: p.cfg.DeviceID,
		UnitID:   p.cfg.UnitID,
		At:       time.Now(),
	}

	if p.client == nil {
		if p.factory == nil {
			res.Err = errors.New("poller: closed")
			return res
		}
		c, err := p.factory()
		if err != nil {
			res.Err = err
			return res
		}
		p.client = c
	}

	var blocks []BlockResult

	for _, rb := range p.cfg.Reads {
		b := BlockResult{FC: rb.FC, Address: rb.Address, Quantity: rb.Quantity}
		var err error

		switch rb.FC {
		case 1:
			b.Bits, err = p.client.ReadCoils(rb.Address, rb.Quantity)
		case 2:
			b.Bits, err = p.client.ReadDiscreteInputs(rb.Address, rb.Quantity)
		case 3:
			b.Registers, err = p.client.ReadHoldingRegisters(rb.Address, rb.Quantity)
		case 4:
			b.Registers, err = p.client.ReadInputRegisters(rb.Address, rb.Quantity)
		default:
			res.Err = errors.New("poller: unsupported function code")
			return res
		}

		if err != nil {
			res.Err = err
			p.onError(&res, err)
			return res
		}
		blocks = append(blocks, b)
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}

// onError classifies a failed read. An exception means the unit is alive
// and the client stays; anything else is treated as transport death.
func (p *Poller) onError(res *PollResult, err error) {
	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		res.ExceptionCode = c.Code()
		return
	}

	if p.factory == nil {
		return
	}
	_ = p.Close()
}
