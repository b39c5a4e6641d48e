// internal/poller/types.go
package poller

import "time"

// ReadBlock describes one Modbus read geometry.
// Geometry only: no semantics.
type ReadBlock struct {
	FC       uint8
	Address  uint16
	Quantity uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	FC       uint8
	Address  uint16
	Quantity uint16

	// Exactly one of these is used depending on FC.
	Bits      []bool   // FC 1,2
	Registers []uint16 // FC 3,4
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	DeviceID string
	UnitID   uint8
	At       time.Time

	// ExceptionCode is the Modbus exception returned by the unit.
	// 0 means no exception; a non-zero code still proves the unit answered.
	ExceptionCode uint16

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}

// Answered reports whether the addressed unit replied at all.
func (r PollResult) Answered() bool {
	return r.Err == nil || r.ExceptionCode != 0
}
