// internal/gpio/check.go
package gpio

import (
	"fmt"
)

// Direction is the electrical direction a role needs from its pin.
type Direction uint8

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Role names a hardware function bound to one pin.
type Role struct {
	Name      string
	Direction Direction
}

// Assignment binds a role to a GPIO number.
type Assignment struct {
	Role Role
	Pin  int
}

// Result holds the outcome of checking a pin map.
// Errors make the map unusable; warnings are advisory.
type Result struct {
	Errors   []error
	Warnings []string
}

// OK reports whether no errors were found.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Check verifies a set of pin assignments against the chip table.
// Declarative only: it does not touch hardware.
func (c Chip) Check(assign []Assignment) Result {
	var res Result

	owner := make(map[int]string, len(assign))

	for _, a := range assign {
		p := a.Pin
		name := a.Role.Name

		if !c.Exists(p) {
			res.Errors = append(res.Errors, fmt.Errorf(
				"pin %s=%d: GPIO%d does not exist on %s",
				name, p, p, c.Name,
			))
			continue
		}

		if prev, dup := owner[p]; dup {
			res.Errors = append(res.Errors, fmt.Errorf(
				"pin %s=%d: GPIO%d already assigned to %s",
				name, p, p, prev,
			))
			continue
		}
		owner[p] = name

		if c.Flash(p) {
			res.Errors = append(res.Errors, fmt.Errorf(
				"pin %s=%d: GPIO%d is reserved for SPI flash on %s",
				name, p, p, c.Name,
			))
			continue
		}

		if a.Role.Direction == Output && c.InputOnly(p) {
			res.Errors = append(res.Errors, fmt.Errorf(
				"pin %s=%d: GPIO%d is input-only but %s needs an output",
				name, p, p, name,
			))
			continue
		}

		if c.Strapping(p) {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"pin %s=%d: GPIO%d is a strapping pin; external pull or load may change boot mode",
				name, p, p,
			))
		}
		if c.Console(p) {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"pin %s=%d: GPIO%d is used by the default console/USB on %s",
				name, p, p, c.Name,
			))
		}
	}

	return res
}
