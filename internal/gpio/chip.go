// internal/gpio/chip.go
package gpio

import (
	"fmt"
	"sort"
	"strings"
)

// Chip describes which GPIO numbers a target part exposes and how they may be used.
// Tables only: no electrical model, no SDK.
type Chip struct {
	Name string

	pins      map[int]struct{} // GPIOs that exist on the package
	flash     map[int]struct{} // wired to SPI flash/PSRAM; never assignable
	inputOnly map[int]struct{} // no output driver
	strapping map[int]struct{} // sampled at reset
	console   map[int]struct{} // default UART0 / USB-JTAG
}

func set(nums ...int) map[int]struct{} {
	m := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		m[n] = struct{}{}
	}
	return m
}

func span(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func concat(parts ...[]int) []int {
	var out []int
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// ---- chip tables ----

var chips = map[string]Chip{
	"esp32": {
		Name:      "esp32",
		pins:      set(concat(span(0, 19), span(21, 23), span(25, 27), span(32, 39))...),
		flash:     set(span(6, 11)...),
		inputOnly: set(span(34, 39)...),
		strapping: set(0, 2, 5, 12, 15),
		console:   set(1, 3),
	},
	"esp32s3": {
		Name:      "esp32s3",
		pins:      set(concat(span(0, 21), span(26, 48))...),
		flash:     set(span(26, 32)...),
		inputOnly: set(),
		strapping: set(0, 3, 45, 46),
		console:   set(19, 20, 43, 44),
	},
	"esp32c3": {
		Name:      "esp32c3",
		pins:      set(span(0, 21)...),
		flash:     set(span(12, 17)...),
		inputOnly: set(),
		strapping: set(2, 8, 9),
		console:   set(18, 19, 20, 21),
	},
}

// Lookup returns the capability table for a chip name (case-insensitive).
func Lookup(name string) (Chip, error) {
	c, ok := chips[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Chip{}, fmt.Errorf("gpio: unknown chip %q (known: %s)", name, strings.Join(Chips(), ", "))
	}
	return c, nil
}

// Chips lists the known chip names in sorted order.
func Chips() []string {
	out := make([]string, 0, len(chips))
	for name := range chips {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c Chip) Exists(pin int) bool {
	_, ok := c.pins[pin]
	return ok
}

func (c Chip) Flash(pin int) bool {
	_, ok := c.flash[pin]
	return ok
}

func (c Chip) InputOnly(pin int) bool {
	_, ok := c.inputOnly[pin]
	return ok
}

func (c Chip) Strapping(pin int) bool {
	_, ok := c.strapping[pin]
	return ok
}

func (c Chip) Console(pin int) bool {
	_, ok := c.console[pin]
	return ok
}
