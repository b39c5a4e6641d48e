// internal/poller/modbus/ports.go
package modbus

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.bug.st/serial"
)

// listPorts is swapped in tests.
var listPorts = serial.GetPortsList

// Ports returns the serial ports present on this host.
func Ports() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// CheckPort fails if name is not among the host's serial ports.
// Symlinks such as /dev/serial/by-id/... are resolved before comparing.
func CheckPort(name string) error {
	ports, err := Ports()
	if err != nil {
		return err
	}

	want := name
	if resolved, err := filepath.EvalSymlinks(name); err == nil {
		want = resolved
	}

	for _, p := range ports {
		if p == name || p == want {
			return nil
		}
	}

	if len(ports) == 0 {
		return fmt.Errorf("serial port %s not found: no serial ports present", name)
	}
	return fmt.Errorf("serial port %s not found (available: %s)", name, strings.Join(ports, ", "))
}
