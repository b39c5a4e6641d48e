// internal/status/encode.go
package status

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Encode renders a report as YAML.
// No IO. No side effects.
func Encode(r *Report) ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("status: encode: %w", err)
	}
	return out, nil
}
