// internal/export/export.go
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/devicecfg/internal/config"
)

// Redacted replaces secrets in YAML/JSON output.
const Redacted = "********"

// Format names an output rendering.
type Format string

const (
	FormatHeader Format = "header"
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
)

// ParseFormat accepts header, h, yaml, yml, json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "header", "h":
		return FormatHeader, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("export: unknown format %q (header, yaml, json)", s)
}

// Write renders cfg in the given format.
// reveal only affects YAML/JSON; the header always carries the passphrase.
func Write(w io.Writer, f Format, cfg *config.Config, source string, reveal bool) error {
	switch f {
	case FormatHeader:
		return Header(w, cfg, source)
	case FormatYAML:
		return YAML(w, cfg, reveal)
	case FormatJSON:
		return JSON(w, cfg, reveal)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

// YAML renders the record as YAML.
func YAML(w io.Writer, cfg *config.Config, reveal bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(redact(cfg, reveal)); err != nil {
		return fmt.Errorf("export: yaml: %w", err)
	}
	return enc.Close()
}

// JSON renders the record as indented JSON.
func JSON(w io.Writer, cfg *config.Config, reveal bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(redact(cfg, reveal)); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

func redact(cfg *config.Config, reveal bool) *config.Config {
	if cfg == nil {
		return nil
	}
	c := *cfg
	if !reveal && c.Network.Passphrase != "" {
		c.Network.Passphrase = Redacted
	}
	return &c
}
