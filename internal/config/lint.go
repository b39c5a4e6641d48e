// internal/config/lint.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tamzrod/devicecfg/internal/gpio"
)

var placeholderHosts = []string{
	"your-backend-domain",
	"example.com",
	"example.org",
	"localhost",
}

var placeholderCredentials = map[string]bool{
	"yourssid":     true,
	"yourpassword": true,
	"changeme":     true,
}

// Lint returns advisory findings that do not make the configuration invalid.
// It assumes nothing about validity and MUST NOT mutate configuration.
func Lint(cfg *Config) []string {
	if cfg == nil {
		return nil
	}

	var warns []string

	if placeholderCredentials[strings.ToLower(cfg.Network.SSID)] {
		warns = append(warns, fmt.Sprintf("network.ssid: %q looks like a placeholder", cfg.Network.SSID))
	}
	if placeholderCredentials[strings.ToLower(cfg.Network.Passphrase)] {
		warns = append(warns, "network.passphrase: looks like a placeholder")
	}
	if cfg.Network.Passphrase == "" {
		warns = append(warns, "network.passphrase: empty, device joins an open network")
	}

	hosts := map[string]struct{}{}
	for _, ep := range cfg.Endpoints.List() {
		u, err := url.Parse(strings.TrimSpace(ep.URL))
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		hosts[host] = struct{}{}

		for _, p := range placeholderHosts {
			if host == p || strings.HasSuffix(host, "."+p) {
				warns = append(warns, fmt.Sprintf("endpoints.%s: host %q looks like a placeholder", ep.Name, host))
				break
			}
		}
	}
	if len(hosts) > 1 {
		warns = append(warns, fmt.Sprintf("endpoints: %d distinct hosts; the device keeps one TLS session per host", len(hosts)))
	}

	if chip, err := gpio.Lookup(cfg.Target.Chip); err == nil {
		warns = append(warns, chip.Check(cfg.Pins.Assignments()).Warnings...)
	}

	if cfg.Retry.MaxRetries > 0 && cfg.Retry.DelayMs == 0 {
		warns = append(warns, "retry: retries without delay hammer the backend")
	}

	return warns
}
