// internal/config/normalize.go
package config

import (
	"net/url"
	"strings"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Target.Chip = strings.ToLower(strings.TrimSpace(cfg.Target.Chip))

	cfg.Device.ID = strings.TrimSpace(cfg.Device.ID)
	if cfg.Device.IDPattern == "" {
		cfg.Device.IDPattern = DefaultIDPattern
	}

	e := &cfg.Endpoints
	for _, p := range []*string{
		&e.SensorIngest,
		&e.Heartbeat,
		&e.CommandEnqueue,
		&e.CommandPoll,
		&e.CommandAck,
		&e.ConfigSync,
	} {
		*p = canonicalURL(*p)
	}

	cfg.Bus.Port = strings.TrimSpace(cfg.Bus.Port)
	cfg.Bus.Parity = strings.ToUpper(strings.TrimSpace(cfg.Bus.Parity))

	// SSID and passphrase are byte-exact; never touched.
}

// canonicalURL lower-cases scheme and host. Path and query are kept verbatim.
func canonicalURL(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
