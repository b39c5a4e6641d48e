// internal/status/report.go
package status

import "time"

// Check is the outcome of one named verification.
type Check struct {
	Name     string   `yaml:"name"`
	Health   string   `yaml:"health"`
	Detail   string   `yaml:"detail,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// Report collects checks for one device.
type Report struct {
	DeviceID string    `yaml:"device_id"`
	At       time.Time `yaml:"at"`
	Overall  string    `yaml:"overall"`
	Checks   []Check   `yaml:"checks"`

	overall uint16
}

// NewReport starts an empty report. Overall is unknown until a check is added.
func NewReport(deviceID string, at time.Time) *Report {
	return &Report{
		DeviceID: deviceID,
		At:       at.UTC(),
		Overall:  HealthName(HealthUnknown),
		overall:  HealthUnknown,
	}
}

// Add records a check and folds it into the overall health (worst wins).
func (r *Report) Add(name string, health uint16, detail string, warnings ...string) {
	r.Checks = append(r.Checks, Check{
		Name:     name,
		Health:   HealthName(health),
		Detail:   detail,
		Warnings: warnings,
	})

	if len(r.Checks) == 1 || severity(health) > severity(r.overall) {
		r.overall = health
		if health == HealthDisabled {
			r.overall = HealthOK
		}
		r.Overall = HealthName(r.overall)
	}
}

// Health returns the overall health code.
func (r *Report) Health() uint16 { return r.overall }

// OK reports whether every enabled check passed.
func (r *Report) OK() bool { return r.overall == HealthOK }
