// internal/status/constants.go
package status

// Health codes. Ordered so that a larger code is a worse state,
// except Disabled which never degrades a report.

// HealthUnknown represents an unknown or not-yet-checked state.
const HealthUnknown uint16 = 0

// HealthOK represents a passing check.
const HealthOK uint16 = 1

// HealthError represents a failing check.
const HealthError uint16 = 2

// HealthStale represents a check that passed earlier but has no fresh data.
const HealthStale uint16 = 3

// HealthDisabled represents a check that was skipped on purpose.
const HealthDisabled uint16 = 4

// SecondsInErrorMax is where the error counter saturates.
const SecondsInErrorMax = 65535

// HealthName returns the lower-case name of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// severity ranks codes for worst-of aggregation.
func severity(h uint16) int {
	switch h {
	case HealthOK:
		return 0
	case HealthDisabled:
		return 0
	case HealthStale:
		return 1
	case HealthUnknown:
		return 2
	default:
		return 3
	}
}
