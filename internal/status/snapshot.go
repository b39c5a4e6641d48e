// internal/status/snapshot.go
package status

// Snapshot is the live bus health tracked by watch.
// It contains no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Observe folds one poll outcome into the snapshot.
// code is 0 on success. It reports whether anything changed.
// SecondsInError is NOT incremented here; that happens on Tick only.
func (s *Snapshot) Observe(ok bool, code uint16) bool {
	changed := false

	if ok {
		// Recovery / OK
		if s.Health != HealthOK {
			s.Health = HealthOK
			changed = true
		}
		if s.LastErrorCode != 0 {
			s.LastErrorCode = 0
			changed = true
		}
		if s.SecondsInError != 0 {
			s.SecondsInError = 0
			changed = true
		}
		return changed
	}

	if s.Health != HealthError {
		s.Health = HealthError
		changed = true
	}
	if s.LastErrorCode != code {
		s.LastErrorCode = code
		changed = true
	}
	return changed
}

// Tick advances the error counter by one second while not OK.
// The counter saturates; it MUST NOT wrap.
func (s *Snapshot) Tick() bool {
	if s.Health == HealthOK {
		return false
	}
	if s.SecondsInError >= SecondsInErrorMax {
		return false
	}
	s.SecondsInError++
	return true
}

// MarkStale flags a healthy snapshot whose data stopped arriving.
// Error and Unknown are left alone; only the next Observe clears Stale.
func (s *Snapshot) MarkStale() bool {
	if s.Health != HealthOK {
		return false
	}
	s.Health = HealthStale
	return true
}
