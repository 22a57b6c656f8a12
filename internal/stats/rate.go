package stats

import "time"

// RateMeter tracks a monotonically increasing sample count against wall
// clock time since MarkStart. It is owned by a single goroutine; the
// lifecycle state machine guarantees MarkStart runs once per run.
type RateMeter struct {
	now     func() time.Time
	started bool
	start   time.Time
	stopped bool
	end     time.Time
	count   uint64
}

// NewRateMeter returns a meter using the system clock.
func NewRateMeter() *RateMeter {
	return NewRateMeterWithClock(time.Now)
}

// NewRateMeterWithClock returns a meter reading time from now. Tests inject
// a fake clock here.
func NewRateMeterWithClock(now func() time.Time) *RateMeter {
	return &RateMeter{now: now}
}

// MarkStart records the measurement origin. Further calls are no-ops.
func (m *RateMeter) MarkStart() {
	if m.started {
		return
	}
	m.started = true
	m.start = m.now()
}

// MarkStop latches the measurement end, so Elapsed and Rate stay stable
// once the run is over. Further calls are no-ops.
func (m *RateMeter) MarkStop() {
	if !m.started || m.stopped {
		return
	}
	m.stopped = true
	m.end = m.now()
}

// Tick counts one successfully processed sample.
func (m *RateMeter) Tick() { m.count++ }

// Count returns the number of ticks so far.
func (m *RateMeter) Count() uint64 { return m.count }

// Elapsed returns the time from MarkStart to MarkStop, the time since
// MarkStart while still running, or zero if never started.
func (m *RateMeter) Elapsed() time.Duration {
	if !m.started {
		return 0
	}
	if m.stopped {
		return m.end.Sub(m.start)
	}
	return m.now().Sub(m.start)
}

// Rate returns samples per second. Until any wall clock time has elapsed it
// returns 0.0 rather than dividing by zero.
func (m *RateMeter) Rate() float64 {
	sec := m.Elapsed().Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(m.count) / sec
}
