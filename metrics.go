package authkit

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed direct logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credential checks.
	MetricLoginFailure
	// MetricChallengeIssued counts 2FA codes generated and stored.
	MetricChallengeIssued
	// MetricChallengeSendFailed counts notification delivery failures.
	MetricChallengeSendFailed
	// MetricTwoFactorSuccess counts completed 2FA verifications.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts wrong or expired code submissions.
	MetricTwoFactorFailure
	// MetricRefreshSuccess counts access tokens minted from refresh tokens.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh attempts.
	MetricRefreshFailure
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes rejected on
	// the old-password check.
	MetricPasswordChangeInvalidOld
	// MetricAccountCreationSuccess counts created accounts.
	MetricAccountCreationSuccess
	// MetricAccountCreationDuplicate counts creations rejected as
	// duplicate username or email.
	MetricAccountCreationDuplicate
	// MetricTwoFactorToggled counts 2FA enable/disable mutations.
	MetricTwoFactorToggled

	metricIDCount
)

// Metrics holds lock-free counters for the engine's flows. A disabled
// instance turns every operation into a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter identified by id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Value returns the current value of the counter identified by id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot deep-copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}

// MetricsSnapshot returns a point-in-time copy of the engine's
// counters.
func (e *Engine) MetricsSnapshot() Snapshot {
	if e == nil || e.metrics == nil {
		return Snapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
