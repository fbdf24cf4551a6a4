package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	authkit "github.com/edusuite/authkit"
)

type metricsSource interface {
	MetricsSnapshot() authkit.Snapshot
	AuditDropped() uint64
}

type counterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{authkit.MetricLoginSuccess, "authkit_login_success_total", "Completed direct logins."},
	{authkit.MetricLoginFailure, "authkit_login_failure_total", "Rejected credential checks."},
	{authkit.MetricChallengeIssued, "authkit_challenge_issued_total", "Two-factor codes generated and stored."},
	{authkit.MetricChallengeSendFailed, "authkit_challenge_send_failed_total", "Two-factor code delivery failures."},
	{authkit.MetricTwoFactorSuccess, "authkit_two_factor_success_total", "Completed two-factor verifications."},
	{authkit.MetricTwoFactorFailure, "authkit_two_factor_failure_total", "Wrong or expired code submissions."},
	{authkit.MetricRefreshSuccess, "authkit_refresh_success_total", "Access tokens minted from refresh tokens."},
	{authkit.MetricRefreshFailure, "authkit_refresh_failure_total", "Rejected refresh attempts."},
	{authkit.MetricPasswordChangeSuccess, "authkit_password_change_success_total", "Completed password changes."},
	{authkit.MetricPasswordChangeInvalidOld, "authkit_password_change_invalid_old_total", "Password changes rejected on the old-password check."},
	{authkit.MetricAccountCreationSuccess, "authkit_account_creation_success_total", "Created accounts."},
	{authkit.MetricAccountCreationDuplicate, "authkit_account_creation_duplicate_total", "Creations rejected as duplicate username or email."},
	{authkit.MetricTwoFactorToggled, "authkit_two_factor_toggled_total", "Two-factor enable/disable mutations."},
}

// Exporter renders authkit metrics in Prometheus text exposition
// format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter that reads from the given
// [authkit.Engine].
func NewExporter(engine *authkit.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from a custom source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes the current counters in Prometheus text exposition
// format.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}
	writeCounter(&b, "authkit_audit_dropped_total",
		"Dropped audit events due to dispatcher backpressure.", e.source.AuditDropped())

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(help)
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}
