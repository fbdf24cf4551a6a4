package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("Value(MetricLoginSuccess) = %d, want 2", got)
	}
	if got := m.Value(MetricLoginFailure); got != 1 {
		t.Fatalf("Value(MetricLoginFailure) = %d, want 1", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 || snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("snapshot = %+v", snap.Counters)
	}

	// The snapshot is a copy, not a view.
	m.Inc(MetricLoginSuccess)
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatal("snapshot mutated after a later increment")
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("Value on disabled metrics = %d, want 0", got)
	}
}

func TestMetricsUnknownIDIsIgnored(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricID(10_000))
	if got := m.Value(MetricID(10_000)); got != 0 {
		t.Fatalf("Value(out of range) = %d, want 0", got)
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricLoginSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLoginSuccess); got != goroutines*perGoroutine {
		t.Fatalf("Value = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestEngineMetricsTrackFlows(t *testing.T) {
	engine, _, notifier := newTestEngine(t, testEngineConfig())

	if _, err := engine.Login(context.Background(), "admin", "Admin@123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login = %v, want ErrInvalidCredentials", err)
	}
	if _, err := engine.Login(context.Background(), "teacher1", "Teacher@123"); err != nil {
		t.Fatalf("Login(2FA) failed: %v", err)
	}
	_, code := notifier.last()
	if _, err := engine.VerifyTwoFactor(context.Background(), "teacher1", code); err != nil {
		t.Fatalf("VerifyTwoFactor failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	want := map[MetricID]uint64{
		MetricLoginSuccess:     1,
		MetricLoginFailure:     1,
		MetricChallengeIssued:  1,
		MetricTwoFactorSuccess: 1,
		MetricTwoFactorFailure: 0,
	}
	for id, value := range want {
		if snap.Counters[id] != value {
			t.Errorf("counter %d = %d, want %d", id, snap.Counters[id], value)
		}
	}
}
