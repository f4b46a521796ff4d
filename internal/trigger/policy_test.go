package trigger_test

import (
	"errors"
	"testing"
	"time"

	"oven/internal/config"
	"oven/internal/lifecycle"
	"oven/internal/services"
	"oven/internal/trigger"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func progress(seconds, fraction float64) lifecycle.Event {
	return lifecycle.Event{Signal: lifecycle.SignalProgress, At: at(seconds), Progress: fraction}
}

func TestIntervalScenario(t *testing.T) {
	gate := trigger.NewGate(trigger.IntervalPolicy{Interval: 5 * time.Second, Threshold: 0.1})

	steps := []struct {
		ev   lifecycle.Event
		fire bool
	}{
		{lifecycle.Event{Signal: lifecycle.SignalStart, At: at(0)}, true},
		{progress(2, 0.05), false},
		{progress(6, 0.06), true},
		{progress(7, 0.20), true},
	}
	for i, step := range steps {
		d := gate.Decide(step.ev)
		if d.Fire != step.fire {
			t.Fatalf("step %d: fire=%v (%s), want %v", i, d.Fire, d.Reason, step.fire)
		}
	}
	if got := gate.State(); !got.LastAt.Equal(at(7)) || got.LastProgress != 0.20 {
		t.Fatalf("unexpected state after scenario: %+v", got)
	}
}

func TestIntervalElapsedAlwaysFires(t *testing.T) {
	policy := trigger.IntervalPolicy{Interval: 5 * time.Second, Threshold: 0.5}
	state := trigger.State{LastAt: at(0), LastProgress: 0.4}
	for _, elapsed := range []float64{5, 5.001, 60, 3600} {
		for _, p := range []float64{0, 0.1, 0.4, 0.41} {
			d := policy.Evaluate(progress(elapsed, p), state)
			if !d.Fire {
				t.Fatalf("elapsed=%v progress=%v: expected fire, got %q", elapsed, p, d.Reason)
			}
		}
	}
}

func TestDeltaFiresIffThresholdReached(t *testing.T) {
	// Values in hundredths so the expectation is exact.
	for threshold := 1; threshold <= 50; threshold += 7 {
		policy := trigger.DeltaPolicy{Threshold: float64(threshold) / 100}
		for last := 0; last <= 100; last += 5 {
			for p := 0; p <= 100; p += 5 {
				state := trigger.State{LastAt: at(0), LastProgress: float64(last) / 100}
				d := policy.Evaluate(progress(1000, float64(p)/100), state)
				want := p-last >= threshold
				if d.Fire != want {
					t.Fatalf("threshold=%d last=%d progress=%d: fire=%v want %v", threshold, last, p, d.Fire, want)
				}
			}
		}
	}
}

func TestDeltaIgnoresTime(t *testing.T) {
	policy := trigger.DeltaPolicy{Threshold: 0.1}
	d := policy.Evaluate(progress(86400, 0.05), trigger.State{LastAt: at(0)})
	if d.Fire {
		t.Fatal("delta policy must not fire on elapsed time")
	}
}

func TestDeltaToleratesFloatRounding(t *testing.T) {
	policy := trigger.DeltaPolicy{Threshold: 0.15}
	if d := policy.Evaluate(progress(1, 0.35), trigger.State{LastProgress: 0.2}); !d.Fire {
		t.Fatalf("0.35 after 0.2 should reach 0.15, got %s", d.Reason)
	}
	if d := policy.Evaluate(progress(1, 0.2+0.15-1e-6), trigger.State{LastProgress: 0.2}); d.Fire {
		t.Fatal("a delta 1e-6 below the threshold must not fire")
	}
}

func TestZeroThresholdAlwaysFires(t *testing.T) {
	policies := []trigger.Policy{
		trigger.IntervalPolicy{Interval: 0, Threshold: 0},
		trigger.IntervalPolicy{Interval: time.Hour, Threshold: 0},
		trigger.DeltaPolicy{Threshold: 0},
		trigger.DeltaPolicy{Threshold: -1},
	}
	state := trigger.State{LastAt: at(10), LastProgress: 0.5}
	for _, policy := range policies {
		d := policy.Evaluate(progress(10, 0.5), state)
		if !d.Fire || d.Reason != trigger.ReasonAlways {
			t.Fatalf("%T %+v: expected always fire, got %+v", policy, policy, d)
		}
	}
}

func TestBoundarySignalsAlwaysFire(t *testing.T) {
	policies := []trigger.Policy{
		trigger.IntervalPolicy{Interval: time.Hour, Threshold: 0.9},
		trigger.DeltaPolicy{Threshold: 0.9},
	}
	state := trigger.State{LastAt: at(100), LastProgress: 0.5}
	signals := []lifecycle.Signal{lifecycle.SignalInit, lifecycle.SignalStart, lifecycle.SignalError, lifecycle.SignalTerminate}
	for _, policy := range policies {
		for _, sig := range signals {
			d := policy.Evaluate(lifecycle.Event{Signal: sig, At: at(100)}, state)
			if !d.Fire {
				t.Fatalf("%s under %s: boundary signal suppressed", sig, policy.Name())
			}
		}
	}
}

func TestGateKeepsStateWhenSuppressed(t *testing.T) {
	gate := trigger.NewGate(trigger.DeltaPolicy{Threshold: 0.25})
	gate.Decide(lifecycle.Event{Signal: lifecycle.SignalStart, At: at(0)})
	for i, p := range []float64{0.1, 0.2, 0.24} {
		if gate.Decide(progress(float64(i+1), p)).Fire {
			t.Fatalf("progress %v should not fire", p)
		}
	}
	if gate.State().LastProgress != 0 || !gate.State().LastAt.Equal(at(0)) {
		t.Fatalf("state moved on suppressed signals: %+v", gate.State())
	}
	if !gate.Decide(progress(4, 0.25)).Fire {
		t.Fatal("expected fire once cumulative delta reaches threshold")
	}
}

func TestFromConfig(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{config.TriggerInterval, config.TriggerInterval},
		{"http", config.TriggerInterval},
		{config.TriggerDelta, config.TriggerDelta},
		{"socket", config.TriggerDelta},
	}
	for _, tt := range tests {
		policy, err := trigger.FromConfig(config.Trigger{Mode: tt.mode, IntervalSeconds: 5, Threshold: 0.1})
		if err != nil {
			t.Fatalf("mode %q: %v", tt.mode, err)
		}
		if policy.Name() != tt.want {
			t.Fatalf("mode %q: got %s want %s", tt.mode, policy.Name(), tt.want)
		}
	}
	if ip, _ := trigger.FromConfig(config.Trigger{Mode: "interval", IntervalSeconds: 2.5}); ip.(trigger.IntervalPolicy).Interval != 2500*time.Millisecond {
		t.Fatalf("unexpected interval: %+v", ip)
	}

	_, err := trigger.FromConfig(config.Trigger{Mode: "poll"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
