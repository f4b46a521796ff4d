package trigger

import (
	"fmt"
	"time"

	"oven/internal/config"
	"oven/internal/lifecycle"
	"oven/internal/services"
)

// epsilon absorbs float noise when comparing progress deltas, so 0.35-0.2
// still counts as reaching a 0.15 threshold.
const epsilon = 1e-9

// Decision reasons.
const (
	ReasonBoundary      = "lifecycle boundary"
	ReasonAlways        = "threshold disabled"
	ReasonInterval      = "interval elapsed"
	ReasonThreshold     = "progress threshold reached"
	ReasonBelow         = "below threshold"
	ReasonBelowInterval = "interval not elapsed and below threshold"
)

// Decision is the gating verdict for one signal.
type Decision struct {
	Fire   bool
	Reason string
}

// State is the bookkeeping of the last notification that fired.
type State struct {
	LastAt       time.Time
	LastProgress float64
}

// Policy evaluates whether a signal should produce a notification.
type Policy interface {
	Name() string
	Evaluate(ev lifecycle.Event, state State) Decision
}

// IntervalPolicy fires on elapsed >= Interval or progress delta >= Threshold.
type IntervalPolicy struct {
	Interval  time.Duration
	Threshold float64
}

func (IntervalPolicy) Name() string { return config.TriggerInterval }

func (p IntervalPolicy) Evaluate(ev lifecycle.Event, state State) Decision {
	if ev.Signal.Boundary() {
		return Decision{Fire: true, Reason: ReasonBoundary}
	}
	if p.Threshold <= 0 {
		return Decision{Fire: true, Reason: ReasonAlways}
	}
	if state.LastAt.IsZero() || ev.At.Sub(state.LastAt) >= p.Interval {
		return Decision{Fire: true, Reason: ReasonInterval}
	}
	if reached(ev.Progress, state.LastProgress, p.Threshold) {
		return Decision{Fire: true, Reason: ReasonThreshold}
	}
	return Decision{Fire: false, Reason: ReasonBelowInterval}
}

// DeltaPolicy fires only when progress moved by at least Threshold. Time is
// ignored. A delta up to 1e-9 below Threshold also counts as reached, so a
// move that is exactly Threshold in decimal fires despite float rounding.
type DeltaPolicy struct {
	Threshold float64
}

func (DeltaPolicy) Name() string { return config.TriggerDelta }

func (p DeltaPolicy) Evaluate(ev lifecycle.Event, state State) Decision {
	if ev.Signal.Boundary() {
		return Decision{Fire: true, Reason: ReasonBoundary}
	}
	if p.Threshold <= 0 {
		return Decision{Fire: true, Reason: ReasonAlways}
	}
	if reached(ev.Progress, state.LastProgress, p.Threshold) {
		return Decision{Fire: true, Reason: ReasonThreshold}
	}
	return Decision{Fire: false, Reason: ReasonBelow}
}

// reached reports progress-last >= threshold, tolerating epsilon below it.
func reached(progress, last, threshold float64) bool {
	return progress-last >= threshold-epsilon
}

// FromConfig builds the policy selected by trigger.mode.
func FromConfig(cfg config.Trigger) (Policy, error) {
	switch cfg.Mode {
	case config.TriggerInterval, "http", "":
		return IntervalPolicy{Interval: cfg.Interval(), Threshold: cfg.Threshold}, nil
	case config.TriggerDelta, "socket":
		return DeltaPolicy{Threshold: cfg.Threshold}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "trigger", "policy",
			fmt.Sprintf("unsupported mode %q", cfg.Mode), nil)
	}
}
