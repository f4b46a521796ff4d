package lifecycle

import (
	"fmt"
	"time"

	"oven/internal/services"
)

// Phase is the position of a session in its lifecycle.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseIdle
	PhaseRunning
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Next returns the phase reached by applying sig in phase p. Any signal not
// allowed in p yields an error marked services.ErrInvalidTransition.
func Next(p Phase, sig Signal) (Phase, error) {
	switch {
	case p == PhaseUninitialized && sig == SignalInit:
		return PhaseIdle, nil
	case p == PhaseIdle && sig == SignalStart:
		return PhaseRunning, nil
	case p == PhaseRunning && sig == SignalProgress:
		return PhaseRunning, nil
	case p == PhaseRunning && sig.Terminal():
		return PhaseTerminated, nil
	}
	return p, services.Wrap(services.ErrInvalidTransition, "lifecycle", sig.String(), "not allowed while "+p.String(), nil)
}

// Clock tracks the last accepted timestamp of a session so that callers can
// reject events that move backwards in time.
type Clock struct {
	last time.Time
}

// Advance accepts at when it is not earlier than the previously accepted
// timestamp.
func (c *Clock) Advance(sig Signal, at time.Time) error {
	if !c.last.IsZero() && at.Before(c.last) {
		msg := fmt.Sprintf("timestamp %s precedes %s", at.Format(time.RFC3339Nano), c.last.Format(time.RFC3339Nano))
		return services.Wrap(services.ErrInvalidTransition, "lifecycle", sig.String(), msg, nil)
	}
	c.last = at
	return nil
}

// Last returns the most recently accepted timestamp.
func (c *Clock) Last() time.Time {
	return c.last
}
