package trigger

import "oven/internal/lifecycle"

// Gate applies a Policy and owns the last-notified state. It is used by a
// single signal producer and is not safe for concurrent use.
type Gate struct {
	policy Policy
	state  State
}

// NewGate returns a gate for policy. A nil policy fires on every signal.
func NewGate(policy Policy) *Gate {
	if policy == nil {
		policy = DeltaPolicy{}
	}
	return &Gate{policy: policy}
}

// Decide evaluates ev and, when it fires, records ev as the last notification.
func (g *Gate) Decide(ev lifecycle.Event) Decision {
	d := g.policy.Evaluate(ev, g.state)
	if d.Fire {
		g.state = State{LastAt: ev.At, LastProgress: ev.Progress}
	}
	return d
}

// State returns the current bookkeeping.
func (g *Gate) State() State { return g.state }

// Policy returns the policy in use.
func (g *Gate) Policy() Policy { return g.policy }
