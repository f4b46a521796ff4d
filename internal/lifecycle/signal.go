package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Signal enumerates lifecycle events.
type Signal int

const (
	SignalInit Signal = iota
	SignalStart
	SignalProgress
	SignalError
	SignalTerminate
)

var signalNames = map[Signal]string{
	SignalInit:      "init",
	SignalStart:     "start",
	SignalProgress:  "progress",
	SignalError:     "error",
	SignalTerminate: "terminate",
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// Boundary reports whether the signal opens or closes a session. Boundary
// signals are never suppressed by trigger policies.
func (s Signal) Boundary() bool {
	return s != SignalProgress
}

// Terminal reports whether the signal ends a session.
func (s Signal) Terminal() bool {
	return s == SignalError || s == SignalTerminate
}

// ParseSignal maps a signal name back to its value.
func ParseSignal(value string) (Signal, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for sig, name := range signalNames {
		if name == value {
			return sig, true
		}
	}
	return 0, false
}

// Meta describes the host and command a session runs on. It is captured once
// at Init.
type Meta struct {
	SessionID string
	Host      string
	Command   string
}

// Event is one signal fed into the notification core.
type Event struct {
	Signal      Signal
	At          time.Time
	Description string
	// Progress is the completed fraction in [0, 1]. Only Progress signals
	// are gated on it.
	Progress float64
	// Err describes the failure for SignalError.
	Err error
	// Meta is only read for SignalInit.
	Meta Meta
}

// ErrorText returns the trimmed failure message carried by the event.
func (e Event) ErrorText() string {
	if e.Err == nil {
		return ""
	}
	return strings.TrimSpace(e.Err.Error())
}
