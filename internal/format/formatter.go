package format

import (
	"time"

	"oven/internal/lifecycle"
	"oven/internal/notifications"
)

// Status labels.
const (
	LabelStarted = "🔥 Started"
	LabelRunning = "🏃 Running"
	LabelError   = "❌ Error"
	LabelDone    = "🔔 Done"
	LabelInfo    = "📝 Log"
)

// Session is the state a Formatter accumulates for one tracked process.
type Session struct {
	ID          string
	Host        string
	Command     string
	StartedAt   time.Time
	Description string
}

// Formatter turns lifecycle events into payloads for one channel. It is owned
// by a single signal producer.
type Formatter struct {
	style   Style
	phase   lifecycle.Phase
	clock   lifecycle.Clock
	session Session
}

// New returns a formatter in the Uninitialized phase.
func New(style Style) *Formatter {
	if style == nil {
		style = PushStyle{}
	}
	return &Formatter{style: style}
}

// Channel reports the channel this formatter renders for.
func (f *Formatter) Channel() notifications.Channel { return f.style.Channel() }

// Phase reports the current lifecycle phase.
func (f *Formatter) Phase() lifecycle.Phase { return f.phase }

// Session returns a copy of the accumulated session.
func (f *Formatter) Session() Session { return f.session }

// Apply advances the state machine with ev. Init produces no payload. Signals
// that are not allowed in the current phase, or that move backwards in time,
// return an error marked services.ErrInvalidTransition and leave the
// formatter unchanged.
func (f *Formatter) Apply(ev lifecycle.Event) (notifications.Payload, bool, error) {
	next, err := lifecycle.Next(f.phase, ev.Signal)
	if err != nil {
		return notifications.Payload{}, false, err
	}
	if err := f.clock.Advance(ev.Signal, ev.At); err != nil {
		return notifications.Payload{}, false, err
	}
	f.phase = next

	if ev.Description != "" {
		f.session.Description = ev.Description
	}

	v := View{
		Signal:      ev.Signal,
		Host:        f.session.Host,
		At:          ev.At,
		Elapsed:     ev.At.Sub(f.session.StartedAt),
		ShowElapsed: true,
	}

	switch ev.Signal {
	case lifecycle.SignalInit:
		f.session.ID = ev.Meta.SessionID
		f.session.Host = ev.Meta.Host
		f.session.Command = ev.Meta.Command
		return notifications.Payload{}, false, nil
	case lifecycle.SignalStart:
		f.session.StartedAt = ev.At
		v.Status = notifications.StatusRunning
		v.Label = LabelStarted
		v.ShowElapsed = false
		v.Elapsed = 0
		v.Aux = f.session.Command
	case lifecycle.SignalProgress:
		v.Status = notifications.StatusRunning
		v.Label = LabelRunning
		v.Aux = Percent(ev.Progress)
	case lifecycle.SignalError:
		v.Status = notifications.StatusError
		v.Label = LabelError
		v.Aux = ev.ErrorText()
	case lifecycle.SignalTerminate:
		v.Status = notifications.StatusDone
		v.Label = LabelDone
	}
	v.Description = f.session.Description

	return f.style.Render(v), true, nil
}

// Message renders a one-off log message outside any session.
func Message(style Style, host string, at time.Time, msg string) notifications.Payload {
	if style == nil {
		style = PushStyle{}
	}
	return style.Render(View{
		Status:      notifications.StatusInfo,
		Label:       LabelInfo,
		Description: msg,
		Host:        host,
		At:          at,
	})
}
