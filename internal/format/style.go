package format

import (
	"time"

	"oven/internal/lifecycle"
	"oven/internal/notifications"
)

// EmailTimeLayout is the subject timestamp used by the email style.
const EmailTimeLayout = "Mon 02 Jan 2006 03:04:05 PM MST"

// View is the channel-agnostic content of one notification.
type View struct {
	Signal      lifecycle.Signal
	Status      notifications.Status
	Label       string
	Elapsed     time.Duration
	ShowElapsed bool
	Aux         string
	Description string
	Host        string
	At          time.Time
}

// Style wraps a View in the conventions of one channel.
type Style interface {
	Channel() notifications.Channel
	Render(v View) notifications.Payload
}

// StyleFor returns the style used for a channel. Unknown channels render as
// plain push text.
func StyleFor(ch notifications.Channel) Style {
	switch ch {
	case notifications.ChannelChat:
		return ChatStyle{}
	case notifications.ChannelEmail:
		return EmailStyle{}
	default:
		return PushStyle{}
	}
}

func statusLine(v View, bold bool) string {
	label := v.Label
	if bold && label != "" {
		label = "*" + label + "*"
	}
	if !v.ShowElapsed {
		return label
	}
	return label + " ⏱️ " + Elapsed(v.Elapsed)
}

// ChatStyle renders Slack mrkdwn with the description as a blockquote.
type ChatStyle struct{}

func (ChatStyle) Channel() notifications.Channel { return notifications.ChannelChat }

func (ChatStyle) Render(v View) notifications.Payload {
	aux := v.Aux
	if v.Signal == lifecycle.SignalStart && aux != "" {
		aux = "`" + aux + "`"
	}
	return notifications.Payload{
		Title:  "Oven @ " + v.Host,
		Body:   Compose(statusLine(v, true), aux, Blockquote(v.Description)),
		Status: v.Status,
		At:     v.At,
	}
}

// PushStyle renders plain text with the status in the title.
type PushStyle struct{}

func (PushStyle) Channel() notifications.Channel { return notifications.ChannelPush }

func (PushStyle) Render(v View) notifications.Payload {
	return notifications.Payload{
		Title:  v.Label + " @ " + v.Host,
		Body:   Compose(statusLine(v, false), v.Aux, v.Description),
		Status: v.Status,
		At:     v.At,
	}
}

// EmailStyle renders a timestamped subject and a plain-text body.
type EmailStyle struct{}

func (EmailStyle) Channel() notifications.Channel { return notifications.ChannelEmail }

func (EmailStyle) Render(v View) notifications.Payload {
	return notifications.Payload{
		Title:  v.At.Format(EmailTimeLayout) + " @ " + v.Host,
		Body:   Compose(statusLine(v, false), v.Aux, v.Description),
		Status: v.Status,
		At:     v.At,
	}
}
