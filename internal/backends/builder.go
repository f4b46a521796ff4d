package backends

import (
	"fmt"

	"oven/internal/config"
	"oven/internal/notifications"
	"oven/internal/services"
	"oven/internal/services/bark"
	"oven/internal/services/mailer"
	"oven/internal/services/ntfy"
	"oven/internal/services/slack"
)

// Set is the ordered list of active backends.
type Set []notifications.Backend

// Names returns the backend names in order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, b := range s {
		names[i] = b.Name()
	}
	return names
}

// Option customizes Build.
type Option func(*builder)

type builder struct {
	client services.HTTPDoer
}

// WithHTTPClient makes every adapter use client.
func WithHTTPClient(client services.HTTPDoer) Option {
	return func(b *builder) { b.client = client }
}

// Build constructs every enabled backend. Each failure is returned as an
// error marked services.ErrConfiguration and excludes only that backend.
func Build(cfg *config.Config, opts ...Option) (Set, []error) {
	if cfg == nil {
		return nil, nil
	}
	var (
		set  Set
		errs []error
	)
	for _, entry := range cfg.ActiveBackends() {
		backend, err := New(entry, cfg.Notifications, opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set = append(set, backend)
	}
	return set, errs
}

// New constructs the adapter for a single entry regardless of its disabled
// flag.
func New(entry config.Backend, shared config.Notifications, opts ...Option) (notifications.Backend, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}
	timeout := shared.Timeout()
	placeholder := shared.Placeholder

	switch entry.Kind {
	case config.KindSlack:
		return checked(slack.New(slack.Config{
			Name:        entry.Name,
			Token:       entry.Token,
			Channel:     entry.Channel,
			BaseURL:     entry.BaseURL,
			Placeholder: placeholder,
			Timeout:     timeout,
		}, slack.WithHTTPClient(b.client)))
	case config.KindBark:
		return checked(bark.New(bark.Config{
			Name:        entry.Name,
			APIKey:      entry.APIKey,
			BaseURL:     entry.BaseURL,
			Placeholder: placeholder,
			Timeout:     timeout,
			Sound:       entry.Sound,
			Icon:        entry.Icon,
			Group:       entry.Group,
			Level:       entry.Level,
			URL:         entry.URL,
			Badge:       entry.Badge,
			AutoCopy:    entry.AutoCopy == nil || *entry.AutoCopy,
			Copy:        entry.Copy,
		}, bark.WithHTTPClient(b.client)))
	case config.KindNtfy:
		return checked(ntfy.New(ntfy.Config{
			Name:        entry.Name,
			Topic:       entry.Topic,
			Token:       entry.Token,
			BaseURL:     entry.BaseURL,
			Placeholder: placeholder,
			Timeout:     timeout,
		}, ntfy.WithHTTPClient(b.client)))
	case config.KindMail:
		return checked(mailer.New(mailer.Config{
			Name:        entry.Name,
			APIKey:      entry.APIKey,
			From:        entry.From,
			To:          entry.To,
			BaseURL:     entry.BaseURL,
			Placeholder: placeholder,
			Timeout:     timeout,
		}, mailer.WithHTTPClient(b.client)))
	default:
		return nil, services.Wrap(services.ErrConfiguration, entry.Name, "configure",
			fmt.Sprintf("unknown backend kind %q", entry.Kind), nil)
	}
}

// checked drops the typed-nil adapter that accompanies a constructor error.
func checked(b notifications.Backend, err error) (notifications.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
