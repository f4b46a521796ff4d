package slack

import (
	"context"
	"net/url"
	"strings"
	"time"

	"oven/internal/notifications"
	"oven/internal/services"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Config is the resolved configuration for one Slack backend.
type Config struct {
	Name        string
	Token       string
	Channel     string
	BaseURL     string
	Placeholder string
	Timeout     time.Duration
}

// Backend posts messages to one Slack channel.
type Backend struct {
	name     string
	token    string
	channel  string
	endpoint string
	baseURL  string
	client   services.HTTPDoer
}

// Option customizes a Backend.
type Option func(*Backend)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client services.HTTPDoer) Option {
	return func(b *Backend) {
		if client != nil {
			b.client = client
		}
	}
}

// New validates cfg and returns a backend. Missing or placeholder
// credentials yield an error marked services.ErrConfiguration.
func New(cfg Config, opts ...Option) (*Backend, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "slack"
	}
	token := strings.TrimSpace(cfg.Token)
	if services.IsPlaceholder(token, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "token is missing or unset (set SLACK_BOT_TOKEN)", nil)
	}
	channel := strings.TrimSpace(cfg.Channel)
	if services.IsPlaceholder(channel, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "channel is missing or unset (set SLACK_CHANNEL_ID)", nil)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "invalid base_url", err)
	}

	b := &Backend{
		name:     name,
		token:    token,
		channel:  channel,
		baseURL:  base,
		endpoint: base + "/chat.postMessage",
		client:   services.NewHTTPClient(cfg.Timeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) Channel() notifications.Channel { return notifications.ChannelChat }

func (b *Backend) Describe() map[string]string {
	return map[string]string{
		"kind":     "slack",
		"base_url": b.baseURL,
		"channel":  b.channel,
		"token":    services.Truncate(b.token),
	}
}

type response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Warning string `json:"warning"`
}

// Notify posts payload as one message. Slack reports most failures inside a
// 200 response, so the ok flag decides success.
func (b *Backend) Notify(ctx context.Context, payload notifications.Payload) notifications.Result {
	body, err := notifications.CompactJSON(
		notifications.F("channel", b.channel),
		notifications.F("text", messageText(payload)),
		notifications.F("mrkdwn", true),
	)
	if err != nil {
		return notifications.Failure(b.name, err)
	}

	resp, err := services.PostJSON(ctx, b.client, b.endpoint, body, services.Authorization(b.token))
	if err != nil {
		return notifications.Failuref(b.name, "slack request failed: %v", err)
	}
	if !resp.OK() {
		return notifications.Failuref(b.name, "slack returned %d: %s", resp.StatusCode, resp.Snippet())
	}
	var decoded response
	if err := services.DecodeJSON(resp, &decoded); err != nil {
		return notifications.Failuref(b.name, "slack: %v", err)
	}
	if !decoded.OK {
		reason := decoded.Error
		if reason == "" {
			reason = "unknown error"
		}
		return notifications.Failuref(b.name, "slack API error: %s", reason)
	}
	return notifications.Success(b.name)
}

func messageText(p notifications.Payload) string {
	title := strings.TrimSpace(p.Title)
	body := strings.TrimSpace(p.Body)
	switch {
	case title == "":
		return body
	case body == "":
		return "*" + title + "*"
	default:
		return "*" + title + "*\n\n" + body
	}
}
