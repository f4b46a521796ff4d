package ntfy

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"oven/internal/notifications"
	"oven/internal/services"
)

// DefaultBaseURL is the public ntfy server.
const DefaultBaseURL = "https://ntfy.sh"

const priorityHigh = 4

var topicPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Config is the resolved configuration for one ntfy backend.
type Config struct {
	Name        string
	Topic       string
	Token       string
	BaseURL     string
	Placeholder string
	Timeout     time.Duration
}

// Backend publishes to one ntfy topic.
type Backend struct {
	name    string
	topic   string
	token   string
	baseURL string
	client  services.HTTPDoer
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

// New validates cfg and returns a backend.
func New(cfg Config, opts ...Option) (*Backend, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "ntfy"
	}
	topic := strings.TrimSpace(cfg.Topic)
	if services.IsPlaceholder(topic, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "topic is missing or unset (set NTFY_TOPIC)", nil)
	}
	if !topicPattern.MatchString(topic) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "topic must be 1-64 letters, digits, '-' or '_'", nil)
	}
	token := strings.TrimSpace(cfg.Token)
	if token != "" && services.IsPlaceholder(token, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "token still holds the placeholder value", nil)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "invalid base_url", err)
	}

	b := &Backend{
		name:    name,
		topic:   topic,
		token:   token,
		baseURL: base,
		client:  services.NewHTTPClient(cfg.Timeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) Channel() notifications.Channel { return notifications.ChannelPush }

func (b *Backend) Describe() map[string]string {
	d := map[string]string{
		"kind":     "ntfy",
		"base_url": b.baseURL,
		"topic":    b.topic,
	}
	if b.token != "" {
		d["token"] = services.Truncate(b.token)
	}
	return d
}

type response struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Notify publishes payload. A published message always carries an id.
func (b *Backend) Notify(ctx context.Context, payload notifications.Payload) notifications.Result {
	tags, priority := decorate(payload.Status)
	var prio *int
	if priority > 0 {
		prio = &priority
	}
	body, err := notifications.CompactJSON(
		notifications.F("topic", b.topic),
		notifications.F("title", payload.Title),
		notifications.F("message", payload.Body),
		notifications.F("tags", tags),
		notifications.F("priority", prio),
	)
	if err != nil {
		return notifications.Failure(b.name, err)
	}

	var headers map[string]string
	if b.token != "" {
		headers = services.Authorization(b.token)
	}
	resp, err := services.PostJSON(ctx, b.client, b.baseURL, body, headers)
	if err != nil {
		return notifications.Failuref(b.name, "ntfy request failed: %v", err)
	}
	var decoded response
	decodeErr := services.DecodeJSON(resp, &decoded)
	if !resp.OK() {
		if decodeErr == nil && decoded.Error != "" {
			return notifications.Failuref(b.name, "ntfy returned %d: %s", resp.StatusCode, decoded.Error)
		}
		return notifications.Failuref(b.name, "ntfy returned %d: %s", resp.StatusCode, resp.Snippet())
	}
	if decodeErr != nil {
		return notifications.Failuref(b.name, "ntfy: %v", decodeErr)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return notifications.Failuref(b.name, "ntfy response missing message id")
	}
	return notifications.Success(b.name)
}

func decorate(status notifications.Status) ([]string, int) {
	switch status {
	case notifications.StatusError:
		return []string{"oven", "x"}, priorityHigh
	case notifications.StatusDone:
		return []string{"oven", "bell"}, 0
	case notifications.StatusRunning:
		return []string{"oven", "runner"}, 0
	default:
		return []string{"oven"}, 0
	}
}
