package mailer

import (
	"context"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"oven/internal/notifications"
	"oven/internal/services"
)

// DefaultBaseURL is the Resend API root.
const DefaultBaseURL = "https://api.resend.com"

// Config is the resolved configuration for one mail backend.
type Config struct {
	Name        string
	APIKey      string
	From        string
	To          []string
	BaseURL     string
	Placeholder string
	Timeout     time.Duration
}

// Backend sends plain-text email.
type Backend struct {
	name     string
	apiKey   string
	from     string
	to       []string
	baseURL  string
	endpoint string
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

// New validates cfg and returns a backend. From and every recipient must
// parse as RFC 5322 addresses.
func New(cfg Config, opts ...Option) (*Backend, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "mail"
	}
	key := strings.TrimSpace(cfg.APIKey)
	if services.IsPlaceholder(key, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "api_key is missing or unset (set OVEN_MAIL_API_KEY)", nil)
	}
	from := strings.TrimSpace(cfg.From)
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "invalid from address", err)
	}
	to := make([]string, 0, len(cfg.To))
	for _, addr := range cfg.To {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, name, "configure", "invalid recipient "+addr, err)
		}
		to = append(to, addr)
	}
	if len(to) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "at least one recipient is required", nil)
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
		apiKey:   key,
		from:     from,
		to:       to,
		baseURL:  base,
		endpoint: base + "/emails",
		client:   services.NewHTTPClient(cfg.Timeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) Channel() notifications.Channel { return notifications.ChannelEmail }

func (b *Backend) Describe() map[string]string {
	return map[string]string{
		"kind":     "mail",
		"base_url": b.baseURL,
		"from":     b.from,
		"to":       strings.Join(b.to, ", "),
		"api_key":  services.Truncate(b.apiKey),
	}
}

type response struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Notify sends payload with its title as the subject.
func (b *Backend) Notify(ctx context.Context, payload notifications.Payload) notifications.Result {
	body, err := notifications.CompactJSON(
		notifications.F("from", b.from),
		notifications.F("to", b.to),
		notifications.F("subject", payload.Title),
		notifications.F("text", payload.Body),
	)
	if err != nil {
		return notifications.Failure(b.name, err)
	}

	resp, err := services.PostJSON(ctx, b.client, b.endpoint, body, services.Authorization(b.apiKey))
	if err != nil {
		return notifications.Failuref(b.name, "mail request failed: %v", err)
	}
	var decoded response
	decodeErr := services.DecodeJSON(resp, &decoded)
	if !resp.OK() {
		if decodeErr == nil && decoded.Message != "" {
			return notifications.Failuref(b.name, "mail API returned %d: %s", resp.StatusCode, decoded.Message)
		}
		return notifications.Failuref(b.name, "mail API returned %d: %s", resp.StatusCode, resp.Snippet())
	}
	if decodeErr != nil {
		return notifications.Failuref(b.name, "mail: %v", decodeErr)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		reason := decoded.Message
		if reason == "" {
			reason = "response missing email id"
		}
		return notifications.Failuref(b.name, "mail API error: %s", reason)
	}
	return notifications.Success(b.name)
}
