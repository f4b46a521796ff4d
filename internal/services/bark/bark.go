package bark

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"oven/internal/notifications"
	"oven/internal/services"
)

// DefaultBaseURL is the public Bark server.
const DefaultBaseURL = "https://api.day.app"

var deviceKey = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)

// Config is the resolved configuration for one Bark backend.
type Config struct {
	Name        string
	APIKey      string
	BaseURL     string
	Placeholder string
	Timeout     time.Duration

	Sound    string
	Icon     string
	Group    string
	Level    string
	URL      string
	Badge    int
	AutoCopy bool
	Copy     string
}

// Backend pushes notifications to one Bark device key.
type Backend struct {
	name     string
	apiKey   string
	baseURL  string
	endpoint string
	extras   Config
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

// New validates cfg and returns a backend. The device key must be exactly 22
// alphanumeric characters.
func New(cfg Config, opts ...Option) (*Backend, error) {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "bark"
	}
	key := strings.TrimSpace(cfg.APIKey)
	if services.IsPlaceholder(key, cfg.Placeholder) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "api_key is missing or unset (set BARK_API_KEY)", nil)
	}
	if !deviceKey.MatchString(key) {
		return nil, services.Wrap(services.ErrConfiguration, name, "configure", "api_key must be 22 alphanumeric characters", nil)
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
		baseURL:  base,
		endpoint: base + "/" + key,
		extras:   cfg,
		client:   services.NewHTTPClient(cfg.Timeout),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Name() string { return b.name }

func (b *Backend) Channel() notifications.Channel { return notifications.ChannelPush }

func (b *Backend) Describe() map[string]string {
	return map[string]string{
		"kind":      "bark",
		"base_url":  b.baseURL,
		"api_key":   services.Truncate(b.apiKey),
		"sound":     b.extras.Sound,
		"group":     b.extras.Group,
		"auto_copy": strconv.FormatBool(b.extras.AutoCopy),
	}
}

type response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Notify pushes payload. Bark answers some errors with HTTP 200 and a
// non-200 code field, so the code field decides success.
func (b *Backend) Notify(ctx context.Context, payload notifications.Payload) notifications.Result {
	body, err := notifications.CompactJSON(b.fields(payload)...)
	if err != nil {
		return notifications.Failure(b.name, err)
	}

	resp, err := services.PostJSON(ctx, b.client, b.endpoint, body, nil)
	if err != nil {
		return notifications.Failuref(b.name, "bark request failed: %v", err)
	}
	var decoded response
	decodeErr := services.DecodeJSON(resp, &decoded)
	if !resp.OK() {
		if decodeErr == nil && decoded.Message != "" {
			return notifications.Failuref(b.name, "bark returned %d: %s", resp.StatusCode, decoded.Message)
		}
		return notifications.Failuref(b.name, "bark returned %d: %s", resp.StatusCode, resp.Snippet())
	}
	if decodeErr != nil {
		return notifications.Failuref(b.name, "bark: %v", decodeErr)
	}
	if decoded.Code != 200 {
		msg := decoded.Message
		if msg == "" {
			msg = "unknown Bark API error"
		}
		return notifications.Failuref(b.name, "bark API error %d: %s", decoded.Code, msg)
	}
	return notifications.Success(b.name)
}

func (b *Backend) fields(p notifications.Payload) []notifications.Field {
	level := b.extras.Level
	if level == "" && p.Status == notifications.StatusError {
		level = "timeSensitive"
	}
	var badge *int
	if b.extras.Badge > 0 {
		badge = &b.extras.Badge
	}
	var autoCopy *string
	if b.extras.AutoCopy {
		one := "1"
		autoCopy = &one
	}
	return []notifications.Field{
		notifications.F("title", p.Title),
		notifications.F("body", p.Body),
		notifications.F("sound", b.extras.Sound),
		notifications.F("icon", b.extras.Icon),
		notifications.F("group", b.extras.Group),
		notifications.F("level", level),
		notifications.F("url", b.extras.URL),
		notifications.F("badge", badge),
		notifications.F("autoCopy", autoCopy),
		notifications.F("copy", b.extras.Copy),
	}
}
