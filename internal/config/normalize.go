package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTrigger()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeBackends()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTrigger() {
	mode := strings.ToLower(strings.TrimSpace(c.Trigger.Mode))
	switch mode {
	case "":
		mode = defaultTriggerMode
	case "http":
		mode = TriggerInterval
	case "socket":
		mode = TriggerDelta
	}
	c.Trigger.Mode = mode
}

func (c *Config) normalizeNotifications() {
	c.Notifications.Placeholder = strings.TrimSpace(c.Notifications.Placeholder)
	c.Notifications.Host = strings.TrimSpace(c.Notifications.Host)
	if c.Notifications.Host == "" {
		if host, err := os.Hostname(); err == nil {
			c.Notifications.Host = host
		}
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func (c *Config) normalizeBackends() {
	for i := range c.Backends {
		b := &c.Backends[i]
		b.Name = strings.TrimSpace(b.Name)
		b.Kind = strings.ToLower(strings.TrimSpace(b.Kind))
		if b.Kind == "" {
			b.Kind = strings.ToLower(b.Name)
		}
		b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
		b.Token = strings.TrimSpace(b.Token)
		b.Channel = strings.TrimSpace(b.Channel)
		b.APIKey = strings.TrimSpace(b.APIKey)
		b.Topic = strings.TrimSpace(b.Topic)
		b.From = strings.TrimSpace(b.From)
		for j := range b.To {
			b.To[j] = strings.TrimSpace(b.To[j])
		}

		switch b.Kind {
		case KindSlack:
			fillFromEnv(&b.Token, "SLACK_BOT_TOKEN")
			fillFromEnv(&b.Channel, "SLACK_CHANNEL_ID")
		case KindBark:
			fillFromEnv(&b.APIKey, "BARK_API_KEY")
			if b.AutoCopy == nil {
				autoCopy := true
				b.AutoCopy = &autoCopy
			}
		case KindNtfy:
			fillFromEnv(&b.Topic, "NTFY_TOPIC")
		case KindMail:
			fillFromEnv(&b.APIKey, "OVEN_MAIL_API_KEY")
		}
	}
}

func fillFromEnv(target *string, key string) {
	if *target != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = strings.TrimSpace(value)
	}
}
