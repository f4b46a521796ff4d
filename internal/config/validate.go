package config

import (
	"errors"
	"fmt"
	"math"
)

// Validate ensures the configuration is usable. Backend credentials are not
// checked here; adapters reject bad credentials at construction so that only
// the affected backend is dropped.
func (c *Config) Validate() error {
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTrigger() error {
	switch c.Trigger.Mode {
	case TriggerInterval, TriggerDelta:
	default:
		return fmt.Errorf("trigger.mode: unsupported value %q (want interval or delta)", c.Trigger.Mode)
	}
	if math.IsNaN(c.Trigger.Threshold) || math.IsInf(c.Trigger.Threshold, 0) {
		return errors.New("trigger.threshold must be a finite number")
	}
	if c.Trigger.Mode == TriggerInterval && c.Trigger.IntervalSeconds <= 0 {
		return errors.New("trigger.interval_seconds must be positive in interval mode")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation values must not be negative")
	}
	return nil
}

func (c *Config) validateBackends() error {
	seen := make(map[string]struct{}, len(c.Backends))
	for i, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("backends[%d].name must be set", i)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("backends[%d].name %q is duplicated", i, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}
