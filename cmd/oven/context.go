package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"oven/internal/backends"
	"oven/internal/config"
	"oven/internal/format"
	"oven/internal/history"
	"oven/internal/logging"
	"oven/internal/metrics"
	"oven/internal/notifications"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// runtime bundles everything a notifying command needs.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	backends   backends.Set
	buildErrs  []error
	dispatcher *notifications.Dispatcher
	history    *history.Store
	host       string
}

func (c *commandContext) openRuntime(withHistory bool) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	set, buildErrs := backends.Build(cfg)
	for _, buildErr := range buildErrs {
		logging.WarnWithContext(logger, "backend disabled", "backend_config_invalid",
			logging.Error(buildErr),
			logging.String(logging.FieldErrorHint, "fix the [[backends]] entry or set disabled = true"),
			logging.String(logging.FieldImpact, "this backend receives no notifications"),
		)
	}

	rt := &runtime{
		cfg:       cfg,
		logger:    logger,
		backends:  set,
		buildErrs: buildErrs,
		host:      hostLabel(cfg),
	}
	rt.dispatcher = notifications.NewDispatcher(set,
		notifications.WithTimeout(cfg.Notifications.Timeout()),
		notifications.WithLogger(logger),
		notifications.WithObserver(metrics.ObserveResult),
	)

	if withHistory && cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check "+cfg.HistoryPath()),
				logging.String(logging.FieldImpact, "deliveries from this run are not journaled"),
			)
		} else {
			rt.history = store
		}
	}
	return rt, nil
}

func (r *runtime) Close() error {
	if r == nil || r.history == nil {
		return nil
	}
	return r.history.Close()
}

func hostLabel(cfg *config.Config) string {
	machine, err := os.Hostname()
	if err != nil {
		machine = ""
	}
	return format.HostLabel(cfg.Notifications.Host, machine)
}

// exitError carries a child process exit status up to main.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) (int, bool) {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code, true
	}
	return 0, false
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
