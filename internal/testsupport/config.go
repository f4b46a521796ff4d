package testsupport

import (
	"path/filepath"
	"testing"

	"oven/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Notifications.Host = "test-host"
	cfgVal.Notifications.RequestTimeout = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend appends a backend entry to the test config.
func WithBackend(b config.Backend) ConfigOption {
	return func(cb *configBuilder) {
		if b.Kind == "" {
			b.Kind = b.Name
		}
		cb.cfg.Backends = append(cb.cfg.Backends, b)
	}
}

// WithTrigger overrides the trigger settings.
func WithTrigger(mode string, intervalSeconds, threshold float64) ConfigOption {
	return func(cb *configBuilder) {
		cb.cfg.Trigger = config.Trigger{Mode: mode, IntervalSeconds: intervalSeconds, Threshold: threshold}
	}
}
