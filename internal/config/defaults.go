package config

const (
	defaultConfigPath      = "~/.config/oven/config.toml"
	defaultStateDir        = "~/.local/share/oven"
	defaultLogDir          = "~/.local/share/oven/logs"
	defaultTriggerMode     = TriggerInterval
	defaultIntervalSeconds = 60
	defaultThreshold       = 0.1
	defaultRequestTimeout  = 10
	defaultPlaceholder     = "unset"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 14
	defaultHistoryEnabled  = true
)

// Trigger modes.
const (
	TriggerInterval = "interval"
	TriggerDelta    = "delta"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Trigger: Trigger{
			Mode:            defaultTriggerMode,
			IntervalSeconds: defaultIntervalSeconds,
			Threshold:       defaultThreshold,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Placeholder:    defaultPlaceholder,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
	}
}
