// Package config loads, normalizes, and validates oven configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SLACK_BOT_TOKEN and BARK_API_KEY. The Config type centralizes every knob the
// tracker, backends, and CLI need, so trigger settings and backend
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical trigger modes, and clear validation errors.
// Backend credentials are resolved here but checked by the adapters
// themselves, so one bad backend never blocks the others.
package config
