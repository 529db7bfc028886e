// Package config loads, normalizes, and validates streamstrip configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STREAMSTRIP_BOT_TOKEN. The Config type centralizes every knob the bot and
// CLI need: chat credentials, working directories, transcoder settings, stage
// timeouts, concurrency, notifications, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
