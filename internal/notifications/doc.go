// Package notifications delivers operator alerts about pipeline jobs.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when notifications are disabled. The
// pipeline depends only on the small Service interface.
package notifications
