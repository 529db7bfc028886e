// Package preflight verifies the runtime environment: directory permissions,
// free disk space ahead of a download, and the external binaries the
// transform stage needs. Both the bot and the status command use it.
package preflight
