// Package chat defines the platform-neutral message, file transfer, and
// keyboard types shared by the bot and the pipeline. Platform clients live in
// subpackages.
package chat
