// Command streamstrip runs the stream-stripping Telegram bot and offers
// operator utilities: configuration scaffolding, completion history, health
// checks, manual sweeps, and local one-off strips.
package main
