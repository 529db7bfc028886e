// Package botrun assembles the bot process: logger, instance lock, startup
// sweep, record store, Telegram client, pipeline, and dispatcher. It blocks
// until SIGINT/SIGTERM and waits for in-flight jobs before returning.
package botrun
