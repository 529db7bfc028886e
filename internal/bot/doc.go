// Package bot turns inbound chat events into work: forwarded videos go to the
// pipeline, bounded by a weighted semaphore, and slash commands (/start, /add,
// /list) are answered directly.
package bot
