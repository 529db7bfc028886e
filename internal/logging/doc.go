// Package logging builds the slog loggers used across streamstrip: a
// human-oriented console handler that lifts the component and short job id
// into the line prefix, a JSON handler for shipping, and attribute helpers
// that keep event_type, error_hint, and impact fields consistent.
//
// WithContext copies the job id, stage, and correlation id that the pipeline
// stores on its context into the logger, so call sites only pass the ctx.
package logging
