// Package services defines shared utilities consumed by the pipeline and its
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper and KindOf classifier that
//     turn failures into consistent user-facing reports.
//
// Use these helpers when wiring new pipeline logic so failure reporting and
// observability stay uniform across stages.
package services
