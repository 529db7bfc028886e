// Package progress computes transfer progress samples and turns them into
// throttled in-place status message edits, at most one per status message per
// interval.
package progress
