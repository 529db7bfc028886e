// Package staging manages files in the downloads directory: per-job removal
// and the sweep that reclaims files left behind by a crashed process.
package staging
