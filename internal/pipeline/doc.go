// Package pipeline runs the per-video job: post a status message, download
// with throttled progress, verify the size, strip streams with ffmpeg, upload
// the result, persist a completion record, and remove local files.
//
// Every job ends in either StateDone or StateFailed. Failures, including
// panics, are caught at the job boundary, turned into a status edit and an
// operator notification, and followed by cleanup.
package pipeline
