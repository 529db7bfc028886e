// Package transform runs the external transcoder that strips audio and
// subtitle streams from a video while copying the video stream untouched.
//
// The argument vector is fixed and paths are validated before the process is
// started; nothing is ever passed through a shell. Output from the child is
// kept in a bounded tail buffer so failures can be surfaced to the user.
package transform
