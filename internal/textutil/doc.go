// Package textutil provides the small text helpers shared by the bot: byte and
// duration formatting for status messages and captions, and sanitization of
// platform-supplied identifiers before they are used in file names.
//
// FormatSize and FormatDuration are pure and cheap; progress reporting calls
// them for every rendered status update.
package textutil
