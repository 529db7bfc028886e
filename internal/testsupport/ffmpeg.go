package testsupport

import (
	"fmt"
	"testing"
)

// FFmpegFailing is a stub body that prints a diagnostic and exits 1.
const FFmpegFailing = "echo 'Invalid data found when processing input' >&2\nexit 1\n"

// FFmpegSleeping is a stub body that never finishes on its own.
const FFmpegSleeping = "exec sleep 30\n"

// FFmpegWriting returns a stub body that writes size bytes to the final
// argument (the output path) and records its argv to argsFile when set.
func FFmpegWriting(size int64, argsFile string) string {
	record := ""
	if argsFile != "" {
		record = fmt.Sprintf("printf '%%s\\n' \"$@\" > %q\n", argsFile)
	}
	return record + fmt.Sprintf("for last; do :; done\nhead -c %d /dev/zero > \"$last\"\n", size)
}

// StubFFmpeg installs an ffmpeg stub with body on a fresh PATH entry.
func StubFFmpeg(t testing.TB, body string) {
	t.Helper()
	WriteScript(t, BinDir(t, t.TempDir()), "ffmpeg", body)
}
