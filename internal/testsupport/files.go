package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fixtureHeader makes fixture files look like an MP4 ftyp box to anything
// that sniffs the first bytes.
var fixtureHeader = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}

// WriteFile creates path (and its parent) holding exactly size bytes.
// Sizes below one are bumped to one byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size < 1 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	body := append([]byte(nil), fixtureHeader...)
	if int64(len(body)) < size {
		body = append(body, bytes.Repeat([]byte{0x42}, int(size)-len(body))...)
	}
	if err := os.WriteFile(path, body[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Backdate sets the modification time of path to age ago.
func Backdate(t testing.TB, path string, age time.Duration) {
	t.Helper()
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
