package transform

import (
	"errors"
	"strings"
	"testing"

	"streamstrip/internal/services"
)

func TestTailBufferKeepsTail(t *testing.T) {
	b := newTailBuffer(8)
	_, _ = b.Write([]byte("0123456789"))
	_, _ = b.Write([]byte("ab"))
	if got := b.String(); got != "…456789ab" {
		t.Fatalf("String = %q", got)
	}
}

func TestExitErrorMatchesMarker(t *testing.T) {
	err := error(&ExitError{Code: 2, Diagnostic: "boom"})
	if !errors.Is(err, services.ErrTransformFailure) {
		t.Fatal("ExitError should match ErrTransformFailure")
	}
	if errors.Is(err, services.ErrTimeout) {
		t.Fatal("ExitError should not match ErrTimeout")
	}
	if !strings.Contains(err.Error(), "code 2: boom") {
		t.Fatalf("Error = %q", err.Error())
	}
}
