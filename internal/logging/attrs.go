package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"streamstrip/internal/services"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func Args(attrs ...Attr) []any {
	return attrsToArgs(attrs)
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey returns true if any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// eventDefaults supplies error_hint and impact for event types whose call
// sites leave them out. Keys are matched as event type prefixes.
var eventDefaults = []struct {
	prefix string
	hint   string
	impact string
}{
	{"status_edit", "check Bot API reachability and the bot's rights in the chat", "user sees a stale status message"},
	{"reply", "check Bot API reachability and the bot's rights in the chat", "user did not receive a reply"},
	{"updates", "check bot_token and network access to the Bot API", "no new videos are received"},
	{"transform", "inspect the ffmpeg diagnostic; the input may be corrupt or not a video", "video was not processed"},
	{"job_cleanup", "check downloads directory permissions", "stale file occupies disk space"},
	{"startup_sweep", "check downloads directory permissions", "stale file occupies disk space"},
	{"download_sweep", "check downloads directory permissions", "stale file occupies disk space"},
	{"link_", "check the record database under data_dir", "link command did not complete"},
	{"dependency", "install the binary or set its path under [transform]", "videos will fail in the transform stage"},
	{"job_failed", "see error_kind and the error field", "user received a failure status"},
}

func defaultsFor(eventType string) (hint, impact string) {
	for _, d := range eventDefaults {
		if strings.HasPrefix(eventType, d.prefix) {
			return d.hint, d.impact
		}
	}
	return "check logs for details", "operation continued"
}

// withEventFields fills event_type, error_hint, impact, and error_kind when
// the caller did not set them. error_kind is derived from the first error attr.
func withEventFields(eventType string, attrs []Attr) []Attr {
	hint, impact := defaultsFor(eventType)
	if !HasAttrKey(attrs, FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !HasAttrKey(attrs, FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, hint))
	}
	if !HasAttrKey(attrs, FieldImpact) {
		attrs = append(attrs, String(FieldImpact, impact))
	}
	if !HasAttrKey(attrs, FieldErrorKind) {
		for _, a := range attrs {
			if a.Key != "error" {
				continue
			}
			if err, ok := a.Value.Any().(error); ok {
				if kind := services.KindOf(err); kind != services.KindNone {
					attrs = append(attrs, String(FieldErrorKind, string(kind)))
				}
			}
			break
		}
	}
	return attrs
}

// WarnWithContext logs a warning carrying event_type, error_hint, impact, and
// (for errors) error_kind, defaulting whichever the caller omitted.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Warn(msg, Args(withEventFields(eventType, attrs)...)...)
}

// ErrorWithContext is WarnWithContext at error level.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	logger.Error(msg, Args(withEventFields(eventType, attrs)...)...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
