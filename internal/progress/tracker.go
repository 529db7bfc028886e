package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"streamstrip/internal/chat"
	"streamstrip/internal/logging"
)

// DefaultInterval is the minimum spacing between edits of one status message.
const DefaultInterval = 10 * time.Second

// Editor edits an existing status message in place.
type Editor interface {
	EditText(ctx context.Context, handle chat.StatusHandle, text string, keyboard chat.Keyboard) error
}

// Target identifies the status message a transfer reports into.
type Target struct {
	Handle    chat.StatusHandle
	StartedAt time.Time
	Stage     string
}

// Tracker turns transfer callbacks into throttled status edits.
type Tracker struct {
	editor   Editor
	interval time.Duration
	keyboard chat.Keyboard
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	last     map[string]time.Time
	samplers map[string]*logging.ProgressSampler
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithKeyboard attaches an inline keyboard to every progress edit.
func WithKeyboard(kb chat.Keyboard) Option {
	return func(t *Tracker) { t.keyboard = kb }
}

// WithLogger sets the logger used for edit failures and sampled progress.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker builds a tracker. A non-positive interval falls back to DefaultInterval.
func NewTracker(editor Editor, interval time.Duration, opts ...Option) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Tracker{
		editor:   editor,
		interval: interval,
		logger:   logging.NewNop(),
		now:      time.Now,
		last:     make(map[string]time.Time),
		samplers: make(map[string]*logging.ProgressSampler),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "progress")
	return t
}

// Report records a transfer observation and edits the status message when the
// handle's throttle window has elapsed. Edit failures are logged and dropped.
// It returns whether an edit was attempted.
func (t *Tracker) Report(ctx context.Context, current, total int64, target Target) bool {
	now := t.now()
	sample := Compute(current, total, now.Sub(target.StartedAt))
	key := target.Handle.Key()

	t.mu.Lock()
	last, seen := t.last[key]
	due := !seen || now.Sub(last) >= t.interval
	if due {
		t.last[key] = now
	}
	sampler := t.samplers[key]
	if sampler == nil {
		sampler = logging.NewProgressSampler(10)
		t.samplers[key] = sampler
	}
	logIt := sampler.ShouldLog(sample.Percent, target.Stage)
	t.mu.Unlock()

	logger := logging.WithContext(ctx, t.logger)
	if logIt {
		logger.Debug("transfer progress",
			logging.String(logging.FieldEventType, "transfer_progress"),
			logging.String("transfer_stage", target.Stage),
			logging.Float64("percent", sample.Percent),
			logging.Int64("current_bytes", current),
			logging.Int64("total_bytes", total),
		)
	}
	if !due || t.editor == nil {
		return false
	}

	if err := t.editor.EditText(ctx, target.Handle, Render(sample), t.keyboard); err != nil {
		logging.WarnWithContext(logger, "progress edit failed", "status_edit_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "chat API may be rate limiting edits; transfer continues"),
			logging.String(logging.FieldImpact, "status message shows stale progress"),
		)
	}
	return true
}

// Forget drops throttle state for a handle once its job has ended.
func (t *Tracker) Forget(handle chat.StatusHandle) {
	key := handle.Key()
	t.mu.Lock()
	delete(t.last, key)
	delete(t.samplers, key)
	t.mu.Unlock()
}

// Tracked reports how many handles currently hold throttle state.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

// Sink adapts the tracker into a chat.ProgressFunc bound to one target.
func (t *Tracker) Sink(ctx context.Context, target Target) chat.ProgressFunc {
	return func(current, total int64) {
		t.Report(ctx, current, total, target)
	}
}
