package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamstrip/internal/chat"
)

type recordingEditor struct {
	mu    sync.Mutex
	edits []chat.StatusHandle
	texts []string
	err   error
}

func (r *recordingEditor) EditText(_ context.Context, handle chat.StatusHandle, text string, _ chat.Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, handle)
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recordingEditor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.edits)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(editor Editor) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewTracker(editor, 10*time.Second, WithClock(clock.now)), clock
}

func TestTrackerFirstReportAlwaysFires(t *testing.T) {
	editor := &recordingEditor{}
	tracker, clock := newTestTracker(editor)
	target := Target{Handle: chat.StatusHandle{ChatID: 1, MessageID: 2}, StartedAt: clock.t}

	if !tracker.Report(context.Background(), 0, 100, target) {
		t.Fatal("first report should edit")
	}
	if editor.count() != 1 {
		t.Fatalf("edits = %d, want 1", editor.count())
	}
}

func TestTrackerThrottlesWithinWindow(t *testing.T) {
	editor := &recordingEditor{}
	tracker, clock := newTestTracker(editor)
	target := Target{Handle: chat.StatusHandle{ChatID: 1, MessageID: 2}, StartedAt: clock.t}
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		tracker.Report(ctx, int64(i), 100, target)
		clock.advance(time.Second)
	}
	// reports at t=0..19s with a 10s window: edits at 0s and 10s
	if editor.count() != 2 {
		t.Fatalf("edits = %d, want 2", editor.count())
	}
}

func TestTrackerHandlesAreIndependent(t *testing.T) {
	editor := &recordingEditor{}
	tracker, clock := newTestTracker(editor)
	ctx := context.Background()
	a := Target{Handle: chat.StatusHandle{ChatID: 1, MessageID: 1}, StartedAt: clock.t}
	b := Target{Handle: chat.StatusHandle{ChatID: 1, MessageID: 2}, StartedAt: clock.t}

	tracker.Report(ctx, 1, 10, a)
	tracker.Report(ctx, 1, 10, b)
	tracker.Report(ctx, 2, 10, a)
	tracker.Report(ctx, 2, 10, b)

	if editor.count() != 2 {
		t.Fatalf("edits = %d, want one per handle", editor.count())
	}
	if tracker.Tracked() != 2 {
		t.Fatalf("Tracked = %d, want 2", tracker.Tracked())
	}
}

func TestTrackerSwallowsEditFailures(t *testing.T) {
	editor := &recordingEditor{err: errors.New("message is not modified")}
	tracker, clock := newTestTracker(editor)
	target := Target{Handle: chat.StatusHandle{ChatID: 3, MessageID: 4}, StartedAt: clock.t}

	if !tracker.Report(context.Background(), 10, 100, target) {
		t.Fatal("expected edit attempt")
	}
	clock.advance(time.Second)
	if tracker.Report(context.Background(), 20, 100, target) {
		t.Fatal("failed attempt should still start the throttle window")
	}
}

func TestTrackerForgetResetsHandle(t *testing.T) {
	editor := &recordingEditor{}
	tracker, clock := newTestTracker(editor)
	target := Target{Handle: chat.StatusHandle{ChatID: 5, MessageID: 6}, StartedAt: clock.t}
	ctx := context.Background()

	tracker.Report(ctx, 1, 10, target)
	tracker.Forget(target.Handle)
	if tracker.Tracked() != 0 {
		t.Fatalf("Tracked = %d after Forget", tracker.Tracked())
	}
	if !tracker.Report(ctx, 2, 10, target) {
		t.Fatal("report after Forget should fire immediately")
	}
}

func TestTrackerSinkConcurrentUse(t *testing.T) {
	editor := &recordingEditor{}
	tracker := NewTracker(editor, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sink := tracker.Sink(ctx, Target{Handle: chat.StatusHandle{ChatID: int64(id), MessageID: 1}, StartedAt: time.Now()})
			for j := 0; j < 50; j++ {
				sink(int64(j), 50)
			}
		}(i)
	}
	wg.Wait()
	if editor.count() != 8 {
		t.Fatalf("edits = %d, want exactly one per handle", editor.count())
	}
}
