package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamstrip/internal/config"
	"streamstrip/internal/textutil"
)

const userAgent = "streamstrip/0.1.0"

// JobSummary describes a finished pipeline job for operator notifications.
type JobSummary struct {
	JobID         string
	FileName      string
	OriginalSize  int64
	ProcessedSize int64
	Duration      time.Duration
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyJobCompleted(ctx context.Context, summary JobSummary) error
	NotifyJobFailed(ctx context.Context, summary JobSummary, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		completions: cfg.Notifications.Completions,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	completions bool
	errors      bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, summary JobSummary) error {
	if !n.completions {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Stripped: %s", displayName(summary.FileName))
	fmt.Fprintf(&b, "\n%s → %s", textutil.FormatSize(float64(summary.OriginalSize)), textutil.FormatSize(float64(summary.ProcessedSize)))
	if summary.Duration > 0 {
		fmt.Fprintf(&b, " in %s", textutil.FormatDuration(summary.Duration.Seconds()))
	}
	return n.send(ctx, payload{
		title:   "streamstrip - Complete",
		message: b.String(),
		tags:    []string{"streamstrip", "job", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, summary JobSummary, err error) error {
	if !n.errors {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "❌ Failed: %s: ", displayName(summary.FileName))
	if err != nil {
		b.WriteString(textutil.TruncateTail(strings.TrimSpace(err.Error()), 500))
	} else {
		b.WriteString("unknown")
	}
	if summary.JobID != "" {
		fmt.Fprintf(&b, "\nJob: %s", summary.JobID)
	}
	return n.send(ctx, payload{
		title:    "streamstrip - Error",
		message:  b.String(),
		tags:     []string{"streamstrip", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "streamstrip - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"streamstrip", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "video"
	}
	return name
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, JobSummary) error     { return nil }
func (noopService) NotifyJobFailed(context.Context, JobSummary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
