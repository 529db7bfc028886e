package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"streamstrip/internal/chat"
	"streamstrip/internal/config"
	"streamstrip/internal/logging"
	"streamstrip/internal/pipeline"
	"streamstrip/internal/records"
	"streamstrip/internal/services"
)

// JobProcessor runs one video through the pipeline.
type JobProcessor interface {
	Process(ctx context.Context, event chat.VideoEvent) *pipeline.Job
}

// LinkStore keeps each user's ordered link list.
type LinkStore interface {
	AddLink(ctx context.Context, userID int64, raw string) (records.Link, error)
	Links(ctx context.Context, userID int64) ([]records.Link, error)
}

// markdownSender is implemented by clients that can render Markdown.
type markdownSender interface {
	SendMarkdown(ctx context.Context, chatID int64, replyTo int, text string, keyboard chat.Keyboard) (chat.StatusHandle, error)
}

// Dependencies bundles the dispatcher's collaborators.
type Dependencies struct {
	Messenger chat.Messenger
	Processor JobProcessor
	Links     LinkStore
	Logger    *slog.Logger
}

// Dispatcher routes inbound events: videos to the pipeline under a
// concurrency bound, commands to their handlers.
type Dispatcher struct {
	messenger        chat.Messenger
	processor        JobProcessor
	links            LinkStore
	logger           *slog.Logger
	sem              *semaphore.Weighted
	requireForwarded bool
	ownerURL         string

	wg sync.WaitGroup
}

// New builds a dispatcher.
func New(cfg *config.Config, deps Dependencies) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("bot: config is nil")
	}
	if deps.Messenger == nil || deps.Processor == nil || deps.Links == nil {
		return nil, errors.New("bot: messenger, processor, and link store are required")
	}
	workers := cfg.Workers.MaxConcurrentJobs
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		messenger:        deps.Messenger,
		processor:        deps.Processor,
		links:            deps.Links,
		logger:           logging.NewComponentLogger(deps.Logger, "dispatcher"),
		sem:              semaphore.NewWeighted(int64(workers)),
		requireForwarded: cfg.Telegram.RequireForwarded,
		ownerURL:         strings.TrimSpace(cfg.Telegram.OwnerURL),
	}, nil
}

// Run consumes events until ctx ends or the channel closes, then waits for
// in-flight jobs to finish their cleanup.
func (d *Dispatcher) Run(ctx context.Context, events <-chan chat.Event) error {
	defer d.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, event)
		}
	}
}

// Wait blocks until every started job has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle routes a single event. Videos are processed asynchronously.
func (d *Dispatcher) Handle(ctx context.Context, event chat.Event) {
	switch {
	case event.Video != nil:
		d.handleVideo(ctx, *event.Video)
	case event.Command != nil:
		d.handleCommand(ctx, *event.Command)
	}
}

func (d *Dispatcher) handleVideo(ctx context.Context, video chat.VideoEvent) {
	if d.requireForwarded && !video.Forwarded {
		d.logger.Debug("ignoring non-forwarded video",
			logging.String(logging.FieldEventType, "video_ignored"),
			logging.Int64("chat_id", video.ChatID),
		)
		return
	}

	ctx = services.WithCorrelationID(ctx, correlationID(video.ChatID, video.MessageID))
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if !d.sem.TryAcquire(1) {
			d.reply(ctx, video.ChatID, video.MessageID, textQueued)
			if err := d.sem.Acquire(ctx, 1); err != nil {
				return
			}
		}
		defer d.sem.Release(1)
		d.processor.Process(ctx, video)
	}()
}

func (d *Dispatcher) handleCommand(ctx context.Context, cmd chat.CommandEvent) {
	ctx = services.WithCorrelationID(ctx, correlationID(cmd.ChatID, cmd.MessageID))
	logger := logging.WithContext(ctx, d.logger).With(logging.String("command", cmd.Command), logging.Int64("user_id", cmd.UserID))
	logger.Debug("command received", logging.String(logging.FieldEventType, "command_received"))

	switch cmd.Command {
	case "start", "help":
		d.start(ctx, cmd)
	case "add":
		d.addLink(ctx, cmd, logger)
	case "list":
		d.listLinks(ctx, cmd, logger)
	}
}

func (d *Dispatcher) start(ctx context.Context, cmd chat.CommandEvent) {
	text := welcomeText(d.ownerURL)
	keyboard := chat.SingleButton("Owner", d.ownerURL)
	if md, ok := d.messenger.(markdownSender); ok {
		if _, err := md.SendMarkdown(ctx, cmd.ChatID, cmd.MessageID, text, keyboard); err != nil {
			d.logSendFailure(err)
		}
		return
	}
	if _, err := d.messenger.SendText(ctx, cmd.ChatID, cmd.MessageID, text, keyboard); err != nil {
		d.logSendFailure(err)
	}
}

func (d *Dispatcher) addLink(ctx context.Context, cmd chat.CommandEvent, logger *slog.Logger) {
	if cmd.Args == "" {
		d.reply(ctx, cmd.ChatID, cmd.MessageID, textAddUsage)
		return
	}
	if _, err := d.links.AddLink(ctx, cmd.UserID, cmd.Args); err != nil {
		if errors.Is(err, records.ErrInvalidLink) {
			d.reply(ctx, cmd.ChatID, cmd.MessageID, textInvalidLink)
			return
		}
		logging.ErrorWithContext(logger, "save link failed", "link_save_failed", logging.Error(err))
		d.reply(ctx, cmd.ChatID, cmd.MessageID, textStoreFailed)
		return
	}
	links, err := d.links.Links(ctx, cmd.UserID)
	if err != nil {
		d.reply(ctx, cmd.ChatID, cmd.MessageID, "Link saved.")
		return
	}
	d.reply(ctx, cmd.ChatID, cmd.MessageID, fmt.Sprintf("Link saved. You have %d saved %s.", len(links), plural(len(links), "link", "links")))
}

func (d *Dispatcher) listLinks(ctx context.Context, cmd chat.CommandEvent, logger *slog.Logger) {
	links, err := d.links.Links(ctx, cmd.UserID)
	if err != nil {
		logging.ErrorWithContext(logger, "list links failed", "link_list_failed", logging.Error(err))
		d.reply(ctx, cmd.ChatID, cmd.MessageID, textStoreFailed)
		return
	}
	d.reply(ctx, cmd.ChatID, cmd.MessageID, formatLinks(links))
}

func correlationID(chatID int64, messageID int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, replyTo int, text string) {
	if _, err := d.messenger.SendText(ctx, chatID, replyTo, text, nil); err != nil {
		d.logSendFailure(err)
	}
}

func (d *Dispatcher) logSendFailure(err error) {
	logging.WarnWithContext(d.logger, "reply failed", "reply_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "user did not receive a reply"),
	)
}
