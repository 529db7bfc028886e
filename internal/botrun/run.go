package botrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"streamstrip/internal/bot"
	"streamstrip/internal/chat"
	"streamstrip/internal/chat/telegram"
	"streamstrip/internal/config"
	"streamstrip/internal/logging"
	"streamstrip/internal/notifications"
	"streamstrip/internal/pipeline"
	"streamstrip/internal/preflight"
	"streamstrip/internal/progress"
	"streamstrip/internal/records"
	"streamstrip/internal/staging"
	"streamstrip/internal/transform"
)

// Options configures the bot process.
type Options struct {
	LogLevel string
	// Logger and Client replace the configured logger and Telegram client.
	Logger *slog.Logger
	Client chat.Client
}

// Run starts the bot and blocks until a signal arrives or the update stream ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := buildLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("session_id", uuid.NewString()))

	lock, err := AcquireLock(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	sweepLeftovers(signalCtx, logger, cfg)
	logDependencySnapshot(signalCtx, logger, cfg)

	store, err := records.Open(cfg)
	if err != nil {
		logger.Error("open record store", logging.Error(err))
		return err
	}
	defer store.Close()

	client := opts.Client
	if client == nil {
		tg, err := telegram.New(telegram.OptionsFromConfig(cfg, logger))
		if err != nil {
			return fmt.Errorf("create telegram client: %w", err)
		}
		logger.Info("authorized telegram bot", logging.String("username", tg.Username()))
		client = tg
	}

	ownerButton := chat.SingleButton("Owner", cfg.Telegram.OwnerURL)
	tracker := progress.NewTracker(client, cfg.ProgressInterval(),
		progress.WithLogger(logger),
		progress.WithKeyboard(ownerButton),
	)
	orchestrator, err := pipeline.New(cfg, pipeline.Dependencies{
		Client:      client,
		Transformer: transform.NewRunner(cfg, logger),
		Store:       store,
		Tracker:     tracker,
		Notifier:    notifications.NewService(cfg),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	dispatcher, err := bot.New(cfg, bot.Dependencies{
		Messenger: client,
		Processor: orchestrator,
		Links:     store,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}

	events, err := client.Updates(signalCtx)
	if err != nil {
		logging.ErrorWithContext(logger, "start update stream failed", "updates_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check bot_token and network access to the Bot API"),
		)
		return fmt.Errorf("start updates: %w", err)
	}

	logger.Info("streamstrip bot started",
		logging.String(logging.FieldEventType, "bot_started"),
		logging.Int("max_concurrent_jobs", cfg.Workers.MaxConcurrentJobs),
		logging.Bool("require_forwarded", cfg.Telegram.RequireForwarded),
	)
	if err := dispatcher.Run(signalCtx, events); err != nil {
		return err
	}
	logger.Info("streamstrip bot shutting down")
	return nil
}

func buildLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	if opts.Logger != nil {
		return opts.Logger, nil
	}
	if opts.LogLevel == "" {
		return logging.NewFromConfig(cfg)
	}
	scoped := *cfg
	scoped.Logging.Level = opts.LogLevel
	return logging.NewFromConfig(&scoped)
}

func sweepLeftovers(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	result := staging.Sweep(ctx, cfg.Paths.DownloadsDir, 0, logger)
	if len(result.Removed) > 0 {
		logger.Info("removed leftover downloads",
			logging.String(logging.FieldEventType, "startup_sweep"),
			logging.Int("files", len(result.Removed)),
			logging.String("reclaimed", humanize.IBytes(uint64(result.Bytes))),
		)
	}
	for _, failure := range result.Errors {
		logging.WarnWithContext(logger, "leftover download not removed", "startup_sweep_failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
			logging.String(logging.FieldErrorHint, "check downloads directory permissions"),
			logging.String(logging.FieldImpact, "stale file occupies disk space"),
		)
	}
}

func logDependencySnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.Bool("owner_url_present", cfg.Telegram.OwnerURL != ""),
	}
	for _, status := range preflight.CheckSystemDeps(ctx, cfg) {
		key := strings.ToLower(status.Name)
		attrs = append(attrs,
			logging.Bool(key+"_available", status.Available),
			logging.String(key+"_version", status.Version),
		)
		if !status.Available && !status.Optional {
			logging.WarnWithContext(logger, "required binary missing", "dependency_missing",
				logging.String("binary", status.Command),
				logging.String(logging.FieldErrorHint, status.Detail),
				logging.String(logging.FieldImpact, "videos will fail in the transform stage"),
			)
		}
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
