package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"streamstrip/internal/chat"
	"streamstrip/internal/config"
	"streamstrip/internal/logging"
	"streamstrip/internal/notifications"
	"streamstrip/internal/preflight"
	"streamstrip/internal/progress"
	"streamstrip/internal/records"
	"streamstrip/internal/services"
	"streamstrip/internal/staging"
	"streamstrip/internal/transform"
)

// TransferClient is the chat surface the pipeline needs.
type TransferClient interface {
	chat.Messenger
	Download(ctx context.Context, fileID, dest string, total int64, onProgress chat.ProgressFunc) (int64, error)
	UploadDocument(ctx context.Context, chatID int64, path, caption string) error
}

// Transformer strips audio and subtitle streams from a local file.
type Transformer interface {
	Run(ctx context.Context, input string) (transform.Result, error)
}

// RecordStore persists completion records.
type RecordStore interface {
	Insert(ctx context.Context, rec *records.CompletionRecord) error
}

// Dependencies bundles the collaborators of an Orchestrator.
type Dependencies struct {
	Client      TransferClient
	Transformer Transformer
	Store       RecordStore
	Tracker     *progress.Tracker
	Notifier    notifications.Service
	Logger      *slog.Logger
	// Clock and NewID are optional overrides for tests.
	Clock func() time.Time
	NewID func() string
}

const settleTimeout = 15 * time.Second

// Orchestrator drives jobs through download, verify, transform, upload,
// persist, and cleanup.
type Orchestrator struct {
	client      TransferClient
	transformer Transformer
	store       RecordStore
	tracker     *progress.Tracker
	notifier    notifications.Service
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string

	downloadsDir    string
	downloadTimeout time.Duration
	uploadTimeout   time.Duration
	freeSpaceFactor float64
	keyboard        chat.Keyboard
}

// New builds an orchestrator from config and collaborators.
func New(cfg *config.Config, deps Dependencies) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config is nil")
	}
	if deps.Client == nil || deps.Transformer == nil || deps.Store == nil {
		return nil, errors.New("pipeline: client, transformer, and store are required")
	}
	o := &Orchestrator{
		client:          deps.Client,
		transformer:     deps.Transformer,
		store:           deps.Store,
		tracker:         deps.Tracker,
		notifier:        deps.Notifier,
		logger:          logging.NewComponentLogger(deps.Logger, "pipeline"),
		now:             deps.Clock,
		newID:           deps.NewID,
		downloadsDir:    cfg.Paths.DownloadsDir,
		downloadTimeout: cfg.DownloadTimeout(),
		uploadTimeout:   cfg.UploadTimeout(),
		freeSpaceFactor: cfg.Transfer.FreeSpaceFactor,
		keyboard:        chat.SingleButton("Owner", cfg.Telegram.OwnerURL),
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.tracker == nil {
		o.tracker = progress.NewTracker(deps.Client, cfg.ProgressInterval(),
			progress.WithKeyboard(o.keyboard), progress.WithLogger(deps.Logger))
	}
	if o.notifier == nil {
		o.notifier = notifications.NewService(nil)
	}
	return o, nil
}

// Process runs one job to completion. It never panics and never returns an
// error: failures are reported to the chat, recorded on the job, and followed
// by cleanup of every local file the job created.
func (o *Orchestrator) Process(ctx context.Context, event chat.VideoEvent) (job *Job) {
	job = newJob(o.newID(), event, o.downloadsDir, o.now())
	ctx = services.WithJobID(ctx, job.ID)

	defer o.finish(ctx, job)

	logging.WithContext(ctx, o.logger).Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source_id", job.SourceID),
		logging.String("file_name", job.FileName),
		logging.Int64("declared_bytes", job.ExpectedSize),
		logging.Int64("chat_id", job.ChatID),
	)

	if err := o.run(ctx, job); err != nil {
		o.fail(ctx, job, err)
	}
	return job
}

func (o *Orchestrator) run(ctx context.Context, job *Job) error {
	handle, err := o.client.SendText(ctx, job.ChatID, job.ReplyTo, textStarting, nil)
	if err != nil {
		return services.Wrap(services.ErrTransferLayer, string(StateCreated), "send status", "Could not post status message", err)
	}
	job.Status = handle

	if err := preflight.EnsureFreeSpace(o.downloadsDir, job.ExpectedSize, o.freeSpaceFactor); err != nil {
		return err
	}

	if err := o.download(ctx, job); err != nil {
		return err
	}

	job.transition(StateVerifying)
	if err := verify(job); err != nil {
		return err
	}

	if err := o.transform(ctx, job); err != nil {
		return err
	}

	if err := o.upload(ctx, job); err != nil {
		return err
	}

	job.transition(StatePersisting)
	rec := &records.CompletionRecord{
		JobID:                     job.ID,
		SourceID:                  job.SourceID,
		ChatID:                    job.ChatID,
		FileName:                  job.FileName,
		OriginalSize:              job.ExpectedSize,
		ProcessedSize:             job.ProcessedSize,
		ProcessingDurationSeconds: job.TransformDuration.Seconds(),
		CompletedAt:               o.now(),
	}
	// The user already holds the upload, so shutdown must not skip the record.
	persistCtx, cancel := settleContext(ctx)
	defer cancel()
	if err := o.store.Insert(persistCtx, rec); err != nil {
		return services.Wrap(services.ErrUnexpected, string(StatePersisting), "insert record", "Could not save completion record", err)
	}
	job.Record = rec
	return nil
}

func (o *Orchestrator) download(ctx context.Context, job *Job) error {
	job.transition(StateDownloading)
	stageCtx := services.WithStage(ctx, string(StateDownloading))
	dctx, cancel := withOptionalTimeout(stageCtx, o.downloadTimeout)
	defer cancel()

	sink := o.tracker.Sink(stageCtx, progress.Target{
		Handle:    job.Status,
		StartedAt: job.StartedAt,
		Stage:     string(StateDownloading),
	})
	n, err := o.client.Download(dctx, job.SourceID, job.SourcePath, job.ExpectedSize, sink)
	job.DownloadedBytes = n
	if err != nil {
		return stageError(dctx, ctx, StateDownloading, "download", err)
	}
	logging.WithContext(stageCtx, o.logger).Info("download finished",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.Int64("bytes", n),
		logging.Duration("elapsed", o.now().Sub(job.StartedAt)),
	)
	return nil
}

// verify checks that the bytes received and the file on disk both match the
// declared size. An undeclared size only requires the two to agree.
func verify(job *Job) error {
	info, err := os.Stat(job.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrIncompleteTransfer, string(StateVerifying), "stat download", "Downloaded file missing", err)
	}
	onDisk := info.Size()
	expected := job.ExpectedSize
	if expected <= 0 {
		expected = job.DownloadedBytes
	}
	if expected <= 0 || job.DownloadedBytes != expected || onDisk != expected {
		return services.Wrap(services.ErrIncompleteTransfer, string(StateVerifying), "compare sizes",
			fmt.Sprintf("declared %d bytes, received %d, on disk %d", job.ExpectedSize, job.DownloadedBytes, onDisk), nil)
	}
	return nil
}

func (o *Orchestrator) transform(ctx context.Context, job *Job) error {
	job.transition(StateTransforming)
	stageCtx := services.WithStage(ctx, string(StateTransforming))
	o.editStatus(stageCtx, job, textTransforming)

	job.OutputPath = transform.OutputPath(job.SourcePath)
	start := o.now()
	result, err := o.transformer.Run(stageCtx, job.SourcePath)
	if err != nil {
		return err
	}
	job.OutputPath = result.OutputPath
	job.ProcessedSize = result.OutputSize
	job.TransformDuration = max(o.now().Sub(start), result.Duration)
	return nil
}

func (o *Orchestrator) upload(ctx context.Context, job *Job) error {
	job.transition(StateUploading)
	stageCtx := services.WithStage(ctx, string(StateUploading))
	o.editStatus(stageCtx, job, textUploading)

	uctx, cancel := withOptionalTimeout(stageCtx, o.uploadTimeout)
	defer cancel()
	caption := captionFor(job.ProcessedSize, job.TransformDuration)
	if err := o.client.UploadDocument(uctx, job.ChatID, job.OutputPath, caption); err != nil {
		return stageError(uctx, ctx, StateUploading, "upload document", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, job *Job, err error) {
	if job.State.Terminal() {
		return
	}
	job.FailedIn = job.State
	job.Err = err
	job.transition(StateFailed)

	kind := services.KindOf(err)
	logging.ErrorWithContext(logging.WithContext(ctx, o.logger), "job failed", "job_failed",
		logging.String("failed_in", string(job.FailedIn)),
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
	)
	settle, cancel := settleContext(ctx)
	defer cancel()
	o.editStatus(settle, job, userMessage(job, err))
}

// finish removes local files and settles the job's terminal state. It runs
// for every job, including those that failed or panicked.
func (o *Orchestrator) finish(ctx context.Context, job *Job) {
	if r := recover(); r != nil {
		logging.WithContext(ctx, o.logger).Error("job panicked",
			logging.String(logging.FieldEventType, "job_panic"),
			logging.Any("panic", r),
			logging.String("stack", string(debug.Stack())),
		)
		o.fail(ctx, job, services.Wrap(services.ErrUnexpected, string(job.State), "panic", fmt.Sprint(r), nil))
	}
	ctx, cancel := settleContext(ctx)
	defer cancel()

	succeeded := !job.State.Terminal()
	if succeeded {
		job.transition(StateCleanup)
	}
	o.cleanup(ctx, job)
	o.tracker.Forget(job.Status)

	summary := notifications.JobSummary{
		JobID:         job.ID,
		FileName:      job.FileName,
		OriginalSize:  job.ExpectedSize,
		ProcessedSize: job.ProcessedSize,
		Duration:      job.TransformDuration,
	}
	logger := logging.WithContext(ctx, o.logger)
	if !succeeded {
		if err := o.notifier.NotifyJobFailed(ctx, summary, job.Err); err != nil {
			logger.Debug("failure notification not sent", logging.Error(err))
		}
		return
	}

	job.transition(StateDone)
	o.editStatus(ctx, job, textComplete)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int64("original_bytes", job.ExpectedSize),
		logging.Int64("processed_bytes", job.ProcessedSize),
		logging.Duration("transform_elapsed", job.TransformDuration),
		logging.Duration("total_elapsed", o.now().Sub(job.StartedAt)),
	)
	if err := o.notifier.NotifyJobCompleted(ctx, summary); err != nil {
		logger.Debug("completion notification not sent", logging.Error(err))
	}
}

// cleanup removes the job's files. Calling it more than once is harmless.
func (o *Orchestrator) cleanup(ctx context.Context, job *Job) {
	if err := staging.RemoveFiles(job.SourcePath, job.OutputPath); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "job cleanup incomplete", "job_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `streamstrip sweep` or check downloads_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed until the next sweep"),
		)
	}
}

func (o *Orchestrator) editStatus(ctx context.Context, job *Job, text string) {
	if job.Status.IsZero() {
		return
	}
	if err := o.client.EditText(ctx, job.Status, text, o.keyboard); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "status edit failed", "status_edit_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "chat shows a stale status"),
		)
	}
}

// settleContext detaches from cancellation so the final status edit and
// notification still go out while the bot is shutting down.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// stageError classifies a transfer failure: a stage deadline becomes a
// timeout, anything else a transfer-layer error.
func stageError(stageCtx, parent context.Context, state State, op string, err error) error {
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return services.Wrap(services.ErrTimeout, string(state), op, "stage deadline exceeded", err)
	}
	return services.Wrap(services.ErrTransferLayer, string(state), op, "", err)
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindIncompleteTransfer:
		return "the platform delivered fewer bytes than declared; ask the user to resend"
	case services.KindTransformFailure:
		return "inspect the ffmpeg diagnostic; the input may be corrupt"
	case services.KindTimeout:
		return "raise the matching timeout in [transfer] or [transform]"
	case services.KindInsufficientSpace:
		return "free space on the downloads filesystem"
	case services.KindTransferLayer:
		return "check connectivity to the chat API"
	default:
		return "check logs for details"
	}
}
