package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"streamstrip/internal/config"
	"streamstrip/internal/logging"
	"streamstrip/internal/services"
)

const (
	stageName          = "transforming"
	outputPrefix       = "processed_"
	defaultDiagnostic  = 3500
	processWaitDelay   = 5 * time.Second
	defaultFFmpegName  = "ffmpeg"
	defaultFFprobeName = "ffprobe"
)

// ExitError reports a non-zero transcoder exit along with its captured output.
type ExitError struct {
	Code       int
	Diagnostic string
}

func (e *ExitError) Error() string {
	diag := strings.TrimSpace(e.Diagnostic)
	if diag == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.Code)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, diag)
}

// Is lets errors.Is match the transform failure marker.
func (e *ExitError) Is(target error) bool {
	return target == services.ErrTransformFailure
}

// Result describes a successful transform.
type Result struct {
	OutputPath string
	OutputSize int64
	Duration   time.Duration
	Diagnostic string
}

// Runner invokes ffmpeg with a fixed stream-copy argument vector.
type Runner struct {
	binary        string
	probeBinary   string
	probe         bool
	timeout       time.Duration
	maxDiagnostic int
	logger        *slog.Logger
}

// NewRunner builds a runner from the [transform] config section.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	r := &Runner{
		binary:        defaultFFmpegName,
		probeBinary:   defaultFFprobeName,
		maxDiagnostic: defaultDiagnostic,
		logger:        logging.NewComponentLogger(logger, "transform"),
	}
	if cfg == nil {
		return r
	}
	if bin := strings.TrimSpace(cfg.Transform.FFmpegBinary); bin != "" {
		r.binary = bin
	}
	if bin := strings.TrimSpace(cfg.Transform.FFprobeBinary); bin != "" {
		r.probeBinary = bin
	}
	if cfg.Transform.MaxDiagnosticBytes > 0 {
		r.maxDiagnostic = cfg.Transform.MaxDiagnosticBytes
	}
	r.probe = cfg.Transform.ProbeOutput
	r.timeout = cfg.TransformTimeout()
	return r
}

// OutputPath returns the processed file path for input: the same directory
// with a "processed_" prefix on the base name.
func OutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), outputPrefix+filepath.Base(input))
}

// Arguments returns the ffmpeg argument vector that copies the video stream
// and drops audio and subtitle streams.
func Arguments(input, output string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", input,
		"-map", "0:v",
		"-c:v", "copy",
		"-an",
		"-sn",
		output,
	}
}

// Run strips audio and subtitle streams from input. A non-zero exit yields an
// *ExitError; exceeding the configured timeout yields services.ErrTimeout. The
// partial output is removed on any failure.
func (r *Runner) Run(ctx context.Context, input string) (Result, error) {
	if err := validatePath(input); err != nil {
		return Result{}, services.Wrap(services.ErrTransformFailure, stageName, "validate input", "Input path rejected", err)
	}
	info, err := os.Stat(input)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransformFailure, stageName, "stat input", "Input file unavailable", err)
	}
	if !info.Mode().IsRegular() {
		return Result{}, services.Wrap(services.ErrTransformFailure, stageName, "stat input", "Input is not a regular file", nil)
	}
	output := OutputPath(input)

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := Arguments(input, output)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("transform started",
		logging.String(logging.FieldEventType, "transform_start"),
		logging.String("binary", r.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	diag := newTailBuffer(r.maxDiagnostic)
	cmd := exec.CommandContext(runCtx, r.binary, args...)
	cmd.Stdout = diag
	cmd.Stderr = diag
	cmd.WaitDelay = processWaitDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		removePartial(output)
		return Result{}, r.classify(ctx, runCtx, runErr, diag.String(), elapsed)
	}

	outInfo, err := os.Stat(output)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransformFailure, stageName, "stat output", "ffmpeg produced no output file", err)
	}

	if r.probe {
		if err := r.verifyOutput(runCtx, output); err != nil {
			removePartial(output)
			return Result{}, err
		}
	}

	logger.Info("transform completed",
		logging.String(logging.FieldEventType, "transform_complete"),
		logging.Int64("output_bytes", outInfo.Size()),
		logging.Duration("elapsed", elapsed),
	)
	return Result{
		OutputPath: output,
		OutputSize: outInfo.Size(),
		Duration:   elapsed,
		Diagnostic: diag.String(),
	}, nil
}

func (r *Runner) classify(parent, runCtx context.Context, runErr error, diagnostic string, elapsed time.Duration) error {
	logger := logging.WithContext(parent, r.logger)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		logging.ErrorWithContext(logger, "transform timed out", "transform_timeout",
			logging.Duration("timeout", r.timeout),
			logging.String(logging.FieldErrorHint, "raise transform.timeout_seconds for very large inputs"),
		)
		return services.Wrap(services.ErrTimeout, stageName, "ffmpeg", fmt.Sprintf("ffmpeg exceeded %s", r.timeout), runErr)
	}
	if parent.Err() != nil {
		return fmt.Errorf("transform cancelled: %w", parent.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		logging.ErrorWithContext(logger, "transform failed", "transform_failed",
			logging.Int("exit_code", exitErr.ExitCode()),
			logging.Duration("elapsed", elapsed),
			logging.String("diagnostic", diagnostic),
			logging.String(logging.FieldErrorHint, "inspect ffmpeg output; the input may be corrupt or not a video"),
		)
		return &ExitError{Code: exitErr.ExitCode(), Diagnostic: diagnostic}
	}
	return services.Wrap(services.ErrTransformFailure, stageName, "start ffmpeg", fmt.Sprintf("Could not run %q", r.binary), runErr)
}

func (r *Runner) verifyOutput(ctx context.Context, output string) error {
	probe, err := Inspect(ctx, r.probeBinary, output)
	if err != nil {
		return services.Wrap(services.ErrTransformFailure, stageName, "probe output", "ffprobe could not read the output", err)
	}
	if probe.StreamCount("video") == 0 {
		return services.Wrap(services.ErrTransformFailure, stageName, "probe output", "Output has no video stream", nil)
	}
	if n := probe.StreamCount("audio") + probe.StreamCount("subtitle"); n > 0 {
		return services.Wrap(services.ErrTransformFailure, stageName, "probe output", fmt.Sprintf("Output still carries %d audio/subtitle streams", n), nil)
	}
	return nil
}

func validatePath(path string) error {
	switch {
	case path == "":
		return errors.New("empty path")
	case !filepath.IsAbs(path):
		return fmt.Errorf("path %q is not absolute", path)
	case filepath.Clean(path) != path:
		return fmt.Errorf("path %q is not clean", path)
	case strings.HasPrefix(filepath.Base(path), "-"):
		return fmt.Errorf("path %q begins with a dash", path)
	case strings.ContainsRune(path, 0):
		return errors.New("path contains NUL")
	}
	return nil
}

func removePartial(path string) {
	_ = os.Remove(path)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit     int
	buf       []byte
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = defaultDiagnostic
	}
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
		b.truncated = true
	}
	return n, nil
}

func (b *tailBuffer) String() string {
	text := strings.TrimSpace(string(b.buf))
	if b.truncated {
		return "…" + text
	}
	return text
}
