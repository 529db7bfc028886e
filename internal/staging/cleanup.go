package staging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streamstrip/internal/logging"
)

// SweepResult contains the outcome of a downloads directory sweep.
type SweepResult struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// FileInfo describes a file left in the downloads directory.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// Sweep removes regular files in dir older than minAge (zero removes all).
// Hidden files such as the instance lock are kept.
func Sweep(ctx context.Context, dir string, minAge time.Duration, logger *slog.Logger) SweepResult {
	result := SweepResult{}

	files, err := ListFiles(dir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-minAge)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if minAge > 0 && file.ModTime.After(cutoff) {
			continue
		}
		if err := os.Remove(file.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: file.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove leftover download", "download_sweep_failed",
				logging.String("path", file.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check downloads_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, file.Path)
		result.Bytes += file.Size
		if logger != nil {
			logger.Info("removed leftover download",
				logging.String("path", file.Path),
				logging.Int64("bytes", file.Size),
				logging.Duration("age", time.Since(file.ModTime)),
				logging.String(logging.FieldEventType, "download_sweep"),
			)
		}
	}

	return result
}

// ListFiles returns the regular, non-hidden files in dir. A missing dir is empty.
func ListFiles(dir string) ([]FileInfo, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return files, nil
}

// RemoveFiles deletes each path, ignoring paths that are empty or already
// gone. It is safe to call repeatedly.
func RemoveFiles(paths ...string) error {
	var errs []error
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
