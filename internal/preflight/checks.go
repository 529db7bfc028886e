package preflight

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"streamstrip/internal/config"
	"streamstrip/internal/deps"
	"streamstrip/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeBytes returns the space available to unprivileged users on the
// filesystem holding path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// EnsureFreeSpace fails with services.ErrInsufficientSpace unless the
// filesystem holding dir has at least factor times size bytes free. A
// non-positive factor or size disables the check.
func EnsureFreeSpace(dir string, size int64, factor float64) error {
	if factor <= 0 || size <= 0 {
		return nil
	}
	free, err := FreeBytes(dir)
	if err != nil {
		return services.Wrap(services.ErrUnexpected, "preflight", "statfs", "Could not read free space", err)
	}
	required := uint64(math.Ceil(float64(size) * factor))
	if free < required {
		return services.Wrap(services.ErrInsufficientSpace, "preflight", "free space",
			fmt.Sprintf("need %s, have %s", humanize.IBytes(required), humanize.IBytes(free)), nil)
	}
	return nil
}

// CheckFreeSpaceReport reports free space on the filesystem holding path.
func CheckFreeSpaceReport(name, path string) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: free > 0, Detail: fmt.Sprintf("%s available", humanize.IBytes(free))}
}

// CheckSystemDeps evaluates the external binaries the transform stage needs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Transform.FFmpegBinary,
			Description: "Required to strip audio and subtitle streams",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Transform.FFprobeBinary,
			Description: "Verifies processed output",
			Optional:    !cfg.Transform.ProbeOutput,
			VersionArg:  "-version",
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}
