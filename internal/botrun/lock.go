package botrun

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"streamstrip/internal/config"
)

// ErrAlreadyRunning reports that another process holds the downloads lock.
var ErrAlreadyRunning = errors.New("another streamstrip instance is already running")

// AcquireLock takes the exclusive lock guarding the downloads directory.
// Callers must Unlock the returned lock when done.
func AcquireLock(cfg *config.Config) (*flock.Flock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}
