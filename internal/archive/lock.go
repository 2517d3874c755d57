package archive

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/hs-ru/pagesync/internal/models"
)

// LockFileName is created in the repository root while a lock is held
const LockFileName = ".pagesync.lock"

// Lock is an exclusive, advisory lock over a repository root
type Lock struct {
	path string
	fl   *flock.Flock
}

// AcquireLock takes the repository lock without waiting. It returns
// ErrLocked when another holder has it.
func AcquireLock(root string) (*Lock, error) {
	lockPath := filepath.Join(root, LockFileName)
	fl := flock.New(lockPath)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", lockPath, models.ErrLocked)
	}
	return &Lock{path: lockPath, fl: fl}, nil
}

// Path returns the lock file path
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the repository
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
