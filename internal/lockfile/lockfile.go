package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	lockFilePermissionsConstant       = 0o644
	lockCreationErrorTemplateConstant = "unable to create lock file %s: %w"
	emptyLockPathMessageConstant      = "lock file path must be provided"
)

var errEmptyLockPath = errors.New(emptyLockPathMessageConstant)

// Lock represents a cross-process mutual-exclusion token backed by a single
// file created with exclusive semantics. The lock is held while the file
// exists; only the filesystem is shared between competing processes.
type Lock struct {
	lockFilePath string
	lockHandle   *os.File
}

// New constructs a Lock for the provided file path without acquiring it.
func New(lockFilePath string) *Lock {
	return &Lock{lockFilePath: lockFilePath}
}

// TryAcquire attempts to create the lock file atomically. It returns true when
// this caller now owns the lock, false when another holder already created the
// file, and an error for any other filesystem failure.
func (lock *Lock) TryAcquire() (bool, error) {
	if len(lock.lockFilePath) == 0 {
		return false, errEmptyLockPath
	}

	lockHandle, openError := os.OpenFile(lock.lockFilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, lockFilePermissionsConstant)
	if openError != nil {
		if errors.Is(openError, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf(lockCreationErrorTemplateConstant, lock.lockFilePath, openError)
	}

	lock.lockHandle = lockHandle
	return true, nil
}

// Held reports whether this Lock instance currently owns the lock file.
func (lock *Lock) Held() bool {
	return lock.lockHandle != nil
}

// Release closes the lock handle and deletes the lock file. Both steps are
// best-effort: release failures leave at worst a stale lock file and must not
// override the outcome of the work the lock protected. Releasing an
// unacquired lock is a no-op.
func (lock *Lock) Release() {
	if lock.lockHandle == nil {
		return
	}

	_ = lock.lockHandle.Close()
	lock.lockHandle = nil
	_ = os.Remove(lock.lockFilePath)
}
