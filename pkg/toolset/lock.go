package toolset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const lockRetryDelay = 200 * time.Millisecond

// DirLock serializes repairs of one installation directory, within this process and
// across processes
type DirLock struct {
	m        sync.Mutex
	fileLock *flock.Flock
}

// NewDirLock creates a lock for the installation directory dir. The lock file lives next to it.
func NewDirLock(dir string) *DirLock {
	return &DirLock{
		fileLock: flock.New(filepath.Clean(dir) + ".lock"),
	}
}

// Do runs fn while holding the lock
func (l *DirLock) Do(ctx context.Context, fn func() error) error {
	l.m.Lock()
	defer l.m.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.fileLock.Path()), 0o755); err != nil {
		return errors.Wrap(err, "create lock folder")
	}

	locked, err := l.fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrap(err, "acquire lock")
	} else if !locked {
		return errors.New("installation is locked by another process")
	}
	defer func(fileLock *flock.Flock) {
		_ = fileLock.Unlock()
	}(l.fileLock)

	return fn()
}
