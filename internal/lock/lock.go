// Package lock enforces the single-process-per-database assumption named
// in §5 ("Non-goals ... single process is assumed") with an observable
// advisory lock, instead of leaving it a silent assumption.
package lock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is an advisory file lock held for the lifetime of a backend
// connection to one database path.
type Lock struct {
	flock *flock.Flock
}

// Acquire takes an exclusive, non-blocking lock on <dbPath>.lock. Returns
// ErrBusy-wrapping behavior is the caller's job: Acquire itself reports
// whether the lock was obtained.
func Acquire(dbPath string) (*Lock, bool, error) {
	l := flock.New(dbPath + ".lock")
	locked, err := l.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("lock: acquiring %s.lock: %w", dbPath, err)
	}
	if !locked {
		return nil, false, nil
	}
	return &Lock{flock: l}, true, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
