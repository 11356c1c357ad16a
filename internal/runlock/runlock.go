// Package runlock provides an advisory lock that keeps two vdesk
// invocations from reconfiguring the same host at once. The lock is a
// pidfile created exclusively; a lock left behind by a dead process is
// detected and replaced.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/vdesk-project/vdesk/internal/errors"
)

// ErrHeld indicates another live vdesk process holds the lock.
var ErrHeld = errors.New("another vdesk operation is in progress")

// Lock is a held run lock. Release it when the operation finishes.
type Lock struct {
	path string
}

// DefaultPath returns the lock file location.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "vdesk.lock")
}

// Acquire takes the lock at path, writing this process's PID. When the
// file already exists, the recorded PID is probed: a dead holder's lock
// is broken, a live holder's yields ErrHeld.
func Acquire(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, errors.Wrap(errors.Join(werr, cerr), "failed to write lock file")
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, errors.Wrapf(err, "failed to create lock file %s", path)
		}

		pid, perr := readPID(path)
		if perr == nil && processAlive(pid) {
			return nil, errors.Wrapf(ErrHeld, "pid %d holds %s", pid, path)
		}
		// Stale or unreadable lock: break it and retry once
		if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return nil, errors.Wrapf(rerr, "failed to break stale lock %s", path)
		}
	}
	return nil, errors.Wrapf(ErrHeld, "lock %s could not be acquired", path)
}

// Release removes the lock file. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to release lock %s", l.path)
	}
	return nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processAlive probes a PID with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
