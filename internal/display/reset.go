package display

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/logging"
)

// DefaultSettleInterval is the default bound on the post-kill settle wait.
// Signal delivery and kernel resource release are not synchronous with
// process termination, so a short wait before handing control back to the
// service manager avoids racing the next start against teardown.
const DefaultSettleInterval = 2 * time.Second

// settlePollInterval is how often the settle wait re-checks killed PIDs.
const settlePollInterval = 50 * time.Millisecond

// Manager performs display-session resets. The zero value is not usable;
// construct with NewManager.
type Manager struct {
	lister   Lister
	signaler Signaler
	settle   time.Duration
	hostname string
	logger   *logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSettleInterval overrides the settle interval. Zero disables the
// settle wait entirely.
func WithSettleInterval(d time.Duration) Option {
	return func(m *Manager) { m.settle = d }
}

// WithLister overrides the process table source. Used by tests.
func WithLister(l Lister) Option {
	return func(m *Manager) { m.lister = l }
}

// WithSignaler overrides signal delivery. Used by tests.
func WithSignaler(s Signaler) Option {
	return func(m *Manager) { m.signaler = s }
}

// WithHostname overrides the hostname used to locate the PID marker file.
func WithHostname(hostname string) Option {
	return func(m *Manager) { m.hostname = hostname }
}

// NewManager creates a Manager with production defaults: the real /proc,
// real signals, and the default settle interval. The logger may be nil,
// in which case output is discarded.
func NewManager(logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NopLogger()
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	m := &Manager{
		lister:   NewProcLister(),
		signaler: NewSysSignaler(),
		settle:   DefaultSettleInterval,
		hostname: hostname,
		logger:   logger.WithComponent("display"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset guarantees that no process or filesystem artifact associated with
// the session's display number survives. It is best-effort and not
// transactional:
//
//  1. SIGKILL every process whose parsed command line matches the display.
//  2. Remove the lock file, socket entry, PID marker, and session logs.
//  3. Wait out the settle interval, returning early once all killed
//     processes are gone.
//
// Absence of any target is success: a reset of an already-clean display
// returns nil, so Reset is idempotent and safe to call on every start
// attempt. The only surfaced failures are permission denials on targets
// that positively exist; each denial is recorded and the remaining steps
// still run, since partial cleanup beats none. The joined permission
// errors are returned at the end.
//
// Reset kills without warning. Callers must not invoke it while the
// session is in legitimate use.
func (m *Manager) Reset(ctx context.Context, sess Session) error {
	if sess.Display <= 0 {
		return errors.NewValidationError("display number must be positive").
			WithField("display").
			WithValue(sess.Display).
			WithCause(errors.ErrInvalidDisplay)
	}

	log := m.logger.WithDisplay(sess.Display)
	log.Info("resetting display session", "user", sess.User)

	var permErrs []error

	killed := m.killProcesses(sess, log, &permErrs)
	m.removeArtifacts(sess, log, &permErrs)

	// Settle wait: bounded, returns early when all killed processes are
	// gone. This is a heuristic, not a guarantee: a PID can still be in
	// teardown when the interval expires, and the subsequent start is
	// expected to tolerate that.
	if len(killed) > 0 && m.settle > 0 {
		m.waitSettle(ctx, killed)
	}

	if len(permErrs) > 0 {
		err := errors.NewDisplayError("reset completed with permission errors", errors.Join(permErrs...)).
			WithDisplay(sess.Display)
		log.Warn("reset finished with permission errors", "errors", len(permErrs))
		return err
	}

	log.Info("reset complete", "killed", len(killed))
	return nil
}

// killProcesses SIGKILLs every matching process and returns the PIDs it
// signaled. A process that is already gone (ESRCH) is success; a refused
// signal (EPERM) is recorded and the sweep continues.
func (m *Manager) killProcesses(sess Session, log *logging.Logger, permErrs *[]error) []int {
	procs, err := m.lister.List()
	if err != nil {
		// Process-table introspection failing entirely is swallowed: the
		// artifact removal below is still worth doing, and the service
		// start will report any survivor.
		log.Warn("failed to enumerate processes", "error", err)
		return nil
	}

	var killed []int
	for _, p := range procs {
		if !p.Matches(sess.Display) {
			continue
		}

		err := m.signaler.Kill(p.PID)
		switch {
		case err == nil:
			log.Info("killed stale display server", "pid", p.PID, "argv0", p.Argv[0])
			killed = append(killed, p.PID)
		case errors.Is(err, syscall.ESRCH):
			// Exited between enumeration and kill. Absence is success.
		case errors.Is(err, syscall.EPERM):
			*permErrs = append(*permErrs, errors.NewPermissionError("kill", fmt.Sprintf("pid %d", p.PID), err))
			log.Warn("not permitted to kill process", "pid", p.PID)
		default:
			log.Warn("failed to kill process", "pid", p.PID, "error", err)
		}
	}
	return killed
}

// removeArtifacts deletes the session's filesystem artifacts. Missing
// targets are success; permission denials on existing targets are recorded
// and removal continues with the remaining artifacts.
func (m *Manager) removeArtifacts(sess Session, log *logging.Logger, permErrs *[]error) {
	paths := []string{
		sess.LockFile(),
		sess.SocketEntry(),
		sess.PIDFile(m.hostname),
	}

	// Per-session logs and PID markers from other hostnames.
	for _, pattern := range []string{sess.LogFileGlob(), sess.PIDFileGlob()} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		paths = append(paths, matches...)
	}

	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		err := os.Remove(path)
		switch {
		case err == nil:
			log.Info("removed stale artifact", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			// Nothing to clean. Absence is success.
		case errors.Is(err, fs.ErrPermission):
			*permErrs = append(*permErrs, errors.NewPermissionError("remove", path, err))
			log.Warn("not permitted to remove artifact", "path", path)
		default:
			log.Warn("failed to remove artifact", "path", path, "error", err)
		}
	}
}

// waitSettle polls the killed PIDs until they are all gone, the settle
// interval expires, or the context is canceled.
func (m *Manager) waitSettle(ctx context.Context, pids []int) {
	deadline := time.After(m.settle)
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		if !m.anyAlive(pids) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}

// anyAlive reports whether any of the PIDs still exists.
func (m *Manager) anyAlive(pids []int) bool {
	for _, pid := range pids {
		if m.signaler.Alive(pid) {
			return true
		}
	}
	return false
}
