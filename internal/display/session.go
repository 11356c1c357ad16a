package display

import (
	"fmt"
	"path/filepath"

	"github.com/vdesk-project/vdesk/internal/errors"
)

// DefaultTmpDir is where the X server places lock files and socket entries.
const DefaultTmpDir = "/tmp"

// Session identifies a numbered display session and the locations of its
// filesystem artifacts. All inputs are explicit parameters; nothing is
// read from the process environment at reset time.
type Session struct {
	// Display is the display number (e.g. 1 for ":1"). Must be positive.
	Display int
	// User is the account the display server runs as.
	User string
	// Home is the user's home directory, holding ~/.vnc state.
	Home string
	// TmpDir overrides the X lock/socket directory. Empty means DefaultTmpDir.
	// Overridable so tests never touch the real /tmp.
	TmpDir string
}

// NewSession builds a Session for the given display number, validating
// its inputs.
func NewSession(display int, user, home string) (Session, error) {
	if display <= 0 {
		return Session{}, errors.NewValidationError("display number must be positive").
			WithField("display").
			WithValue(display).
			WithCause(errors.ErrInvalidDisplay)
	}
	if home == "" {
		return Session{}, errors.NewValidationError("home directory must not be empty").
			WithField("home")
	}
	return Session{
		Display: display,
		User:    user,
		Home:    home,
	}, nil
}

// tmpDir returns the effective lock/socket directory.
func (s Session) tmpDir() string {
	if s.TmpDir != "" {
		return s.TmpDir
	}
	return DefaultTmpDir
}

// Token returns the display token as it appears on a server command line,
// e.g. ":1".
func (s Session) Token() string {
	return fmt.Sprintf(":%d", s.Display)
}

// LockFile returns the path of the X lock file for this display,
// e.g. /tmp/.X1-lock.
func (s Session) LockFile() string {
	return filepath.Join(s.tmpDir(), fmt.Sprintf(".X%d-lock", s.Display))
}

// SocketDir returns the X11 socket directory, e.g. /tmp/.X11-unix.
func (s Session) SocketDir() string {
	return filepath.Join(s.tmpDir(), ".X11-unix")
}

// SocketEntry returns the path of the X11 socket directory entry for this
// display, e.g. /tmp/.X11-unix/X1.
func (s Session) SocketEntry() string {
	return filepath.Join(s.SocketDir(), fmt.Sprintf("X%d", s.Display))
}

// PIDFile returns the path of the VNC server's PID marker for this display
// on the given host, e.g. ~/.vnc/myhost:1.pid.
func (s Session) PIDFile(hostname string) string {
	return filepath.Join(s.Home, ".vnc", fmt.Sprintf("%s:%d.pid", hostname, s.Display))
}

// PIDFileGlob returns a glob matching this display's PID marker regardless
// of hostname. The pattern keeps the ":N." suffix exact, so display 1 never
// matches display 11.
func (s Session) PIDFileGlob() string {
	return filepath.Join(s.Home, ".vnc", fmt.Sprintf("*:%d.pid", s.Display))
}

// LogFileGlob returns a glob matching this display's per-session log files,
// e.g. ~/.vnc/myhost:1.log.
func (s Session) LogFileGlob() string {
	return filepath.Join(s.Home, ".vnc", fmt.Sprintf("*:%d.log", s.Display))
}

// String returns a human-readable identifier for the session.
func (s Session) String() string {
	return fmt.Sprintf("display %s (user %s)", s.Token(), s.User)
}
