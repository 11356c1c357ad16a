// Package display implements the display-session lifecycle manager.
//
// A display session is identified by an integer display number and owns a
// set of filesystem artifacts (an X lock file, an X11 socket entry, and
// per-user PID and log files) plus zero or more display-server processes.
// The display server removes its artifacts on clean shutdown; after an
// unclean shutdown they linger and block the next start.
//
// Manager.Reset guarantees a clean slate before a service start: it
// force-kills any display-server process bound to exactly that display
// number, removes the stale artifacts, and waits a bounded settle interval
// for asynchronous process teardown. Absence of a target is success, so
// Reset is idempotent and safe to run speculatively from a systemd
// ExecStartPre hook on every start attempt.
//
// Processes are matched structurally by parsed command-line arguments
// (known server binary names plus an exact ":N" display token), never by
// substring, so a reset of display 1 can never touch display 11.
package display
