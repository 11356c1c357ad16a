package display

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// Process is a single entry from the process table: a PID and its parsed
// command line.
type Process struct {
	PID  int
	Argv []string
}

// Lister enumerates candidate processes from the process table.
// The production implementation reads /proc; tests supply a fake.
type Lister interface {
	List() ([]Process, error)
}

// Signaler delivers signals to processes.
type Signaler interface {
	// Kill sends SIGKILL to the process.
	Kill(pid int) error
	// Alive reports whether the process still exists.
	Alive(pid int) bool
}

// serverNames are the display-server binaries a reset is allowed to kill.
// Covers the TigerVNC and TightVNC server binaries plus the vncserver
// wrapper script.
var serverNames = map[string]bool{
	"Xvnc":      true,
	"Xtigervnc": true,
	"Xtightvnc": true,
	"Xvnc4":     true,
	"vncserver": true,
}

// Matches reports whether the process is a display server bound to exactly
// the given display number. Both conditions are structural: some argv
// element's basename must be a known server binary (the wrapper script runs
// under an interpreter, so argv[0] alone is not enough), and some argv
// element must equal the ":N" token. Equality, never prefix: ":1" does not
// match ":11".
func (p Process) Matches(display int) bool {
	if len(p.Argv) == 0 {
		return false
	}

	named := false
	for _, arg := range p.Argv {
		if serverNames[filepath.Base(arg)] {
			named = true
			break
		}
	}
	if !named {
		return false
	}

	token := ":" + strconv.Itoa(display)
	for _, arg := range p.Argv[1:] {
		if arg == token {
			return true
		}
	}
	return false
}

// procLister reads the process table from a proc filesystem root.
// The root is a parameter so tests can point it at a fixture tree.
type procLister struct {
	root string
}

// NewProcLister returns a Lister backed by the real /proc.
func NewProcLister() Lister {
	return procLister{root: "/proc"}
}

// List walks the proc root and returns every process whose command line
// could be read. Entries that vanish mid-walk are skipped; a process
// exiting during enumeration is not an error.
func (l procLister) List() ([]Process, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}

	var procs []Process
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue // not a PID directory
		}

		data, err := os.ReadFile(filepath.Join(l.root, entry.Name(), "cmdline"))
		if err != nil || len(data) == 0 {
			continue // process exited, or kernel thread with empty cmdline
		}

		procs = append(procs, Process{PID: pid, Argv: parseCmdline(data)})
	}
	return procs, nil
}

// parseCmdline splits the NUL-separated /proc/<pid>/cmdline format into
// argv. A trailing NUL yields no empty final element.
func parseCmdline(data []byte) []string {
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return nil
	}

	fields := bytes.Split(data, []byte{0})
	argv := make([]string, len(fields))
	for i, f := range fields {
		argv[i] = string(f)
	}
	return argv
}

// sysSignaler delivers real signals via the kernel.
type sysSignaler struct{}

// NewSysSignaler returns a Signaler backed by syscall.Kill.
func NewSysSignaler() Signaler {
	return sysSignaler{}
}

// Kill sends SIGKILL. No graceful shutdown is attempted; the caller has
// already decided the process is stale.
func (sysSignaler) Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

// Alive checks process existence with signal 0, which probes without
// delivering anything.
func (sysSignaler) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
