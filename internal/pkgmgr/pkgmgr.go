// Package pkgmgr installs the remote-desktop stack through the host's
// native package manager. It detects apt or dnf on PATH and runs
// non-interactive installs, so it works unattended on Debian/Ubuntu and
// Fedora/RHEL hosts.
package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/logging"
)

// Manager identifies a supported package manager.
type Manager string

const (
	Apt Manager = "apt"
	Dnf Manager = "dnf"
)

// Runner executes a package manager command and returns its combined
// output. The default implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// LookPathFunc resolves a binary on PATH. Matches exec.LookPath.
type LookPathFunc func(file string) (string, error)

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Package installs must never block on debconf prompts.
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	return cmd.CombinedOutput()
}

// Installer drives package installation for a detected manager.
type Installer struct {
	manager  Manager
	runner   Runner
	logger   *logging.Logger
	dryRun   bool
	lookPath LookPathFunc
}

// Option configures an Installer.
type Option func(*Installer)

// WithRunner substitutes the command runner. Used in tests.
func WithRunner(r Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithLookPath substitutes the PATH lookup. Used in tests.
func WithLookPath(fn LookPathFunc) Option {
	return func(i *Installer) { i.lookPath = fn }
}

// WithDryRun makes Install log the commands it would run without
// executing them.
func WithDryRun(dry bool) Option {
	return func(i *Installer) { i.dryRun = dry }
}

// NewInstaller detects the host package manager and returns an Installer
// for it. Returns ErrPackageManagerNotFound when neither apt nor dnf is
// on PATH.
func NewInstaller(logger *logging.Logger, opts ...Option) (*Installer, error) {
	inst := &Installer{
		runner:   execRunner{},
		logger:   logger,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(inst)
	}

	manager, err := detect(inst.lookPath)
	if err != nil {
		return nil, err
	}
	inst.manager = manager
	return inst, nil
}

// detect probes PATH for a supported package manager, preferring apt.
func detect(lookPath LookPathFunc) (Manager, error) {
	for _, m := range []Manager{Apt, Dnf} {
		if _, err := lookPath(string(m)); err == nil {
			return m, nil
		}
	}
	return "", errors.ErrPackageManagerNotFound
}

// Manager returns the detected package manager.
func (i *Installer) Manager() Manager {
	return i.manager
}

// Packages returns the distribution package list for the remote-desktop
// stack. The noVNC bridge packages are included only when requested.
func (i *Installer) Packages(withNoVNC bool) []string {
	var pkgs []string
	switch i.manager {
	case Dnf:
		pkgs = []string{"tigervnc-server", "@xfce-desktop-environment"}
		if withNoVNC {
			pkgs = append(pkgs, "novnc", "python3-websockify")
		}
	default:
		pkgs = []string{"tigervnc-standalone-server", "xfce4", "xfce4-goodies", "dbus-x11"}
		if withNoVNC {
			pkgs = append(pkgs, "novnc", "websockify")
		}
	}
	return pkgs
}

// Refresh updates the package index. A failed refresh is not fatal for
// installs, so callers typically log and continue.
func (i *Installer) Refresh(ctx context.Context) error {
	var args []string
	switch i.manager {
	case Dnf:
		args = []string{"makecache"}
	default:
		args = []string{"update"}
	}
	return i.run(ctx, "refresh package index", args...)
}

// Install installs the given packages non-interactively.
func (i *Installer) Install(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"install", "-y"}, packages...)
	if err := i.run(ctx, "install packages", args...); err != nil {
		var installErr *errors.InstallError
		if errors.As(err, &installErr) {
			return installErr.WithPackages(packages...)
		}
		return err
	}
	return nil
}

func (i *Installer) run(ctx context.Context, what string, args ...string) error {
	cmdline := fmt.Sprintf("%s %s", i.manager, strings.Join(args, " "))

	if i.dryRun {
		i.logger.Info("dry run: would execute", "command", cmdline)
		return nil
	}

	i.logger.Info(what, "command", cmdline)
	output, err := i.runner.Run(ctx, string(i.manager), args...)
	if err != nil {
		i.logger.Error(what+" failed", "command", cmdline, "output", string(output), "error", err)
		return errors.NewInstallError(fmt.Sprintf("%s: %s", what, firstLine(output)), errors.ErrInstallFailed).
			WithManager(string(i.manager))
	}
	return nil
}

// firstLine extracts the leading line of command output for error
// messages, keeping the full output in the log only.
func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if s == "" {
		return "no output"
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
