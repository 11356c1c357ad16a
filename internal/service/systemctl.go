package service

import (
	"context"
	"os/exec"
	"strings"

	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/logging"
)

// ActiveState mirrors the systemd ActiveState values vdesk cares about.
type ActiveState string

const (
	StateActive   ActiveState = "active"
	StateInactive ActiveState = "inactive"
	StateFailed   ActiveState = "failed"
	StateUnknown  ActiveState = "unknown"
)

// Runner executes a systemctl command and returns its combined output.
// The default implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "systemctl", args...).CombinedOutput()
}

// Systemctl wraps the systemctl operations vdesk performs on its units.
type Systemctl struct {
	runner Runner
	logger *logging.Logger
	dryRun bool
}

// Option configures a Systemctl.
type Option func(*Systemctl)

// WithRunner substitutes the command runner. Used in tests.
func WithRunner(r Runner) Option {
	return func(s *Systemctl) { s.runner = r }
}

// WithDryRun makes state-changing operations log instead of executing.
func WithDryRun(dry bool) Option {
	return func(s *Systemctl) { s.dryRun = dry }
}

// NewSystemctl returns a Systemctl wrapper. Returns
// ErrSystemctlUnavailable when systemctl is not on PATH and no custom
// runner was supplied.
func NewSystemctl(logger *logging.Logger, opts ...Option) (*Systemctl, error) {
	s := &Systemctl{logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		if _, err := exec.LookPath("systemctl"); err != nil {
			return nil, errors.ErrSystemctlUnavailable
		}
		s.runner = execRunner{}
	}
	return s, nil
}

// DaemonReload reloads the systemd manager configuration. Required after
// writing or removing unit files.
func (s *Systemctl) DaemonReload(ctx context.Context) error {
	return s.run(ctx, "daemon-reload")
}

// Enable enables the unit to start at boot.
func (s *Systemctl) Enable(ctx context.Context, unit string) error {
	return s.run(ctx, "enable", unit)
}

// Disable removes the unit from boot startup.
func (s *Systemctl) Disable(ctx context.Context, unit string) error {
	return s.run(ctx, "disable", unit)
}

// Start starts the unit.
func (s *Systemctl) Start(ctx context.Context, unit string) error {
	return s.run(ctx, "start", unit)
}

// Stop stops the unit. A unit that is not loaded counts as stopped.
func (s *Systemctl) Stop(ctx context.Context, unit string) error {
	err := s.run(ctx, "stop", unit)
	if err != nil {
		var svcErr *errors.ServiceError
		if errors.As(err, &svcErr) && strings.Contains(svcErr.Output, "not loaded") {
			return nil
		}
	}
	return err
}

// IsActive reports the unit's ActiveState. systemctl is-active exits
// non-zero for anything but "active", so the exit code is ignored and
// only the printed state is read.
func (s *Systemctl) IsActive(ctx context.Context, unit string) (ActiveState, error) {
	output, _ := s.runner.Run(ctx, "is-active", unit)
	switch state := strings.TrimSpace(string(output)); state {
	case "active":
		return StateActive, nil
	case "inactive":
		return StateInactive, nil
	case "failed":
		return StateFailed, nil
	case "":
		return StateUnknown, errors.NewServiceError("no state reported", errors.ErrServiceNotFound).WithUnit(unit)
	default:
		// activating, deactivating, unknown and friends
		return StateUnknown, nil
	}
}

// IsEnabled reports whether the unit is enabled at boot.
func (s *Systemctl) IsEnabled(ctx context.Context, unit string) (bool, error) {
	output, _ := s.runner.Run(ctx, "is-enabled", unit)
	return strings.TrimSpace(string(output)) == "enabled", nil
}

func (s *Systemctl) run(ctx context.Context, args ...string) error {
	cmdline := "systemctl " + strings.Join(args, " ")

	if s.dryRun {
		s.logger.Info("dry run: would execute", "command", cmdline)
		return nil
	}

	s.logger.Debug("running systemctl", "command", cmdline)
	output, err := s.runner.Run(ctx, args...)
	if err != nil {
		s.logger.Error("systemctl failed", "command", cmdline, "output", string(output), "error", err)
		svcErr := errors.NewServiceError("systemctl "+args[0]+" failed", err).
			WithOutput(strings.TrimSpace(string(output)))
		if len(args) > 1 {
			svcErr = svcErr.WithUnit(args[len(args)-1])
		}
		return svcErr
	}
	return nil
}
