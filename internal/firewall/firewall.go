// Package firewall manages ufw rules for the VNC and noVNC ports. A
// host without ufw is left alone: operators on other firewalls get a
// warning and wire their own rules.
package firewall

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/logging"
)

// Runner executes a ufw command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "ufw", args...).CombinedOutput()
}

// ErrUfwNotFound indicates ufw is not installed on the host.
var ErrUfwNotFound = errors.New("ufw not found")

// Firewall applies and removes the ufw rules for a vdesk deployment.
type Firewall struct {
	runner Runner
	logger *logging.Logger
	dryRun bool
}

// Option configures a Firewall.
type Option func(*Firewall)

// WithRunner substitutes the command runner. Used in tests.
func WithRunner(r Runner) Option {
	return func(f *Firewall) { f.runner = r }
}

// WithDryRun makes rule changes log instead of executing.
func WithDryRun(dry bool) Option {
	return func(f *Firewall) { f.dryRun = dry }
}

// New returns a Firewall. Returns ErrUfwNotFound when ufw is not on
// PATH and no custom runner was supplied; callers treat that as a
// warning, not a failure.
func New(logger *logging.Logger, opts ...Option) (*Firewall, error) {
	f := &Firewall{logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	if f.runner == nil {
		if _, err := exec.LookPath("ufw"); err != nil {
			return nil, ErrUfwNotFound
		}
		f.runner = execRunner{}
	}
	return f, nil
}

// ports returns the TCP ports the config exposes.
func ports(cfg *config.Config) []int {
	p := []int{cfg.VNCPort()}
	if cfg.NoVNC.Enabled {
		p = append(p, cfg.NoVNC.Port)
	}
	return p
}

// Allow opens the VNC port (and the noVNC port when the bridge is
// enabled). When allow-from CIDRs are configured, one rule per CIDR and
// port is added instead of a blanket allow.
func (f *Firewall) Allow(ctx context.Context, cfg *config.Config) error {
	for _, port := range ports(cfg) {
		if len(cfg.Firewall.AllowFrom) == 0 {
			if err := f.run(ctx, "allow", fmt.Sprintf("%d/tcp", port)); err != nil {
				return err
			}
			continue
		}
		for _, cidr := range cfg.Firewall.AllowFrom {
			err := f.run(ctx, "allow", "from", cidr, "to", "any", "port", fmt.Sprintf("%d", port), "proto", "tcp")
			if err != nil {
				return err
			}
		}
	}
	return f.Reload(ctx)
}

// Deny removes the rules Allow added. Unknown rules are skipped, so
// Deny is safe to run against a host that never had the rules.
func (f *Firewall) Deny(ctx context.Context, cfg *config.Config) error {
	for _, port := range ports(cfg) {
		if len(cfg.Firewall.AllowFrom) == 0 {
			if err := f.run(ctx, "delete", "allow", fmt.Sprintf("%d/tcp", port)); err != nil {
				return err
			}
			continue
		}
		for _, cidr := range cfg.Firewall.AllowFrom {
			err := f.run(ctx, "delete", "allow", "from", cidr, "to", "any", "port", fmt.Sprintf("%d", port), "proto", "tcp")
			if err != nil {
				return err
			}
		}
	}
	return f.Reload(ctx)
}

// Reload reloads the ufw ruleset.
func (f *Firewall) Reload(ctx context.Context) error {
	return f.run(ctx, "reload")
}

func (f *Firewall) run(ctx context.Context, args ...string) error {
	cmdline := "ufw " + strings.Join(args, " ")

	if f.dryRun {
		f.logger.Info("dry run: would execute", "command", cmdline)
		return nil
	}

	f.logger.Debug("running ufw", "command", cmdline)
	output, err := f.runner.Run(ctx, args...)
	if err != nil {
		// ufw delete of a rule that does not exist exits non-zero on
		// some versions; treat it as already removed.
		if args[0] == "delete" && strings.Contains(string(output), "Could not delete non-existent rule") {
			return nil
		}
		f.logger.Error("ufw failed", "command", cmdline, "output", string(output), "error", err)
		return errors.Wrapf(err, "ufw %s failed", args[0])
	}
	return nil
}
