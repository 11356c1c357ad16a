package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdesk-project/vdesk/internal/config"
	"github.com/vdesk-project/vdesk/internal/display"
	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/firewall"
	"github.com/vdesk-project/vdesk/internal/runlock"
	"github.com/vdesk-project/vdesk/internal/service"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop the stack and remove its units and firewall rules",
	Long: `Uninstall stops and disables the vdesk units, removes the unit files
and firewall rules, and resets the display session. Installed packages
and user data (including the VNC password) are left in place.`,
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger := newLogger(cfg)
	defer logger.Close()

	lock, err := runlock.Acquire(runlock.DefaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sys, err := service.NewSystemctl(logger)
	if err != nil {
		return err
	}

	for _, unit := range service.Units(cfg) {
		if err := sys.Stop(ctx, unit); err != nil {
			logger.Warn("failed to stop unit, continuing", "unit", unit, "error", err)
		}
		if err := sys.Disable(ctx, unit); err != nil {
			logger.Warn("failed to disable unit, continuing", "unit", unit, "error", err)
		}
	}

	removed, err := service.RemoveUnits(cfg)
	if err != nil {
		return err
	}
	for _, path := range removed {
		fmt.Fprintf(out, "Removed %s\n", path)
	}
	if err := sys.DaemonReload(ctx); err != nil {
		return err
	}

	if cfg.Firewall.Enabled {
		fw, err := firewall.New(logger)
		if err == nil {
			if err := fw.Deny(ctx, cfg); err != nil {
				logger.Warn("failed to remove firewall rules", "error", err)
			}
		} else if !errors.Is(err, firewall.ErrUfwNotFound) {
			return err
		}
	}

	sess, err := sessionFromConfig(cfg)
	if err != nil {
		return err
	}
	manager := display.NewManager(logger,
		display.WithSettleInterval(cfg.Service.SettleInterval()))
	if err := manager.Reset(ctx, sess); err != nil {
		logger.Warn("display reset incomplete", "error", err)
	}

	fmt.Fprintln(out, "Uninstalled. Packages and ~/.vnc data were kept.")
	return nil
}
